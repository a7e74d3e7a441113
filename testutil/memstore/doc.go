// Package memstore is an in-memory store with the same guard semantics as the Postgres engine.
// Handler tests run against it so they do not need a database.
package memstore
