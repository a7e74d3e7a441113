// Package cache keeps short-lived copies of read models in Redis.
//
// The dashboard numbers are aggregated over every table; a TTL cache in front of the aggregation
// keeps repeated dashboard requests off the database. Cache failures never fail a request:
// the caller falls back to the store.
package cache
