// Package adapters hides the differences between pgxpool.Pool, sql.DB and sqlx.DB behind one DBAdapter.
//
// Every adapter can start a transaction; reads outside a transaction are routed to an optional
// replica when the context asks for eventual consistency.
package adapters
