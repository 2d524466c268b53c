// Package postgres implements the service repositories on PostgreSQL via
// database/sql and lib/pq.
package postgres
