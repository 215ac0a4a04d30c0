// Package postgres implements the service repository interfaces against
// PostgreSQL via database/sql and lib/pq. Ownership checks live in the
// queries themselves; a row the organizer does not own scans as no row.
package postgres
