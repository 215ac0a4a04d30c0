// Package donation records donations reported by the external payment
// flow and attributes them to the link token the donor arrived through.
// The donations table is the source of truth for raised amounts; the
// per-recipient donated flags are a rebuildable cache on top of it.
package donation
