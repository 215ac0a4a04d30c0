// Package analytics assembles read-only rollups: per-campaign outreach
// performance and the organizer-wide dashboard. It aggregates the event
// log, link tokens, and donations; it never writes.
package analytics
