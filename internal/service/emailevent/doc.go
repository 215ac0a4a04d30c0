// Package emailevent implements the append-only email event log.
//
// Every sent/open/click interaction is recorded as its own row; the log is
// insert-only and duplicate opens/clicks are legal. Unique counts are
// derived per contact, either in SQL (COUNT(DISTINCT contact_id)) or via
// the exactly-once uniques table used by the click-tracking endpoint.
package emailevent
