// Package linktoken implements the per-recipient tracking token store.
//
// A link token is created for every outreach send (and for public share
// links) and carries the UTM parameters, prefill amount, and personalized
// message that the click-tracking redirect attaches to the campaign URL.
// Tokens are never deleted except as compensation when an email send fails
// right after token creation.
//
// Repository implementations live in repository/postgres/.
package linktoken
