// Package outreach implements outreach campaigns: named batches of
// tracked email sends scoped to one funding campaign. The send loop
// creates one link token per recipient, renders and delivers the email,
// and records the sent event; a failed delivery deletes the just-created
// token so orphaned tokens never skew analytics.
package outreach
