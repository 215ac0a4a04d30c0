// Package contact implements the organizer address book: named segments
// and the contacts inside them. Contact emails are unique per segment,
// not globally; bulk imports skip duplicates instead of failing.
package contact
