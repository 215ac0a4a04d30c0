package logger

import "strings"

// RedactEmail masks the local part of an address so donor and contact
// emails never reach the logs verbatim. The first two characters survive
// when the local part is long enough to stay recognizable:
// "donor.jane@example.com" becomes "do***@example.com".
func RedactEmail(addr string) string {
	at := strings.LastIndex(addr, "@")
	if at < 0 || at == len(addr)-1 {
		return "***@***"
	}
	local, host := addr[:at], addr[at+1:]
	if len(local) <= 2 {
		return "***@" + host
	}
	return local[:2] + "***@" + host
}
