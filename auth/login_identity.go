package auth

import (
	"regexp"
	"strings"
)

// fallbackLocalPart is used when a username normalises to nothing.
const fallbackLocalPart = "user"

var invalidIdentityRuns = regexp.MustCompile(`[^a-z0-9._-]+`)

// DeriveLoginIdentity maps a human-entered username to the canonical identity
// string the credential service is addressed by: lowercased, runs of
// characters outside [a-z0-9._-] collapsed to a single ".", leading and
// trailing dots trimmed, with a fixed local domain appended. Pure function,
// no failure mode.
func DeriveLoginIdentity(username, domain string) string {
	local := strings.ToLower(username)
	local = invalidIdentityRuns.ReplaceAllString(local, ".")
	local = strings.Trim(local, ".")
	if local == "" {
		local = fallbackLocalPart
	}
	return local + "@" + domain
}
