package logger

import (
	"net/url"
	"strings"
)

// SanitizedEmail masks an email address for logging (e.g., "u***@***.com")
func SanitizedEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return "[invalid-email]"
	}

	username := parts[0]
	domain := parts[1]

	// Mask username: keep first char, mask rest
	if len(username) > 1 {
		username = string(username[0]) + strings.Repeat("*", len(username)-1)
	}

	// Mask all but the TLD
	domainParts := strings.Split(domain, ".")
	if len(domainParts) > 1 {
		for i := 0; i < len(domainParts)-1; i++ {
			domainParts[i] = strings.Repeat("*", len(domainParts[i]))
		}
		domain = strings.Join(domainParts, ".")
	}

	return username + "@" + domain
}

var sensitiveParams = map[string]bool{
	"token":  true,
	"secret": true,
	"code":   true,
	"email":  true,
	"auth":   true,
}

// sensitiveFilterFields are user fields whose filter values identify a person.
var sensitiveFilterFields = map[string]bool{
	"email":         true,
	"walletaddress": true,
	"verification":  true,
}

// SanitizeQueryString reports whether the query string should be redacted
// from request logs. It is redacted when it carries a sensitive parameter or
// filters on a field that identifies a person.
func SanitizeQueryString(rawQuery string) bool {
	if rawQuery == "" {
		return false
	}

	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return true
	}

	for key, vals := range values {
		if sensitiveParams[strings.ToLower(key)] {
			return true
		}
		if key != "filterId" {
			continue
		}
		for _, field := range vals {
			if sensitiveFilterFields[strings.ToLower(field)] {
				return true
			}
		}
	}
	return false
}
