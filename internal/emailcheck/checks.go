package emailcheck

import (
	"regexp"
	"strings"
)

// Per-check results are modeled as explicit records so the validator can
// fold them into one EmailValidationResult without untyped maps.

// FormatCheck is the syntactic gate. A failure short-circuits validation.
type FormatCheck struct {
	OK          bool
	Reasoning   string
	Suggestions []string
}

// DomainCheck is the domain-existence heuristic.
type DomainCheck struct {
	Exists    bool
	Reasoning string
}

// MXCheck is the MX-record presence heuristic.
type MXCheck struct {
	HasMX bool
}

// DisposableCheck is the disposable-service membership test.
type DisposableCheck struct {
	Disposable bool
	Provider   string
}

var emailRx = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// reserved TLDs that never resolve; used by the MX stand-in.
var noMXTLDs = map[string]bool{
	"test": true, "invalid": true, "example": true, "localhost": true,
}

func splitEmail(email string) (local, domain string, ok bool) {
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return "", "", false
	}
	return email[:at], email[at+1:], true
}

// checkFormat applies the syntactic rules in order, each failure carrying a
// specific reasoning and zero or more fix-up suggestions.
func checkFormat(email string) FormatCheck {
	if !strings.Contains(email, "@") {
		return FormatCheck{
			Reasoning:   "Email must contain @ symbol",
			Suggestions: []string{"Add @ symbol"},
		}
	}
	if strings.Contains(email, "@.") {
		return FormatCheck{
			Reasoning: "Email domain cannot start with a dot",
		}
	}
	if strings.Contains(email, "..") {
		return FormatCheck{
			Reasoning:   "Email contains consecutive dots",
			Suggestions: []string{"Remove consecutive dots"},
		}
	}
	local, _, ok := splitEmail(email)
	if !ok {
		return FormatCheck{Reasoning: "Email must have a local part and a domain"}
	}
	if strings.HasPrefix(local, ".") || strings.HasSuffix(local, ".") {
		return FormatCheck{
			Reasoning:   "Email local part cannot start or end with a dot",
			Suggestions: []string{"Remove leading or trailing dot"},
		}
	}
	if !emailRx.MatchString(email) {
		return FormatCheck{Reasoning: "Email format is invalid"}
	}
	return FormatCheck{OK: true}
}

// checkDomain is a presence/format heuristic standing in for a DNS lookup.
// Known disposable-domain substrings short-circuit to "exists": the
// provider is real, just unwanted.
func checkDomain(domain string, disposableDomains []string) DomainCheck {
	lower := strings.ToLower(domain)
	for _, d := range disposableDomains {
		if strings.Contains(lower, d) {
			return DomainCheck{Exists: true, Reasoning: "Domain belongs to a disposable email provider"}
		}
	}
	dot := strings.LastIndex(lower, ".")
	if dot <= 0 || len(lower)-dot-1 < 2 {
		return DomainCheck{Exists: false, Reasoning: "Domain does not look resolvable"}
	}
	return DomainCheck{Exists: true}
}

func checkMX(domain string) MXCheck {
	lower := strings.ToLower(domain)
	dot := strings.LastIndex(lower, ".")
	if dot <= 0 {
		return MXCheck{HasMX: false}
	}
	tld := lower[dot+1:]
	return MXCheck{HasMX: !noMXTLDs[tld]}
}

func checkDisposable(domain string, disposableDomains []string) DisposableCheck {
	lower := strings.ToLower(domain)
	for _, d := range disposableDomains {
		if strings.Contains(lower, d) {
			return DisposableCheck{Disposable: true, Provider: d}
		}
	}
	return DisposableCheck{}
}
