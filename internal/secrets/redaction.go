package secrets

import (
	"regexp"
)

// Replacement is substituted for every redacted credential
const Replacement = "[REDACTED]"

type rule struct {
	pattern *regexp.Regexp
	repl    string
}

// Redactor masks credentials in strings before they reach logs or output
type Redactor struct {
	rules []rule
}

var defaultRules = []rule{
	// URL userinfo passwords: postgres://user:pw@host, redis://:pw@host
	{regexp.MustCompile(`([a-zA-Z][a-zA-Z0-9+.-]*://[^:/@\s]*):[^@\s]+@`), "${1}:" + Replacement + "@"},
	// key=value and key: value credentials, including libpq keyword DSNs
	{regexp.MustCompile(`(?i)\b(password|pwd|api[_-]?key|token|secret)(\s*[:=]\s*)[^\s&"',}]+`), "${1}${2}" + Replacement},
	{regexp.MustCompile(`(?i)\bbearer\s+[a-zA-Z0-9\-._~+/]+=*`), "Bearer " + Replacement},
}

// NewRedactor creates a redactor with the default credential patterns. Each
// non-empty literal is also masked wherever it appears verbatim.
func NewRedactor(literals ...string) *Redactor {
	r := &Redactor{rules: append([]rule(nil), defaultRules...)}
	for _, lit := range literals {
		if lit == "" {
			continue
		}
		r.rules = append(r.rules, rule{regexp.MustCompile(regexp.QuoteMeta(lit)), Replacement})
	}
	return r
}

// RedactString masks every credential in input
func (r *Redactor) RedactString(input string) string {
	for _, rl := range r.rules {
		input = rl.pattern.ReplaceAllString(input, rl.repl)
	}
	return input
}

var defaultRedactor = NewRedactor()

// RedactDSN masks the password of a URL or keyword/value connection string
// while keeping user, host and database visible
func RedactDSN(dsn string) string {
	return defaultRedactor.RedactString(dsn)
}
