package result

import (
	"regexp"
	"strings"
)

// secretKeyPattern matches variable/header names that commonly carry
// secrets; their values are redacted before a log line is appended so a
// scenario file's own auth material never lands verbatim in the result
// document's log stream.
var secretKeyPattern = regexp.MustCompile(`(?i)(password|secret|token|api[_-]?key|authorization|auth|credential)`)

// SanitizeMessage redacts `key=value`/`key: value` pairs in message whose
// key looks secret-like, leaving everything else untouched.
func SanitizeMessage(message string) string {
	fields := strings.Fields(message)
	for i, f := range fields {
		for _, sep := range []string{"=", ":"} {
			if idx := strings.Index(f, sep); idx > 0 {
				key := f[:idx]
				if secretKeyPattern.MatchString(key) {
					fields[i] = key + sep + "***REDACTED***"
				}
				break
			}
		}
	}
	return strings.Join(fields, " ")
}

// SanitizeHeaders returns a copy of headers with secret-like header
// values redacted. The engine itself does not call it; the request
// detail in the result document keeps its headers as sent.
func SanitizeHeaders(headers map[string]string) map[string]string {
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		if secretKeyPattern.MatchString(k) {
			out[k] = "***REDACTED***"
			continue
		}
		out[k] = v
	}
	return out
}
