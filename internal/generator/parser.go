package generator

import (
	"strings"
)

const (
	DefaultGeneralSubject  = "Quick question about your business"
	DefaultSpecificSubject = "Improve your business operations"

	failedBody      = "Email generation failed"
	rawBodyFallback = 500
	subjectMarker   = "SUBJECT:"
	bodyMarker      = "BODY:"
)

// ParseResponse splits model output into subject and body. It tries, in order:
// SUBJECT:/BODY: marker lines, a single split on "BODY:", then first line vs. the rest.
// It never fails; defaultSubject fills in a missing subject.
func ParseResponse(text, defaultSubject string) (subject, body string) {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	for i, line := range lines {
		if strings.HasPrefix(line, subjectMarker) {
			subject = strings.TrimSpace(strings.ReplaceAll(line, subjectMarker, ""))
		} else if strings.HasPrefix(line, bodyMarker) {
			body = strings.TrimSpace(strings.Join(lines[i+1:], "\n"))
			break
		}
	}

	if subject == "" || body == "" {
		if parts := strings.Split(text, bodyMarker); len(parts) == 2 {
			subject = strings.TrimSpace(strings.ReplaceAll(parts[0], subjectMarker, ""))
			body = strings.TrimSpace(parts[1])
		} else {
			first := strings.SplitN(strings.TrimSpace(text), "\n", 2)
			subject = strings.TrimSpace(strings.ReplaceAll(first[0], subjectMarker, ""))
			if len(first) > 1 {
				body = strings.TrimSpace(first[1])
			} else {
				body = text
			}
		}
	}

	if body == "" {
		body = failedBody
		if text != "" {
			body = truncateRunes(text, rawBodyFallback)
		}
		return defaultSubject, body
	}
	if subject == "" {
		subject = defaultSubject
	}
	return subject, body
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
