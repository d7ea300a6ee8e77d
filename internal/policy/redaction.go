// Package policy masks customer PII before text leaves the process or is
// written to logs.
package policy

import (
	"regexp"
	"strings"
	"unicode"
)

type redactionRule struct {
	pattern *regexp.Regexp
	marker  string
	// accept filters raw matches; nil accepts all.
	accept func(string) bool
}

var isoDate = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)

// Rules run in order: VINs and cards before phones, so long digit runs are
// not labelled as phone numbers. Digit runs holding an ISO date are left
// alone by both digit rules.
var rules = []redactionRule{
	{
		pattern: regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`),
		marker:  "[REDACTED_EMAIL]",
	},
	{
		pattern: regexp.MustCompile(`(?i)\b[A-HJ-NPR-Z0-9]{17}\b`),
		marker:  "[REDACTED_VIN]",
		accept:  hasLetterAndDigit,
	},
	{
		pattern: regexp.MustCompile(`\b(?:\d[ -]*?){13,19}\b`),
		marker:  "[REDACTED_CARD]",
		accept:  notDate,
	},
	{
		pattern: regexp.MustCompile(`\+?[0-9][0-9\-() ]{7,}[0-9]`),
		marker:  "[REDACTED_PHONE]",
		accept:  isPhoneNumber,
	},
}

// RedactPII masks emails, VINs, card numbers and phone numbers.
func RedactPII(input string) (redacted string, changed bool) {
	out := input
	for _, r := range rules {
		var next string
		if r.accept == nil {
			next = r.pattern.ReplaceAllString(out, r.marker)
		} else {
			next = r.pattern.ReplaceAllStringFunc(out, func(m string) string {
				if r.accept(m) {
					return r.marker
				}
				return m
			})
		}
		changed = changed || next != out
		out = next
	}
	return out, changed
}

// Redact is RedactPII without the change flag.
func Redact(input string) string {
	out, _ := RedactPII(input)
	return out
}

func hasLetterAndDigit(s string) bool {
	return strings.IndexFunc(s, unicode.IsLetter) >= 0 && strings.IndexFunc(s, unicode.IsDigit) >= 0
}

func notDate(s string) bool {
	return !isoDate.MatchString(s)
}

// isPhoneNumber accepts 10 to 15 digits, the national and E.164 lengths.
func isPhoneNumber(s string) bool {
	if !notDate(s) {
		return false
	}
	digits := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits >= 10 && digits <= 15
}
