// Package phone converts user-entered phone strings into the canonical
// international dialing form used by the delivery channels.
package phone

import "strings"

// countryCode is the regional default prepended to bare national numbers.
const countryCode = "91"

// minDeliverableDigits is the only hard validation gate in the pipeline.
// Normalization itself never rejects a number; the dispatcher checks this
// before attempting a channel.
const minDeliverableDigits = 10

// Normalize strips every non-digit character from raw and, when exactly ten
// digits remain, prepends the country calling code. Any other digit count is
// assumed to already carry a country code and passes through unchanged.
//
// This is a heuristic, not validation: malformed numbers come back as
// best-effort digit strings and are never an error.
func Normalize(raw string) string {
	digits := stripNonDigits(raw)
	if len(digits) == minDeliverableDigits {
		return countryCode + digits
	}
	return digits
}

// NormalizeWithPlus returns the normalized number with a leading "+",
// the form the SMS gateway expects as a destination.
func NormalizeWithPlus(raw string) string {
	return "+" + Normalize(raw)
}

// IsDeliverable reports whether a normalized digit string is long enough to
// hand to a delivery channel.
func IsDeliverable(digits string) bool {
	return len(digits) >= minDeliverableDigits
}

func stripNonDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
