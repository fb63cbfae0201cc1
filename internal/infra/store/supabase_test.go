package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeFilterTerm(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Priya", "Priya"},
		{"98765 43210", "98765 43210"},
		{"  Priya Sharma ", "Priya Sharma"},
		{"Sharma, Priya", "Sharma Priya"},
		{"a)or(status.eq.sent", "aorstatus.eq.sent"},
		{`"quoted"`, "quoted"},
		{"wild*card", "wildcard"},
		{"back\\slash", "backslash"},
		{"*,()\"\\", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, sanitizeFilterTerm(tc.in), "input %q", tc.in)
	}
}
