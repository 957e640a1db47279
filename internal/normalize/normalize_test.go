package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonical(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "empty",
			in:   "",
			want: "",
		},
		{
			name: "lowercases",
			in:   "PO# 10432",
			want: "po# 10432",
		},
		{
			name: "line breaks become spaces",
			in:   "Ship to Store: 436\r\nPO: 10432",
			want: "ship to store: 436 po: 10432",
		},
		{
			name: "strips characters outside the allowed set",
			in:   "Ship to Store: 436 — PO: 10432",
			want: "ship to store: 436 po: 10432",
		},
		{
			name: "keeps hash colon dash dot",
			in:   "PO#: B00911-AZ. Ref 1.2",
			want: "po#: b00911-az. ref 1.2",
		},
		{
			name: "collapses space runs and trims",
			in:   "  ORDER   NO.  994219.   BRANCH 407  ",
			want: "order no. 994219. branch 407",
		},
		{
			name: "whitespace only",
			in:   " \n\r\n ",
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Canonical(tt.in))
		})
	}
}

func TestCanonicalIdempotent(t *testing.T) {
	inputs := []string{
		"PO# 10432, Destination: 999",
		"Ship to Store: 436 — PO: 10432",
		"Distribution Center 712. Ref: PO-V89920091-FTL",
		"weird\ttabs\tand nbsp",
	}
	for _, in := range inputs {
		once := Canonical(in)
		assert.Equal(t, once, Canonical(once), "input %q", in)
	}
}

func TestCanonicalCharset(t *testing.T) {
	out := Canonical("Mixed! Input? With € Symbols & Ümlauts — PO# 94219")
	for _, r := range out {
		ok := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') ||
			r == '#' || r == ':' || r == '-' || r == '.' || r == ' '
		assert.True(t, ok, "unexpected rune %q in %q", r, out)
	}
}
