package vin

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Length is the number of characters in a complete VIN.
const Length = 17

// InvalidIdentifierError reports input that did not reduce to a complete VIN.
type InvalidIdentifierError struct {
	Length int
}

func (e *InvalidIdentifierError) Error() string {
	return fmt.Sprintf("identifier must be %d characters, got %d", Length, e.Length)
}

// isAlphabet reports whether r belongs to the VIN alphabet. The letters
// I, O, and Q are excluded by the check-digit convention.
func isAlphabet(r rune) bool {
	switch {
	case r >= '0' && r <= '9':
		return true
	case r < 'A' || r > 'Z':
		return false
	case r == 'I' || r == 'O' || r == 'Q':
		return false
	}
	return true
}

// Normalize uppercases the input and strips every character outside the VIN
// alphabet. Recognition output is NFKC-normalized first so full-width forms
// common in OCR text collapse to their ASCII equivalents.
func Normalize(raw string) string {
	folded := strings.ToUpper(norm.NFKC.String(raw))
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if isAlphabet(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ParseSingle reduces raw input to exactly one VIN. Punctuation, whitespace,
// and out-of-alphabet characters are discarded; the survivors must number
// exactly 17 or an InvalidIdentifierError carrying the stripped length is
// returned.
func ParseSingle(raw string) (string, error) {
	stripped := Normalize(raw)
	if n := len(stripped); n != Length {
		return "", &InvalidIdentifierError{Length: n}
	}
	return stripped, nil
}
