package validate

import (
	"strings"
	"time"
	"unicode"
)

// LengthBetween reports whether len(s) is within [min, max] inclusive.
func LengthBetween(s string, min, max int) bool {
	return len(s) >= min && len(s) <= max
}

// IsDigits reports whether s is non-empty and all ASCII digits.
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// digitsOf strips every non-digit rune.
func digitsOf(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Luhn reports whether the digits of s satisfy the Luhn check. Values with
// fewer than 13 digits are rejected outright; card numbers are never shorter.
func Luhn(s string) bool {
	digits := digitsOf(s)
	if len(digits) < 13 {
		return false
	}
	sum := 0
	parity := (len(digits) - 2) % 2
	for i := 0; i < len(digits)-1; i++ {
		d := int(digits[i] - '0')
		if i%2 == parity {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
	}
	sum += int(digits[len(digits)-1] - '0')
	return sum%10 == 0
}

// IBANChecksum reports whether s passes the ISO 13616 mod-97 check.
// Whitespace is ignored; case is normalized.
func IBANChecksum(s string) bool {
	clean := strings.ToUpper(strings.Join(strings.Fields(s), ""))
	if len(clean) < 15 || len(clean) > 34 {
		return false
	}
	rearranged := clean[4:] + clean[:4]
	rem := 0
	for i := 0; i < len(rearranged); i++ {
		c := rearranged[i]
		switch {
		case c >= '0' && c <= '9':
			rem = (rem*10 + int(c-'0')) % 97
		case c >= 'A' && c <= 'Z':
			v := int(c-'A') + 10
			rem = (rem*100 + v) % 97
		default:
			return false
		}
	}
	return rem == 1
}

// BelgianNRN reports whether the 11-digit national register number carries a
// valid mod-97 check pair. Both pre- and post-2000 encodings are accepted.
func BelgianNRN(s string) bool {
	digits := digitsOf(s)
	if len(digits) != 11 {
		return false
	}
	base := 0
	for i := 0; i < 9; i++ {
		base = base*10 + int(digits[i]-'0')
	}
	check := int(digits[9]-'0')*10 + int(digits[10]-'0')
	if 97-(base%97) == check {
		return true
	}
	// Births from 2000 onward prefix a 2 before the base number.
	return 97-((2000000000+base)%97) == check
}

// DateLike reports whether s parses as an ISO or European calendar date.
func DateLike(s string) bool {
	norm := strings.ReplaceAll(s, "/", "-")
	for _, layout := range []string{"2006-01-02", "02-01-2006"} {
		if _, err := time.Parse(layout, norm); err == nil {
			return true
		}
	}
	return false
}
