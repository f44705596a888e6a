// Package validation contains the structural checks a payment request
// must pass before it is sent to the bank for authorization.
package validation

import (
	"strconv"
	"strings"
	"time"
)

// ValidCardNumber reports whether s looks like a card number: after
// stripping spaces it must be 14 to 19 characters, all decimal digits
// (parseable as a non-negative 64-bit integer).
func ValidCardNumber(s string) bool {
	s = strings.ReplaceAll(s, " ", "")
	if len(s) < 14 || len(s) > 19 {
		return false
	}
	_, err := strconv.ParseUint(s, 10, 64)
	return err == nil
}

// ValidFutureDate reports whether month/year is a calendar month strictly
// after the month of now. A card expiring in the current month is not
// accepted.
func ValidFutureDate(month, year int, now time.Time) bool {
	if month < 1 || month > 12 {
		return false
	}
	if year != now.Year() {
		return year > now.Year()
	}
	return month > int(now.Month())
}

// ValidCurrency reports whether s is a 3-letter currency code. Only the
// length is checked; ISO 4217 membership is left to the bank.
func ValidCurrency(s string) bool {
	return len(s) == 3
}

// ValidCVV reports whether s is a 3 or 4 digit card verification value
// after stripping spaces.
func ValidCVV(s string) bool {
	s = strings.ReplaceAll(s, " ", "")
	if len(s) < 3 || len(s) > 4 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
