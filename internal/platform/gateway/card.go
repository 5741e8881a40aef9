package gateway

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	cardNumberRe = regexp.MustCompile(`^\d{13,19}$`)
	expiryRe     = regexp.MustCompile(`^\d{2}/\d{2}$`)
	cvvRe        = regexp.MustCompile(`^\d{3,4}$`)
)

func cleanCardNumber(number string) string {
	return strings.NewReplacer(" ", "", "-", "").Replace(number)
}

// ValidateCard performs basic card validation: shape, Luhn checksum, expiry
// (MM/YY) and CVV shape. It never logs or returns the card number.
func ValidateCard(number, expiry, cvv string, now time.Time) error {
	num := cleanCardNumber(number)
	if !cardNumberRe.MatchString(num) {
		return fmt.Errorf("invalid card number")
	}
	if !luhnValid(num) {
		return fmt.Errorf("invalid card number")
	}

	if !expiryRe.MatchString(expiry) {
		return fmt.Errorf("invalid expiry date format (use MM/YY)")
	}
	var month, year int
	fmt.Sscanf(expiry, "%02d/%02d", &month, &year)
	if month < 1 || month > 12 {
		return fmt.Errorf("invalid expiry month")
	}
	curYear := now.Year() % 100
	curMonth := int(now.Month())
	if year < curYear || (year == curYear && month < curMonth) {
		return fmt.Errorf("card has expired")
	}

	if !cvvRe.MatchString(cvv) {
		return fmt.Errorf("invalid cvv")
	}
	return nil
}

func luhnValid(num string) bool {
	sum := 0
	double := false
	for i := len(num) - 1; i >= 0; i-- {
		d := int(num[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// DetectCardBrand maps a card number prefix to its brand.
func DetectCardBrand(number string) string {
	num := cleanCardNumber(number)
	switch {
	case strings.HasPrefix(num, "4"):
		return "visa"
	case len(num) >= 2 && num[0] == '5' && num[1] >= '1' && num[1] <= '5':
		return "mastercard"
	case strings.HasPrefix(num, "34"), strings.HasPrefix(num, "37"):
		return "amex"
	case strings.HasPrefix(num, "6011"), strings.HasPrefix(num, "65"):
		return "discover"
	default:
		return "unknown"
	}
}

// MaskCardNumber keeps only the last four digits.
func MaskCardNumber(number string) string {
	num := cleanCardNumber(number)
	if len(num) < 4 {
		return "****"
	}
	return "****-****-****-" + num[len(num)-4:]
}

func last4(number string) string {
	num := cleanCardNumber(number)
	if len(num) < 4 {
		return num
	}
	return num[len(num)-4:]
}
