package gateway

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var cardTestNow = time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)

func TestValidateCard(t *testing.T) {
	require.NoError(t, ValidateCard("4242 4242 4242 4242", "12/28", "123", cardTestNow))
	require.NoError(t, ValidateCard("5555-5555-5555-4444", "03/26", "999", cardTestNow))

	// Luhn failure
	require.Error(t, ValidateCard("4242424242424241", "12/28", "123", cardTestNow))
	// too short
	require.Error(t, ValidateCard("42424242", "12/28", "123", cardTestNow))
	// expired
	require.Error(t, ValidateCard("4242424242424242", "02/26", "123", cardTestNow))
	// bad expiry format
	require.Error(t, ValidateCard("4242424242424242", "2028-12", "123", cardTestNow))
	// bad month
	require.Error(t, ValidateCard("4242424242424242", "13/28", "123", cardTestNow))
	// bad cvv
	require.Error(t, ValidateCard("4242424242424242", "12/28", "12", cardTestNow))
}

func TestDetectCardBrand(t *testing.T) {
	require.Equal(t, "visa", DetectCardBrand("4242424242424242"))
	require.Equal(t, "mastercard", DetectCardBrand("5555555555554444"))
	require.Equal(t, "amex", DetectCardBrand("378282246310005"))
	require.Equal(t, "discover", DetectCardBrand("6011111111111117"))
	require.Equal(t, "unknown", DetectCardBrand("9999999999999999"))
}

func TestMaskCardNumber(t *testing.T) {
	require.Equal(t, "****-****-****-4242", MaskCardNumber("4242 4242 4242 4242"))
	require.Equal(t, "****", MaskCardNumber("42"))
}
