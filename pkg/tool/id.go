package tool

import "github.com/google/uuid"

func GenerateUUIDV7() string {
	return uuid.Must(uuid.NewV7()).String()
}

// PrefixedID returns a UUIDv7 with a short namespace prefix, for identifiers
// that must be recognizable in logs (e.g. cash transaction ids).
func PrefixedID(prefix string) string {
	return prefix + GenerateUUIDV7()
}
