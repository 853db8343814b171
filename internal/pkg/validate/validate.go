package validate

import "strings"

func Required(value string) bool {
	return strings.TrimSpace(value) != ""
}

func MaxLen(value string, max int) bool {
	return len(strings.TrimSpace(value)) <= max
}
