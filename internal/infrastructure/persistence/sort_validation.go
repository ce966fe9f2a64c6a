package persistence

import "strings"

// ValidateSortOrder normalizes a sort direction to ASC or DESC.
// Anything other than "asc" (any case) becomes DESC.
func ValidateSortOrder(orderDir string) string {
	if strings.EqualFold(strings.TrimSpace(orderDir), "asc") {
		return "ASC"
	}
	return "DESC"
}
