package domain

import "strings"

// NormalizeHumanName trims leading/trailing whitespace and collapses internal whitespace runs.
// It is used for client first/last name normalization.
func NormalizeHumanName(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeNationalID strips all whitespace from a national identifier.
func NormalizeNationalID(s string) string {
	return strings.Join(strings.Fields(s), "")
}
