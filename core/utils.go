package core

import (
	"os"
	"strings"
)

// CleanString trims all leading and trailing white space in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// DBOrdering is a parsed ordering instruction from a list endpoint.
type DBOrdering struct {
	Field     string
	Ascending bool
}

// Getwd returns the working directory; empty on failure.
func Getwd() string {
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return wd
}
