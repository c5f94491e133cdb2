package errs

import "strings"

func sanitize(s string) string {
	return strings.ReplaceAll(s, "\n", " ")
}
