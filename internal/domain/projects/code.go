package projects

import "regexp"

// CodePattern is the accepted shape of an externally assigned project code.
var CodePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,63}$`)

// ValidCode reports whether code can be stored and looked up again by URL path.
func ValidCode(code string) bool {
	return CodePattern.MatchString(code)
}

// Time series years outside this window are rejected on every write path.
const (
	MinSeriesYear = 1900
	MaxSeriesYear = 2200
)
