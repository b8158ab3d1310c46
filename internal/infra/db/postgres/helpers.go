package postgres

import (
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/bryanwahyu/carbon-validator/internal/domain/projects"
)

// stringOrDash returns "-" when the input is empty/whitespace
func stringOrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

// dashToEmpty reverses stringOrDash on read.
func dashToEmpty(s string) string {
	if s == "-" {
		return ""
	}
	return s
}

func nullString(s string) sql.NullString {
	if strings.TrimSpace(s) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func coordinateArgs(c *projects.Coordinates) (sql.NullFloat64, sql.NullFloat64) {
	if c == nil {
		return sql.NullFloat64{}, sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: c.Lat, Valid: true}, sql.NullFloat64{Float64: c.Lng, Valid: true}
}

func coordinates(lat, lng sql.NullFloat64) *projects.Coordinates {
	if !lat.Valid || !lng.Valid {
		return nil
	}
	return &projects.Coordinates{Lat: lat.Float64, Lng: lng.Float64}
}

func encodeRecommendations(r []projects.Recommendation) (string, error) {
	if r == nil {
		r = []projects.Recommendation{}
	}
	b, err := json.Marshal(r)
	return string(b), err
}

func decodeRecommendations(s string) ([]projects.Recommendation, error) {
	out := []projects.Recommendation{}
	if strings.TrimSpace(s) == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// statements splits a schema file on ";" at line ends. The driver runs one
// statement per Exec.
func statements(src string) []string {
	var out []string
	for _, part := range strings.Split(src, ";\n") {
		if s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(part), ";")); s != "" {
			out = append(out, s)
		}
	}
	return out
}
