package xmlresp

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/bryanwahyu/carbon-validator/internal/domain/ai"
)

func coerce(f Field, path, text string) (any, error) {
	switch f.Type {
	case TypeInt:
		n, err := strconv.Atoi(strings.TrimSpace(text))
		if err != nil {
			return nil, ai.TypeCoercion(path, text, "not an integer")
		}
		if err := checkRange(f, path, text, float64(n)); err != nil {
			return nil, err
		}
		return n, nil
	case TypeFloat:
		v, err := parseNumber(text)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, ai.TypeCoercion(path, text, "not a number")
		}
		if err := checkRange(f, path, text, v); err != nil {
			return nil, err
		}
		return v, nil
	case TypeDate:
		d, err := parseDate(text)
		if err != nil {
			return nil, ai.TypeCoercion(path, text, "not a calendar date")
		}
		return d, nil
	case TypeCoordinates:
		c, err := parseCoordinates(text)
		if err != nil {
			return nil, ai.TypeCoercion(path, text, err.Error())
		}
		return c, nil
	}

	if len(f.Enum) > 0 {
		for _, e := range f.Enum {
			if strings.EqualFold(e, text) {
				return e, nil
			}
		}
		return nil, ai.TypeCoercion(path, text, "want one of "+strings.Join(f.Enum, ", "))
	}
	if f.Pattern != nil && !f.Pattern.MatchString(text) {
		return nil, ai.TypeCoercion(path, text, "does not match "+f.Pattern.String())
	}
	return text, nil
}

func checkRange(f Field, path, text string, v float64) error {
	if f.Range == nil {
		return nil
	}
	if f.Range.Max == math.MaxFloat64 && v < f.Range.Min {
		return ai.TypeCoercion(path, text, fmt.Sprintf("must be at least %g", f.Range.Min))
	}
	if v < f.Range.Min || v > f.Range.Max {
		return ai.TypeCoercion(path, text, fmt.Sprintf("out of range [%g, %g]", f.Range.Min, f.Range.Max))
	}
	return nil
}

// parseNumber accepts thousands separators ("10,000").
func parseNumber(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	return strconv.ParseFloat(s, 64)
}

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006-1-2",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
	"2006-01",
	"January 2006",
	"Jan 2006",
	"2006",
}

// parseDate normalizes a calendar date to YYYY-MM-DD. Partial dates take the first day.
func parseDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), nil
		}
	}
	return "", fmt.Errorf("unrecognized date %q", s)
}

// parseCoordinates reads "[lat, lng]", "(lat, lng)", "lat, lng" or "lat lng".
func parseCoordinates(s string) ([2]float64, error) {
	s = strings.Trim(strings.TrimSpace(s), "[]()")
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' || r == ' ' || r == '\t' })
	if len(parts) != 2 {
		return [2]float64{}, fmt.Errorf("want a [latitude, longitude] pair")
	}
	lat, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return [2]float64{}, fmt.Errorf("latitude is not a number")
	}
	lng, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return [2]float64{}, fmt.Errorf("longitude is not a number")
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return [2]float64{}, fmt.Errorf("coordinates out of range")
	}
	return [2]float64{lat, lng}, nil
}
