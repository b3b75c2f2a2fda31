// Package record parses and normalizes the raw exception raise data reported
// by signs. A raise file is a single delimited line: exception code, raise
// timestamp, raise value and additional data, separated by "|".
package record

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	partsSeparator        = "|"
	additionalSeparator   = ";"
	nameValueSeparator    = ":"
	expectedFieldCount    = 4
	minBoundTag           = "<MIN>"
	maxBoundTag           = "<MAX>"
	valueTemplateTag      = "<VALUE>"
	timestampLayout       = "2006-01-02T15:04:05"
	timestampMillisLayout = "2006-01-02T15:04:05.999"

	// MaxRaiseValue caps the stored raw value to keep it inside the ledger's
	// decimal column range when a sign reports a runaway reading.
	MaxRaiseValue = 99999.99999
)

// Fields holds the four ordered fields of one raise record, still as strings.
type Fields struct {
	Code           string
	RaiseTimestamp string
	RaiseValue     string
	AdditionalData string
}

// Pair is one name/value entry from the additional data, in file order.
type Pair struct {
	Name  string
	Value string
}

// Bounds holds the optional <MIN>/<MAX> values extracted from additional data.
type Bounds struct {
	Min *float64
	Max *float64
}

// Parse splits raw file content into the four canonical fields. Empty
// segments are kept on the split because an empty additional-data field is
// meaningful on its own. Any other field count is a malformed record.
func Parse(raw string) (Fields, error) {
	parts := strings.Split(raw, partsSeparator)
	if len(parts) != expectedFieldCount {
		return Fields{}, fmt.Errorf("expected %d fields, got %d", expectedFieldCount, len(parts))
	}
	return Fields{
		Code:           parts[0],
		RaiseTimestamp: parts[1],
		RaiseValue:     parts[2],
		AdditionalData: parts[3],
	}, nil
}

// NormalizeValue parses the raise value, rounds it to 5 fractional digits
// (half away from zero) and caps it at MaxRaiseValue. A non-numeric value is
// not an error: some exception codes raise with text values, in which case
// the normalized value is simply absent.
func NormalizeValue(raw string) *float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return nil
	}
	v = Round5(v)
	if v > MaxRaiseValue {
		v = MaxRaiseValue
	}
	return &v
}

// Round5 rounds to 5 fractional digits, half away from zero.
func Round5(v float64) float64 {
	return math.Round(v*1e5) / 1e5
}

// ParseAdditionalData splits the additional data into ordered name/value
// pairs and extracts the recognized <MIN>/<MAX> bounds. Empty segments are
// discarded here, unlike the primary field split. Segments that do not carry
// both a name and a value are skipped entirely.
func ParseAdditionalData(raw string) ([]Pair, Bounds) {
	var pairs []Pair
	var bounds Bounds

	for _, segment := range strings.Split(raw, additionalSeparator) {
		if segment == "" {
			continue
		}
		name, value, ok := strings.Cut(segment, nameValueSeparator)
		if !ok || name == "" || value == "" {
			continue
		}
		pairs = append(pairs, Pair{Name: name, Value: value})

		switch name {
		case minBoundTag:
			if v, err := strconv.ParseFloat(value, 64); err == nil {
				r := Round5(v)
				bounds.Min = &r
			}
		case maxBoundTag:
			if v, err := strconv.ParseFloat(value, 64); err == nil {
				r := Round5(v)
				bounds.Max = &r
			}
		}
	}
	return pairs, bounds
}

// ExpandTemplate produces the human-readable description from a template.
// The <VALUE> tag is replaced with the raw raise value first, then each
// additional-data pair is applied in file order, replacing every literal
// occurrence of its name in the partially expanded text. Replacement is
// deliberately sequential: a later pair can act on text introduced by an
// earlier one, and templates are authored with that ordering in mind.
func ExpandTemplate(template, raiseValue string, pairs []Pair) string {
	expanded := strings.ReplaceAll(template, valueTemplateTag, raiseValue)
	for _, p := range pairs {
		expanded = strings.ReplaceAll(expanded, p.Name, p.Value)
	}
	return expanded
}

// ParseRaiseTimestamp parses the device-local raise timestamp. Signs report
// with or without sub-second precision depending on firmware, so both layouts
// are accepted.
func ParseRaiseTimestamp(raw string) (time.Time, error) {
	layout := timestampLayout
	if strings.Contains(raw, ".") {
		layout = timestampMillisLayout
	}
	ts, err := time.Parse(layout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid raise timestamp %q: %w", raw, err)
	}
	return ts, nil
}

// Clamp returns value adjusted to the nearest boundary when it lies outside
// the configured constraints. Nil boundaries are treated as unbounded.
func Clamp(value float64, min, max *float64) float64 {
	if min != nil && value < *min {
		return *min
	}
	if max != nil && value > *max {
		return *max
	}
	return value
}
