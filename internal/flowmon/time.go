package flowmon

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var units = map[string]float64{
	"fs":  1e-6,
	"ps":  1e-3,
	"ns":  1,
	"us":  1e3,
	"ms":  1e6,
	"s":   1e9,
	"min": 60e9,
	"h":   3600e9,
	"d":   86400e9,
	"y":   365 * 86400e9,
}

// ParseTime parses an ns-3 time value such as "+1.5e+09ns", "+20s" or
// "-3.2ms". A value without unit is taken as seconds.
func ParseTime(s string) (time.Duration, error) {
	v := strings.TrimSpace(s)
	end := len(v)
	for end > 0 && isUnitChar(v[end-1]) {
		end--
	}
	number, unit := v[:end], v[end:]
	if unit == "" {
		unit = "s"
	}

	scale, ok := units[unit]
	if !ok {
		return 0, fmt.Errorf("unknown time unit in %q", s)
	}
	f, err := strconv.ParseFloat(strings.TrimPrefix(number, "+"), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid time value %q", s)
	}

	ns := math.Round(f * scale)
	if math.IsNaN(ns) || ns >= math.MaxInt64 || ns < math.MinInt64 {
		return 0, fmt.Errorf("time value %q out of range", s)
	}
	return time.Duration(ns), nil
}

func isUnitChar(c byte) bool {
	return c >= 'a' && c <= 'z'
}
