package chart

import (
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// ToFloat coerces a cell to a number. Numbers are used as-is, strings are
// parsed after removing thousands separators, and anything else is 0.
// NaN and the infinities are also 0 so the figure stays JSON-encodable.
func ToFloat(v gjson.Result) float64 {
	var f float64
	switch v.Type {
	case gjson.Number:
		f = v.Num
	case gjson.String:
		var err error
		f, err = strconv.ParseFloat(strings.TrimSpace(strings.ReplaceAll(v.Str, ",", "")), 64)
		if err != nil {
			return 0
		}
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// label renders a cell as a category label.
func label(v gjson.Result) string {
	return v.String()
}
