package util

import (
	"net/url"
	"strconv"
	"strings"
)

func NotBlank(value string) bool {
	return strings.TrimSpace(value) != ""
}

// QueryFloat reads the first non-blank key from q. ok is false when none of
// the keys is present.
func QueryFloat(q url.Values, keys ...string) (value float64, ok bool, err error) {
	for _, key := range keys {
		raw := q.Get(key)
		if !NotBlank(raw) {
			continue
		}
		value, err = strconv.ParseFloat(strings.TrimSpace(raw), 64)
		return value, true, err
	}
	return 0, false, nil
}

// SplitList splits a comma separated query value, upper-casing each item and
// dropping blanks.
func SplitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if NotBlank(item) {
			out = append(out, strings.ToUpper(strings.TrimSpace(item)))
		}
	}
	return out
}
