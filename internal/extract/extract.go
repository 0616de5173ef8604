package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// Keywords that must both appear before any rule is tried.
const (
	KeywordCashTomorrow = "نقد فردا"
	KeywordSell         = "فروش"
)

// rule is one phrasing of the sell quote; group is the capture holding the number.
type rule struct {
	name  string
	re    *regexp.Regexp
	group int
}

// rules are tried in order. Most specific phrasing first; do not reorder.
var rules = []rule{
	{"cash-tomorrow-colon-sell-toman", regexp.MustCompile(`(?is)نقد\s*فردا\s*:\s*فروش\s*([\d,]+)\s*تومان`), 1},
	{"sell-cash-tomorrow-colon", regexp.MustCompile(`(?is)فروش\s*نقد\s*فردا\s*:\s*([\d,]+)`), 1},
	{"cash-tomorrow-then-sell", regexp.MustCompile(`(?is)نقد\s*فردا.*?فروش.*?([\d,]+)`), 1},
	{"at-price-then-cash-tomorrow", regexp.MustCompile(`(?is)با\s*قیمت\s*([\d,]+).*?نقد\s*فردا`), 1},
	{"per-mesghal-then-cash-tomorrow", regexp.MustCompile(`(?is)هر\s*مثقال.*?([\d,]+).*?نقد\s*فردا`), 1},
	{"sell-colon-then-cash-tomorrow", regexp.MustCompile(`(?is)فروش\s*:\s*([\d,]+).*?نقد\s*فردا`), 1},
}

// Extract returns the sell price quoted in text, or false when the post carries none.
func Extract(text string) (int64, bool) {
	price, _, ok := Match(text)
	return price, ok
}

// Match is Extract that also reports which rule matched.
func Match(text string) (price int64, ruleName string, ok bool) {
	if text == "" {
		return 0, "", false
	}

	text = Normalize(text)

	if !strings.Contains(text, KeywordCashTomorrow) || !strings.Contains(text, KeywordSell) {
		return 0, "", false
	}

	for _, r := range rules {
		m := r.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		v, err := parseGrouped(m[r.group])
		if err != nil {
			continue
		}
		return v, r.name, true
	}

	return 0, "", false
}

// parseGrouped parses a number written with ',' thousands separators.
func parseGrouped(s string) (int64, error) {
	return strconv.ParseInt(strings.ReplaceAll(s, ",", ""), 10, 64)
}
