package parser

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Sex chromosomes are numbered after the 22 autosomes.
const (
	ChromosomeX = 23
	ChromosomeY = 24
)

// cmNumber matches, in order of preference: space grouped digits ("3 400,5"),
// dot grouped digits with a decimal comma ("1.234,5"), comma grouped digits
// ("1,234.5"), and a plain number with either decimal mark.
const cmNumber = `[0-9]{1,3}(?:[ \x{00a0}][0-9]{3})+(?:[.,][0-9]+)?` +
	`|[0-9]{1,3}(?:\.[0-9]{3})+,[0-9]+` +
	`|[0-9]+(?:,[0-9]{3})+(?:\.[0-9]+)?` +
	`|[0-9]+(?:[.,][0-9]+)?`

var (
	// A number written before "cM", e.g. "0.5% (35.4 cM)" or "12,0cM".
	cmSuffixRegex = regexp.MustCompile(`(` + cmNumber + `)\s*cM`)
	// A number written after "cM", e.g. "cM: 35.4" or "(cM 12)".
	cmPrefixRegex = regexp.MustCompile(`cM\s*[:=]?\s*\(?\s*(` + cmNumber + `)`)

	thousandsRegex  = regexp.MustCompile(`^[0-9]{1,3}(?:,[0-9]{3})+(?:\.[0-9]+)?$`)
	spaceGroupRegex = regexp.MustCompile(`^[0-9]{1,3}(?:[ \x{00a0}][0-9]{3})+(?:[.,][0-9]+)?$`)
	dotGroupRegex   = regexp.MustCompile(`^[0-9]{1,3}(?:\.[0-9]{3})+,[0-9]+$`)
)

// NormalizeChromosome maps a chromosome label onto 1..24. X is 23 and Y is 24.
// The second result is false for anything else.
func NormalizeChromosome(raw string) (int, bool) {
	s := strings.TrimSpace(raw)
	switch s {
	case "X", "x":
		return ChromosomeX, true
	case "Y", "y":
		return ChromosomeY, true
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		// Spreadsheets like to write "7.0".
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != math.Trunc(f) {
			return 0, false
		}
		n = int(f)
	}
	if n < 1 || n > ChromosomeY {
		return 0, false
	}
	return n, true
}

// ExtractCM returns a centimorgan value from a cell. Numbers are returned
// unchanged. Text is searched for the first number attached to "cM".
// Anything without such a number yields 0.
func ExtractCM(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case float32:
		return float64(x)
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case string:
		f, _ := ParseCM(x)
		return f
	}
	return 0
}

// ParseCM is ExtractCM for text cells. ok is false when no number was found,
// which ExtractCM reports as 0.
func ParseCM(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	if f, ok := parseNumber(s); ok {
		return f, true
	}

	token := ""
	start := -1
	if m := cmSuffixRegex.FindStringSubmatchIndex(s); m != nil {
		token, start = s[m[2]:m[3]], m[0]
	}
	if m := cmPrefixRegex.FindStringSubmatchIndex(s); m != nil && (start < 0 || m[0] < start) {
		token = s[m[2]:m[3]]
	}
	if token == "" {
		return 0, false
	}
	return parseNumber(token)
}

// parseNumber accepts "35.4", "35,4", "1,234.5", "1.234,5" and "3 400,5".
func parseNumber(s string) (float64, bool) {
	if spaceGroupRegex.MatchString(s) {
		s = strings.NewReplacer(" ", "", "\u00a0", "").Replace(s)
	}
	switch {
	case dotGroupRegex.MatchString(s):
		s = strings.Replace(strings.ReplaceAll(s, ".", ""), ",", ".", 1)
	case thousandsRegex.MatchString(s):
		s = strings.ReplaceAll(s, ",", "")
	case strings.Count(s, ",") == 1 && !strings.Contains(s, "."):
		s = strings.Replace(s, ",", ".", 1)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ParseLocation parses a base-pair offset. Exports sometimes group digits.
// Negative offsets and values beyond int64 are rejected.
func ParseLocation(raw string) (int64, bool) {
	s := strings.TrimSpace(raw)
	s = strings.NewReplacer(",", "", " ", "", "\u00a0", "", "_", "").Replace(s)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, n >= 0
	}
	f, err := strconv.ParseFloat(s, 64)
	// float64(math.MaxInt64) rounds up to 2^63, which int64 cannot hold.
	if err != nil || f != math.Trunc(f) || f < 0 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

// ParseCount parses a segment count cell.
func ParseCount(raw string) (int, bool) {
	n, ok := ParseLocation(raw)
	if !ok || n < 0 {
		return 0, false
	}
	return int(n), true
}
