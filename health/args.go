package health

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	jsonx "github.com/richinex/healthradar/internal/json"
	"github.com/richinex/healthradar/tools"
)

// Lookback bounds. Out-of-range values fall back to the default.
const (
	DefaultDays  = 30
	MaxDays      = 365
	DefaultWeeks = 12
	MaxWeeks     = 52
)

// ZipArgs are the arguments of the per-location operations.
type ZipArgs struct {
	ZipCode string
	Days    int
}

// DaysArgs carries a lookback in days.
type DaysArgs struct {
	Days int
}

// WeeksArgs carries a lookback in weeks.
type WeeksArgs struct {
	Weeks int
}

var (
	zipPattern     = regexp.MustCompile(`^(\d{5})(?:-\d{4})?$`)
	leadingInteger = regexp.MustCompile(`^\s*(\d+)`)
	keyPattern     = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_ ]*$`)
)

var keyAliases = map[string]string{
	"zip":           "zip_code",
	"zipcode":       "zip_code",
	"zip_code":      "zip_code",
	"location_key":  "zip_code",
	"location":      "zip_code",
	"days":          "days",
	"lookback":      "days",
	"lookback_days": "days",
	"weeks":         "weeks",
}

var lookbackKeys = map[string]bool{"days": true, "weeks": true}

// fields splits an action input into named values. Positional values are
// assigned to the given names in order; key=value, key: value and JSON
// objects are also accepted. Non-numeric words where a lookback belongs,
// such as "nat" in "nat, 12", are skipped.
func fields(input string, positional ...string) (map[string]string, error) {
	out := map[string]string{}

	if jsonx.IsObject(input) {
		obj, err := jsonx.FlatObject(input)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", tools.ErrInvalidInput, err)
		}
		for k, v := range obj {
			out[canonicalKey(k)] = strings.TrimSpace(v)
		}
		return out, nil
	}

	input = strings.TrimSpace(input)
	input = strings.TrimSpace(strings.Trim(input, "`\"'"))
	if input == "" {
		return out, nil
	}
	if strings.HasPrefix(input, "{") {
		return nil, fmt.Errorf("%w: malformed JSON object %q", tools.ErrInvalidInput, input)
	}

	pos := 0
	for _, part := range strings.Split(input, ",") {
		part = strings.TrimSpace(strings.Trim(strings.TrimSpace(part), "`\"'"))
		if part == "" {
			continue
		}
		if key, value, ok := splitPair(part); ok {
			out[canonicalKey(key)] = value
			continue
		}
		for pos < len(positional) && out[positional[pos]] != "" {
			pos++
		}
		if !leadingInteger.MatchString(part) && (pos >= len(positional) || lookbackKeys[positional[pos]]) {
			continue
		}
		if pos >= len(positional) {
			return nil, fmt.Errorf("%w: unexpected extra value %q", tools.ErrInvalidInput, part)
		}
		out[positional[pos]] = part
		pos++
	}
	return out, nil
}

func splitPair(part string) (string, string, bool) {
	i := strings.IndexAny(part, "=:")
	if i <= 0 {
		return "", "", false
	}
	key := strings.TrimSpace(part[:i])
	if !keyPattern.MatchString(key) {
		return "", "", false
	}
	value := strings.TrimSpace(strings.Trim(strings.TrimSpace(part[i+1:]), "`\"'"))
	return key, value, true
}

func canonicalKey(key string) string {
	k := strings.ToLower(strings.TrimSpace(key))
	k = strings.ReplaceAll(k, " ", "_")
	if alias, ok := keyAliases[k]; ok {
		return alias
	}
	return k
}

// normalizeZip validates a 5-digit ZIP code. ZIP+4 is reduced to its prefix.
func normalizeZip(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: zip code is required", tools.ErrInvalidInput)
	}
	m := zipPattern.FindStringSubmatch(raw)
	if m == nil {
		return "", fmt.Errorf("%w: zip code must be 5 digits, got %q", tools.ErrInvalidInput, raw)
	}
	return m[1], nil
}

// lookback reads a leading integer ("7", "7 days") and falls back to def
// when it is missing or outside 1..max.
func lookback(raw string, def, max int) int {
	m := leadingInteger.FindStringSubmatch(raw)
	if m == nil {
		return def
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 || n > max {
		return def
	}
	return n
}

// ParseZipArgs parses "zip_code[,days]".
func ParseZipArgs(input string) (ZipArgs, error) {
	f, err := fields(input, "zip_code", "days")
	if err != nil {
		return ZipArgs{}, err
	}
	zip, err := normalizeZip(f["zip_code"])
	if err != nil {
		return ZipArgs{}, err
	}
	return ZipArgs{ZipCode: zip, Days: lookback(f["days"], DefaultDays, MaxDays)}, nil
}

// ParseDaysArgs parses "[days]".
func ParseDaysArgs(input string) (DaysArgs, error) {
	f, err := fields(input, "days")
	if err != nil {
		return DaysArgs{}, err
	}
	return DaysArgs{Days: lookback(f["days"], DefaultDays, MaxDays)}, nil
}

// ParseWeeksArgs parses "[weeks]".
func ParseWeeksArgs(input string) (WeeksArgs, error) {
	f, err := fields(input, "weeks")
	if err != nil {
		return WeeksArgs{}, err
	}
	return WeeksArgs{Weeks: lookback(f["weeks"], DefaultWeeks, MaxWeeks)}, nil
}
