package model

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// FormatRupiah renders an amount the way id-ID currency formatting does,
// e.g. 1250000 -> "Rp 1.250.000".
func FormatRupiah(amount decimal.Decimal) string {
	digits := amount.Abs().Round(0).StringFixed(0)

	var b strings.Builder
	if amount.Round(0).IsNegative() {
		b.WriteString("-")
	}
	b.WriteString("Rp ")
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

var (
	startPrefixRe = regexp.MustCompile(`(?i)^Mulai\s+`)
	timezoneRe    = regexp.MustCompile(`(?i)\b(WIB|WITA|WIT)\b`)
	extraInfoRe   = regexp.MustCompile(`\s*\(([^)]+)\)\s*$`)
	clockRe       = regexp.MustCompile(`\d{1,2}:\d{2}`)
	rangeSplitRe  = regexp.MustCompile(`\s+-\s+`)
)

// FormatEventTime normalises a free-form time display such as
// "Mulai 19:00 WIB" or "09:00 - 17:00 WITA (Open Gate 08:00)" into
// "start - end TZ (extra)". An open-ended start becomes "start - Selesai".
// Strings that do not look like a time are returned unchanged.
func FormatEventTime(display string) string {
	if strings.TrimSpace(display) == "" {
		return "Informasi waktu tidak tersedia"
	}

	s := strings.TrimSpace(startPrefixRe.ReplaceAllString(display, ""))

	tz := ""
	// Only the first zone marker is lifted out; later ones stay in the text.
	if loc := timezoneRe.FindStringIndex(s); loc != nil {
		tz = " " + strings.ToUpper(s[loc[0]:loc[1]])
		s = strings.TrimSpace(s[:loc[0]] + s[loc[1]:])
	}

	extra := ""
	if m := extraInfoRe.FindStringSubmatch(s); m != nil {
		extra = " (" + strings.TrimSpace(m[1]) + ")"
		s = strings.TrimSpace(extraInfoRe.ReplaceAllString(s, ""))
	}

	if strings.Contains(s, " - ") {
		parts := rangeSplitRe.Split(s, -1)
		start := clockRe.FindString(parts[0])
		if start == "" {
			return display
		}
		end := strings.TrimSpace(parts[1])
		if clockRe.MatchString(end) {
			return start + " - " + end + tz + extra
		}
		return start + " - Selesai" + tz + extra
	}

	if start := clockRe.FindString(s); start != "" && strings.TrimSpace(s) == start {
		return start + " - Selesai" + tz + extra
	}
	return display
}
