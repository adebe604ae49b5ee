package util

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Date layouts used by the provider payloads and the stores.
const (
	DateLayout    = "2006-01-02"
	CompactLayout = "20060102"
)

var (
	shanghaiOnce sync.Once
	shanghaiLoc  *time.Location
)

// ShanghaiLocation returns the exchange time zone. It falls back to a fixed
// UTC+8 zone when the tz database is unavailable.
func ShanghaiLocation() *time.Location {
	shanghaiOnce.Do(func() {
		loc, err := time.LoadLocation("Asia/Shanghai")
		if err != nil {
			loc = time.FixedZone("CST", 8*3600)
		}
		shanghaiLoc = loc
	})
	return shanghaiLoc
}

// ParseDate parses a trading date in YYYY-MM-DD or YYYYMMDD form. The result
// is midnight UTC so dates compare and serialize without zone drift.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	layout := DateLayout
	if len(s) == len(CompactLayout) && !strings.Contains(s, "-") {
		layout = CompactLayout
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q: %w", s, err)
	}
	return t, nil
}

// FormatDate renders t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// CompactDate renders t as YYYYMMDD.
func CompactDate(t time.Time) string {
	return t.Format(CompactLayout)
}

// Truncate drops the clock part of t, keeping its calendar date, at midnight
// UTC.
func Truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the current exchange calendar date at midnight UTC.
func Today() time.Time {
	return Truncate(time.Now().In(ShanghaiLocation()))
}
