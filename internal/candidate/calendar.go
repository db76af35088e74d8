package candidate

import (
	"fmt"
	"time"
)

// Calendar keywords: a composition equal to one of these phonetic spellings
// expands into literal date/time renderings of the host clock. Expansion
// only fires on an exact, full-buffer match.
const (
	keywordToday     = "きょう"
	keywordTomorrow  = "あした"
	keywordYesterday = "きのう"
	keywordNow       = "いま"
	keywordDateTime  = "にちじ"
)

var weekdayKanji = [7]string{"日", "月", "火", "水", "木", "金", "土"}

// calendarExpansions returns the fixed ordered rendering list for a keyword,
// or nil if text is not a calendar keyword. All renderings are built from
// calendar components (year/month/day/hour/minute/weekday), never from a
// locale formatter, so output is deterministic for a fixed clock.
func calendarExpansions(text string, now time.Time) []string {
	switch text {
	case keywordToday:
		return dateRenderings(now)
	case keywordTomorrow:
		return dateRenderings(now.AddDate(0, 0, 1))
	case keywordYesterday:
		return dateRenderings(now.AddDate(0, 0, -1))
	case keywordNow:
		return timeRenderings(now)
	case keywordDateTime:
		return dateTimeRenderings(now)
	}
	return nil
}

func dateRenderings(t time.Time) []string {
	y, m, d := t.Year(), int(t.Month()), t.Day()
	wd := weekdayKanji[int(t.Weekday())]
	return []string{
		fmt.Sprintf("%d年%d月%d日", y, m, d),
		fmt.Sprintf("%04d/%02d/%02d", y, m, d),
		fmt.Sprintf("%d月%d日", m, d),
		fmt.Sprintf("%d月%d日(%s)", m, d, wd),
		fmt.Sprintf("%d.%02d.%02d", y, m, d),
	}
}

func timeRenderings(t time.Time) []string {
	h, min := t.Hour(), t.Minute()
	return []string{
		fmt.Sprintf("%d時%d分", h, min),
		fmt.Sprintf("%02d:%02d", h, min),
	}
}

func dateTimeRenderings(t time.Time) []string {
	y, m, d := t.Year(), int(t.Month()), t.Day()
	h, min := t.Hour(), t.Minute()
	return []string{
		fmt.Sprintf("%d年%d月%d日%d時%d分", y, m, d, h, min),
		fmt.Sprintf("%04d/%02d/%02d %02d:%02d", y, m, d, h, min),
	}
}
