// Package fresh classifies queries by time sensitivity and filters search
// results against a reference date. All date handling is anchored to JST,
// matching the audience of the weather and news paths.
package fresh

import (
	"fmt"
	"strings"
	"time"
)

// JST is the fixed reference zone for "today".
var JST = time.FixedZone("JST", 9*60*60)

// Class is the time-sensitivity classification of a query.
type Class int

const (
	// ClassDefault applies when no signal was detected.
	ClassDefault Class = iota
	// ClassTimeSensitive covers weather, news and other now-queries.
	ClassTimeSensitive
	// ClassTimeless covers book content, history and other stable topics.
	ClassTimeless
	// ClassDated covers queries that name an explicit past date.
	ClassDated
)

func (c Class) String() string {
	switch c {
	case ClassTimeSensitive:
		return "time_sensitive"
	case ClassTimeless:
		return "timeless"
	case ClassDated:
		return "dated"
	default:
		return "default"
	}
}

var timeSensitiveKeywords = []string{
	"天気", "天候", "予報", "weather", "forecast",
	"ニュース", "速報", "news", "headline", "breaking",
}

var timelessKeywords = []string{
	"要約", "あらすじ", "書評", "意味", "とは", "歴史", "由来",
	"summary", "review", "meaning", "history",
}

// Context carries everything downstream freshness decisions need.
type Context struct {
	// ReferenceDate is "today" in JST.
	ReferenceDate time.Time
	Class         Class
	// RecencyDays restricts provider-side searches. Zero means unrestricted.
	RecencyDays int
}

// Classify inspects a query for time-sensitivity signals. An explicit
// time-sensitive keyword wins over everything, then timeless keywords, then
// an explicit date.
func Classify(query string, now time.Time) Context {
	ctx := Context{ReferenceDate: now.In(JST)}
	lower := strings.ToLower(query)
	for _, kw := range timeSensitiveKeywords {
		if strings.Contains(lower, kw) {
			ctx.Class = ClassTimeSensitive
			ctx.RecencyDays = 1
			return ctx
		}
	}
	for _, kw := range timelessKeywords {
		if strings.Contains(lower, kw) {
			ctx.Class = ClassTimeless
			return ctx
		}
	}
	if d, ok := findDate(query, ctx.ReferenceDate); ok {
		ctx.Class = ClassDated
		ctx.ReferenceDate = d
		return ctx
	}
	return ctx
}

// datePatterns are tried in order against every candidate token. The
// year-less form assumes the reference year.
var datePatterns = []string{
	"2006年1月2日",
	"2006-01-02",
	"2006/01/02",
	"Jan 02, 2006",
	"Jan 2, 2006",
}

const yearlessPattern = "1月2日"

func findDate(text string, ref time.Time) (time.Time, bool) {
	for _, tok := range dateTokens(text) {
		for _, layout := range datePatterns {
			if d, err := time.ParseInLocation(layout, tok, JST); err == nil {
				return d, true
			}
		}
		if d, err := time.ParseInLocation(yearlessPattern, tok, JST); err == nil {
			return time.Date(ref.Year(), d.Month(), d.Day(), 0, 0, 0, 0, JST), true
		}
	}
	return time.Time{}, false
}

// dateTokens extracts candidate date substrings: runs of digits mixed with
// date punctuation and the kanji year/month/day markers, plus trailing
// windows for the English month-name form.
func dateTokens(text string) []string {
	isDateRune := func(r rune) bool {
		switch {
		case r >= '0' && r <= '9':
			return true
		case r == '-' || r == '/':
			return true
		case r == '年' || r == '月' || r == '日':
			return true
		}
		return false
	}
	var tokens []string
	runes := []rune(text)
	start := -1
	for i, r := range runes {
		if isDateRune(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			tokens = append(tokens, string(runes[start:i]))
			start = -1
		}
	}
	if start >= 0 {
		tokens = append(tokens, string(runes[start:]))
	}
	// English month-name dates span spaces and a comma, so scan word windows.
	words := strings.Fields(text)
	for i := 0; i+3 <= len(words); i++ {
		tokens = append(tokens, strings.Join(words[i:i+3], " "))
	}
	return tokens
}

// DateJP renders the reference date in the long Japanese form.
func DateJP(ref time.Time) string {
	d := ref.In(JST)
	return fmt.Sprintf("%d年%d月%d日", d.Year(), int(d.Month()), d.Day())
}

// TodayPatterns renders the reference date in every accepted textual form,
// for matching against result text. Both the zero-padded and plain English
// day forms are emitted; they coincide from the 10th onward.
func TodayPatterns(ref time.Time) []string {
	d := ref.In(JST)
	return []string{
		DateJP(ref),
		fmt.Sprintf("%d月%d日", int(d.Month()), d.Day()),
		d.Format("2006-01-02"),
		d.Format("2006/01/02"),
		d.Format("Jan 02, 2006"),
		d.Format("Jan 2, 2006"),
	}
}

// Guard is the instruction block prepended to generation when evidence for a
// time-sensitive query could not be confirmed fresh.
func Guard(ref time.Time) string {
	d := ref.In(JST)
	return fmt.Sprintf(
		"注意: 今日は%d年%d月%d日です。以下の検索結果に今日の日付の情報が含まれない場合は、最新情報が確認できなかった旨を明示し、古い情報を今日の情報として断定しないでください。",
		d.Year(), int(d.Month()), d.Day())
}
