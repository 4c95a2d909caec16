// Package trust ranks search results by domain reputation. Ranking is a
// stable partition: trusted results first, the rest after, with the relative
// order inside each partition untouched.
package trust

import (
	"net/url"
	"strings"

	"github.com/harutofu/shiori/internal/search"
)

// DefaultBookDomains are the book-commerce and review sites biased toward
// when composing book evidence, most trusted first.
var DefaultBookDomains = []string{
	"amazon.co.jp",
	"hanmoto.com",
	"books.rakuten.co.jp",
	"bookmeter.com",
	"booklog.jp",
	"honz.jp",
}

// DefaultWeatherDomains and DefaultNewsDomains seed the site-bias clause on
// the respective time-sensitive query paths.
var DefaultWeatherDomains = []string{
	"tenki.jp",
	"weather.yahoo.co.jp",
	"jma.go.jp",
	"weather.com",
}

var DefaultNewsDomains = []string{
	"news.yahoo.co.jp",
	"www3.nhk.or.jp",
	"asahi.com",
	"mainichi.jp",
	"nikkei.com",
}

// IsTrusted reports whether rawURL's host is one of domains or a subdomain
// of one.
func IsTrusted(rawURL string, domains []string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return false
	}
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d == "" {
			continue
		}
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// Rank partitions results into trusted-first order. It is stable: results
// keep their relative order within each partition. With no domains it
// returns the input unchanged.
func Rank(results []search.Result, domains []string) []search.Result {
	if len(domains) == 0 || len(results) == 0 {
		return results
	}
	trusted := make([]search.Result, 0, len(results))
	rest := make([]search.Result, 0, len(results))
	for _, r := range results {
		if IsTrusted(r.URL, domains) {
			trusted = append(trusted, r)
		} else {
			rest = append(rest, r)
		}
	}
	return append(trusted, rest...)
}

// SiteBias renders domains as a search-engine OR clause, e.g.
// "site:tenki.jp OR site:jma.go.jp". Empty input yields "".
func SiteBias(domains []string) string {
	parts := make([]string, 0, len(domains))
	for _, d := range domains {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		parts = append(parts, "site:"+d)
	}
	return strings.Join(parts, " OR ")
}
