package extract

import (
	"net/url"
	"strings"
)

// UnwrapRedirect resolves a search-engine redirect wrapper such as
// "/url?q=https://example.com&sa=U" to its destination. Anything else is
// returned unchanged.
func UnwrapRedirect(href string) string {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return href
	}
	if u.Path != "/url" || (u.Host != "" && !isEngineHost(strings.TrimPrefix(strings.ToLower(u.Hostname()), "www."))) {
		return href
	}
	q := u.Query()
	for _, key := range []string{"url", "q"} {
		if v := q.Get(key); v != "" {
			return v
		}
	}
	return href
}

// Host returns the lowercase hostname of rawURL without a leading "www.".
func Host(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// HostMatches reports whether host is domain or one of its subdomains.
func HostMatches(host, domain string) bool {
	host = strings.ToLower(host)
	domain = strings.ToLower(domain)
	return host == domain || strings.HasSuffix(host, "."+domain)
}

func matchesAny(host string, domains []string) bool {
	for _, d := range domains {
		if HostMatches(host, d) {
			return true
		}
	}
	return false
}

// isEngineHost reports whether host belongs to the search engine itself.
func isEngineHost(host string) bool {
	if strings.HasPrefix(host, "google.") || strings.Contains(host, ".google.") {
		return true
	}
	return matchesAny(host, []string{"gstatic.com", "googleusercontent.com", "googleapis.com", "goo.gl"})
}

func isAbsoluteHTTP(href string) bool {
	l := strings.ToLower(href)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}

// stripQuery drops the query string and fragment from a profile URL.
func stripQuery(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		if i := strings.IndexAny(rawURL, "?#"); i >= 0 {
			return rawURL[:i]
		}
		return rawURL
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

// isPostLink reports whether the URL points at a single post rather than a
// stable profile.
func isPostLink(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	p := u.Path + "/"
	return strings.Contains(p, "/posts/") || strings.Contains(p, "/p/")
}
