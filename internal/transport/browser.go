package transport

import (
	"net/http"
	"time"
)

// ConsentCookieName is the cookie that skips the aggregator's consent wall.
const ConsentCookieName = "CONSENT"

// BrowserHeaders mimics a desktop browser arriving from a search engine.
func BrowserHeaders(userAgent string) http.Header {
	h := http.Header{}
	h.Set("User-Agent", userAgent)
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	h.Set("Accept-Language", "en-US,en;q=0.5")
	h.Set("Referer", "https://www.google.com/")
	h.Set("DNT", "1")
	h.Set("Upgrade-Insecure-Requests", "1")
	return h
}

// ImageHeaders is the header set used when downloading article images.
func ImageHeaders(userAgent, referer string) http.Header {
	h := http.Header{}
	h.Set("User-Agent", userAgent)
	h.Set("Accept", "image/webp,image/apng,image/*,*/*;q=0.8")
	h.Set("Accept-Language", "en-US,en;q=0.9")
	h.Set("Referer", referer)
	return h
}

// ConsentCookies returns a ClientConfig.CookieFunc that stamps the consent
// cookie with the current day on every request.
func ConsentCookies(now func() time.Time) func() []*http.Cookie {
	return func() []*http.Cookie {
		return []*http.Cookie{ConsentCookie(now())}
	}
}

// ConsentCookie returns a consent cookie stamped with day.
func ConsentCookie(day time.Time) *http.Cookie {
	return &http.Cookie{
		Name:  ConsentCookieName,
		Value: "YES+cb." + day.UTC().Format("20060102") + "-04-p0.en-GB+FX+667",
	}
}
