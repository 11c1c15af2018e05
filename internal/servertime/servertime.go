// Package servertime reads the wall clock of a remote web server from its Date header.
package servertime

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
	_ "time/tzdata"

	log "github.com/sirupsen/logrus"
)

const (
	DefaultURL      = "https://www.naver.com"
	DefaultTimezone = "Asia/Seoul"
)

var weekdays = [...]string{"일", "월", "화", "수", "목", "금", "토"}

// Fetcher reads the current time from a web server.
type Fetcher struct {
	URL      string
	Location *time.Location
	Client   *http.Client

	now func() time.Time
}

// NewFetcher creates a Fetcher for url, reporting times in timezone.
// An unknown timezone falls back to a fixed +09:00 zone.
func NewFetcher(rawURL, timezone, proxyURL string) *Fetcher {
	if rawURL == "" {
		rawURL = DefaultURL
	}
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &Fetcher{
		URL:      rawURL,
		Location: LoadLocation(timezone),
		Client: &http.Client{
			Timeout:   5 * time.Second,
			Transport: transport,
		},
		now: time.Now,
	}
}

// LoadLocation resolves a zone name, defaulting to Asia/Seoul.
func LoadLocation(name string) *time.Location {
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Warnf("load timezone %q: %v, using UTC+9", name, err)
		return time.FixedZone("KST", 9*60*60)
	}
	return loc
}

// Now returns the server time. Any failure falls back to the local clock.
func (f *Fetcher) Now(ctx context.Context) time.Time {
	t, err := f.Fetch(ctx)
	if err != nil {
		log.Debugf("server time: %v, using local clock", err)
		return f.now().In(f.Location)
	}
	return t
}

// Fetch performs a HEAD request and parses the Date response header.
func (f *Fetcher) Fetch(ctx context.Context) (time.Time, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, f.URL, nil)
	if err != nil {
		return time.Time{}, err
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return time.Time{}, fmt.Errorf("head %s: %w", f.URL, err)
	}
	resp.Body.Close()

	date := resp.Header.Get("Date")
	if date == "" {
		return time.Time{}, fmt.Errorf("head %s: no Date header", f.URL)
	}
	t, err := http.ParseTime(date)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse Date header %q: %w", date, err)
	}
	return t.In(f.Location), nil
}

// Label formats t as "2006-01-02(월) 15:04:05".
func Label(t time.Time) string {
	return fmt.Sprintf("%s(%s) %s", t.Format("2006-01-02"), weekdays[t.Weekday()], t.Format("15:04:05"))
}
