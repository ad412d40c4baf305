package util

import (
	"bufio"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"
)

const (
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

	maxRedirects = 10
)

type SessionClientOptions struct {
	// BaseURL is the site origin the seeded cookies belong to.
	BaseURL string
	// zero means no client-side timeout
	Timeout   time.Duration
	UserAgent string
	// Cookie and CookieFile hold "k=v; k2=v2" lines, e.g. copied from a
	// logged-in browser.
	Cookie     string
	CookieFile string
	Transport  http.RoundTripper
	Logger     interface {
		Debugf(string, ...any)
	}
}

// NewSessionClient builds the client a site session runs on. User supplied
// cookies are stored in the jar for BaseURL, so the site can refresh them
// and add its own without losing them.
func NewSessionClient(opts SessionClientOptions) (*http.Client, error) {
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Host == "" {
		return nil, errors.New("base url must include a host")
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}

	seed, err := seedCookies(opts.Cookie, opts.CookieFile)
	if err != nil {
		return nil, err
	}
	jar.SetCookies(base, seed)

	transport := opts.Transport
	if transport == nil {
		transport = &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        4,
			MaxIdleConnsPerHost: 4,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			ForceAttemptHTTP2:   true,
		}
	}

	ua := opts.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}

	if opts.Logger != nil {
		opts.Logger.Debugf("Session client for %s (timeout=%s, cookies=%d)", base.Host, opts.Timeout, len(seed))
	}

	return &http.Client{
		Timeout:       opts.Timeout,
		Jar:           jar,
		CheckRedirect: limitRedirects,
		Transport: &sessionTransport{
			base: transport,
			ua:   ua,
			log:  opts.Logger,
		},
	}, nil
}

func limitRedirects(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return fmt.Errorf("stopped after %d redirects at %s", maxRedirects, req.URL)
	}
	return nil
}

// sessionTransport presents every request as the configured browser.
type sessionTransport struct {
	base http.RoundTripper
	ua   string
	log  interface{ Debugf(string, ...any) }
}

func (t *sessionTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.ua)

	if t.log != nil {
		t.log.Debugf("HTTP %s %s", req.Method, req.URL)
	}

	return t.base.RoundTrip(req)
}

// seedCookies parses the inline cookie line followed by the first non-empty
// line of the cookie file.
func seedCookies(inline, file string) ([]*http.Cookie, error) {
	lines := []string{inline}
	if file != "" {
		line, err := firstLine(file)
		if err != nil {
			return nil, fmt.Errorf("read cookie file: %w", err)
		}
		lines = append(lines, line)
	}

	var out []*http.Cookie
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		cookies, err := http.ParseCookie(line)
		if err != nil {
			return nil, fmt.Errorf("parse cookies %q: %w", line, err)
		}
		for _, c := range cookies {
			c.Path = "/"
		}
		out = append(out, cookies...)
	}

	return out, nil
}

func firstLine(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			return line, nil
		}
	}

	return "", sc.Err()
}
