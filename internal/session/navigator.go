// Package session keeps an authenticated browsing session with the site.
// Every page fetched through a Navigator is checked for the login wall and
// the profile chooser, and both are passed through transparently.
package session

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/brogergvhs/genrescrape/internal/htmlfrag"
	"github.com/brogergvhs/genrescrape/internal/util"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL   = "https://www.netflix.com/"
	DefaultLoginPath = "/login"

	loginAction = "loginAction"
)

type Credentials struct {
	Email    string
	Password string
}

type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

type Options struct {
	BaseURL     string
	LoginPath   string
	Credentials Credentials
	// Profile picks an entry of the profile chooser by name; empty takes the
	// first one.
	Profile    string
	// HTTPClient should come from util.NewSessionClient, which owns cookies,
	// redirects and the User-Agent. Nil builds a default one.
	HTTPClient *http.Client
	// RateLimit caps requests per second; zero disables it.
	RateLimit float64
	Logger    Logger
}

// Page is a response after every redirect and interstitial was followed.
type Page struct {
	URL        *url.URL
	StatusCode int
	Body       string
}

type Navigator struct {
	http      *resty.Client
	base      *url.URL
	loginPath string
	creds     Credentials
	profile   string
	log       Logger
}

func New(opts Options) (*Navigator, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.LoginPath == "" {
		opts.LoginPath = DefaultLoginPath
	}
	if opts.Logger == nil {
		opts.Logger = nopLogger{}
	}

	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Host == "" {
		return nil, fmt.Errorf("base url must include a host")
	}

	hc := opts.HTTPClient
	if hc == nil {
		if hc, err = util.NewSessionClient(util.SessionClientOptions{BaseURL: base.String()}); err != nil {
			return nil, err
		}
	}

	client := resty.NewWithClient(hc)
	client.SetLogger(opts.Logger)

	if opts.RateLimit > 0 {
		limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
		client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return limiter.Wait(req.Context())
		})
	}

	return &Navigator{
		http:      client,
		base:      base,
		loginPath: opts.LoginPath,
		creds:     opts.Credentials,
		profile:   opts.Profile,
		log:       opts.Logger,
	}, nil
}

// Get fetches path relative to the base URL, logging in and choosing a
// profile on the way when the site asks for it. The site drops a detoured
// request on its home page, so after a login or profile switch path is
// fetched once more and the returned page is always the one asked for.
// Getting the login path itself returns the post-login landing page.
func (n *Navigator) Get(ctx context.Context, path string) (*Page, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("parse path %q: %w", path, err)
	}

	target := n.base.ResolveReference(ref)

	page, err := n.do(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, err
	}

	resolved, detoured, err := n.resolve(ctx, page)
	if err != nil || !detoured || n.isLogin(target) {
		return resolved, err
	}

	// The site lands on its home page after a login or profile switch, so
	// ask for the original page once more.
	n.log.Debugf("Refetch %s", target)
	page, err = n.do(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, err
	}
	resolved, _, err = n.resolve(ctx, page)

	return resolved, err
}

// Login fetches the login page, which forces the login step. Call it once up
// front so bad credentials fail before any scanning.
func (n *Navigator) Login(ctx context.Context) (*Page, error) {
	n.log.Infof("Login")
	return n.Get(ctx, n.loginPath)
}

type state int

const (
	stateLogin state = iota
	stateProfile
	stateDone
)

func (s state) String() string {
	switch s {
	case stateLogin:
		return "login"
	case stateProfile:
		return "profile"
	default:
		return "done"
	}
}

// resolve walks a fetched page through the interstitial checks in order and
// reports whether any of them had to act.
func (n *Navigator) resolve(ctx context.Context, page *Page) (*Page, bool, error) {
	var (
		next     *Page
		err      error
		detoured bool
	)
	for st := stateLogin; st != stateDone; {
		n.log.Debugf("Resolve %s at %s", st, page.URL)

		switch st {
		case stateLogin:
			next, err = n.resolveLogin(ctx, page)
			st = stateProfile
		case stateProfile:
			next, err = n.resolveProfile(ctx, page)
			st = stateDone
		}
		if err != nil {
			return nil, detoured, err
		}
		if next != page {
			detoured = true
		}
		page = next
	}

	return page, detoured, nil
}

func (n *Navigator) isLogin(u *url.URL) bool {
	return strings.HasSuffix(strings.ToLower(u.Path), strings.ToLower(n.loginPath))
}

func (n *Navigator) resolveLogin(ctx context.Context, page *Page) (*Page, error) {
	if !n.isLogin(page.URL) {
		return page, nil
	}

	form, ok := htmlfrag.ParseForms(page.Body).WithField("action", loginAction)
	if !ok {
		return nil, fmt.Errorf("%s: %w", page.URL, ErrLoginFormNotFound)
	}
	n.log.Debugf("Login form: id=%s attrs=%v", form.ID, form.Attrs)

	action, err := url.Parse(form.Attrs["action"])
	if err != nil {
		return nil, fmt.Errorf("parse login form action: %w", err)
	}
	method := strings.ToUpper(strings.TrimSpace(form.Attrs["method"]))
	if method == "" {
		method = http.MethodPost
	}

	payload := form.Payload(map[string]string{
		"email":    n.creds.Email,
		"password": n.creds.Password,
	})

	next, err := n.do(ctx, method, page.URL.ResolveReference(action).String(), payload)
	if err != nil {
		return nil, fmt.Errorf("submit login form: %w", err)
	}
	if n.isLogin(next.URL) {
		return nil, newAuthError(htmlfrag.ErrorMessages(next.Body))
	}

	return next, nil
}

func (n *Navigator) resolveProfile(ctx context.Context, page *Page) (*Page, error) {
	profiles := htmlfrag.ParseProfiles(page.Body)
	if len(profiles) == 0 {
		return page, nil
	}

	names := make([]string, 0, len(profiles))
	for _, p := range profiles {
		names = append(names, p.Name)
		if n.profile != "" && !strings.EqualFold(p.Name, n.profile) {
			continue
		}

		link, err := url.Parse(p.Link)
		if err != nil {
			return nil, fmt.Errorf("parse profile link %q: %w", p.Link, err)
		}
		target := page.URL.ResolveReference(link).String()
		n.log.Debugf("Choose profile %s (%s)", p.Name, target)

		chosen, err := n.do(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, fmt.Errorf("choose profile %s: %w", p.Name, err)
		}
		return chosen, nil
	}

	return nil, &ProfileNotFoundError{Requested: n.profile, Available: names}
}

func (n *Navigator) do(ctx context.Context, method, target string, form url.Values) (*Page, error) {
	req := n.http.R().SetContext(ctx)
	switch {
	case form == nil:
	case method == http.MethodGet:
		req.SetQueryParamsFromValues(form)
	default:
		req.SetFormDataFromValues(form)
	}

	res, err := req.Execute(method, target)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, target, err)
	}

	status := res.StatusCode()
	if status < 200 || status >= 300 {
		return nil, &StatusError{Method: method, URL: target, StatusCode: status}
	}

	final := res.RawResponse.Request.URL
	return &Page{
		URL:        final,
		StatusCode: status,
		Body:       res.String(),
	}, nil
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Warnf(string, ...any)  {}
func (nopLogger) Errorf(string, ...any) {}
