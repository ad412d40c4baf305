// Package testutil serves a small imitation of the streaming site for tests:
// a login wall, an optional profile chooser and genre pages.
package testutil

import (
	"fmt"
	"html"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
)

const (
	sessionCookie = "NetflixId"
	profileCookie = "profile"

	jsWarning = "JavaScript is disabled"
)

type SiteOptions struct {
	Email    string
	Password string
	// Profiles enables the chooser; nil skips it.
	Profiles []string
	Genres   map[int]string
	// FailGenres answers the listed genres with the given status code.
	FailGenres map[int]int
	// BrokenLogin serves a login page without the login form.
	BrokenLogin bool
	// OnGenre runs for every genre request that got past the login wall,
	// before the page is written.
	OnGenre func(n int)
}

type Site struct {
	*httptest.Server

	opts SiteOptions

	mu          sync.Mutex
	logins      int
	genreHits   map[int]int
	lastProfile string
}

func NewSite(t testing.TB, opts SiteOptions) *Site {
	s := &Site{opts: opts, genreHits: map[int]int{}}

	mux := http.NewServeMux()
	mux.HandleFunc("/login", s.login)
	mux.HandleFunc("/Login", s.login)
	mux.HandleFunc("/SwitchProfile", s.switchProfile)
	mux.HandleFunc("/browse", s.browse)
	mux.HandleFunc("/browse/genre/", s.genre)

	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)

	return s
}

// Logins counts login form submissions that succeeded.
func (s *Site) Logins() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logins
}

// GenreFetches counts requests that reached a genre page.
func (s *Site) GenreFetches() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for _, n := range s.genreHits {
		total += n
	}
	return total
}

func (s *Site) ChosenProfile() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastProfile
}

func (s *Site) gate(w http.ResponseWriter, r *http.Request) bool {
	if c, err := r.Cookie(sessionCookie); err != nil || c.Value != "ok" {
		http.Redirect(w, r, "/Login?nextpage="+url.QueryEscape(r.URL.Path), http.StatusFound)
		return false
	}
	if len(s.opts.Profiles) == 0 {
		return true
	}
	if c, err := r.Cookie(profileCookie); err == nil && c.Value != "" {
		return true
	}

	var b strings.Builder
	b.WriteString(`<html><body><h1>Who's watching?</h1><ul class="choose-profile">`)
	for _, name := range s.opts.Profiles {
		fmt.Fprintf(&b, `<li><a class="profile-link" href="/SwitchProfile?tkn=%s">`+
			`<div class="avatar-wrapper"><div class="profile-icon"></div></div>`+
			`<span class="profile-name">%s</span></a></li>`,
			url.QueryEscape(name), html.EscapeString(name))
	}
	b.WriteString(`</ul></body></html>`)
	writeHTML(w, http.StatusOK, b.String())

	return false
}

func (s *Site) login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeHTML(w, http.StatusOK, s.loginPage(""))
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if r.PostForm.Get("action") != "loginAction" || r.PostForm.Get("flow") != "websiteSignUp" {
		writeHTML(w, http.StatusOK, s.loginPage("Something went wrong"))
		return
	}
	if r.PostForm.Get("email") != s.opts.Email || r.PostForm.Get("password") != s.opts.Password {
		writeHTML(w, http.StatusOK, s.loginPage("Incorrect password"))
		return
	}

	s.mu.Lock()
	s.logins++
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "ok", Path: "/"})
	http.Redirect(w, r, "/browse", http.StatusFound)
}

func (s *Site) loginPage(errMsg string) string {
	var b strings.Builder
	b.WriteString(`<html><body>`)
	fmt.Fprintf(&b, `<div class="ui-message-container ui-message-error js-warning">%s</div>`, jsWarning)
	if errMsg != "" {
		fmt.Fprintf(&b, `<div class="ui-message-container ui-message-error"><div class="ui-message-contents">%s</div></div>`,
			html.EscapeString(errMsg))
	}
	if !s.opts.BrokenLogin {
		b.WriteString(`<form class="login-form" action="/login" method="post">` +
			`<input type="email" name="email" value="">` +
			`<input type="password" name="password" value="">` +
			`<input type="checkbox" name="rememberMe" value="true" checked>` +
			`<input type="hidden" name="flow" value="websiteSignUp">` +
			`<input type="hidden" name="action" value="loginAction">` +
			`<input type="hidden" name="withFields" value="email,password,rememberMe">` +
			`<button type="submit">Sign In</button></form>`)
	}
	b.WriteString(`</body></html>`)

	return b.String()
}

func (s *Site) switchProfile(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(sessionCookie); err != nil || c.Value != "ok" {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	name := r.URL.Query().Get("tkn")
	s.mu.Lock()
	s.lastProfile = name
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{Name: profileCookie, Value: url.QueryEscape(name), Path: "/"})
	http.Redirect(w, r, "/browse", http.StatusFound)
}

func (s *Site) browse(w http.ResponseWriter, r *http.Request) {
	if !s.gate(w, r) {
		return
	}
	writeHTML(w, http.StatusOK, `<html><body><h1 class="home">Home</h1></body></html>`)
}

func (s *Site) genre(w http.ResponseWriter, r *http.Request) {
	if !s.gate(w, r) {
		return
	}

	n, err := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/browse/genre/"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	s.mu.Lock()
	s.genreHits[n]++
	s.mu.Unlock()

	if s.opts.OnGenre != nil {
		s.opts.OnGenre(n)
	}

	if status, ok := s.opts.FailGenres[n]; ok {
		http.Error(w, http.StatusText(status), status)
		return
	}

	title, ok := s.opts.Genres[n]
	if !ok {
		writeHTML(w, http.StatusOK, `<html><body><div class="gallery empty">Nothing here</div></body></html>`)
		return
	}

	writeHTML(w, http.StatusOK, fmt.Sprintf(
		`<html><body><div class="aro-genre-details"><div class="genreTitle"><span class="title">%s</span></div></div>`+
			`<div class="rowContainer"><a href="/title/1">Movie</a></div></body></html>`,
		html.EscapeString(title)))
}

func writeHTML(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
