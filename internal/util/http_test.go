package util

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	lines []string
}

func (r *recordingLogger) Debugf(format string, args ...any) {
	r.lines = append(r.lines, format)
}

func TestNewSessionClientSeedsCookiesAndAgent(t *testing.T) {
	transport := httpmock.NewMockTransport()

	var gotUA, gotCookie string
	transport.RegisterResponder("GET", "https://www.example.test/browse",
		func(req *http.Request) (*http.Response, error) {
			gotUA = req.Header.Get("User-Agent")
			gotCookie = req.Header.Get("Cookie")
			return httpmock.NewStringResponse(200, "ok"), nil
		})

	dir := t.TempDir()
	cookieFile := filepath.Join(dir, "cookies.txt")
	require.NoError(t, os.WriteFile(cookieFile, []byte("\n  NetflixId=abc\nignored=1\n"), 0o600))

	log := &recordingLogger{}
	client, err := NewSessionClient(SessionClientOptions{
		BaseURL:    "https://www.example.test/",
		UserAgent:  "genrescrape-test",
		Cookie:     "lang=en",
		CookieFile: cookieFile,
		Transport:  transport,
		Logger:     log,
	})
	require.NoError(t, err)

	resp, err := client.Get("https://www.example.test/browse")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, "genrescrape-test", gotUA)
	require.Equal(t, "lang=en; NetflixId=abc", gotCookie)
	require.Equal(t, 1, transport.GetTotalCallCount())
	require.NotEmpty(t, log.lines)
}

func TestSessionCookieSurvivesSiteCookies(t *testing.T) {
	var (
		mu      sync.Mutex
		headers []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		headers = append(headers, r.Header.Get("Cookie"))
		mu.Unlock()

		http.SetCookie(w, &http.Cookie{Name: "nfvdid", Value: "tracker", Path: "/"})
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client, err := NewSessionClient(SessionClientOptions{BaseURL: srv.URL, Cookie: "NetflixId=secret"})
	require.NoError(t, err)

	for range 2 {
		resp, err := client.Get(srv.URL + "/browse")
		require.NoError(t, err)
		resp.Body.Close()
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, headers, 2)
	require.Equal(t, "NetflixId=secret", headers[0])
	require.Contains(t, headers[1], "NetflixId=secret")
	require.Contains(t, headers[1], "nfvdid=tracker")
}

func TestSessionClientDefaultAgent(t *testing.T) {
	transport := httpmock.NewMockTransport()

	var gotUA string
	transport.RegisterResponder("GET", "https://www.example.test/",
		func(req *http.Request) (*http.Response, error) {
			gotUA = req.Header.Get("User-Agent")
			return httpmock.NewStringResponse(200, "ok"), nil
		})

	client, err := NewSessionClient(SessionClientOptions{BaseURL: "https://www.example.test/", Transport: transport})
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodGet, "https://www.example.test/", nil)
	require.NoError(t, err)
	req.Header.Set("User-Agent", "go-resty/2")

	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	require.Equal(t, DefaultUserAgent, gotUA)
}

func TestSessionClientStopsRedirectLoops(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/loop", http.StatusFound)
	}))
	defer srv.Close()

	client, err := NewSessionClient(SessionClientOptions{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = client.Get(srv.URL + "/loop")
	require.ErrorContains(t, err, "stopped after 10 redirects")
}

func TestNewSessionClientRejectsBadInput(t *testing.T) {
	_, err := NewSessionClient(SessionClientOptions{BaseURL: "/relative"})
	require.Error(t, err)

	_, err = NewSessionClient(SessionClientOptions{BaseURL: "https://www.example.test/", CookieFile: filepath.Join(t.TempDir(), "missing")})
	require.ErrorContains(t, err, "read cookie file")
}
