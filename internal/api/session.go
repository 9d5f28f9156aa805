package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/net/publicsuffix"

	"github.com/hpungsan/hamper/internal/logger"
)

// SessionFileName is the cookie file kept next to the database.
const SessionFileName = "session.json"

// storedCookie is one persisted session cookie. Path is the narrowest path
// the cookie was observed on.
type storedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Path  string `json:"path"`
}

// sessionJar is a cookie jar that mirrors the API host's cookies to a file,
// so a session started in one process is usable by the next one.
type sessionJar struct {
	mu     sync.Mutex
	inner  *cookiejar.Jar
	path   string
	base   *url.URL
	// scopes are the URLs whose cookies are persisted, broadest first.
	scopes []*url.URL
	log    *logger.Logger
}

func newCookieJar() (*cookiejar.Jar, error) {
	return cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
}

// newSessionJar creates a jar for baseURL and loads any saved cookies from
// path. An empty path keeps cookies in memory only.
func newSessionJar(baseURL, path string, log *logger.Logger) (*sessionJar, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("api: base URL: %w", err)
	}
	inner, err := newCookieJar()
	if err != nil {
		return nil, fmt.Errorf("api: cookie jar: %w", err)
	}
	reissue, err := url.Parse(baseURL + "/auth/reissue")
	if err != nil {
		return nil, fmt.Errorf("api: base URL: %w", err)
	}

	j := &sessionJar{
		inner:  inner,
		path:   path,
		base:   base,
		scopes: []*url.URL{base, reissue},
		log:    log,
	}
	if err := j.load(); err != nil {
		log.Warn("ignoring unreadable session file", "path", path, "error", err)
	}
	return j, nil
}

func (j *sessionJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.inner.SetCookies(u, cookies)
	if err := j.saveLocked(); err != nil {
		j.log.Warn("could not save session", "path", j.path, "error", err)
	}
}

func (j *sessionJar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.inner.Cookies(u)
}

// Import stores cookies obtained outside the client, such as from a browser
// after the OAuth redirect.
func (j *sessionJar) Import(cookies []*http.Cookie) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	for _, ck := range cookies {
		if ck.Path == "" {
			ck.Path = "/"
		}
	}
	j.inner.SetCookies(j.base, cookies)
	return j.saveLocked()
}

// Reset drops every cookie and removes the session file.
func (j *sessionJar) Reset() error {
	inner, err := newCookieJar()
	if err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	j.inner = inner
	if j.path == "" {
		return nil
	}
	if err := os.Remove(j.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (j *sessionJar) load() error {
	if j.path == "" {
		return nil
	}
	data, err := os.ReadFile(j.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	var stored []storedCookie
	if err := json.Unmarshal(data, &stored); err != nil {
		return err
	}
	cookies := make([]*http.Cookie, 0, len(stored))
	for _, s := range stored {
		path := s.Path
		if path == "" {
			path = "/"
		}
		cookies = append(cookies, &http.Cookie{Name: s.Name, Value: s.Value, Path: path})
	}
	j.inner.SetCookies(j.base, cookies)
	return nil
}

// saveLocked must be called with j.mu held. An empty jar removes the file.
func (j *sessionJar) saveLocked() error {
	if j.path == "" {
		return nil
	}

	seen := make(map[string]bool)
	var stored []storedCookie
	for _, u := range j.scopes {
		for _, ck := range j.inner.Cookies(u) {
			if seen[ck.Name] {
				continue
			}
			seen[ck.Name] = true
			path := "/"
			if u != j.base {
				path = u.Path
			}
			stored = append(stored, storedCookie{Name: ck.Name, Value: ck.Value, Path: path})
		}
	}

	if len(stored) == 0 {
		if err := os.Remove(j.path); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(j.path), ".session-*.json")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, j.path)
}
