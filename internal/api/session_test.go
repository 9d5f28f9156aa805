package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/hamper/internal/auth"
	"github.com/hpungsan/hamper/internal/errors"
)

// sessionServer accepts /users/me only with access=valid and hands out a
// fresh access cookie on reissue when refresh=r1 is presented.
func sessionServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/reissue", func(w http.ResponseWriter, r *http.Request) {
		if ck, err := r.Cookie("refresh"); err != nil || ck.Value != "r1" {
			w.WriteHeader(401)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "access", Value: "valid", Path: "/"})
		w.WriteHeader(204)
	})
	mux.HandleFunc("GET /users/me", func(w http.ResponseWriter, r *http.Request) {
		if ck, err := r.Cookie("access"); err != nil || ck.Value != "valid" {
			w.WriteHeader(401)
			return
		}
		writeJSON(w, 200, auth.User{ID: 3, Nickname: "park"})
	})
	mux.HandleFunc("POST /auth/logout", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "access", Path: "/", MaxAge: -1})
		w.WriteHeader(204)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newSessionClient(t *testing.T, baseURL, path string) *Client {
	t.Helper()
	c, err := New(Options{BaseURL: baseURL, SessionPath: path})
	require.NoError(t, err)
	return c
}

func TestSession_SurvivesNewClient(t *testing.T) {
	srv := sessionServer(t)
	path := filepath.Join(t.TempDir(), SessionFileName)

	first := newSessionClient(t, srv.URL, path)
	require.NoError(t, first.ImportSession([]*http.Cookie{{Name: "access", Value: "valid"}}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	second := newSessionClient(t, srv.URL, path)
	u, err := second.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "park", u.Nickname)
	assert.True(t, second.Auth().Get().Authenticated)
}

func TestSession_ReissueCookieIsPersisted(t *testing.T) {
	srv := sessionServer(t)
	path := filepath.Join(t.TempDir(), SessionFileName)

	first := newSessionClient(t, srv.URL, path)
	require.NoError(t, first.ImportSession([]*http.Cookie{{Name: "refresh", Value: "r1"}}))

	// the access cookie only exists after the reissue round trip
	_, err := first.Me(context.Background())
	require.NoError(t, err)

	second := newSessionClient(t, srv.URL, path)
	cookies := map[string]string{}
	for _, ck := range second.session.Cookies(second.session.base) {
		cookies[ck.Name] = ck.Value
	}
	assert.Equal(t, map[string]string{"access": "valid", "refresh": "r1"}, cookies)
}

func TestSession_LogoutRemovesFile(t *testing.T) {
	srv := sessionServer(t)
	path := filepath.Join(t.TempDir(), SessionFileName)

	c := newSessionClient(t, srv.URL, path)
	require.NoError(t, c.ImportSession([]*http.Cookie{{Name: "access", Value: "valid"}, {Name: "refresh", Value: "r1"}}))
	require.NoError(t, c.Logout(context.Background()))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "session file should be gone, stat err = %v", err)

	next := newSessionClient(t, srv.URL, path)
	_, err = next.Me(context.Background())
	assert.True(t, errors.Is(err, errors.ErrUnauthenticated), "error = %v", err)
}

func TestSession_UnreadableFileIsIgnored(t *testing.T) {
	srv := sessionServer(t)
	path := filepath.Join(t.TempDir(), SessionFileName)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	c := newSessionClient(t, srv.URL, path)
	_, err := c.Me(context.Background())
	assert.True(t, errors.Is(err, errors.ErrUnauthenticated))
}

func TestImportSession_Validation(t *testing.T) {
	c := newSessionClient(t, "http://hamper.test/api", "")
	assert.True(t, errors.Is(c.ImportSession(nil), errors.ErrInvalidRequest))

	custom, err := New(Options{BaseURL: "http://hamper.test/api", HTTPClient: http.DefaultClient})
	require.NoError(t, err)
	err = custom.ImportSession([]*http.Cookie{{Name: "access", Value: "x"}})
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))
}
