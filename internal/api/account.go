package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/hpungsan/hamper/internal/auth"
	"github.com/hpungsan/hamper/internal/errors"
)

// LoginURL is where the browser is sent to start the OAuth flow for provider.
func (c *Client) LoginURL(provider string) string {
	return c.baseURL + "/oauth2/authorization/" + url.PathEscape(provider)
}

// ImportSession adds session cookies obtained in a browser after the OAuth
// redirect. They are persisted when the client has a session file.
func (c *Client) ImportSession(cookies []*http.Cookie) error {
	if len(cookies) == 0 {
		return errors.NewInvalidRequest("at least one session cookie is required")
	}
	if c.session == nil {
		return errors.NewInvalidRequest("this client does not keep a session")
	}
	if err := c.session.Import(cookies); err != nil {
		return errors.NewInternal(fmt.Errorf("save session: %w", err))
	}
	c.log.Info("session imported", "cookies", len(cookies))
	return nil
}

// forgetSession clears the signed-in state and drops stored cookies.
func (c *Client) forgetSession() {
	c.auth.Clear()
	if c.session == nil {
		return
	}
	if err := c.session.Reset(); err != nil {
		c.log.Warn("could not remove session file", "error", err)
	}
}

// Reissue refreshes the session cookie explicitly.
func (c *Client) Reissue(ctx context.Context) error {
	start := time.Now()
	return c.finish("reissue", start, c.reissue(ctx))
}

// Logout ends the session remotely and clears local state. Local state is
// cleared even when the remote call fails.
func (c *Client) Logout(ctx context.Context) error {
	err := c.call(ctx, "logout", http.MethodPost, "/auth/logout", nil, nil)
	c.forgetSession()
	if errors.Is(err, errors.ErrUnauthenticated) {
		return nil
	}
	return err
}

// Me fetches the signed-in user and marks the session authenticated.
func (c *Client) Me(ctx context.Context) (*auth.User, error) {
	var u auth.User
	if err := c.call(ctx, "me", http.MethodGet, "/users/me", nil, &u); err != nil {
		return nil, err
	}
	c.auth.Set(auth.Session{Authenticated: true, User: &u})
	return &u, nil
}

// UserUpdate is a partial profile update.
type UserUpdate struct {
	Nickname *string `json:"nickname,omitempty"`
}

// UpdateMe changes the signed-in user's profile.
func (c *Client) UpdateMe(ctx context.Context, update UserUpdate) (*auth.User, error) {
	var u auth.User
	if err := c.call(ctx, "update_me", http.MethodPatch, "/users/me", update, &u); err != nil {
		return nil, err
	}
	c.auth.Set(auth.Session{Authenticated: true, User: &u})
	return &u, nil
}

// DeleteMe deletes the account and clears local state.
func (c *Client) DeleteMe(ctx context.Context) error {
	if err := c.call(ctx, "delete_me", http.MethodDelete, "/users/me", nil, nil); err != nil {
		return err
	}
	c.forgetSession()
	return nil
}
