// Package client is a Go client for the /api surface. It keeps the session
// token of the signed-in user and can back a player.Session's like store.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"moodmusic/core/identity"
	"moodmusic/core/mood"
	"moodmusic/model"
)

// ErrNotSignedIn is returned by authenticated calls made without a token.
var ErrNotSignedIn = errors.New("not signed in")

// APIError is a non-2xx response.
type APIError struct {
	Status int
	Msg    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Msg)
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// Client talks to one server.
type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
	user  model.PublicUser
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New creates a client for baseURL, e.g. "http://localhost:5000".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/") + "/api",
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Token returns the current session token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// User returns the signed-in user.
func (c *Client) User() model.PublicUser {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.user
}

// SetToken installs a token obtained elsewhere.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// Logout forgets the session. Tokens are stateless so nothing is sent.
func (c *Client) Logout() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
	c.user = model.PublicUser{}
}

// Register creates an account and keeps its session.
func (c *Client) Register(ctx context.Context, username, email, password string) (*identity.Session, error) {
	return c.signIn(ctx, "/auth/register", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	})
}

// Login signs in with email and password.
func (c *Client) Login(ctx context.Context, email, password string) (*identity.Session, error) {
	return c.signIn(ctx, "/auth/login", map[string]string{"email": email, "password": password})
}

// GoogleLogin signs in with a Google access token.
func (c *Client) GoogleLogin(ctx context.Context, accessToken string) (*identity.Session, error) {
	return c.signIn(ctx, "/auth/google", map[string]string{"token": accessToken})
}

func (c *Client) signIn(ctx context.Context, path string, body interface{}) (*identity.Session, error) {
	var session identity.Session
	if err := c.do(ctx, http.MethodPost, path, false, body, &session, nil); err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.token = session.Token
	c.user = session.User
	c.mu.Unlock()
	return &session, nil
}

// Me fetches the signed-in user's profile.
func (c *Client) Me(ctx context.Context) (*model.User, error) {
	var user model.User
	if err := c.do(ctx, http.MethodGet, "/auth/me", true, nil, &user, nil); err != nil {
		return nil, err
	}
	return &user, nil
}

// Recommend returns tracks for req and the number of failed catalog batches.
func (c *Client) Recommend(ctx context.Context, req mood.Request) ([]model.Track, int, error) {
	var tracks []model.Track
	var header http.Header
	if err := c.do(ctx, http.MethodPost, "/music/recommend", false, req, &tracks, &header); err != nil {
		return nil, 0, err
	}
	degraded, _ := strconv.Atoi(header.Get("X-Catalog-Degraded"))
	return tracks, degraded, nil
}

// Search runs a free-text catalog search.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]model.Track, error) {
	q := url.Values{"q": {query}}
	if maxResults > 0 {
		q.Set("max", strconv.Itoa(maxResults))
	}
	var tracks []model.Track
	if err := c.do(ctx, http.MethodGet, "/music/search?"+q.Encode(), false, nil, &tracks, nil); err != nil {
		return nil, err
	}
	return tracks, nil
}

// SaveMix stores a recommendation.
func (c *Client) SaveMix(ctx context.Context, name string, inputs model.MixInputs, tracks []model.Track) (*model.SavedMix, error) {
	var mix model.SavedMix
	body := map[string]interface{}{"name": name, "inputs": inputs, "tracks": tracks}
	if err := c.do(ctx, http.MethodPost, "/music/save", true, body, &mix, nil); err != nil {
		return nil, err
	}
	return &mix, nil
}

// History lists saved mixes, newest first.
func (c *Client) History(ctx context.Context) ([]model.SavedMix, error) {
	var mixes []model.SavedMix
	if err := c.do(ctx, http.MethodGet, "/music/history", true, nil, &mixes, nil); err != nil {
		return nil, err
	}
	return mixes, nil
}

func (c *Client) do(ctx context.Context, method, path string, authed bool, body, out interface{}, header *http.Header) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encode request")
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		token := c.Token()
		if token == "" {
			return ErrNotSignedIn
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var payload struct {
			Msg   string `json:"msg"`
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&payload)
		msg := payload.Msg
		if msg == "" {
			msg = payload.Error
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Msg: msg}
	}

	if header != nil {
		*header = resp.Header
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decode response")
	}
	return nil
}
