package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moodmusic/core/auth"
	"moodmusic/core/catalog"
	"moodmusic/core/identity"
	"moodmusic/core/playlist"
	"moodmusic/db/dbtest"
	"moodmusic/model"
	"moodmusic/repository"
)

type captureNotifier struct {
	token string
}

func (c *captureNotifier) NotifyReset(_ context.Context, _ *model.User, token string) error {
	c.token = token
	return nil
}

type staticProvider struct {
	ident *identity.ExternalIdentity
}

func (p staticProvider) Identify(_ context.Context, token string) (*identity.ExternalIdentity, error) {
	if token != "good-google-token" {
		return nil, errors.New("rejected")
	}
	return p.ident, nil
}

type failingCatalog struct {
	failQuery string
}

func (f failingCatalog) Search(ctx context.Context, q string, n int) ([]model.Track, error) {
	if q == f.failQuery {
		return nil, errors.New("quota exceeded")
	}
	return catalog.Placeholder{}.Search(ctx, q, n)
}

type testEnv struct {
	srv      *httptest.Server
	notifier *captureNotifier
}

func newTestEnv(t *testing.T, client catalog.Client) *testEnv {
	t.Helper()
	gdb := dbtest.New(t)
	playlists := playlist.NewService(repository.NewGormPlaylistRepository(gdb))
	notifier := &captureNotifier{}
	idSvc := identity.NewService(
		repository.NewGormUserRepository(gdb),
		playlists,
		auth.NewTokenIssuer("test-secret", 0),
		identity.WithNotifier(notifier),
		identity.WithProvider(staticProvider{ident: &identity.ExternalIdentity{
			Subject: "g-1", Name: "Gina", Email: "gina@example.com", Picture: "https://pic", EmailVerified: true,
		}}),
	)
	h := NewAPIHandler(idSvc, playlists, repository.NewGormMixRepository(gdb), client, nil)

	srv := httptest.NewServer(NewRouter(h, []string{"http://localhost:5173"}))
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, notifier: notifier}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.srv.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, dst interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dst))
}

func msgOf(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body struct {
		Msg string `json:"msg"`
	}
	decodeBody(t, resp, &body)
	return body.Msg
}

func (e *testEnv) register(t *testing.T, username, email string) identity.Session {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username, "email": email, "password": "secret1",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var session identity.Session
	decodeBody(t, resp, &session)
	return session
}

func TestAuthFlow(t *testing.T) {
	env := newTestEnv(t, catalog.Placeholder{})
	session := env.register(t, "alice", "alice@example.com")
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, "alice", session.User.Username)

	dup := env.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "alice", "email": "alice@example.com", "password": "secret1",
	})
	assert.Equal(t, http.StatusBadRequest, dup.StatusCode)
	assert.Equal(t, "User already exists", msgOf(t, dup))

	login := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "secret1",
	})
	require.Equal(t, http.StatusOK, login.StatusCode)

	bad := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "wrong1",
	})
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
	assert.Equal(t, "Invalid Credentials", msgOf(t, bad))

	me := env.do(t, http.MethodGet, "/api/auth/me", session.Token, nil)
	require.Equal(t, http.StatusOK, me.StatusCode)
	var raw map[string]interface{}
	decodeBody(t, me, &raw)
	assert.Equal(t, "alice@example.com", raw["email"])
	assert.NotContains(t, raw, "PasswordHash")
	assert.NotContains(t, raw, "passwordHash")
	assert.NotContains(t, raw, "resetPasswordToken")
}

func TestAuthMiddleware(t *testing.T) {
	env := newTestEnv(t, catalog.Placeholder{})

	missing := env.do(t, http.MethodGet, "/api/playlists", "", nil)
	assert.Equal(t, http.StatusUnauthorized, missing.StatusCode)
	assert.Equal(t, "No token, authorization denied", msgOf(t, missing))

	invalid := env.do(t, http.MethodGet, "/api/playlists", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, invalid.StatusCode)
	assert.Equal(t, "Token is not valid", msgOf(t, invalid))
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t, catalog.Placeholder{})

	resp := env.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "bob", "email": "bob@example.com", "password": "123",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "password must be at least 6 characters", msgOf(t, resp))

	req, err := http.NewRequest(http.MethodPost, env.srv.URL+"/api/auth/register", strings.NewReader("{"))
	require.NoError(t, err)
	garbled, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer garbled.Body.Close()
	assert.Equal(t, http.StatusBadRequest, garbled.StatusCode)
}

func TestLongPasswordRejected(t *testing.T) {
	env := newTestEnv(t, catalog.Placeholder{})
	long := strings.Repeat("p", 80)
	// Within the character limit but over bcrypt's byte limit.
	wide := strings.Repeat("é", 40)

	register := env.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "bob", "email": "bob@example.com", "password": long,
	})
	assert.Equal(t, http.StatusBadRequest, register.StatusCode)
	assert.Equal(t, "password must be at most 72 characters", msgOf(t, register))

	registerWide := env.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "bob", "email": "bob@example.com", "password": wide,
	})
	assert.Equal(t, http.StatusBadRequest, registerWide.StatusCode)
	assert.Equal(t, "Password must be at most 72 bytes", msgOf(t, registerWide))

	session := env.register(t, "alice", "alice@example.com")
	for _, pw := range []string{long, wide} {
		update := env.do(t, http.MethodPut, "/api/auth/updatepassword", session.Token, map[string]string{
			"currentPassword": "secret1", "newPassword": pw,
		})
		assert.Equal(t, http.StatusBadRequest, update.StatusCode)
	}

	forgot := env.do(t, http.MethodPost, "/api/auth/forgotpassword", "", map[string]string{"email": "alice@example.com"})
	require.Equal(t, http.StatusOK, forgot.StatusCode)
	for _, pw := range []string{long, wide} {
		reset := env.do(t, http.MethodPut, "/api/auth/resetpassword/"+env.notifier.token, "", map[string]string{"password": pw})
		assert.Equal(t, http.StatusBadRequest, reset.StatusCode)
	}

	login := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "secret1",
	})
	assert.Equal(t, http.StatusOK, login.StatusCode)
}

func TestGoogleLogin(t *testing.T) {
	env := newTestEnv(t, catalog.Placeholder{})

	ok := env.do(t, http.MethodPost, "/api/auth/google", "", map[string]string{"token": "good-google-token"})
	require.Equal(t, http.StatusOK, ok.StatusCode)
	var session identity.Session
	decodeBody(t, ok, &session)
	assert.Equal(t, "Gina", session.User.Username)
	assert.Equal(t, "https://pic", session.User.Avatar)

	fail := env.do(t, http.MethodPost, "/api/auth/google", "", map[string]string{"token": "bad"})
	assert.Equal(t, http.StatusBadRequest, fail.StatusCode)
	assert.Equal(t, "Google Sign-In Failed", msgOf(t, fail))

	change := env.do(t, http.MethodPut, "/api/auth/updatepassword", session.Token, map[string]string{
		"currentPassword": "", "newPassword": "secret2",
	})
	assert.Equal(t, http.StatusBadRequest, change.StatusCode)
	assert.Equal(t, "You use Google Login. Please cannot change password here.", msgOf(t, change))
}

func TestUpdatePassword(t *testing.T) {
	env := newTestEnv(t, catalog.Placeholder{})
	session := env.register(t, "alice", "alice@example.com")

	wrong := env.do(t, http.MethodPut, "/api/auth/updatepassword", session.Token, map[string]string{
		"currentPassword": "nope", "newPassword": "secret2",
	})
	assert.Equal(t, http.StatusBadRequest, wrong.StatusCode)
	assert.Equal(t, "Current password is incorrect", msgOf(t, wrong))

	short := env.do(t, http.MethodPut, "/api/auth/updatepassword", session.Token, map[string]string{
		"currentPassword": "secret1", "newPassword": "abc",
	})
	assert.Equal(t, http.StatusBadRequest, short.StatusCode)

	ok := env.do(t, http.MethodPut, "/api/auth/updatepassword", session.Token, map[string]string{
		"currentPassword": "secret1", "newPassword": "secret2",
	})
	require.Equal(t, http.StatusOK, ok.StatusCode)
	assert.Equal(t, "Password updated successfully", msgOf(t, ok))
}

func TestPasswordResetFlow(t *testing.T) {
	env := newTestEnv(t, catalog.Placeholder{})
	env.register(t, "alice", "alice@example.com")

	unknown := env.do(t, http.MethodPost, "/api/auth/forgotpassword", "", map[string]string{"email": "ghost@example.com"})
	assert.Equal(t, http.StatusNotFound, unknown.StatusCode)
	assert.Equal(t, "User not found", msgOf(t, unknown))

	forgot := env.do(t, http.MethodPost, "/api/auth/forgotpassword", "", map[string]string{"email": "alice@example.com"})
	require.Equal(t, http.StatusOK, forgot.StatusCode)
	var forgotBody map[string]interface{}
	decodeBody(t, forgot, &forgotBody)
	assert.Equal(t, true, forgotBody["success"])
	require.NotEmpty(t, env.notifier.token)

	reset := env.do(t, http.MethodPut, "/api/auth/resetpassword/"+env.notifier.token, "", map[string]string{"password": "brandnew"})
	require.Equal(t, http.StatusOK, reset.StatusCode)
	var resetBody map[string]interface{}
	decodeBody(t, reset, &resetBody)
	assert.Equal(t, "Password updated! You can now login.", resetBody["msg"])

	reused := env.do(t, http.MethodPut, "/api/auth/resetpassword/"+env.notifier.token, "", map[string]string{"password": "another1"})
	assert.Equal(t, http.StatusBadRequest, reused.StatusCode)
	assert.Equal(t, "Invalid or expired token", msgOf(t, reused))

	login := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "brandnew",
	})
	assert.Equal(t, http.StatusOK, login.StatusCode)
}

func TestPlaylistRoutes(t *testing.T) {
	env := newTestEnv(t, catalog.Placeholder{})
	alice := env.register(t, "alice", "alice@example.com")
	bob := env.register(t, "bob", "bob@example.com")

	created := env.do(t, http.MethodPost, "/api/playlists", alice.Token, map[string]string{})
	require.Equal(t, http.StatusOK, created.StatusCode)
	var p model.Playlist
	decodeBody(t, created, &p)
	assert.Equal(t, "New Playlist", p.Name)

	list := env.do(t, http.MethodGet, "/api/playlists", alice.Token, nil)
	var playlists []model.Playlist
	decodeBody(t, list, &playlists)
	require.Len(t, playlists, 2)
	assert.Equal(t, p.ID, playlists[0].ID)
	assert.True(t, playlists[1].IsFavorites)

	renamed := env.do(t, http.MethodPut, "/api/playlists/"+p.ID, alice.Token, map[string]string{"name": "Chill"})
	require.Equal(t, http.StatusOK, renamed.StatusCode)

	hijack := env.do(t, http.MethodPut, "/api/playlists/"+p.ID, bob.Token, map[string]string{"name": "Mine"})
	assert.Equal(t, http.StatusUnauthorized, hijack.StatusCode)
	assert.Equal(t, "Not authorized", msgOf(t, hijack))

	missing := env.do(t, http.MethodPut, "/api/playlists/nope", alice.Token, map[string]string{"name": "X"})
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
	assert.Equal(t, "Playlist not found", msgOf(t, missing))

	song := map[string]string{"videoId": "v1", "title": "One", "artist": "Band", "image": "img"}
	added := env.do(t, http.MethodPost, "/api/playlists/"+p.ID+"/songs", alice.Token, song)
	require.Equal(t, http.StatusOK, added.StatusCode)
	var songs []model.Song
	decodeBody(t, added, &songs)
	require.Len(t, songs, 1)
	assert.Equal(t, "v1", songs[0].VideoID)

	dup := env.do(t, http.MethodPost, "/api/playlists/"+p.ID+"/songs", alice.Token, song)
	assert.Equal(t, http.StatusBadRequest, dup.StatusCode)
	assert.Equal(t, "Song already in playlist", msgOf(t, dup))

	removed := env.do(t, http.MethodDelete, "/api/playlists/"+p.ID+"/songs/v1", alice.Token, nil)
	require.Equal(t, http.StatusOK, removed.StatusCode)
	decodeBody(t, removed, &songs)
	assert.Empty(t, songs)

	deleted := env.do(t, http.MethodDelete, "/api/playlists/"+p.ID, alice.Token, nil)
	require.Equal(t, http.StatusOK, deleted.StatusCode)
	assert.Equal(t, "Playlist removed", msgOf(t, deleted))

	gone := env.do(t, http.MethodDelete, "/api/playlists/"+p.ID, alice.Token, nil)
	assert.Equal(t, http.StatusNotFound, gone.StatusCode)
}

func TestFavoritesRoutes(t *testing.T) {
	env := newTestEnv(t, catalog.Placeholder{})
	alice := env.register(t, "alice", "alice@example.com")

	song := map[string]string{"videoId": "v1", "title": "One"}
	for i := 0; i < 2; i++ {
		resp := env.do(t, http.MethodPost, "/api/playlists/favorites/songs", alice.Token, song)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	fav := env.do(t, http.MethodGet, "/api/playlists/favorites", alice.Token, nil)
	require.Equal(t, http.StatusOK, fav.StatusCode)
	var p model.Playlist
	decodeBody(t, fav, &p)
	assert.Equal(t, "Favorites", p.Name)
	assert.Len(t, p.Songs, 1)

	unlike := env.do(t, http.MethodDelete, "/api/playlists/favorites/songs/v1", alice.Token, nil)
	require.Equal(t, http.StatusOK, unlike.StatusCode)
	var songs []model.Song
	decodeBody(t, unlike, &songs)
	assert.Empty(t, songs)
}

func TestRecommendAndSearch(t *testing.T) {
	env := newTestEnv(t, catalog.Placeholder{})

	resp := env.do(t, http.MethodPost, "/api/music/recommend", "", map[string]string{
		"mood": "Sad", "language": "English", "genre": "Pop", "mode": "improve",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("X-Catalog-Degraded"))
	var tracks []model.Track
	decodeBody(t, resp, &tracks)
	require.Len(t, tracks, 10)
	assert.Equal(t, "[Demo] English Sad Pop Song 1", tracks[0].Title)
	assert.Equal(t, "[Demo] English Calm Pop Song 1", tracks[2].Title)

	search := env.do(t, http.MethodGet, "/api/music/search?q=lofi&max=3", "", nil)
	require.Equal(t, http.StatusOK, search.StatusCode)
	decodeBody(t, search, &tracks)
	assert.Len(t, tracks, 3)

	noQuery := env.do(t, http.MethodGet, "/api/music/search", "", nil)
	assert.Equal(t, http.StatusBadRequest, noQuery.StatusCode)

	badMax := env.do(t, http.MethodGet, "/api/music/search?q=x&max=zero", "", nil)
	assert.Equal(t, http.StatusBadRequest, badMax.StatusCode)
}

func TestRecommendDegraded(t *testing.T) {
	env := newTestEnv(t, failingCatalog{failQuery: "English Calm Pop"})

	resp := env.do(t, http.MethodPost, "/api/music/recommend", "", map[string]string{
		"mood": "Sad", "language": "English", "genre": "Pop", "mode": "improve",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "1", resp.Header.Get("X-Catalog-Degraded"))
	var tracks []model.Track
	decodeBody(t, resp, &tracks)
	assert.Len(t, tracks, 6)
}

func TestSaveAndHistory(t *testing.T) {
	env := newTestEnv(t, catalog.Placeholder{})
	alice := env.register(t, "alice", "alice@example.com")

	for _, name := range []string{"First", "Second"} {
		resp := env.do(t, http.MethodPost, "/api/music/save", alice.Token, map[string]interface{}{
			"name":   name,
			"inputs": map[string]string{"mood": "Happy", "language": "English", "genre": "Pop", "mode": "match"},
			"tracks": []map[string]string{{"videoId": "v1", "title": "One"}},
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	noName := env.do(t, http.MethodPost, "/api/music/save", alice.Token, map[string]interface{}{"tracks": []interface{}{}})
	assert.Equal(t, http.StatusBadRequest, noName.StatusCode)

	history := env.do(t, http.MethodGet, "/api/music/history", alice.Token, nil)
	require.Equal(t, http.StatusOK, history.StatusCode)
	var mixes []model.SavedMix
	decodeBody(t, history, &mixes)
	require.Len(t, mixes, 2)
	assert.Equal(t, "Happy", mixes[0].Inputs.Mood)
	require.Len(t, mixes[0].Tracks, 1)

	unauth := env.do(t, http.MethodGet, "/api/music/history", "", nil)
	assert.Equal(t, http.StatusUnauthorized, unauth.StatusCode)
}

func TestCORSAndHealthz(t *testing.T) {
	env := newTestEnv(t, catalog.Placeholder{})

	req, err := http.NewRequest(http.MethodOptions, env.srv.URL+"/api/auth/login", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))

	health := env.do(t, http.MethodGet, "/api/healthz", "", nil)
	require.Equal(t, http.StatusOK, health.StatusCode)
	assert.NotEmpty(t, health.Header.Get("X-Request-ID"))
	var body map[string]string
	decodeBody(t, health, &body)
	assert.Equal(t, "ok", body["status"])
}
