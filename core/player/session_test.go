package player

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moodmusic/core/playlist"
	"moodmusic/db/dbtest"
	"moodmusic/model"
	"moodmusic/repository"
)

type fakeDevice struct {
	mu      sync.Mutex
	loaded  []string
	playing bool
	stopped bool
	volume  int
	seekTo  float64
	loadErr error
}

func (d *fakeDevice) Load(videoID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.loadErr != nil {
		return d.loadErr
	}
	d.loaded = append(d.loaded, videoID)
	d.playing = false
	return nil
}

func (d *fakeDevice) Play() error { d.playing = true; return nil }
func (d *fakeDevice) Pause() error { d.playing = false; return nil }
func (d *fakeDevice) Stop() error { d.stopped = true; d.playing = false; return nil }
func (d *fakeDevice) Seek(s float64) error { d.seekTo = s; return nil }
func (d *fakeDevice) SetVolume(p int) error { d.volume = p; return nil }
func (d *fakeDevice) Duration() float64 { return 200 }
func (d *fakeDevice) CurrentTime() float64 { return d.seekTo }
func (d *fakeDevice) lastLoaded() string { return d.loaded[len(d.loaded)-1] }

type memLikes struct {
	liked map[string]bool
	err   error
}

func newMemLikes() *memLikes { return &memLikes{liked: map[string]bool{}} }

func (m *memLikes) IsLiked(_ context.Context, id string) (bool, error) { return m.liked[id], m.err }

func (m *memLikes) Like(_ context.Context, t model.Track) error {
	if m.err != nil {
		return m.err
	}
	m.liked[t.VideoID] = true
	return nil
}

func (m *memLikes) Unlike(_ context.Context, id string) error {
	if m.err != nil {
		return m.err
	}
	delete(m.liked, id)
	return nil
}

func tracks(n int) []model.Track {
	out := make([]model.Track, n)
	for i := range out {
		out[i] = model.Track{VideoID: fmt.Sprintf("v%d", i), Title: fmt.Sprintf("Track %d", i)}
	}
	return out
}

func TestPlay_LoadsAndBecomesPlaying(t *testing.T) {
	dev := &fakeDevice{}
	s := NewSession(dev, newMemLikes())
	list := tracks(3)

	require.NoError(t, s.Play(list[1], list))
	assert.Equal(t, Loading, s.State())
	assert.Equal(t, "v1", dev.lastLoaded())

	require.NoError(t, s.Ready())
	assert.Equal(t, Playing, s.State())
	assert.True(t, dev.playing)

	snap := s.Snapshot()
	assert.Equal(t, 1, snap.Index)
	assert.Len(t, snap.Queue, 3)
	assert.Equal(t, "v1", snap.Current.VideoID)
	assert.Equal(t, DefaultVolume, snap.Volume)
}

func TestPlay_TrackNotInListStartsAtZero(t *testing.T) {
	s := NewSession(&fakeDevice{}, newMemLikes())
	require.NoError(t, s.Play(model.Track{VideoID: "elsewhere"}, tracks(3)))
	assert.Equal(t, 0, s.Snapshot().Index)
}

func TestPlay_EmptyListKeepsQueue(t *testing.T) {
	s := NewSession(&fakeDevice{}, newMemLikes())
	list := tracks(3)
	require.NoError(t, s.Play(list[2], list))
	require.NoError(t, s.Play(model.Track{VideoID: "single"}, nil))

	snap := s.Snapshot()
	assert.Len(t, snap.Queue, 3)
	assert.Equal(t, 2, snap.Index)
	assert.Equal(t, "single", snap.Current.VideoID)
}

func TestTogglePlay(t *testing.T) {
	dev := &fakeDevice{}
	s := NewSession(dev, newMemLikes())
	require.NoError(t, s.Play(tracks(1)[0], nil))

	// toggled off while loading: ready leaves it paused
	require.NoError(t, s.TogglePlay())
	require.NoError(t, s.Ready())
	assert.Equal(t, Paused, s.State())
	assert.False(t, dev.playing)

	require.NoError(t, s.TogglePlay())
	assert.Equal(t, Playing, s.State())
	assert.True(t, dev.playing)

	require.NoError(t, s.TogglePlay())
	assert.Equal(t, Paused, s.State())
	assert.False(t, dev.playing)
}

func TestNextPrev_Circular(t *testing.T) {
	dev := &fakeDevice{}
	s := NewSession(dev, newMemLikes())
	list := tracks(3)
	require.NoError(t, s.Play(list[2], list))

	require.NoError(t, s.Next())
	assert.Equal(t, "v0", dev.lastLoaded())
	assert.Equal(t, Loading, s.State())

	require.NoError(t, s.Prev())
	assert.Equal(t, "v2", dev.lastLoaded())
	require.NoError(t, s.Prev())
	assert.Equal(t, "v1", dev.lastLoaded())

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Next())
	}
	assert.Equal(t, "v1", dev.lastLoaded())
}

func TestNextPrev_EmptyQueueIsNoop(t *testing.T) {
	dev := &fakeDevice{}
	s := NewSession(dev, newMemLikes())
	require.NoError(t, s.Next())
	require.NoError(t, s.Prev())
	assert.Empty(t, dev.loaded)
	assert.Equal(t, Idle, s.State())
}

func TestEnded(t *testing.T) {
	dev := &fakeDevice{}
	s := NewSession(dev, newMemLikes())
	list := tracks(2)
	require.NoError(t, s.Play(list[1], list))
	require.NoError(t, s.Ended())
	assert.Equal(t, "v0", dev.lastLoaded())

	single := NewSession(&fakeDevice{}, newMemLikes())
	require.NoError(t, single.Play(model.Track{VideoID: "x"}, nil))
	require.NoError(t, single.Ready())
	require.NoError(t, single.Ended())
	assert.Equal(t, Idle, single.State())
}

func TestSetVolume(t *testing.T) {
	dev := &fakeDevice{}
	s := NewSession(dev, newMemLikes())

	require.NoError(t, s.SetVolume(0.756))
	assert.Equal(t, 76, dev.volume)
	assert.InDelta(t, 0.756, s.Snapshot().Volume, 1e-9)

	require.NoError(t, s.SetVolume(1.7))
	assert.Equal(t, 100, dev.volume)

	require.NoError(t, s.SetVolume(-0.2))
	assert.Equal(t, 0, dev.volume)
}

func TestSeekAndProgress(t *testing.T) {
	dev := &fakeDevice{}
	s := NewSession(dev, newMemLikes())

	assert.ErrorIs(t, s.Seek(10), ErrNothingPlaying)
	cur, dur := s.Progress()
	assert.Zero(t, cur)
	assert.Zero(t, dur)

	require.NoError(t, s.Play(tracks(1)[0], nil))
	require.NoError(t, s.Seek(42))
	cur, dur = s.Progress()
	assert.Equal(t, 42.0, cur)
	assert.Equal(t, 200.0, dur)
}

func TestToggleLike(t *testing.T) {
	likes := newMemLikes()
	s := NewSession(&fakeDevice{}, likes)

	_, err := s.ToggleLike(context.Background())
	assert.ErrorIs(t, err, ErrNothingPlaying)

	require.NoError(t, s.Play(tracks(1)[0], nil))
	liked, err := s.ToggleLike(context.Background())
	require.NoError(t, err)
	assert.True(t, liked)
	assert.True(t, likes.liked["v0"])
	assert.True(t, s.Snapshot().Liked)

	liked, err = s.ToggleLike(context.Background())
	require.NoError(t, err)
	assert.False(t, liked)
	assert.False(t, likes.liked["v0"])
}

func TestToggleLike_StoreFailureKeepsFlag(t *testing.T) {
	likes := newMemLikes()
	s := NewSession(&fakeDevice{}, likes)
	require.NoError(t, s.Play(tracks(1)[0], nil))

	likes.err = errors.New("offline")
	liked, err := s.ToggleLike(context.Background())
	assert.Error(t, err)
	assert.False(t, liked)
	assert.False(t, s.Snapshot().Liked)
}

func TestRefreshLiked(t *testing.T) {
	likes := newMemLikes()
	likes.liked["v0"] = true
	s := NewSession(&fakeDevice{}, likes)
	require.NoError(t, s.Play(tracks(1)[0], nil))
	assert.False(t, s.Snapshot().Liked)

	liked, err := s.RefreshLiked(context.Background())
	require.NoError(t, err)
	assert.True(t, liked)
	assert.True(t, s.Snapshot().Liked)
}

func TestClose(t *testing.T) {
	dev := &fakeDevice{}
	s := NewSession(dev, newMemLikes())
	require.NoError(t, s.Play(tracks(2)[0], tracks(2)))

	require.NoError(t, s.Close())
	assert.True(t, dev.stopped)
	snap := s.Snapshot()
	assert.Equal(t, Idle, snap.State)
	assert.Nil(t, snap.Current)
	assert.Empty(t, snap.Queue)
}

func TestLoadFailure(t *testing.T) {
	dev := &fakeDevice{loadErr: errors.New("unavailable")}
	s := NewSession(dev, newMemLikes())
	assert.Error(t, s.Play(tracks(1)[0], nil))
	assert.Equal(t, Idle, s.State())
}

func TestSession_WithPlaylistFavorites(t *testing.T) {
	svc := playlist.NewService(repository.NewGormPlaylistRepository(dbtest.New(t)))
	s := NewSession(&fakeDevice{}, svc.FavoritesFor("u1"))
	ctx := context.Background()

	require.NoError(t, s.Play(model.Track{VideoID: "v9", Title: "Nine", Channel: "Band"}, nil))
	liked, err := s.ToggleLike(ctx)
	require.NoError(t, err)
	assert.True(t, liked)

	fav, err := svc.Favorites(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, fav.Songs, 1)
	assert.Equal(t, "v9", fav.Songs[0].VideoID)

	liked, err = s.RefreshLiked(ctx)
	require.NoError(t, err)
	assert.True(t, liked)
}
