// Package player keeps the now-playing state of one signed-in client and
// drives an external playback device.
package player

import (
	"context"
	"math"
	"sync"

	"github.com/cockroachdb/errors"

	"moodmusic/model"
)

// ErrNothingPlaying is returned by operations that need a current track.
var ErrNothingPlaying = errors.New("no track loaded")

// DefaultVolume is the initial volume on a 0..1 scale.
const DefaultVolume = 0.5

// Device is the embedded video player. Volume is a 0..100 percentage.
type Device interface {
	Load(videoID string) error
	Play() error
	Pause() error
	Stop() error
	Seek(seconds float64) error
	SetVolume(percent int) error
	Duration() float64
	CurrentTime() float64
}

// LikeStore persists which tracks the user has liked.
type LikeStore interface {
	IsLiked(ctx context.Context, videoID string) (bool, error)
	Like(ctx context.Context, track model.Track) error
	Unlike(ctx context.Context, videoID string) error
}

// State is the playback state.
type State int

const (
	Idle State = iota
	Loading
	Paused
	Playing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Paused:
		return "paused"
	case Playing:
		return "playing"
	default:
		return "unknown"
	}
}

// Snapshot is a copy of the session state.
type Snapshot struct {
	State   State
	Current *model.Track
	Queue   []model.Track
	Index   int
	Liked   bool
	Volume  float64
}

// Session is safe for use from device callbacks on other goroutines.
type Session struct {
	device Device
	likes  LikeStore

	mu       sync.Mutex
	state    State
	current  *model.Track
	queue    []model.Track
	index    int
	wantPlay bool
	liked    bool
	volume   float64
}

// NewSession creates an idle session.
func NewSession(device Device, likes LikeStore) *Session {
	return &Session{
		device: device,
		likes:  likes,
		volume: DefaultVolume,
	}
}

// Play loads track. A non-empty list replaces the queue and the queue
// position moves to track, or to the start when track is not in list.
func (s *Session) Play(track model.Track, list []model.Track) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(list) > 0 {
		s.queue = append([]model.Track(nil), list...)
		s.index = 0
		for i, t := range s.queue {
			if t.VideoID == track.VideoID {
				s.index = i
				break
			}
		}
	}
	return s.loadLocked(track)
}

// Ready is called when the device finished loading.
func (s *Session) Ready() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Loading {
		return nil
	}
	if !s.wantPlay {
		s.state = Paused
		return nil
	}
	if err := s.device.Play(); err != nil {
		s.state = Paused
		return errors.Wrap(err, "device play")
	}
	s.state = Playing
	return nil
}

// TogglePlay switches between playing and paused. While loading it only
// changes what happens once the device is ready.
func (s *Session) TogglePlay() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case Playing:
		if err := s.device.Pause(); err != nil {
			return errors.Wrap(err, "device pause")
		}
		s.state = Paused
		s.wantPlay = false
	case Paused:
		if err := s.device.Play(); err != nil {
			return errors.Wrap(err, "device play")
		}
		s.state = Playing
		s.wantPlay = true
	case Loading:
		s.wantPlay = !s.wantPlay
	}
	return nil
}

// Next moves to the following queue entry, wrapping at the end.
func (s *Session) Next() error {
	return s.step(1)
}

// Prev moves to the preceding queue entry, wrapping at the start.
func (s *Session) Prev() error {
	return s.step(-1)
}

// Ended is called when the device reaches the end of the track.
func (s *Session) Ended() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.queue) == 0 {
		s.state = Idle
		s.wantPlay = false
		return nil
	}
	return s.stepLocked(1)
}

// SetVolume clamps v to [0,1] and applies it to the device.
func (s *Session) SetVolume(v float64) error {
	if math.IsNaN(v) {
		v = 0
	}
	v = math.Max(0, math.Min(1, v))

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.device.SetVolume(int(math.Round(v * 100))); err != nil {
		return errors.Wrap(err, "device volume")
	}
	s.volume = v
	return nil
}

// Seek jumps to seconds in the current track.
func (s *Session) Seek(seconds float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return ErrNothingPlaying
	}
	return s.device.Seek(seconds)
}

// Progress returns the playback position and track length in seconds.
func (s *Session) Progress() (current, duration float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return 0, 0
	}
	return s.device.CurrentTime(), s.device.Duration()
}

// RefreshLiked asks the store whether the current track is liked.
func (s *Session) RefreshLiked(ctx context.Context) (bool, error) {
	s.mu.Lock()
	if s.current == nil {
		s.mu.Unlock()
		return false, ErrNothingPlaying
	}
	videoID := s.current.VideoID
	s.mu.Unlock()

	liked, err := s.likes.IsLiked(ctx, videoID)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil && s.current.VideoID == videoID {
		s.liked = liked
	}
	return liked, nil
}

// ToggleLike likes or unlikes the current track. The local flag only
// changes once the store accepted the change.
func (s *Session) ToggleLike(ctx context.Context) (bool, error) {
	s.mu.Lock()
	if s.current == nil {
		s.mu.Unlock()
		return false, ErrNothingPlaying
	}
	track := *s.current
	liked := s.liked
	s.mu.Unlock()

	var err error
	if liked {
		err = s.likes.Unlike(ctx, track.VideoID)
	} else {
		err = s.likes.Like(ctx, track)
	}
	if err != nil {
		return liked, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil && s.current.VideoID == track.VideoID {
		s.liked = !liked
	}
	return !liked, nil
}

// Close stops playback and forgets the queue.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	if s.current != nil {
		err = s.device.Stop()
	}
	s.state = Idle
	s.current = nil
	s.queue = nil
	s.index = 0
	s.wantPlay = false
	s.liked = false
	return err
}

// State returns the playback state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Snapshot copies the session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		State:  s.state,
		Queue:  append([]model.Track(nil), s.queue...),
		Index:  s.index,
		Liked:  s.liked,
		Volume: s.volume,
	}
	if s.current != nil {
		cur := *s.current
		snap.Current = &cur
	}
	return snap
}

func (s *Session) step(delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.queue) == 0 {
		return nil
	}
	return s.stepLocked(delta)
}

func (s *Session) stepLocked(delta int) error {
	n := len(s.queue)
	s.index = ((s.index+delta)%n + n) % n
	return s.loadLocked(s.queue[s.index])
}

func (s *Session) loadLocked(track model.Track) error {
	t := track
	s.current = &t
	s.wantPlay = true
	s.liked = false
	s.state = Loading
	if err := s.device.Load(track.VideoID); err != nil {
		s.state = Idle
		return errors.Wrapf(err, "device load %s", track.VideoID)
	}
	return nil
}
