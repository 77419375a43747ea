// Package mood turns a mood selection into catalog queries and collects the
// resulting tracks.
package mood

import (
	"context"
	"fmt"
	"sync"

	"moodmusic/core/catalog"
	"moodmusic/logger"
	"moodmusic/model"
)

const (
	ModeMatch   = "match"
	ModeImprove = "improve"

	matchSize = 10
)

// transitions maps a mood to the two steps that lead away from it.
var transitions = map[string][2]string{
	"Sad":   {"Calm", "Happy"},
	"Tense": {"Calm", "Happy"},
	"Calm":  {"Calm", "Energetic"},
	"Happy": {"Happy", "Energetic"},
	"Focus": {"Focus", "Calm"},
}

var defaultTransition = [2]string{"Happy", "Happy"}

// Transition returns the improvement path for mood.
func Transition(mood string) [2]string {
	if t, ok := transitions[mood]; ok {
		return t
	}
	return defaultTransition
}

// Request is one recommendation query.
type Request struct {
	Mood     string `json:"mood"`
	Language string `json:"language"`
	Genre    string `json:"genre"`
	Mode     string `json:"mode"`
}

// Inputs converts the request for storage with a saved mix.
func (r Request) Inputs() model.MixInputs {
	return model.MixInputs{Mood: r.Mood, Language: r.Language, Genre: r.Genre, Mode: r.Mode}
}

// Batch is a single catalog call.
type Batch struct {
	Query string
	Size  int
}

// Result holds the concatenated tracks and how many batches failed.
type Result struct {
	Tracks        []model.Track
	FailedBatches int
}

// Query builds the catalog query for one mood.
func Query(language, mood, genre string) string {
	return fmt.Sprintf("%s %s %s", language, mood, genre)
}

// Plan lists the batches for req in result order. Any mode other than
// improve is treated as match.
func Plan(req Request) []Batch {
	if req.Mode != ModeImprove {
		return []Batch{{Query: Query(req.Language, req.Mood, req.Genre), Size: matchSize}}
	}

	t := Transition(req.Mood)
	second := t[1]
	if second == "" {
		second = t[0]
	}
	return []Batch{
		{Query: Query(req.Language, req.Mood, req.Genre), Size: 2},
		{Query: Query(req.Language, t[0], req.Genre), Size: 4},
		{Query: Query(req.Language, second, req.Genre), Size: 4},
	}
}

// Engine runs recommendation plans against a catalog client.
type Engine struct {
	client catalog.Client
}

// NewEngine creates an engine backed by client.
func NewEngine(client catalog.Client) *Engine {
	return &Engine{client: client}
}

// Recommend fetches every batch of the plan concurrently. A failed batch
// contributes no tracks; the others keep their order.
func (e *Engine) Recommend(ctx context.Context, req Request) Result {
	batches := Plan(req)
	results := make([][]model.Track, len(batches))
	failed := make([]bool, len(batches))

	var wg sync.WaitGroup
	for i, b := range batches {
		wg.Add(1)
		go func(i int, b Batch) {
			defer wg.Done()
			tracks, err := e.client.Search(ctx, b.Query, b.Size)
			if err != nil {
				logger.Warn("Recommendation batch failed",
					logger.String("query", b.Query),
					logger.Int("size", b.Size),
					logger.ErrorField(err))
				failed[i] = true
				return
			}
			results[i] = tracks
		}(i, b)
	}
	wg.Wait()

	out := Result{Tracks: []model.Track{}}
	for i := range batches {
		if failed[i] {
			out.FailedBatches++
			continue
		}
		out.Tracks = append(out.Tracks, results[i]...)
	}
	return out
}
