// Package replay keeps the transitions of played episodes in memory so
// they can be sampled again or exported.
package replay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	erand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/sampleuv"
)

// ErrEmpty is returned when sampling a buffer without transitions
var ErrEmpty = errors.New("no transitions available for sampling")

// PriorityEpsilon keeps zero reward transitions sampleable
const PriorityEpsilon = 0.01

// Transition is a single experience transition
type Transition struct {
	ID              string    `json:"id"`
	EnvID           string    `json:"env_id"`
	EpisodeID       string    `json:"episode_id"`
	StepNumber      int       `json:"step_number"`
	State           string    `json:"state"`
	Observation     []float64 `json:"observation"`
	Action          []float64 `json:"action"`
	NextObservation []float64 `json:"next_observation"`
	Reward          float64   `json:"reward"`
	Done            bool      `json:"done"`
	Priority        float64   `json:"priority"`
	Timestamp       time.Time `json:"timestamp"`
}

// Stats summarizes the buffer content
type Stats struct {
	TotalTransitions int            `json:"total_transitions"`
	TotalEpisodes    int            `json:"total_episodes"`
	TransitionsByEnv map[string]int `json:"transitions_by_env"`
	MeanReward       float64        `json:"mean_reward"`
	OldestTimestamp  *time.Time     `json:"oldest_timestamp,omitempty"`
	NewestTimestamp  *time.Time     `json:"newest_timestamp,omitempty"`
}

// Buffer is a bounded in-memory replay buffer. When full, the oldest
// transitions are evicted first.
type Buffer struct {
	mu          sync.Mutex
	transitions map[string]*Transition
	order       []string       // IDs, oldest first
	episodes    map[string]int // EpisodeID -> transitions
	envIndex    map[string]int // EnvID -> transitions
	maxSize     int
	rng         erand.Source
}

// NewBuffer creates a buffer holding at most maxSize transitions, zero
// means unbounded
func NewBuffer(maxSize int, seed uint64) *Buffer {
	return &Buffer{
		transitions: make(map[string]*Transition),
		order:       make([]string, 0),
		episodes:    make(map[string]int),
		envIndex:    make(map[string]int),
		maxSize:     maxSize,
		rng:         erand.NewSource(seed),
	}
}

// Store adds a transition, filling in a missing ID, timestamp and priority
func (b *Buffer) Store(ctx context.Context, t *Transition) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.store(t)
	return nil
}

func (b *Buffer) store(t *Transition) {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.Timestamp.IsZero() {
		t.Timestamp = time.Now()
	}
	if t.Priority == 0 {
		t.Priority = math.Abs(t.Reward) + PriorityEpsilon
	}
	if _, exists := b.transitions[t.ID]; exists {
		b.delete(t.ID)
	}

	b.transitions[t.ID] = t
	b.order = append(b.order, t.ID)
	b.episodes[t.EpisodeID]++
	b.envIndex[t.EnvID]++

	for b.maxSize > 0 && len(b.order) > b.maxSize {
		b.delete(b.order[0])
	}
}

// StoreBatch stores the transitions in order and returns their IDs
func (b *Buffer) StoreBatch(ctx context.Context, transitions []*Transition) ([]string, error) {
	ids := make([]string, len(transitions))
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, t := range transitions {
		if err := ctx.Err(); err != nil {
			return ids[:i], err
		}
		b.store(t)
		ids[i] = t.ID
	}
	return ids, nil
}

// Sample draws up to n distinct transitions, uniformly or in proportion to
// their priority
func (b *Buffer) Sample(ctx context.Context, n int, prioritized bool) ([]*Transition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.order) == 0 {
		return nil, ErrEmpty
	}
	if n <= 0 {
		return nil, fmt.Errorf("sample size must be positive, got %d", n)
	}
	if n > len(b.order) {
		n = len(b.order)
	}

	weights := make([]float64, len(b.order))
	for i, id := range b.order {
		weights[i] = 1
		if prioritized {
			weights[i] = math.Max(0, b.transitions[id].Priority)
		}
	}
	sampler := sampleuv.NewWeighted(weights, b.rng)

	out := make([]*Transition, 0, n)
	for len(out) < n {
		i, ok := sampler.Take()
		if !ok {
			break
		}
		out = append(out, b.transitions[b.order[i]])
	}
	return out, nil
}

// UpdatePriorities sets the priority of the given transitions, unknown IDs
// are ignored
func (b *Buffer) UpdatePriorities(ids []string, priorities []float64) error {
	if len(ids) != len(priorities) {
		return fmt.Errorf("mismatched lengths: %d IDs vs %d priorities", len(ids), len(priorities))
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, id := range ids {
		if t, ok := b.transitions[id]; ok {
			t.Priority = priorities[i]
		}
	}
	return nil
}

func (b *Buffer) Stats() *Stats {
	b.mu.Lock()
	defer b.mu.Unlock()

	stats := &Stats{
		TotalTransitions: len(b.order),
		TotalEpisodes:    len(b.episodes),
		TransitionsByEnv: make(map[string]int, len(b.envIndex)),
	}
	for env, count := range b.envIndex {
		stats.TransitionsByEnv[env] = count
	}
	if len(b.order) == 0 {
		return stats
	}
	total := 0.0
	for _, id := range b.order {
		total += b.transitions[id].Reward
	}
	stats.MeanReward = total / float64(len(b.order))
	oldest := b.transitions[b.order[0]].Timestamp
	newest := b.transitions[b.order[len(b.order)-1]].Timestamp
	stats.OldestTimestamp = &oldest
	stats.NewestTimestamp = &newest
	return stats
}

// Clear drops all but the keepLastN most recent transitions and returns
// how many were removed
func (b *Buffer) Clear(keepLastN int) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	if keepLastN < 0 {
		keepLastN = 0
	}
	removed := 0
	for len(b.order) > keepLastN {
		b.delete(b.order[0])
		removed++
	}
	return removed
}

func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.order)
}

// WriteJSONL writes one transition per line, oldest first
func (b *Buffer) WriteJSONL(w io.Writer) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	enc := json.NewEncoder(w)
	for _, id := range b.order {
		if err := enc.Encode(b.transitions[id]); err != nil {
			return fmt.Errorf("encoding transition %s: %w", id, err)
		}
	}
	return nil
}

func (b *Buffer) delete(id string) {
	t, ok := b.transitions[id]
	if !ok {
		return
	}
	delete(b.transitions, id)
	decrement(b.episodes, t.EpisodeID)
	decrement(b.envIndex, t.EnvID)
	for i, o := range b.order {
		if o == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
}

func decrement(m map[string]int, key string) {
	if m[key] <= 1 {
		delete(m, key)
		return
	}
	m[key]--
}
