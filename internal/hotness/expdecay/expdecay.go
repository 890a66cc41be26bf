// Package expdecay scores origin codes with exponentially decaying counters.
package expdecay

import (
	"math"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/mohammed-shakir/airport-proximity/internal/hotness"
)

const numShards = 16

type Tracker struct {
	HalfLife time.Duration

	now func() time.Time

	shards [numShards]shard
}

type shard struct {
	mu sync.RWMutex
	m  map[string]*counter
}

type counter struct {
	score float64
	last  time.Time
}

var _ hotness.Ranker = (*Tracker)(nil)

func New(halfLife time.Duration) *Tracker {
	if halfLife <= 0 {
		halfLife = 10 * time.Minute
	}
	t := &Tracker{HalfLife: halfLife, now: time.Now}
	for i := range t.shards {
		t.shards[i].m = make(map[string]*counter)
	}
	return t
}

func (t *Tracker) Inc(code string) {
	if code == "" {
		return
	}
	s := t.pick(code)
	n := t.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.m[code]
	if c == nil {
		s.m[code] = &counter{score: 1, last: n}
		return
	}
	c.score = decay(c.score, n.Sub(c.last).Seconds(), t.HalfLife.Seconds()) + 1.0
	c.last = n
}

func (t *Tracker) Score(code string) float64 {
	if code == "" {
		return 0
	}
	s := t.pick(code)

	s.mu.RLock()
	c := s.m[code]
	if c == nil {
		s.mu.RUnlock()
		return 0
	}
	score, last := c.score, c.last
	s.mu.RUnlock()

	return decay(score, t.now().Sub(last).Seconds(), t.HalfLife.Seconds())
}

// Top returns the n highest-scoring codes, ties broken by code.
func (t *Tracker) Top(n int) []hotness.Entry {
	if n <= 0 {
		return nil
	}
	now := t.now()
	hl := t.HalfLife.Seconds()

	var all []hotness.Entry
	for i := range t.shards {
		s := &t.shards[i]
		s.mu.RLock()
		for code, c := range s.m {
			all = append(all, hotness.Entry{Code: code, Score: decay(c.score, now.Sub(c.last).Seconds(), hl)})
		}
		s.mu.RUnlock()
	}

	slices.SortFunc(all, func(a, b hotness.Entry) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return strings.Compare(a.Code, b.Code)
	})
	if len(all) > n {
		all = all[:n]
	}
	return all
}

func decay(score, dt, halfLife float64) float64 {
	if score == 0 || dt <= 0 || halfLife <= 0 {
		return score
	}
	lambda := math.Ln2 / halfLife
	return score * math.Exp(-lambda*dt)
}

func (t *Tracker) pick(code string) *shard {
	h := xxhash.Sum64String(code)
	return &t.shards[h&(numShards-1)]
}

func (t *Tracker) Size() int {
	total := 0
	for i := range t.shards {
		t.shards[i].mu.RLock()
		total += len(t.shards[i].m)
		t.shards[i].mu.RUnlock()
	}
	return total
}
