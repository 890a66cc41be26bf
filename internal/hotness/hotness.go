// Package hotness ranks origin airports by recent query volume.
package hotness

type Interface interface {
	Inc(code string)
	Score(code string) float64
}

// Entry is one origin code and its decayed query score.
type Entry struct {
	Code  string  `json:"iata_code"`
	Score float64 `json:"score"`
}

type Ranker interface {
	Interface
	Top(n int) []Entry
	// Size is the number of distinct codes tracked.
	Size() int
}
