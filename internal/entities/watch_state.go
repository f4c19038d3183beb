package entities

import "math"

// Progress is how far a user got through one video, in seconds.
type Progress struct {
	Progress float64 `json:"progress"`
	Duration float64 `json:"duration"`
}

// Fraction returns progress as a 0..1 ratio, clamped.
func (p Progress) Fraction() float64 {
	if p.Duration <= 0 {
		return 0
	}
	f := p.Progress / p.Duration
	if f > 1 {
		return 1
	}
	if f < 0 {
		return 0
	}
	return f
}

// ProgressMap maps video id to progress for a single user.
type ProgressMap map[string]Progress

func (p Progress) valid() bool {
	for _, v := range []float64{p.Progress, p.Duration} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return false
		}
	}
	return true
}

// Normalize drops entries with a blank id or a negative or non-finite value,
// keeping the rest. It reports how many were dropped.
func (m ProgressMap) Normalize() (ProgressMap, int) {
	dropped := 0
	for id, p := range m {
		if id == "" || !p.valid() {
			delete(m, id)
			dropped++
		}
	}
	return m, dropped
}

// CompletionSet is the ordered list of video ids a user has finished.
type CompletionSet []string

func (c CompletionSet) Contains(videoID string) bool {
	for _, id := range c {
		if id == videoID {
			return true
		}
	}
	return false
}

// Toggle flips membership of videoID and reports whether it is now present.
func (c CompletionSet) Toggle(videoID string) (CompletionSet, bool) {
	for i, id := range c {
		if id == videoID {
			out := make(CompletionSet, 0, len(c)-1)
			out = append(out, c[:i]...)
			return append(out, c[i+1:]...), false
		}
	}
	return append(c, videoID), true
}

// Lookup builds a membership index for read-side joins.
func (c CompletionSet) Lookup() map[string]struct{} {
	idx := make(map[string]struct{}, len(c))
	for _, id := range c {
		idx[id] = struct{}{}
	}
	return idx
}

// Normalize drops blank ids and repeats, keeping the first occurrence of each
// id in place. It reports how many entries were dropped.
func (c CompletionSet) Normalize() (CompletionSet, int) {
	seen := make(map[string]struct{}, len(c))
	out := c[:0]
	for _, id := range c {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, len(c) - len(out)
}
