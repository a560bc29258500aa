package match

import (
	"image"
	"math"
	"sort"

	"github.com/ironsheep/card-scanner/internal/imaging"
	"github.com/ironsheep/card-scanner/internal/templates"
)

const (
	// DefaultSize is the side of the canonical comparison square.
	DefaultSize = 50

	// DefaultThreshold is the score a match must exceed to be accepted.
	DefaultThreshold = 0.8
)

// Result is the outcome of matching one region against a library.
type Result struct {
	// ID is the matched template identifier; empty when nothing matched.
	ID string `json:"id,omitempty"`

	// Matched reports whether ID is set.
	Matched bool `json:"matched"`

	// Score is the best score seen, clamped to [0, 1].
	Score float64 `json:"score"`
}

// None is the result for a region that matched no template.
var None = Result{}

// Candidate is one template's score, as reported by Rank.
type Candidate struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// Matcher compares regions with templates.
type Matcher struct {
	Threshold float64
	Size      int
}

// New returns a Matcher with the default threshold and size.
func New() *Matcher {
	return &Matcher{Threshold: DefaultThreshold, Size: DefaultSize}
}

func (m *Matcher) size() int {
	if m.Size <= 0 {
		return DefaultSize
	}
	return m.Size
}

// Match returns the best template for region, or None.
func (m *Matcher) Match(region image.Image, lib *templates.Library) Result {
	if lib == nil || lib.Len() == 0 {
		return None
	}

	n := m.size()
	probe := newVector(imaging.ResizeGray(region, n, n))

	bestID := ""
	best := math.Inf(-1)
	for _, tmpl := range lib.Templates() {
		score := probe.correlate(newVector(imaging.ResizeGray(tmpl.Image, n, n)))
		if score > best {
			bestID, best = tmpl.ID, score
		}
	}

	if best > m.Threshold {
		return Result{ID: bestID, Matched: true, Score: clampScore(best)}
	}
	return Result{Score: clampScore(best)}
}

// Rank scores region against every template, best first. Equal scores keep
// library order. Candidates are ordered by raw correlation and report scores
// clamped to [0, 1].
func (m *Matcher) Rank(region image.Image, lib *templates.Library) []Candidate {
	if lib == nil || lib.Len() == 0 {
		return []Candidate{}
	}

	n := m.size()
	probe := newVector(imaging.ResizeGray(region, n, n))

	out := make([]Candidate, 0, lib.Len())
	for _, tmpl := range lib.Templates() {
		out = append(out, Candidate{
			ID:    tmpl.ID,
			Score: probe.correlate(newVector(imaging.ResizeGray(tmpl.Image, n, n))),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	for i := range out {
		out[i].Score = clampScore(out[i].Score)
	}
	return out
}

// Score returns the normalized cross-correlation of a and b after both are
// brought to the matcher's canonical size, clamped to [0, 1].
func (m *Matcher) Score(a, b image.Image) float64 {
	n := m.size()
	return clampScore(newVector(imaging.ResizeGray(a, n, n)).correlate(newVector(imaging.ResizeGray(b, n, n))))
}

// vector is a zero-mean pixel vector with its norm precomputed.
type vector struct {
	v    []float64
	norm float64
}

func newVector(pixels []float64) vector {
	var mean float64
	for _, p := range pixels {
		mean += p
	}
	if len(pixels) > 0 {
		mean /= float64(len(pixels))
	}

	v := make([]float64, len(pixels))
	var ss float64
	for i, p := range pixels {
		d := p - mean
		v[i] = d
		ss += d * d
	}
	return vector{v: v, norm: math.Sqrt(ss)}
}

// correlate returns the cosine of the two zero-mean vectors, or 0 when either
// has no variance.
func (a vector) correlate(b vector) float64 {
	if a.norm == 0 || b.norm == 0 || len(a.v) != len(b.v) {
		return 0
	}
	var dot float64
	for i := range a.v {
		dot += a.v[i] * b.v[i]
	}
	r := dot / (a.norm * b.norm)
	// Rounding can push identical vectors a hair past 1.
	return math.Max(-1, math.Min(1, r))
}

func clampScore(s float64) float64 {
	if math.IsInf(s, 0) || math.IsNaN(s) || s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}
