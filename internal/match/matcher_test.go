package match

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/ironsheep/card-scanner/internal/templates"
)

// grayFunc builds a w x h grayscale image from a pixel function.
func grayFunc(w, h int, f func(x, y int) uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: f(x, y)})
		}
	}
	return img
}

// diagonal is bright above the main diagonal, dark below.
func diagonal(w, h int, lo, hi uint8) *image.Gray {
	return grayFunc(w, h, func(x, y int) uint8 {
		if x*h > y*w {
			return hi
		}
		return lo
	})
}

// stripes has vertical bands of the given period.
func stripes(w, h, period int) *image.Gray {
	return grayFunc(w, h, func(x, y int) uint8 {
		if (x/period)%2 == 0 {
			return 255
		}
		return 0
	})
}

// ring is a bright circle on a dark background.
func ring(w, h int) *image.Gray {
	return grayFunc(w, h, func(x, y int) uint8 {
		dx := float64(x) - float64(w)/2
		dy := float64(y) - float64(h)/2
		if d := math.Hypot(dx, dy); d > float64(w)/5 && d < float64(w)/3 {
			return 255
		}
		return 0
	})
}

func flat(w, h int, v uint8) *image.Gray {
	return grayFunc(w, h, func(x, y int) uint8 { return v })
}

func library(ts ...*templates.Template) *templates.Library {
	return templates.FromTemplates(ts...)
}

func tmpl(id string, img *image.Gray) *templates.Template {
	return &templates.Template{ID: id, Image: img}
}

func TestMatch_ExactTemplate(t *testing.T) {
	lib := library(
		tmpl("jungle", stripes(50, 50, 5)),
		tmpl("base-set", diagonal(50, 50, 0, 255)),
		tmpl("fossil", ring(50, 50)),
	)

	got := New().Match(diagonal(50, 50, 0, 255), lib)
	if !got.Matched || got.ID != "base-set" {
		t.Fatalf("expected base-set, got %+v", got)
	}
	if got.Score < 0.999 || got.Score > 1 {
		t.Errorf("Score: got %v, want ~1.0", got.Score)
	}
}

func TestMatch_ResizedRegion(t *testing.T) {
	lib := library(
		tmpl("jungle", stripes(64, 64, 8)),
		tmpl("fossil", ring(80, 80)),
	)

	// Same ring drawn at a larger scale, as cropped from a high resolution photo
	got := New().Match(ring(240, 240), lib)
	if !got.Matched || got.ID != "fossil" {
		t.Fatalf("expected fossil, got %+v", got)
	}
	if got.Score <= DefaultThreshold {
		t.Errorf("Score should exceed threshold, got %v", got.Score)
	}
}

func TestMatch_BrightnessInvariant(t *testing.T) {
	lib := library(tmpl("base-set", diagonal(50, 50, 0, 255)))

	got := New().Match(diagonal(50, 50, 60, 180), lib)
	if !got.Matched || got.ID != "base-set" {
		t.Fatalf("expected base-set despite low contrast, got %+v", got)
	}
}

func TestMatch_BelowThreshold(t *testing.T) {
	lib := library(
		tmpl("jungle", stripes(50, 50, 5)),
		tmpl("fossil", ring(50, 50)),
	)

	got := New().Match(diagonal(50, 50, 0, 255), lib)
	if got.Matched || got.ID != "" {
		t.Fatalf("expected no match, got %+v", got)
	}
	if got.Score > DefaultThreshold {
		t.Errorf("unmatched result reports score %v above threshold", got.Score)
	}
}

func TestMatch_ThresholdIsExclusive(t *testing.T) {
	lib := library(tmpl("base-set", diagonal(50, 50, 0, 255)))

	m := &Matcher{Threshold: 1.0, Size: DefaultSize}
	if got := m.Match(diagonal(50, 50, 0, 255), lib); got.Matched {
		t.Errorf("score equal to threshold must not match, got %+v", got)
	}
}

func TestMatch_EmptyLibrary(t *testing.T) {
	regions := []image.Image{
		diagonal(50, 50, 0, 255),
		flat(10, 10, 255),
		ring(100, 100),
	}
	for _, region := range regions {
		if got := New().Match(region, templates.Empty()); got != None {
			t.Errorf("empty library should never match, got %+v", got)
		}
		if got := New().Match(region, nil); got != None {
			t.Errorf("nil library should never match, got %+v", got)
		}
	}
}

func TestMatch_TieKeepsFirst(t *testing.T) {
	lib := library(
		tmpl("first", diagonal(50, 50, 0, 255)),
		tmpl("second", diagonal(50, 50, 0, 255)),
	)

	got := New().Match(diagonal(50, 50, 0, 255), lib)
	if got.ID != "first" {
		t.Errorf("tie should keep the first template, got %q", got.ID)
	}
}

func TestMatch_FlatRegion(t *testing.T) {
	lib := library(
		tmpl("white", flat(50, 50, 255)),
		tmpl("base-set", diagonal(50, 50, 0, 255)),
	)

	got := New().Match(flat(30, 30, 255), lib)
	if got.Matched {
		t.Errorf("flat region should not match, got %+v", got)
	}
	if got.Score != 0 {
		t.Errorf("flat region score: got %v, want 0", got.Score)
	}
}

func TestMatch_InvertedScoresZero(t *testing.T) {
	lib := library(tmpl("base-set", diagonal(50, 50, 0, 255)))

	got := New().Match(diagonal(50, 50, 255, 0), lib)
	if got.Matched {
		t.Errorf("inverted pattern should not match, got %+v", got)
	}
	if got.Score != 0 {
		t.Errorf("negative correlation should clamp to 0, got %v", got.Score)
	}
}

func TestMatch_AcceptsColorRegion(t *testing.T) {
	lib := library(tmpl("base-set", diagonal(50, 50, 0, 255)))

	src := diagonal(50, 50, 0, 255)
	region := image.NewRGBA(src.Bounds())
	for y := 0; y < 50; y++ {
		for x := 0; x < 50; x++ {
			v := src.GrayAt(x, y).Y
			region.Set(x, y, color.RGBA{v, v, v, 255})
		}
	}

	if got := New().Match(region, lib); got.ID != "base-set" {
		t.Errorf("expected base-set, got %+v", got)
	}
}

func TestRank(t *testing.T) {
	lib := library(
		tmpl("jungle", stripes(50, 50, 5)),
		tmpl("base-set", diagonal(50, 50, 0, 255)),
		tmpl("copy", diagonal(50, 50, 0, 255)),
		tmpl("white", flat(50, 50, 255)),
	)

	ranked := New().Rank(diagonal(50, 50, 0, 255), lib)
	if len(ranked) != 4 {
		t.Fatalf("len: got %d, want 4", len(ranked))
	}
	if ranked[0].ID != "base-set" || ranked[1].ID != "copy" {
		t.Errorf("top two: got %s, %s", ranked[0].ID, ranked[1].ID)
	}
	for i := 1; i < len(ranked); i++ {
		if ranked[i].Score > ranked[i-1].Score {
			t.Errorf("not sorted at %d: %v > %v", i, ranked[i].Score, ranked[i-1].Score)
		}
	}

	for _, c := range ranked {
		if c.Score < 0 || c.Score > 1 {
			t.Errorf("%s: score %v outside [0, 1]", c.ID, c.Score)
		}
	}

	if got := New().Rank(flat(5, 5, 0), templates.Empty()); got == nil || len(got) != 0 {
		t.Errorf("empty library rank: got %v", got)
	}
}

func TestRank_InvertedClampsToZero(t *testing.T) {
	lib := library(
		tmpl("inverted", diagonal(50, 50, 255, 0)),
		tmpl("jungle", stripes(50, 50, 5)),
	)

	ranked := New().Rank(diagonal(50, 50, 0, 255), lib)
	if len(ranked) != 2 {
		t.Fatalf("len: got %d, want 2", len(ranked))
	}
	if ranked[1].ID != "inverted" {
		t.Errorf("inverted template should rank last, got %+v", ranked)
	}
	if ranked[1].Score != 0 {
		t.Errorf("inverted score: got %v, want 0", ranked[1].Score)
	}
}

func TestScore(t *testing.T) {
	m := New()

	tests := []struct {
		name string
		a, b image.Image
		want float64
	}{
		{"identical", ring(50, 50), ring(50, 50), 1},
		{"inverted", diagonal(50, 50, 0, 255), diagonal(50, 50, 255, 0), 0},
		{"flat", flat(50, 50, 10), ring(50, 50), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.Score(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
