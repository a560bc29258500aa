package pipeline

import (
	"errors"

	"github.com/ironsheep/card-scanner/internal/failure"
	"github.com/ironsheep/card-scanner/internal/imaging"
	"github.com/ironsheep/card-scanner/internal/marketplace"
	"github.com/ironsheep/card-scanner/internal/ocr"
)

// Stage names a pipeline state.
type Stage string

const (
	StageStart           Stage = "start"
	StageRegionExtracted Stage = "region_extracted"
	StageOCRComplete     Stage = "ocr_complete"
	StageMatchComplete   Stage = "match_complete"
	StageQueryBuilt      Stage = "query_built"
	StageSearchComplete  Stage = "search_complete"
	StageDone            Stage = "done"
)

// Warning records a stage that degraded instead of completing.
type Warning struct {
	Stage   Stage        `json:"stage"`
	Code    failure.Code `json:"code"`
	Message string       `json:"message"`
}

// Result is the outcome of identifying one card.
type Result struct {
	// ID uniquely identifies this scan.
	ID string `json:"id"`

	// Name is the recognized card name, or nil when no confident text was found.
	Name *string `json:"name"`

	// CardSet is the matched set identifier, or nil when no template matched.
	CardSet *string `json:"card_set"`

	// Listings holds comparable marketplace offers; never nil.
	Listings []marketplace.Listing `json:"listings"`

	// Query is the search phrase sent to the marketplace, possibly empty.
	Query string `json:"query"`

	// MatchScore is the best template score in [0, 1].
	MatchScore float64 `json:"match_score"`

	// Text is the confidence-filtered OCR output.
	Text []ocr.TextSpan `json:"ocr_results"`

	// FrameColor is the average color of the card border.
	FrameColor *imaging.ColorResult `json:"frame_color,omitempty"`

	Warnings []Warning `json:"warnings,omitempty"`
}

func newResult(id string) *Result {
	return &Result{
		ID:       id,
		Listings: []marketplace.Listing{},
		Text:     []ocr.TextSpan{},
	}
}

func (r *Result) warn(stage Stage, err error) Warning {
	w := Warning{Stage: stage, Code: failure.CodeOf(err), Message: err.Error()}
	var fe *failure.Error
	if errors.As(err, &fe) {
		w.Message = fe.Message
	}
	r.Warnings = append(r.Warnings, w)
	return w
}

// HasWarning reports whether a stage degraded with the given code.
func (r *Result) HasWarning(code failure.Code) bool {
	for _, w := range r.Warnings {
		if w.Code == code {
			return true
		}
	}
	return false
}
