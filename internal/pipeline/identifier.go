package pipeline

import (
	"context"
	"image"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ironsheep/card-scanner/internal/failure"
	"github.com/ironsheep/card-scanner/internal/imaging"
	"github.com/ironsheep/card-scanner/internal/marketplace"
	"github.com/ironsheep/card-scanner/internal/match"
	"github.com/ironsheep/card-scanner/internal/ocr"
	"github.com/ironsheep/card-scanner/internal/query"
	"github.com/ironsheep/card-scanner/internal/templates"
)

// DefaultSearchTimeout bounds the marketplace call.
const DefaultSearchTimeout = 5 * time.Second

// TemplateSource supplies the current template library.
type TemplateSource interface {
	Library() *templates.Library
}

// Recorder persists finished identifications.
type Recorder interface {
	Record(ctx context.Context, r *Result) error
}

// Options tunes the stages.
type Options struct {
	RegionBox      imaging.RelativeBox
	MinConfidence  float64
	MatchThreshold float64
	MatchSize      int
	SearchLimit    int
	SearchTimeout  time.Duration
	FrameWidth     float64
}

// DefaultOptions returns the standard stage settings.
func DefaultOptions() Options {
	return Options{
		RegionBox:      imaging.SetIconBox,
		MinConfidence:  ocr.DefaultMinConfidence,
		MatchThreshold: match.DefaultThreshold,
		MatchSize:      match.DefaultSize,
		SearchLimit:    marketplace.DefaultLimit,
		SearchTimeout:  DefaultSearchTimeout,
		FrameWidth:     imaging.DefaultFrameWidth,
	}
}

// Config wires an Identifier.
type Config struct {
	Templates TemplateSource
	Engine    ocr.Engine
	Searcher  marketplace.Searcher

	// Recorder is optional; recording failures are logged only.
	Recorder Recorder

	Options Options
	Logger  *slog.Logger
}

// Identifier runs the identification pipeline. It is safe for concurrent use
// when its Engine and Searcher are.
type Identifier struct {
	templates TemplateSource
	extractor *ocr.Extractor
	matcher   *match.Matcher
	searcher  marketplace.Searcher
	recorder  Recorder
	opts      Options
	logger    *slog.Logger
}

// New creates an Identifier. A nil Searcher disables marketplace search.
// Zero Options mean DefaultOptions. Otherwise unset sizes, limits and
// timeouts take their defaults while thresholds are used as given.
func New(cfg Config) *Identifier {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	opts := cfg.Options
	if opts == (Options{}) {
		opts = DefaultOptions()
	}
	if opts.SearchTimeout <= 0 {
		opts.SearchTimeout = DefaultSearchTimeout
	}
	if opts.MatchSize <= 0 {
		opts.MatchSize = match.DefaultSize
	}
	if opts.RegionBox == (imaging.RelativeBox{}) {
		opts.RegionBox = imaging.SetIconBox
	}
	if opts.SearchLimit <= 0 {
		opts.SearchLimit = marketplace.DefaultLimit
	}
	if opts.FrameWidth <= 0 {
		opts.FrameWidth = imaging.DefaultFrameWidth
	}

	var extractor *ocr.Extractor
	if cfg.Engine != nil {
		extractor = &ocr.Extractor{Engine: cfg.Engine, MinConfidence: opts.MinConfidence}
	}

	searcher := cfg.Searcher
	if searcher == nil {
		searcher = marketplace.Disabled{}
	}

	return &Identifier{
		templates: cfg.Templates,
		extractor: extractor,
		matcher:   &match.Matcher{Threshold: opts.MatchThreshold, Size: opts.MatchSize},
		searcher:  searcher,
		recorder:  cfg.Recorder,
		opts:      opts,
		logger:    logger,
	}
}

// Options returns the stage settings in effect.
func (id *Identifier) Options() Options { return id.opts }

// IdentifyCard decodes data and identifies the card it shows.
func (id *Identifier) IdentifyCard(ctx context.Context, data []byte) (*Result, error) {
	img, _, err := imaging.Decode(data)
	if err != nil {
		return nil, err
	}
	return id.Identify(ctx, img)
}

// Identify runs every stage on a decoded image. The only error it returns is
// INVALID_IMAGE for a nil or empty image.
func (id *Identifier) Identify(ctx context.Context, img image.Image) (*Result, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, failure.Newf(failure.InvalidImage, "image has no pixels")
	}

	res := newResult(uuid.NewString())
	log := id.logger.With("scan_id", res.ID)
	start := time.Now()
	log.Debug("identification started", "stage", StageStart,
		"width", img.Bounds().Dx(), "height", img.Bounds().Dy())

	region, err := imaging.ExtractRegion(img, id.opts.RegionBox)
	if err != nil {
		id.degrade(log, res, StageRegionExtracted, err)
	}

	extraction, err := id.ExtractText(ctx, img)
	if err != nil {
		id.degrade(log, res, StageOCRComplete, err)
	} else {
		res.Text = extraction.Spans
		if name, ok := query.Name(extraction.Spans); ok {
			res.Name = &name
		}
	}

	if region != nil {
		m := id.matcher.Match(region.Image, id.library())
		res.MatchScore = m.Score
		if m.Matched {
			set := m.ID
			res.CardSet = &set
		}
		log.Debug("icon matched", "stage", StageMatchComplete, "set", m.ID, "score", m.Score)
	}

	res.Query = query.Build(res.Text)
	log.Debug("query built", "stage", StageQueryBuilt, "query", res.Query)

	if res.Query != "" {
		listings, err := id.Search(ctx, res.Query, id.opts.SearchLimit)
		if err != nil {
			id.degrade(log, res, StageSearchComplete, err)
		} else {
			res.Listings = listings
		}
	}

	frame := imaging.FrameColor(img, id.opts.FrameWidth)
	res.FrameColor = &frame

	if id.recorder != nil {
		if err := id.recorder.Record(ctx, res); err != nil {
			log.Warn("failed to record scan", "err", err)
		}
	}

	log.Info("card identified", "stage", StageDone,
		"name", deref(res.Name), "set", deref(res.CardSet),
		"listings", len(res.Listings), "warnings", len(res.Warnings),
		"duration", time.Since(start))
	return res, nil
}

// ExtractText runs the OCR stage alone.
func (id *Identifier) ExtractText(ctx context.Context, img image.Image) (*ocr.Extraction, error) {
	if id.extractor == nil {
		return nil, failure.New(failure.OCRFailed, "ocr is not available", ocr.ErrUnavailable)
	}
	return id.extractor.Extract(ctx, img)
}

// MatchIcon runs the region and match stages alone.
func (id *Identifier) MatchIcon(img image.Image) (match.Result, *imaging.Region, error) {
	region, err := imaging.ExtractRegion(img, id.opts.RegionBox)
	if err != nil {
		return match.None, nil, err
	}
	return id.matcher.Match(region.Image, id.library()), region, nil
}

// RankIcon scores the set-icon region against every template.
func (id *Identifier) RankIcon(img image.Image) ([]match.Candidate, error) {
	region, err := imaging.ExtractRegion(img, id.opts.RegionBox)
	if err != nil {
		return nil, err
	}
	return id.matcher.Rank(region.Image, id.library()), nil
}

// Search queries the marketplace under the configured timeout. Listings are
// never nil on success.
func (id *Identifier) Search(ctx context.Context, q string, limit int) ([]marketplace.Listing, error) {
	if limit <= 0 {
		limit = id.opts.SearchLimit
	}

	ctx, cancel := context.WithTimeout(ctx, id.opts.SearchTimeout)
	defer cancel()

	listings, err := id.searcher.Search(ctx, q, limit)
	if err != nil {
		if !failure.HasCode(err, failure.SearchFailed) {
			err = failure.New(failure.SearchFailed, "marketplace search failed", err)
		}
		return nil, err
	}
	if listings == nil {
		listings = []marketplace.Listing{}
	}
	return listings, nil
}

// Templates returns the library currently in use.
func (id *Identifier) Templates() *templates.Library {
	return id.library()
}

func (id *Identifier) library() *templates.Library {
	if id.templates == nil {
		return templates.Empty()
	}
	if lib := id.templates.Library(); lib != nil {
		return lib
	}
	return templates.Empty()
}

func (id *Identifier) degrade(log *slog.Logger, res *Result, stage Stage, err error) {
	w := res.warn(stage, err)
	log.Warn("stage degraded", "stage", stage, "code", w.Code, "err", err)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
