package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ironsheep/card-scanner/internal/config"
	"github.com/ironsheep/card-scanner/internal/history"
	"github.com/ironsheep/card-scanner/internal/httpapi"
	"github.com/ironsheep/card-scanner/internal/marketplace"
	"github.com/ironsheep/card-scanner/internal/ocr"
	"github.com/ironsheep/card-scanner/internal/pipeline"
	"github.com/ironsheep/card-scanner/internal/templates"
)

// app holds the long-lived components shared by every command.
type app struct {
	store      *templates.Store
	pool       *ocr.Pool
	ocrInfo    ocr.Info
	cache      *marketplace.RedisCache
	history    *history.Store
	identifier *pipeline.Identifier
}

// newApp wires the pipeline from cfg. Only a missing template directory is
// fatal; OCR, search, cache and history fall back to disabled.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	store, err := templates.NewStore(cfg.TemplateDir, logger)
	if err != nil {
		return nil, err
	}
	a := &app{store: store}

	pool, err := ocr.NewPool(cfg.OCRWorkers, func() (ocr.Engine, error) {
		t, err := ocr.NewTesseract(ocr.TesseractOptions{
			Language:       cfg.OCRLanguage,
			TessdataPrefix: cfg.TessdataPrefix,
		})
		if err != nil {
			return nil, err
		}
		return t, nil
	})
	a.ocrInfo = ocr.Describe(pool, err)
	if err != nil {
		logger.Warn("ocr unavailable, text recognition disabled", "err", err)
	} else {
		a.pool = pool
		logger.Info("ocr ready", "version", a.ocrInfo.Version, "workers", a.ocrInfo.Workers)
	}

	searcher := a.newSearcher(ctx, cfg, logger)

	var recorder pipeline.Recorder
	if cfg.DatabaseDSN != "" {
		h, err := history.Open(cfg.DatabaseDSN)
		if err != nil {
			logger.Warn("scan history unavailable", "err", err)
		} else {
			a.history = h
			recorder = h
		}
	}

	pc := pipeline.Config{
		Templates: store,
		Searcher:  searcher,
		Recorder:  recorder,
		Options:   cfg.PipelineOptions(),
		Logger:    logger,
	}
	if a.pool != nil {
		pc.Engine = a.pool
	}
	a.identifier = pipeline.New(pc)

	logger.Info("pipeline ready",
		"templates", store.Library().Len(),
		"ocr", a.ocrInfo.Available,
		"search", cfg.SearchEnabled(),
		"history", a.history != nil)
	return a, nil
}

// newSearcher builds eBay -> rate limiter -> optional Redis cache.
func (a *app) newSearcher(ctx context.Context, cfg *config.Config, logger *slog.Logger) marketplace.Searcher {
	if !cfg.SearchEnabled() {
		logger.Warn("EBAY_APP_ID not set, marketplace search disabled")
		return marketplace.Disabled{Reason: "EBAY_APP_ID is not configured"}
	}

	var s marketplace.Searcher = marketplace.NewEbayClient(marketplace.EbayOptions{
		AppID:    cfg.EbayAppID,
		Endpoint: cfg.EbayEndpoint,
		Timeout:  cfg.SearchTimeout,
		Logger:   logger,
	})
	s = marketplace.NewRateLimited(s, cfg.SearchRPS)

	if cfg.RedisURL == "" {
		return s
	}
	cache, err := marketplace.NewRedisCache(ctx, cfg.RedisURL)
	if err != nil {
		logger.Warn("listing cache unavailable", "err", err)
		return s
	}
	a.cache = cache
	return marketplace.NewCachedSearcher(s, cache, cfg.CacheTTL, logger)
}

// scanLister returns the history store as an interface, nil when disabled.
func (a *app) scanLister() httpapi.ScanLister {
	if a.history == nil {
		return nil
	}
	return a.history
}

// watchTemplates reloads the template library on change until ctx is done.
func (a *app) watchTemplates(ctx context.Context, logger *slog.Logger) {
	go func() {
		if err := a.store.Watch(ctx, templates.DefaultDebounce); err != nil {
			logger.Warn("template watcher stopped", "err", err)
		}
	}()
}

func (a *app) Close() error {
	var errs []error
	if a.pool != nil {
		errs = append(errs, a.pool.Close())
	}
	if a.cache != nil {
		errs = append(errs, a.cache.Close())
	}
	if a.history != nil {
		errs = append(errs, a.history.Close())
	}
	return errors.Join(errs...)
}
