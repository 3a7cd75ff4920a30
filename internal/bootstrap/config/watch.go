package config

import (
	"context"
	"errors"
	"log/slog"

	"github.com/fsnotify/fsnotify"

	"applytrack/internal/bootstrap/logging"
	"applytrack/internal/errs"
)

// Watch reloads configFile on every write and hands the listings section to
// apply. Invalid edits are logged and ignored so the last good values stay live.
func Watch(ctx context.Context, configFile string, apply func(ListingsConfig)) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if configFile == "" {
		return errors.New("config file is required for watch")
	}
	if apply == nil {
		return errors.New("apply callback is required")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.config.watch"))

	v, err := read(logCtx, configFile)
	if err != nil {
		return err
	}

	v.OnConfigChange(func(event fsnotify.Event) {
		if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
			return
		}
		cfg, err := decode(v)
		if err != nil {
			logging.Warn(logCtx, "ignore invalid config change", slog.String("path", event.Name), slog.Any("err", errs.Loggable(err)))
			return
		}
		apply(cfg.Listings)
		logging.Info(
			logCtx,
			"listings config reloaded",
			slog.String("path", event.Name),
			slog.Float64("semantic_threshold", cfg.Listings.SemanticThreshold),
			slog.Float64("title_threshold", cfg.Listings.TitleThreshold),
			slog.Float64("company_threshold", cfg.Listings.CompanyThreshold),
			slog.Int("search_k", cfg.Listings.SearchK),
			slog.Int("scan_limit", cfg.Listings.ScanLimit),
		)
	})
	v.WatchConfig()

	return nil
}
