package cmd

import (
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"applytrack/internal/bootstrap"
	"applytrack/internal/bootstrap/config"
	"applytrack/internal/bootstrap/logging"
	"applytrack/internal/errs"
	"applytrack/internal/transport/httpapi"
	"applytrack/internal/usecase/dedup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the tracker HTTP API",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, svc services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))
		ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = app.Config.Server.Addr
		}

		watch, _ := cmd.Flags().GetBool("watch-config")
		if watch {
			err := config.Watch(ctx, cfgFile, func(listings config.ListingsConfig) {
				settings := dedup.SettingsFrom(listings)
				if current := svc.Dedup.Settings().Collection; settings.Collection != current {
					logging.Warn(ctx, "listings.collection change needs a restart",
						slog.String("collection", current),
						slog.String("requested", settings.Collection),
					)
				}
				svc.Dedup.SetSettings(settings)
			})
			if err != nil {
				logging.Warn(ctx, "config watch disabled", slog.Any("err", errs.Loggable(err)))
			}
		}

		if err := httpapi.New(ctx, svc.Tracker).ListenAndServe(ctx, addr); err != nil {
			return errs.Wrap(err, "serve http api")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Listen address (default: server.addr from config)")
	serveCmd.Flags().Bool("watch-config", true, "Reload duplicate detection thresholds when the config file changes")
}
