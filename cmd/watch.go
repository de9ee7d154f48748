package cmd

import (
	"bufio"
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/huangsam/binforecast/core"
	"github.com/huangsam/binforecast/core/algo"
	"github.com/huangsam/binforecast/internal/contract"
	"github.com/huangsam/binforecast/internal/outwriter"
	"github.com/huangsam/binforecast/schema"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// watchCmd keeps the forecast fresh until interrupted.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Refresh the forecast periodically and on demand.",
	Long: `Forecast tomorrow immediately, then again every --refresh-interval.

Press Enter to refresh right away. Press Ctrl-C to stop.

Examples:
  binforecast watch
  binforecast watch --refresh-interval 5m --limit 10`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		eng, err := buildEngine()
		if err != nil {
			contract.LogFatal("Cannot build forecast engine", err)
		}

		ctx, stop := signal.NotifyContext(rootCtx, os.Interrupt, syscall.SIGTERM)
		defer stop()
		eng.Initialize(ctx)

		w := outwriter.NewOutWriter()
		refresher := core.NewRefresher(eng, cfg.RefreshInterval, logger, func(result *schema.ForecastResult) {
			preds := algo.Enrich(result.Predictions, eng.Districts(), cfg.ResultLimit)
			if err := w.WriteForecast(result, preds, cfg, time.Since(result.GeneratedAt)); err != nil {
				logger.Error("failed to write forecast", zap.Error(err))
			}
		})

		if err := refresher.Run(ctx, readEnter(ctx, os.Stdin)); err != nil {
			contract.LogFatal("Watch stopped", err)
		}
	},
}

// readEnter signals once per line read from r. The channel closes at EOF or
// once ctx is done.
func readEnter(ctx context.Context, r io.Reader) <-chan struct{} {
	ch := make(chan struct{})
	go func() {
		defer close(ch)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case ch <- struct{}{}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}
