package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/aretw0/tick"
	"github.com/aretw0/tick/internal/cli"
	httpAdapter "github.com/aretw0/tick/pkg/adapters/http"
	"github.com/aretw0/tick/pkg/adapters/kafka"
	"github.com/aretw0/tick/pkg/adapters/mcp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Starts the tick engine in server mode, exposing conversations as a JSON API over
HTTP, with Prometheus metrics on /metrics. When TICK_KAFKA_BROKERS is set, every
message is also published to TICK_KAFKA_TOPIC. --mcp-addr serves the MCP SSE
transport alongside.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("addr") {
			cfg.HTTP.Addr, _ = cmd.Flags().GetString("addr")
		}
		mcpAddr, _ := cmd.Flags().GetString("mcp-addr")

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		app, err := cli.NewApp(sigCtx, cfg, cli.AppOptions{Debug: debugFlag(cmd), Metrics: true})
		if err != nil {
			return err
		}
		defer app.Close(context.Background())
		logger := app.Logger

		serverOpts := []httpAdapter.Option{
			httpAdapter.WithMetrics(app.Registry),
			httpAdapter.WithLogger(logger),
			httpAdapter.WithVersion(tick.Version),
		}
		if len(cfg.Kafka.Brokers) > 0 {
			snd := kafka.NewSender(kafka.NewWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic), kafka.WithStoryID(app.Engine.Story().ID))
			defer snd.Close()
			serverOpts = append(serverOpts, httpAdapter.WithMirror(snd))
			logger.Info("publishing messages", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
		}
		api := httpAdapter.NewServer(app.Engine, serverOpts...)
		defer api.Events().Close()

		srv := &http.Server{
			Addr:              cfg.HTTP.Addr,
			Handler:           api.Routes(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		g, ctx := errgroup.WithContext(sigCtx)
		g.Go(func() error {
			logger.Info("Starting tick server", "address", srv.Addr, "story", app.Engine.Story().ID)
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		if mcpAddr != "" {
			g.Go(func() error {
				return mcp.NewServer(app.Engine, mcp.WithLogger(logger)).ServeSSE(ctx, mcpAddr, "http://localhost"+mcpAddr)
			})
		}
		g.Go(func() error {
			<-ctx.Done()
			logger.Info("Start shutdown", "signal", sigCtx.Signal())

			// Give outstanding requests a deadline for completion.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("Graceful shutdown did not complete", "timeout", cfg.HTTP.ShutdownTimeout, "err", err)
				return srv.Close()
			}
			logger.Info("tick server stopped gracefully")
			return nil
		})
		return g.Wait()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", ":8080", "Address to listen on (TICK_HTTP_ADDR)")
	serveCmd.Flags().String("mcp-addr", "", "Also serve MCP over SSE on this address")
}
