package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ppiankov/veracity/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the detection API over HTTP",
	Long: `Serve exposes detection over HTTP:
  POST /v1/detect         score one request
  POST /v1/detect/batch   score up to 256 requests in parallel
  GET  /health            liveness
  GET  /ready             readiness, including sampler reachability
  GET  /metrics           Prometheus metrics

Example:
  veracity serve
  veracity serve --addr :9090`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default: server.addr from config)")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}

func runServe(cmd *cobra.Command, args []string) error {
	deps, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = deps.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(server.Config{
		Detector: deps.detector,
		Sampler:  deps.sampler,
		Workers:  deps.cfg.Concurrency.Workers,
		Logger:   deps.logger,
	})

	return srv.Run(ctx, deps.cfg.Server.Addr, deps.cfg.Server.ReadTimeout)
}
