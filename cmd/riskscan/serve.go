package main

import (
	"context"
	"log/slog"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/crimson-sun/riskscan/internal/health"
	"github.com/crimson-sun/riskscan/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scoring HTTP API",
	Long: `Start the HTTP API. POST a transaction file as the multipart field "file"
to /predict and receive the batch risk report.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if servePort != 0 {
			cfg.Server.Port = servePort
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		if cfg.IsProduction() {
			gin.SetMode(gin.ReleaseMode)
		}

		eng, cls, err := buildEngine(cfg)
		if err != nil {
			return err
		}
		defer eng.Close()

		sink, err := buildSinks(cfg.Output, true)
		if err != nil {
			return err
		}
		opts := []server.Option{
			server.WithLogger(slog.Default()),
			server.WithMaxUploadBytes(cfg.Server.MaxUploadBytes),
			server.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
		}
		if sink != nil {
			defer sink.Close()
			opts = append(opts, server.WithSink(sink))
		}

		reg := health.NewRegistry(5 * time.Second)
		reg.Register("classifier", classifierCheck(cls, eng.Schema().NumFeatures()))
		opts = append(opts, server.WithHealth(reg))

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		srv := server.New(eng, opts...)
		return srv.Run(ctx, ":"+strconv.Itoa(cfg.Server.Port))
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "listen port (env RISKSCAN_PORT)")
}
