package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/crimson-sun/riskscan/internal/ingest"
	"github.com/crimson-sun/riskscan/internal/output"
	"github.com/crimson-sun/riskscan/internal/output/stdout"
)

var (
	scoreOutput  string
	scoreWebhook string
	scorePretty  bool
	scoreDetail  string
	scoreStrict  bool
)

var scoreCmd = &cobra.Command{
	Use:   "score [file]",
	Short: "Score one transaction file and print the report",
	Long: `Score a CSV, JSON or NDJSON transaction file and print the risk report as
JSON on stdout. Reads stdin when the file is "-" or omitted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if scoreOutput != "" {
			cfg.Output.File = scoreOutput
		}
		if scoreWebhook != "" {
			cfg.Output.WebhookURL = scoreWebhook
		}
		if scorePretty {
			cfg.Output.Pretty = true
		}
		if scoreDetail != "" {
			cfg.Output.Detail = scoreDetail
		}
		if scoreStrict {
			cfg.Engine.StrictTimestamps = true
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		path := "-"
		if len(args) == 1 {
			path = args[0]
		}
		r, name, err := openInput(path, cmd.InOrStdin())
		if err != nil {
			return err
		}
		defer r.Close()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		eng, _, err := buildEngine(cfg)
		if err != nil {
			return err
		}
		defer eng.Close()

		batch, err := ingest.Read(r, name, cfg.Server.MaxUploadBytes)
		if err != nil {
			return err
		}
		slog.Info("batch decoded", "file", name, "format", batch.Format.String(),
			"encoding", batch.Encoding, "rows", len(batch.Records))

		report, err := eng.Process(ctx, batch.Records)
		if err != nil {
			return err
		}

		console := stdout.NewWriter(cmd.OutOrStdout(), output.ParseDetail(cfg.Output.Detail), cfg.Output.Pretty)
		sink, err := buildSinks(cfg.Output, false, console)
		if err != nil {
			return err
		}
		werr := sink.Write(ctx, output.NewResult(name, report))
		return errors.Join(werr, sink.Close())
	},
}

// openInput opens path, or wraps stdin for "-". The returned name is only a
// format hint.
func openInput(path string, stdin io.Reader) (io.ReadCloser, string, error) {
	if path == "-" {
		return io.NopCloser(stdin), "", nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("score: %w", err)
	}
	return f, filepath.Base(path), nil
}

func init() {
	f := scoreCmd.Flags()
	f.StringVarP(&scoreOutput, "output", "o", "", "also append the report to this NDJSON file (env RISKSCAN_OUTPUT_FILE)")
	f.StringVar(&scoreWebhook, "webhook", "", "also POST the report to this URL (env RISKSCAN_WEBHOOK_URL)")
	f.BoolVar(&scorePretty, "pretty", false, "indent JSON output (env RISKSCAN_OUTPUT_PRETTY)")
	f.StringVar(&scoreDetail, "detail", "", "report detail: summary or full (env RISKSCAN_OUTPUT_DETAIL)")
	f.BoolVar(&scoreStrict, "strict-timestamps", false, "reject unparseable timestamps instead of using the current time")
}
