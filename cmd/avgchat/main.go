// Command avgchat is a terminal client for the AVG compliance assistant:
// an interactive chat TUI plus one-shot ask and ingest commands.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/avg-assist/avgchat"
	"github.com/avg-assist/avgchat/pkg/attach"
	"github.com/avg-assist/avgchat/pkg/remote"
)

var (
	flagServiceURL string
	flagModel      string
	flagVerbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "avgchat",
	Short: "Chat with the AVG compliance assistant",
	Long: `avgchat is a terminal client for the AVG (GDPR) compliance assistant.

It streams answers token by token and lets you attach documents, images
and audio for compliance analysis. Documents are extracted and audio is
transcribed through the assistant services before sending.

Quick start:
  avgchat chat                          # interactive chat
  avgchat ask "Is a DPIA required?"     # one-shot question
  avgchat ask -f policy.pdf             # analyse a document`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagServiceURL, "service-url", "", "Base URL of the assistant services (overrides AVGCHAT_SERVICE_URL)")
	rootCmd.PersistentFlags().StringVarP(&flagModel, "model", "m", "", "Model variant: smart, pro or internet")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")
}

// newLogger routes logs to stderr so they never interleave with streamed
// answer text on stdout.
func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if flagVerbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// newSession wires the full client stack from configuration and flags.
func newSession() (*avgchat.Session, error) {
	cfg, err := avgchat.LoadConfig()
	if err != nil {
		return nil, err
	}
	if flagServiceURL != "" {
		cfg.ServiceURL = flagServiceURL
	}
	modelName := cfg.DefaultModel
	if flagModel != "" {
		modelName = flagModel
	}
	model, err := avgchat.ParseModel(modelName)
	if err != nil {
		return nil, err
	}

	logger := newLogger()
	client := remote.NewClient(cfg.ServiceURL, cfg.RequestTimeout, logger)
	store := attach.NewStore()
	ingestor := attach.NewIngestor(store, client, client, logger)
	return avgchat.NewSession(store, ingestor, avgchat.NewModelConfig(model), client, logger), nil
}

// readFile loads one local file for ingestion.
func readFile(path string) (attach.File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return attach.File{}, fmt.Errorf("read %s: %w", path, err)
	}
	return attach.File{Name: filenameOf(path), Data: data}, nil
}

func filenameOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' || path[i] == '\\' {
			return path[i+1:]
		}
	}
	return path
}

func formatSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

func formatDuration(d time.Duration) string {
	return d.Round(100 * time.Millisecond).String()
}
