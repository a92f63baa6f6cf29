package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/avg-assist/avgchat"
)

var (
	askFiles     []string
	askGrounding bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask one question and stream the answer to stdout",
	Long: `Ask sends a single question, streams the answer token by token to
stdout, and exits. Attach local files with --file; they are ingested
(extracted or transcribed as needed) before the question is sent.

With no question, the attached documents are analysed for AVG compliance.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := newSession()
		if err != nil {
			return err
		}
		if askGrounding {
			session.ModelConfig().SetGrounding(true)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if len(askFiles) > 0 {
			start := time.Now()
			for _, path := range askFiles {
				f, err := readFile(path)
				if err != nil {
					return err
				}
				if _, err := session.Ingestor().Ingest(ctx, f); err != nil {
					return fmt.Errorf("ingest %s: %w", path, err)
				}
			}
			fmt.Fprintf(os.Stderr, "Ingested %d file(s) in %s\n", len(askFiles), formatDuration(time.Since(start)))
		}

		if len(args) == 1 {
			session.SetDraft(args[0])
		}

		updates, err := session.Send(ctx)
		if err != nil {
			return err
		}
		for u := range updates {
			switch u.State {
			case avgchat.StateStreaming:
				fmt.Print(u.Delta)
			case avgchat.StateCompleted:
				fmt.Println()
			case avgchat.StateAborted:
				fmt.Println()
				fmt.Fprintln(os.Stderr, "Aborted.")
			case avgchat.StateFailed:
				fmt.Println()
				return u.Err
			}
		}
		return nil
	},
}

func init() {
	askCmd.Flags().StringSliceVarP(&askFiles, "file", "f", nil, "File to attach (repeatable)")
	askCmd.Flags().BoolVar(&askGrounding, "grounding", false, "Enable retrieval grounding (internet model only)")
	rootCmd.AddCommand(askCmd)
}
