package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/avg-assist/avgchat/pkg/attach"
)

var ingestFull bool

var ingestCmd = &cobra.Command{
	Use:   "ingest <file>...",
	Short: "Ingest files and print the extracted content",
	Long: `Ingest runs files through the attachment pipeline without sending a
message: documents are extracted, audio is transcribed, JSON is validated
and pretty-printed. Useful to check what the assistant would receive.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := newSession()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		files := make([]attach.File, 0, len(args))
		for _, path := range args {
			f, err := readFile(path)
			if err != nil {
				return err
			}
			files = append(files, f)
		}

		failures := session.Ingestor().IngestAll(ctx, files)
		for _, f := range failures {
			fmt.Fprintf(os.Stderr, "Error: %s: %v\n", f.Name, f.Err)
		}

		for _, a := range session.Store().All() {
			fmt.Printf("%s  [%s, %s]\n", a.Name, a.Kind, formatSize(a.Size))
			if ingestFull {
				fmt.Println(a.Content)
			} else {
				fmt.Printf("  %s\n", a.Preview)
			}
		}
		if len(failures) > 0 {
			return fmt.Errorf("%d of %d file(s) failed", len(failures), len(files))
		}
		return nil
	},
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestFull, "full", false, "Print full content instead of the preview")
	rootCmd.AddCommand(ingestCmd)
}
