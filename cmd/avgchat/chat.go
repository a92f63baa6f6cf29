package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start the interactive chat",
	Long: `Chat opens the interactive terminal interface. Answers stream in as
they are generated; press esc to stop a generation while keeping the
partial answer. Paste a URL to attach it, or use the ingest flow for
local files.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := newSession()
		if err != nil {
			return err
		}
		p := tea.NewProgram(newChatModel(session), tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("run interface: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
