package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/avg-assist/avgchat"
)

var promptsCmd = &cobra.Command{
	Use:   "prompts",
	Short: "List the quick-start prompts",
	Run: func(cmd *cobra.Command, args []string) {
		for _, cat := range avgchat.QuickPrompts {
			fmt.Println(headerStyle.Render(cat.Category))
			for _, p := range cat.Prompts {
				fmt.Printf("  • %s\n", p)
			}
			fmt.Println()
		}
	},
}

func init() {
	rootCmd.AddCommand(promptsCmd)
}
