package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "renamer",
		Short: "AI-powered batch image renaming service",
		Long: `Renamer accepts batches of uploaded images, asks a vision LLM for a short
descriptive filename for each, lets the user confirm or override the
suggestions, and packages the renamed copies into a downloadable zip.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	cmd.AddCommand(newServeCmd())

	return cmd
}
