package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pictophone",
		Short: "Visual telephone: generate an image, describe it like a child, repeat",
		Long: `Pictophone plays a visual game of telephone with an image model and a
vision model: it generates an image from your prompt, asks the vision model to
describe it the way a young child would, feeds that description back as the
next prompt, and repeats for up to ten rounds. The resulting gallery can be
exported as a paginated PDF.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	// Add subcommands
	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newCredentialCmd())

	return cmd
}
