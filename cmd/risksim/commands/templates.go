package commands

import (
	"encoding/json"

	"risksim/internal/simulation"

	"github.com/spf13/cobra"
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "Print the built-in risk templates as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(simulation.Templates())
	},
}

func init() {
	rootCmd.AddCommand(templatesCmd)
}
