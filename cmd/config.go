package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"imgconvert/internal/options"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Write the default config file to the current directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := options.WriteDefault(configFile, configForce); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Default config written to: %s\n", configFile)
		return nil
	},
}

func init() {
	configCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing config file")

	rootCmd.AddCommand(configCmd)
}
