package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"imgconvert/internal/options"
)

// version is overridden at build time with -ldflags "-X imgconvert/cmd.version=...".
var version = "dev"

var configFile string

var rootCmd = &cobra.Command{
	Use:   "imgconvert [flags] <source_path>",
	Short: "imgconvert - batch convert, compress and resize images",
	Long: "imgconvert converts a single image or every image in a folder to jpeg, png, webp, avif, tiff or gif,\n" +
		"with optional resizing, presets for common targets and multi-scale asset generation.",
	Version:      version,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         runConvert,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetHelpCommand(&cobra.Command{Use: "no-help", Hidden: true})
	rootCmd.SilenceErrors = true
	rootCmd.SetVersionTemplate("imgconvert-cli version: {{.Version}}\n")
	rootCmd.Flags().BoolP("version", "v", false, "show the version")
	rootCmd.PersistentFlags().StringVar(&configFile, "config-file", options.DefaultConfigFile, "path of the JSON config file")

	registerConvertFlags(rootCmd)
}
