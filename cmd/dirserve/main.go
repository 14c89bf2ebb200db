package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/dirserve/dirserve/config"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "dirserve",
	Short:   "HTTP file server with on-the-fly tar and zip downloads",
	Long: `Dirserve serves a local directory tree over HTTP. Any subdirectory can
be downloaded as a single tar or zip archive, generated on demand and
streamed to the client without ever materializing the archive on disk
or in memory.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var configFiles []string
		if configFile, _ := cmd.Flags().GetString("config"); configFile != "" {
			configFiles = []string{configFile}
		}

		cfg, err := config.Load(configFiles, cmd.Flags())
		if err != nil {
			return err
		}

		setupLogging(cfg)
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("path", "", "directory to serve (default: ., env: DIRSERVE_SERVE_PATH)")
	rootCmd.PersistentFlags().Bool("follow-symlinks", false, "descend into symlinked directories")
	rootCmd.PersistentFlags().Bool("hidden", false, "include dotfiles in listings and archives")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
