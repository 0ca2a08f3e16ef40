package cmd

import (
	"dash2hlsd/internal/serverapp"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dash2hlsd control plane",
	Long:  `serve starts the same process as cmd/server: the REST control plane and its HLS file server.`,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("listen", ":8080", "HTTP listen address")
	serveCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	serveCmd.Flags().String("output-dir", "./output", "root directory for session HLS output")
	_ = v.BindPFlag("listen", serveCmd.Flags().Lookup("listen"))
	_ = v.BindPFlag("log-level", serveCmd.Flags().Lookup("log-level"))
	_ = v.BindPFlag("output-dir", serveCmd.Flags().Lookup("output-dir"))
}

func runServe(cmd *cobra.Command, args []string) error {
	err := serverapp.Run(serverapp.Config{
		ListenAddr: v.GetString("listen"),
		LogLevel:   v.GetString("log-level"),
		OutputDir:  v.GetString("output-dir"),
	})
	if err != nil {
		return exitErr(exitServerUnreachable, err)
	}
	return nil
}
