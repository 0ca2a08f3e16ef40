// Package cmd implements the dashhlsctl CLI commands.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var v = viper.New()

var rootCmd = &cobra.Command{
	Use:   "dashhlsctl",
	Short: "Control plane client for dash2hlsd",
	Long: `dashhlsctl talks to a running dash2hlsd control plane over its REST
API: create streams, list and inspect them, remove them, or run the
server itself.

Configuration is read from flags, environment variables prefixed
DASHHLSCTL_, and an optional config file set with --config.`,
}

// Execute runs the CLI and returns the process exit code (§6: 0 success,
// 1 bad input, 2 server unreachable, 3 stream not found).
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		var ee *exitError
		if asExitError(err, &ee) {
			if ee.err != nil {
				fmt.Fprintln(os.Stderr, ee.err)
			}
			return ee.code
		}
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("server", "http://localhost:8080", "dash2hlsd control plane base URL")
	rootCmd.PersistentFlags().String("config", "", "config file path")
	_ = v.BindPFlag("server", rootCmd.PersistentFlags().Lookup("server"))
}

func initConfig() {
	v.SetEnvPrefix("DASHHLSCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if cfgFile, _ := rootCmd.PersistentFlags().GetString("config"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
		_ = v.ReadInConfig()
	}
}

func serverURL() string {
	return v.GetString("server")
}
