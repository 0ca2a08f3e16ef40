package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Stop and remove a stream session",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemove,
}

func init() {
	rootCmd.AddCommand(rmCmd)
}

func runRemove(cmd *cobra.Command, args []string) error {
	if err := apiRequest("DELETE", "/streams/"+args[0], nil, nil); err != nil {
		return err
	}
	fmt.Printf("removed %s\n", args[0])
	return nil
}
