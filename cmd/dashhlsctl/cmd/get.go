package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one stream session's status",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

func init() {
	rootCmd.AddCommand(getCmd)
}

func runGet(cmd *cobra.Command, args []string) error {
	var snap snapshot
	if err := apiRequest("GET", "/streams/"+args[0], nil, &snap); err != nil {
		return err
	}
	printSnapshot(snap)
	if snap.Video != nil {
		fmt.Printf("  video: %s (%d bps, %s, %dx%d)\n", snap.Video.RepresentationID, snap.Video.Bandwidth, snap.Video.Codecs, snap.Video.Width, snap.Video.Height)
	}
	if snap.Audio != nil {
		fmt.Printf("  audio: %s (%d bps, %s)\n", snap.Audio.RepresentationID, snap.Audio.Bandwidth, snap.Audio.Codecs)
	}
	return nil
}
