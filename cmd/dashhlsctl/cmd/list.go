package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

type variantSnapshot struct {
	RepresentationID string `json:"RepresentationID"`
	Bandwidth        int    `json:"Bandwidth"`
	Codecs           string `json:"Codecs"`
	Width            int    `json:"Width"`
	Height           int    `json:"Height"`
}

type snapshot struct {
	ID           string           `json:"ID"`
	Status       string           `json:"Status"`
	Label        string           `json:"Label"`
	ErrorMessage string           `json:"ErrorMessage"`
	Video        *variantSnapshot `json:"Video"`
	Audio        *variantSnapshot `json:"Audio"`
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all known stream sessions",
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	var snaps []snapshot
	if err := apiRequest("GET", "/streams/", nil, &snaps); err != nil {
		return err
	}
	for _, s := range snaps {
		printSnapshot(s)
	}
	return nil
}

func printSnapshot(s snapshot) {
	fmt.Printf("%s\t%s\t%s\n", s.ID, s.Status, s.Label)
	if s.ErrorMessage != "" {
		fmt.Printf("  error: %s\n", s.ErrorMessage)
	}
}
