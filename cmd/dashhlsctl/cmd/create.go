package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

type createResponse struct {
	ID     string `json:"id"`
	HLSURL string `json:"hls_url"`
	Status string `json:"status"`
}

var createFromFile string

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a stream session from a config file or stdin",
	Long: `create reads a stream configuration as JSON (mpd_url, key, kid, key_map,
mp4decrypt_path, representation_id, label, poll_interval, window_size,
history_size, headers, output_dir) from --file or stdin, and asks the
control plane to start a session for it.`,
	RunE: runCreate,
}

func init() {
	rootCmd.AddCommand(createCmd)
	createCmd.Flags().StringVarP(&createFromFile, "file", "f", "", "path to a JSON config file (default: read from stdin)")
}

func runCreate(cmd *cobra.Command, args []string) error {
	var raw []byte
	var err error
	if createFromFile != "" {
		raw, err = os.ReadFile(createFromFile)
	} else {
		raw, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		return exitErr(exitBadInput, err)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(raw, &body); err != nil {
		return exitErr(exitBadInput, fmt.Errorf("parsing config: %w", err))
	}

	var resp createResponse
	if err := apiRequest("POST", "/streams/", body, &resp); err != nil {
		return err
	}

	fmt.Printf("id:      %s\nhls_url: %s\nstatus:  %s\n", resp.ID, resp.HLSURL, resp.Status)
	return nil
}
