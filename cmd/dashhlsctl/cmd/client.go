package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type apiError struct {
	Error string `json:"error"`
}

// apiRequest issues one control-plane request and decodes a JSON
// response into out (if non-nil), translating transport and status
// failures into the CLI's exit-code taxonomy.
func apiRequest(method, path string, body interface{}, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return exitErr(exitBadInput, err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, serverURL()+path, reqBody)
	if err != nil {
		return exitErr(exitBadInput, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return exitErr(exitServerUnreachable, fmt.Errorf("reaching %s: %w", serverURL(), err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return exitErr(exitServerUnreachable, err)
	}

	if resp.StatusCode >= 400 {
		var apiErr apiError
		_ = json.Unmarshal(respBody, &apiErr)
		msg := apiErr.Error
		if msg == "" {
			msg = string(respBody)
		}
		switch resp.StatusCode {
		case http.StatusNotFound:
			return exitErr(exitStreamNotFound, fmt.Errorf("%s", msg))
		case http.StatusBadRequest:
			return exitErr(exitBadInput, fmt.Errorf("%s", msg))
		default:
			return exitErr(exitServerUnreachable, fmt.Errorf("%s", msg))
		}
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return exitErr(exitServerUnreachable, fmt.Errorf("decoding response: %w", err))
	}
	return nil
}
