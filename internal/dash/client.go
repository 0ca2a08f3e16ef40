package dash

import (
	"context"
	"dash2hlsd/internal/errs"
	"dash2hlsd/internal/logger"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client fetches and parses MPD manifests from an origin server.
type Client struct {
	httpClient *http.Client
	logger     logger.Logger
}

// NewClient builds a Client with redirect-following enabled (up to 5 hops,
// matching the downloader's own cap) and a bounded response-header wait.
func NewClient(log logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Transport: &http.Transport{
				ResponseHeaderTimeout: 5 * time.Second,
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return fmt.Errorf("stopped after 5 redirects")
				}
				return nil
			},
		},
		logger: log,
	}
}

// FetchAndParseMPD retrieves the manifest at requestURL and unmarshals it.
// It returns the final URL the manifest was served from (after redirects),
// since that URL anchors the BaseURL resolution chain, not requestURL.
func (c *Client) FetchAndParseMPD(ctx context.Context, requestURL string, headers map[string]string) (*MPD, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, "", errs.Config("invalid_url", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	c.logger.Debugf("fetching MPD from %s", requestURL)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", errs.Manifest("fetch", err)
	}
	defer resp.Body.Close()

	finalURL := requestURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	if resp.StatusCode != http.StatusOK {
		return nil, "", errs.Manifest("fetch", fmt.Errorf("unexpected status %d from %s", resp.StatusCode, finalURL))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", errs.Manifest("fetch", err)
	}

	var mpd MPD
	if err := xml.Unmarshal(data, &mpd); err != nil {
		return nil, "", errs.Manifest("parse", err)
	}

	c.logger.Debugf("parsed MPD type=%s from %s", mpd.Type, finalURL)
	return &mpd, finalURL, nil
}
