package lmsadapter

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// fetchArtwork retrieves artwork bytes for imageKey. LMS serves artwork
// over plain HTTP on the same port as the JSON-RPC endpoint, either as
// an absolute URL (already resolved by an upstream status response) or
// as a server-relative path (e.g. "/music/<id>/cover.jpg").
func fetchArtwork(ctx context.Context, c *Client, imageKey string) (string, []byte, error) {
	url := imageKey
	if !strings.HasPrefix(imageKey, "http://") && !strings.HasPrefix(imageKey, "https://") {
		url = fmt.Sprintf("http://%s:%d%s", c.host, c.port, imageKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", nil, errMalformed("build artwork request: %v", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", nil, errUnreachable(err, "lms: artwork fetch failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", nil, errUnreachable(nil, "lms: artwork fetch returned HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, errMalformed("read artwork body: %v", err)
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}
	return contentType, data, nil
}
