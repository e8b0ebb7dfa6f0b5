package roonadapter

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// fetchArtwork retrieves artwork bytes for imageKey, per spec.md §6:
// "if image_key is an absolute URL it is fetched directly ... otherwise
// it is delegated to the adapter identified by zone_id's prefix" — here,
// a server-relative image endpoint on the same core.
func fetchArtwork(ctx context.Context, c *Client, imageKey string) (string, []byte, error) {
	url := imageKey
	if !strings.HasPrefix(imageKey, "http://") && !strings.HasPrefix(imageKey, "https://") {
		url = fmt.Sprintf("http://%s:%d/image/%s", c.host, c.port, imageKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", nil, errMalformed("build artwork request: %v", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", nil, errUnreachable(err, "roon: artwork fetch failed")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", nil, errUnreachable(nil, "roon: artwork fetch returned HTTP %d", resp.StatusCode)
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
