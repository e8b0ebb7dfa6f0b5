// Package lmsadapter implements the Lyrion/Slim JSON-RPC adapter spec.md
// §1/§2 names as one of the four protocol-specific adapters satisfying
// adapter.Logic. Unlike C5 (internal/hqp) this protocol is not specified
// in depth by spec.md — it exists so the coordinator has more than one
// adapter to route between (SPEC_FULL.md §2) — so it's built directly
// against the server's JSON-RPC API (CLI command set) the teacher's own
// internal/streams/lms.go already polls a (simpler, HTTP/status.html)
// slice of.
package lmsadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const (
	defaultPort    = 9000
	requestTimeout = 5 * time.Second
)

// Client issues JSON-RPC 2.0 requests to a Lyrion Music Server's
// /jsonrpc.js endpoint, the same "slim.request" CLI-over-HTTP surface
// the reference squeezelite/LMS ecosystem exposes.
type Client struct {
	host       string
	port       int
	httpClient *http.Client
}

// NewClient builds a Client for the LMS instance at host (port 9000
// unless overridden).
func NewClient(host string, port int) *Client {
	if port == 0 {
		port = defaultPort
	}
	return &Client{host: host, port: port, httpClient: &http.Client{Timeout: requestTimeout}}
}

type rpcRequest struct {
	ID     int   `json:"id"`
	Method string `json:"method"`
	Params []any  `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	ID     int             `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// call issues a single "slim.request" CLI command against playerID (""
// for server-global commands like "players") and returns the raw result
// object for the caller to unmarshal.
func (c *Client) call(ctx context.Context, playerID string, cmd []string) (json.RawMessage, error) {
	params := make([]any, len(cmd))
	for i, s := range cmd {
		params[i] = s
	}

	body, err := json.Marshal(rpcRequest{
		ID:     1,
		Method: "slim.request",
		Params: []any{playerID, params},
	})
	if err != nil {
		return nil, errMalformed("encode request: %v", err)
	}

	url := fmt.Sprintf("http://%s:%d/jsonrpc.js", c.host, c.port)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, errMalformed("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errTimeout(err, "lms: %s timed out", cmd)
		}
		return nil, errUnreachable(err, "lms: request to %s:%d failed", c.host, c.port)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errUnreachable(nil, "lms: %s:%d returned HTTP %d", c.host, c.port, resp.StatusCode)
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return nil, errMalformed("decode response: %v", err)
	}
	if rpcResp.Error != nil {
		return nil, errMalformed("lms rpc error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message)
	}
	return rpcResp.Result, nil
}

// Player is one entry from the "players" command's players_loop.
type Player struct {
	ID        string `json:"playerid"`
	Name      string `json:"name"`
	IP        string `json:"ip"`
	Model     string `json:"model"`
	Connected int    `json:"connected"`
}

type playersResult struct {
	Count       int      `json:"count"`
	PlayersLoop []Player `json:"players_loop"`
}

// Players enumerates every player the server currently knows about.
func (c *Client) Players(ctx context.Context) ([]Player, error) {
	raw, err := c.call(ctx, "", []string{"players", "0", "100"})
	if err != nil {
		return nil, err
	}
	var res playersResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, errMalformed("decode players_loop: %v", err)
	}
	return res.PlayersLoop, nil
}

type trackEntry struct {
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	Album      string `json:"album"`
	ArtworkURL string `json:"artwork_url"`
}

// PlayerStatus is the subset of the "status" command's result this
// adapter consumes: transport mode, position/length, the current track
// (tags a/d/l/K), and mixer volume (negative when muted, per the LMS
// convention of encoding mute as a sign flip on the cached pre-mute level).
type PlayerStatus struct {
	Mode         string       `json:"mode"`
	Time         float64      `json:"time"`
	Duration     float64      `json:"duration"`
	MixerVolume  float64      `json:"mixer volume"`
	PlaylistLoop []trackEntry `json:"playlist_loop"`
}

// Status fetches current playback status for playerID (tags: artist,
// duration, album, artwork_url).
func (c *Client) Status(ctx context.Context, playerID string) (PlayerStatus, error) {
	raw, err := c.call(ctx, playerID, []string{"status", "-", "1", "tags:adlK"})
	if err != nil {
		return PlayerStatus{}, err
	}
	var st PlayerStatus
	if err := json.Unmarshal(raw, &st); err != nil {
		return PlayerStatus{}, errMalformed("decode status: %v", err)
	}
	return st, nil
}

// Track returns the currently-playing track entry, or the zero value if
// the playlist is empty.
func (st PlayerStatus) Track() trackEntry {
	if len(st.PlaylistLoop) == 0 {
		return trackEntry{}
	}
	return st.PlaylistLoop[0]
}

// Play resumes playback.
func (c *Client) Play(ctx context.Context, playerID string) error {
	_, err := c.call(ctx, playerID, []string{"play"})
	return err
}

// Pause sets (or, with toggle, flips) the pause state.
func (c *Client) Pause(ctx context.Context, playerID string, toggle bool) error {
	cmd := []string{"pause", "1"}
	if toggle {
		cmd = []string{"pause"}
	}
	_, err := c.call(ctx, playerID, cmd)
	return err
}

// Stop halts playback.
func (c *Client) Stop(ctx context.Context, playerID string) error {
	_, err := c.call(ctx, playerID, []string{"stop"})
	return err
}

// Next advances to the next playlist entry.
func (c *Client) Next(ctx context.Context, playerID string) error {
	_, err := c.call(ctx, playerID, []string{"playlist", "index", "+1"})
	return err
}

// Previous returns to the previous playlist entry.
func (c *Client) Previous(ctx context.Context, playerID string) error {
	_, err := c.call(ctx, playerID, []string{"playlist", "index", "-1"})
	return err
}

// Seek moves the transport position to positionS seconds into the track.
func (c *Client) Seek(ctx context.Context, playerID string, positionS float64) error {
	_, err := c.call(ctx, playerID, []string{"time", fmt.Sprintf("%.2f", positionS)})
	return err
}

// SetVolume sets the absolute mixer volume (0-100).
func (c *Client) SetVolume(ctx context.Context, playerID string, level float64) error {
	_, err := c.call(ctx, playerID, []string{"mixer", "volume", fmt.Sprintf("%.0f", level)})
	return err
}

// AdjustVolume applies a signed relative delta to the mixer volume.
func (c *Client) AdjustVolume(ctx context.Context, playerID string, delta float64) error {
	sign := "+"
	if delta < 0 {
		sign = ""
	}
	_, err := c.call(ctx, playerID, []string{"mixer", "volume", fmt.Sprintf("%s%.0f", sign, delta)})
	return err
}
