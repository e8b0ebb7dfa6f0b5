package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/muness/unified-hifi-control/internal/adapter"
	"github.com/muness/unified-hifi-control/internal/apperr"
	"github.com/muness/unified-hifi-control/internal/events"
	"github.com/muness/unified-hifi-control/internal/hqp"
	"github.com/muness/unified-hifi-control/internal/zone"
)

// requestTimeout bounds how long a single HTTP request waits on an
// adapter call, so a wedged upstream device can't hang the HTTP
// goroutine indefinitely.
const requestTimeout = 10 * time.Second

type handlers struct {
	agg   *zone.Aggregator
	coord *adapter.Coordinator
	bus   *events.Bus
}

// listZones implements zones() (spec.md §6).
func (h *handlers) listZones(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.agg.Zones())
}

// logicFor resolves the adapter.Logic that owns zoneID by its prefix,
// per spec.md §3's "zone_id prefix is the sole routing key".
func (h *handlers) logicFor(zoneID string) (adapter.Logic, error) {
	prefix := zone.Prefix(zoneID)
	handle, ok := h.coord.Handle(prefix)
	if !ok {
		return nil, apperr.New(apperr.NotFound, "no adapter running for zone %q", zoneID)
	}
	return handle.Logic(), nil
}

// nowPlaying implements now_playing(zone_id).
func (h *handlers) nowPlaying(w http.ResponseWriter, r *http.Request) {
	zoneID := chi.URLParam(r, "zoneID")
	logic, err := h.logicFor(zoneID)
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	np, err := logic.NowPlaying(ctx, zoneID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, np)
}

// controlRequest is the POST /zones/{zoneID}/control body: control(zone_id, action, value?).
type controlRequest struct {
	Action adapter.Action `json:"action"`
	Value  float64        `json:"value"`
}

// control implements control(zone_id, action, value?).
func (h *handlers) control(w http.ResponseWriter, r *http.Request) {
	zoneID := chi.URLParam(r, "zoneID")

	var req controlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.Wrap(apperr.ProtocolMalformed, err, "invalid control request body"))
		return
	}

	logic, err := h.logicFor(zoneID)
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	if err := logic.Control(ctx, zoneID, req.Action, req.Value); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// getImage implements get_image(image_key, zone_id). image_key arrives
// as a query parameter since it may itself be an absolute URL; routing
// to the owning adapter (or a direct fetch of an absolute URL) happens
// inside the adapter's own GetImage, per spec.md §6.
func (h *handlers) getImage(w http.ResponseWriter, r *http.Request) {
	zoneID := chi.URLParam(r, "zoneID")
	imageKey := r.URL.Query().Get("image_key")
	if imageKey == "" {
		writeError(w, apperr.New(apperr.NotFound, "image_key query parameter is required"))
		return
	}

	logic, err := h.logicFor(zoneID)
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	contentType, data, err := logic.GetImage(ctx, imageKey, zoneID)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	_, _ = w.Write(data)
}

// hqpLogic resolves the single running hqp adapter's concrete Logic,
// bypassing the generic adapter.Logic interface for the two operations
// (pipeline/set_pipeline) that need index-free DSP-specific methods
// Logic doesn't expose generically (hqp.Logic.Pipeline's own doc
// comment: "bypassing the generic NowPlaying translation").
func (h *handlers) hqpLogic() (*hqp.Logic, error) {
	handle, ok := h.coord.Handle("hqp")
	if !ok {
		return nil, apperr.New(apperr.NotConfigured, "hqp adapter is not enabled")
	}
	l, ok := handle.Logic().(*hqp.Logic)
	if !ok {
		return nil, apperr.New(apperr.Fatal, "hqp handle holds an unexpected Logic implementation")
	}
	return l, nil
}

// getPipeline implements pipeline().
func (h *handlers) getPipeline(w http.ResponseWriter, r *http.Request) {
	l, err := h.hqpLogic()
	if err != nil {
		writeError(w, err)
		return
	}
	view, err := l.Pipeline()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// setPipelineRequest is the POST /hqp/pipeline body: set_pipeline(setting, value).
type setPipelineRequest struct {
	Setting string `json:"setting"`
	Value   string `json:"value"`
}

// setPipeline implements set_pipeline(setting, value).
func (h *handlers) setPipeline(w http.ResponseWriter, r *http.Request) {
	var req setPipelineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.Wrap(apperr.ProtocolMalformed, err, "invalid set_pipeline request body"))
		return
	}

	l, err := h.hqpLogic()
	if err != nil {
		writeError(w, err)
		return
	}
	if err := l.SetPipeline(req.Setting, req.Value); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// getProfiles lists the cached DSP enumerations backing set_pipeline's
// legal setting/value pairs.
func (h *handlers) getProfiles(w http.ResponseWriter, r *http.Request) {
	l, err := h.hqpLogic()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, l.Profiles())
}
