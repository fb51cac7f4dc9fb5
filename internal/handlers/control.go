package handlers

import (
	"bytes"
	"net/http"

	"gallery-streamer/internal/asset"
	"gallery-streamer/internal/engine"
	"gallery-streamer/internal/geom"
	"gallery-streamer/internal/render"

	"github.com/gorilla/mux"
)

// ItemView is the JSON form of one gallery item.
type ItemView struct {
	ID      string         `json:"id"`
	Rect    geom.Rect      `json:"rect"`
	State   string         `json:"state"`
	HighRes string         `json:"highRes"`
	Visible bool           `json:"visible"`
	Width   int            `json:"width,omitempty"`
	Height  int            `json:"height,omitempty"`
	Error   string         `json:"error,omitempty"`
	Details *asset.Details `json:"details,omitempty"`
}

func viewOf(it *asset.Item) ItemView {
	v := ItemView{
		ID:      it.ID,
		Rect:    it.Rect,
		State:   it.State().String(),
		HighRes: it.HighRes().String(),
		Visible: it.Visible,
		Width:   it.OriginalWidth,
		Height:  it.OriginalHeight,
	}
	if err := it.Err(); err != nil {
		v.Error = err.Error()
	} else if err := it.HighResErr(); err != nil {
		v.Error = err.Error()
	}
	if it.Details != nil {
		d := *it.Details
		v.Details = &d
	}
	return v
}

// StateResponse is returned by GET /api/state.
type StateResponse struct {
	Stats     engine.Stats     `json:"stats"`
	Transform render.Transform `json:"transform"`
	Items     []ItemView       `json:"items,omitempty"`
}

// GetState returns the engine stats. With ?items=true it also lists every
// item; with ?visible=true only the visible ones.
func (h *Handlers) GetState(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	all := q.Get("items") == "true"
	visible := q.Get("visible") == "true"

	var resp StateResponse
	err := h.driver.Do(r.Context(), func(e *engine.Engine) {
		resp.Stats = e.Stats()
		resp.Transform = h.canvas.Transform()
		var items []*asset.Item
		switch {
		case visible:
			items = e.VisibleSet()
		case all:
			items = e.Items()
		}
		for _, it := range items {
			resp.Items = append(resp.Items, viewOf(it))
		}
	})
	if err != nil {
		writeJSONError(w, err.Error(), statusFor(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, resp)
}

// ViewportRequest moves the camera.
type ViewportRequest struct {
	Scale   float64 `json:"scale"`
	OriginX float64 `json:"originX"`
	OriginY float64 `json:"originY"`
	Width   int     `json:"width,omitempty"`
	Height  int     `json:"height,omitempty"`
}

// SetViewport applies a new transform, and optionally a canvas size. It
// takes effect on the next frame.
func (h *Handlers) SetViewport(w http.ResponseWriter, r *http.Request) {
	var req ViewportRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Scale <= 0 {
		writeJSONError(w, "scale must be positive", http.StatusBadRequest)
		return
	}
	if req.Width < 0 || req.Height < 0 {
		writeJSONError(w, "canvas size must not be negative", http.StatusBadRequest)
		return
	}

	err := h.driver.Do(r.Context(), func(*engine.Engine) {
		h.canvas.SetTransform(render.Transform{Scale: req.Scale, OriginX: req.OriginX, OriginY: req.OriginY})
		if req.Width > 0 && req.Height > 0 {
			h.canvas.SetCanvasSize(req.Width, req.Height)
		}
	})
	if err != nil {
		writeJSONError(w, err.Error(), statusFor(err))
		return
	}
	writeJSONStatus(w, "ok")
}

// PointerRequest reports the pointer in screen space. Leave clears it.
type PointerRequest struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Leave bool    `json:"leave,omitempty"`
}

// SetPointer updates the pointer position.
func (h *Handlers) SetPointer(w http.ResponseWriter, r *http.Request) {
	var req PointerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	err := h.driver.Do(r.Context(), func(e *engine.Engine) {
		if req.Leave {
			e.ClearPointer()
		} else {
			e.SetPointer(req.X, req.Y)
		}
	})
	if err != nil {
		writeJSONError(w, err.Error(), statusFor(err))
		return
	}
	writeJSONStatus(w, "ok")
}

// GetFrame returns the last rendered frame as PNG.
func (h *Handlers) GetFrame(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	var encodeErr error
	err := h.driver.Do(r.Context(), func(*engine.Engine) {
		encodeErr = h.canvas.EncodePNG(&buf)
	})
	if err == nil {
		err = encodeErr
	}
	if err != nil {
		h.log.Warn("frame encode failed: %v", err)
		writeJSONError(w, err.Error(), statusFor(err))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.log.Debug("frame write: %v", err)
	}
}

// itemAction runs op against the item named in the route.
func (h *Handlers) itemAction(w http.ResponseWriter, r *http.Request, op func(e *engine.Engine, id string) error) {
	id := mux.Vars(r)["id"]
	if id == "" {
		writeJSONError(w, "missing item id", http.StatusBadRequest)
		return
	}

	var opErr error
	err := h.driver.Do(r.Context(), func(e *engine.Engine) {
		opErr = op(e, id)
	})
	if err == nil {
		err = opErr
	}
	if err != nil {
		writeJSONError(w, err.Error(), statusFor(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	writeJSON(w, map[string]string{"status": "accepted", "id": id})
}

// RetryItem returns a failed item to the load queue.
func (h *Handlers) RetryItem(w http.ResponseWriter, r *http.Request) {
	h.itemAction(w, r, func(e *engine.Engine, id string) error {
		return e.Retry(id)
	})
}

// PromoteItem requests a full-resolution load for an item regardless of
// zoom.
func (h *Handlers) PromoteItem(w http.ResponseWriter, r *http.Request) {
	h.itemAction(w, r, func(e *engine.Engine, id string) error {
		return e.RequestHighResPromotion(id)
	})
}
