package handlers

import (
	"io"
	"net/http"
	"os"

	"gallery-streamer/internal/filesystem"
	"gallery-streamer/internal/media"

	"github.com/gorilla/mux"
)

// maxThumbnailUpload bounds PUT /thumbs bodies.
const maxThumbnailUpload = 16 << 20

// GetMedia serves the full-resolution source of an item.
func (h *Handlers) GetMedia(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	path, ok := h.sources[id]
	if !ok {
		http.Error(w, "Item not found", http.StatusNotFound)
		return
	}

	f, err := filesystem.Open(r.Context(), path, filesystem.DefaultRetryConfig())
	if err != nil {
		if os.IsNotExist(err) {
			h.log.Warn("media source missing for %s: %s", id, path)
			http.Error(w, "File not found", http.StatusNotFound)
			return
		}
		h.log.Error("open media %s: %v", path, err)
		http.Error(w, "Failed to access file", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", media.MimeType(path))
	w.Header().Set("Cache-Control", "public, max-age=86400")
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

// GetThumb serves a stored thumbnail. It is the read side of the remote
// thumbnail store.
func (h *Handlers) GetThumb(w http.ResponseWriter, r *http.Request) {
	if h.thumbs == nil {
		http.Error(w, "Thumbnail store disabled", http.StatusServiceUnavailable)
		return
	}
	id := mux.Vars(r)["id"]

	data, ok, err := h.thumbs.Get(r.Context(), id)
	if err != nil {
		h.log.Warn("thumbnail store get %s: %v", id, err)
		http.Error(w, "Thumbnail store unavailable", http.StatusServiceUnavailable)
		return
	}
	if !ok {
		http.Error(w, "Thumbnail not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if _, err := w.Write(data); err != nil {
		h.log.Debug("thumbnail write %s: %v", id, err)
	}
}

// PutThumb stores an uploaded thumbnail. Bodies that are not a decodable
// image are rejected.
func (h *Handlers) PutThumb(w http.ResponseWriter, r *http.Request) {
	if h.thumbs == nil {
		http.Error(w, "Thumbnail store disabled", http.StatusServiceUnavailable)
		return
	}
	id := mux.Vars(r)["id"]

	data, err := io.ReadAll(io.LimitReader(r.Body, maxThumbnailUpload+1))
	if err != nil {
		http.Error(w, "Failed to read body", http.StatusBadRequest)
		return
	}
	if len(data) > maxThumbnailUpload {
		http.Error(w, "Thumbnail too large", http.StatusRequestEntityTooLarge)
		return
	}
	if _, err := media.DecodeConfig(data); err != nil {
		http.Error(w, "Body is not an image", http.StatusUnsupportedMediaType)
		return
	}

	if err := h.thumbs.Put(r.Context(), id, data); err != nil {
		h.log.Warn("thumbnail store put %s: %v", id, err)
		http.Error(w, "Thumbnail store unavailable", http.StatusServiceUnavailable)
		return
	}
	h.log.Debug("stored thumbnail %s (%d bytes)", id, len(data))
	w.WriteHeader(http.StatusNoContent)
}
