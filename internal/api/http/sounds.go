package http

import (
	"errors"
	"mime"
	"net/http"
	"strconv"

	"github.com/wavecommons/soundvault/internal/api/service"
	"github.com/wavecommons/soundvault/internal/api/store"
	"github.com/wavecommons/soundvault/pkg/httpx"
	"github.com/wavecommons/soundvault/pkg/slogx"
)

// SoundsHandler serves the public read surface over sounds.
type SoundsHandler struct {
	SoundService *service.SoundService
}

// HandleList serves GET /v1/sounds with limit/offset paging.
func (h *SoundsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	sounds, total, err := h.SoundService.List(ctx, limit, offset)
	if err != nil {
		log.Error("list sounds failed", "err", err)
		writeDetail(w, http.StatusInternalServerError, "Server error.")
		return
	}

	results := make([]soundResponse, 0, len(sounds))
	for _, s := range sounds {
		results = append(results, toSoundResponse(s))
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"count":   total,
		"results": results,
	})
}

// HandleGet serves GET /v1/sounds/{id}.
func (h *SoundsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	sound, err := h.SoundService.Get(ctx, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeDetail(w, http.StatusNotFound, "Not found.")
			return
		}
		log.Error("get sound failed", "err", err)
		writeDetail(w, http.StatusInternalServerError, "Server error.")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toSoundResponse(sound))
}

// HandleDownload serves GET /v1/sounds/{id}/download. Each successful
// response bumps the sound's download counter.
func (h *SoundsHandler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	sound, err := h.SoundService.RegisterDownload(ctx, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeDetail(w, http.StatusNotFound, "Not found.")
			return
		}
		log.Error("download sound failed", "err", err)
		writeDetail(w, http.StatusInternalServerError, "Server error.")
		return
	}

	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": sound.OriginalFilename})
	w.Header().Set("Content-Disposition", disposition)
	http.ServeFile(w, r, sound.Path)
}
