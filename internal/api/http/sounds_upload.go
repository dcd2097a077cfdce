package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wavecommons/soundvault/internal/api/service"
	"github.com/wavecommons/soundvault/pkg/httpx"
	"github.com/wavecommons/soundvault/pkg/slogx"
)

// UploadHandler serves POST /v1/sounds/upload. The audio file must already
// sit in the caller's staging directory; the request body only carries its
// description.
type UploadHandler struct {
	UploadService *service.UploadService
}

type uploadRequest struct {
	UploadFilename string `json:"upload_filename"`
	Name           string `json:"name"`
	License        string `json:"license"`
	Pack           string `json:"pack"`
	Geotag         string `json:"geotag"`
	Description    string `json:"description"`
	Tags           string `json:"tags"`
}

func (h *UploadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req uploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid JSON body.")
		return
	}
	if req.UploadFilename == "" {
		writeDetail(w, http.StatusBadRequest, "upload_filename is required.")
		return
	}
	if req.License == "" {
		writeDetail(w, http.StatusBadRequest, "license is required.")
		return
	}

	actx := AuthContextFrom(ctx)
	sound, err := h.UploadService.Ingest(ctx, *actx.User, service.UploadDescription{
		UploadFilename: req.UploadFilename,
		Name:           req.Name,
		License:        req.License,
		Pack:           req.Pack,
		Geotag:         req.Geotag,
		Description:    req.Description,
		Tags:           req.Tags,
	})
	if err != nil {
		var serr *service.ServerError
		switch {
		case errors.Is(err, service.ErrDuplicateSound):
			writeDetail(w, http.StatusConflict,
				"Sound could not be created because the uploaded file is already part of soundvault.")
		case errors.Is(err, service.ErrLicenseNotFound):
			writeDetail(w, http.StatusBadRequest, "Unknown license.")
		case errors.Is(err, service.ErrMalformedGeotag):
			writeDetail(w, http.StatusBadRequest, "Geotag must be \"lat,lon,zoom\".")
		case errors.As(err, &serr):
			writeDetail(w, http.StatusInternalServerError, serr.Detail)
		default:
			log.Error("sound ingestion failed", "err", err)
			writeDetail(w, http.StatusInternalServerError, "Server error.")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, toSoundResponse(sound))
}
