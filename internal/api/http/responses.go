package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/wavecommons/soundvault/internal/api/domain"
	"github.com/wavecommons/soundvault/pkg/httpx"
	"github.com/wavecommons/soundvault/pkg/oauth2x"
)

func writeTokenResponse(w http.ResponseWriter, pair domain.TokenPair) {
	response := oauth2x.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(pair.ExpiresIn.Seconds()),
		Scope:        strings.TrimSpace(pair.Scope),
	}
	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, response)
}

// soundResponse is the JSON representation of a sound on the read surface.
type soundResponse struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Type            string   `json:"type"`
	Filesize        int64    `json:"filesize"`
	MD5             string   `json:"md5"`
	License         string   `json:"license"`
	PackID          *string  `json:"pack_id,omitempty"`
	GeotagID        *string  `json:"geotag_id,omitempty"`
	Description     string   `json:"description,omitempty"`
	Tags            []string `json:"tags"`
	ProcessingState string   `json:"processing_state"`
	ModerationState string   `json:"moderation_state"`
	NumDownloads    int64    `json:"num_downloads"`
	Created         string   `json:"created"`
}

func toSoundResponse(s domain.Sound) soundResponse {
	tags := s.Tags
	if tags == nil {
		tags = []string{}
	}
	return soundResponse{
		ID:              s.ID,
		Name:            s.OriginalFilename,
		Type:            s.Type,
		Filesize:        s.Filesize,
		MD5:             s.MD5,
		License:         s.LicenseID,
		PackID:          s.PackID,
		GeotagID:        s.GeoTagID,
		Description:     s.Description,
		Tags:            tags,
		ProcessingState: s.ProcessingState,
		ModerationState: s.ModerationState,
		NumDownloads:    s.NumDownloads,
		Created:         s.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// detailResponse is the error shape for non-OAuth2 endpoints.
type detailResponse struct {
	Detail string `json:"detail"`
}

func writeDetail(w http.ResponseWriter, code int, detail string) {
	httpx.WriteJSON(w, code, detailResponse{Detail: detail})
}
