package service

import (
	"context"
	"fmt"

	"github.com/wavecommons/soundvault/internal/api/domain"
	"github.com/wavecommons/soundvault/internal/api/store"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// SoundService serves the read surface over persisted sounds.
type SoundService struct {
	Store store.Store
}

// List returns one page of sounds newest first plus the total row count.
// Limit is clamped to a sane page size.
func (s *SoundService) List(ctx context.Context, limit, offset int) ([]domain.Sound, int, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	sounds, err := s.Store.Sounds().ListSounds(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.Store.Sounds().CountSounds(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("count sounds: %w", err)
	}
	return sounds, total, nil
}

// Get returns one sound with its tags.
func (s *SoundService) Get(ctx context.Context, id string) (domain.Sound, error) {
	return s.Store.Sounds().GetSoundByID(ctx, id)
}

// RegisterDownload bumps the download counter and returns the sound so the
// caller can serve its file.
func (s *SoundService) RegisterDownload(ctx context.Context, id string) (domain.Sound, error) {
	sound, err := s.Store.Sounds().GetSoundByID(ctx, id)
	if err != nil {
		return domain.Sound{}, err
	}
	if err := s.Store.Sounds().IncrementDownloads(ctx, id); err != nil {
		return domain.Sound{}, fmt.Errorf("increment downloads: %w", err)
	}
	sound.NumDownloads++
	return sound, nil
}
