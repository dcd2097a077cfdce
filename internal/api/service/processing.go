package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/wavecommons/soundvault/internal/api/domain"
)

// Processor hands a freshly ingested sound to the analysis pipeline. What
// happens on the other side is opaque to this service.
type Processor interface {
	Process(ctx context.Context, sound domain.Sound) error
}

// LoggingProcessor is the default pipeline stand-in; it records the handoff
// and succeeds.
type LoggingProcessor struct {
	Logger *slog.Logger
}

func (p *LoggingProcessor) Process(_ context.Context, sound domain.Sound) error {
	p.Logger.Info("sound queued for processing",
		slog.String("sound_id", sound.ID),
		slog.String("type", sound.Type))
	return nil
}

// Dispatcher triggers processing for newly created sounds without ever
// letting a pipeline failure reach the uploader. Each dispatch runs in its
// own goroutine with a small retry budget; exhausting it only logs.
type Dispatcher struct {
	Processor   Processor
	Logger      *slog.Logger
	MaxAttempts int
	Backoff     time.Duration

	wg sync.WaitGroup
}

func NewDispatcher(p Processor, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		Processor:   p,
		Logger:      logger,
		MaxAttempts: 3,
		Backoff:     2 * time.Second,
	}
}

// Dispatch fires the processing trigger and returns immediately.
func (d *Dispatcher) Dispatch(sound domain.Sound) {
	if d.Processor == nil {
		d.Logger.Debug("no processor configured, skipping dispatch",
			slog.String("sound_id", sound.ID))
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.run(sound)
	}()
}

func (d *Dispatcher) run(sound domain.Sound) {
	for attempt := 1; attempt <= d.MaxAttempts; attempt++ {
		err := d.Processor.Process(context.Background(), sound)
		if err == nil {
			return
		}
		d.Logger.Warn("sound processing trigger failed",
			slog.String("sound_id", sound.ID),
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()))
		if attempt < d.MaxAttempts {
			time.Sleep(d.Backoff * time.Duration(attempt))
		}
	}
	d.Logger.Error("sound processing trigger abandoned",
		slog.String("sound_id", sound.ID),
		slog.Int("attempts", d.MaxAttempts))
}

// Wait blocks until all in-flight dispatches finish. Called on shutdown.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
