// Package tagpoll converts raw tag reader samples into debounced
// presence events.
package tagpoll

import (
	"context"
	"sync"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/tagbox/internal/domain/association"
)

// Reader is the tag reader collaborator. A (nil, nil) return means no tag
// was in range before the timeout expired.
type Reader interface {
	ReadPassiveTarget(timeout time.Duration) ([]byte, error)
}

// Handler receives debounced presence events. Calls happen on the poller
// goroutine and must not block.
type Handler interface {
	TagChanged(id string)
	TagRemoved()
}

// Config holds poller timing configuration.
type Config struct {
	AbsentPoll   time.Duration // Interval while no tag is present
	PresentPoll  time.Duration // Interval while the same tag remains present
	ReadTimeout  time.Duration // Per-sample read timeout
	ErrorBackoff time.Duration // Delay after a reader error
}

// Presence is a snapshot of the debounced reader state.
type Presence struct {
	LastTag    string // Empty when no tag is considered present
	LastSeenAt time.Time
}

// Poller samples the reader and emits tag-changed / tag-removed events.
type Poller struct {
	reader  Reader
	handler Handler
	cfg     Config

	mu       sync.RWMutex
	presence Presence

	now func() time.Time
}

// New creates a poller. Run must be called to start sampling.
func New(reader Reader, handler Handler, cfg Config) *Poller {
	return &Poller{
		reader:  reader,
		handler: handler,
		cfg:     cfg,
		now:     time.Now,
	}
}

// Presence returns the current debounced reader state.
func (p *Poller) Presence() Presence {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.presence
}

// Run samples the reader until the context is cancelled. Reader errors are
// logged and followed by a backoff; they never terminate the loop.
func (p *Poller) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		delay := p.poll()
		if !sleep(ctx, delay) {
			return
		}
	}
}

// poll performs one sample and returns the delay before the next one.
func (p *Poller) poll() time.Duration {
	uid, err := p.reader.ReadPassiveTarget(p.cfg.ReadTimeout)
	if err != nil {
		zlog.Error().Err(err).Msg("tagpoll: read failed")
		return p.cfg.ErrorBackoff
	}

	if len(uid) > 0 {
		id := association.FormatTagID(uid)
		if id != p.Presence().LastTag {
			zlog.Info().Msgf("tagpoll: tag detected: %s", id)
			p.setPresence(Presence{LastTag: id, LastSeenAt: p.now()})
			p.handler.TagChanged(id)
		} else {
			zlog.Debug().Msgf("tagpoll: tag still present: %s", id)
		}
		return p.cfg.PresentPoll
	}

	if p.Presence().LastTag != "" {
		zlog.Info().Msg("tagpoll: tag removed")
		p.setPresence(Presence{})
		p.handler.TagRemoved()
	} else {
		zlog.Debug().Msg("tagpoll: no tag detected")
	}
	return p.cfg.AbsentPoll
}

func (p *Poller) setPresence(pr Presence) {
	p.mu.Lock()
	p.presence = pr
	p.mu.Unlock()
}

// sleep waits for d or context cancellation, reporting whether the full
// delay elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
