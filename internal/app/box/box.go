// Package box wires the pollers, the association table and the audio
// engine together and owns their lifecycle.
package box

import (
	"context"
	"sync"
	"sync/atomic"

	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/tagbox/internal/app/audio"
	"github.com/osa030/tagbox/internal/app/buttons"
	"github.com/osa030/tagbox/internal/app/tagpoll"
	"github.com/osa030/tagbox/internal/domain/association"
	"github.com/osa030/tagbox/internal/infra/config"
)

// Player is the audio engine surface the box drives.
type Player interface {
	Play(path string)
	Stop()
	Pause()
	Resume()
	SetVolume(level int)
	Status() audio.Status
	Close()
}

// Box is the top-level controller of the music box.
type Box struct {
	table  *association.Table
	player Player

	tagPoller    *tagpoll.Poller
	buttonPoller *buttons.Poller
	broadcaster  *TagBroadcaster

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	running   atomic.Bool
	closeOnce sync.Once
}

// New creates a box around an already-constructed player and the
// hardware collaborators. Start must be called to begin polling.
func New(cfg *config.Config, table *association.Table, player Player, reader tagpoll.Reader, input buttons.Input) *Box {
	ctx, cancel := context.WithCancel(context.Background())

	b := &Box{
		table:       table,
		player:      player,
		broadcaster: NewTagBroadcaster(),
		ctx:         ctx,
		cancel:      cancel,
	}

	b.tagPoller = tagpoll.New(reader, b, tagpoll.Config{
		AbsentPoll:   cfg.Tags.AbsentPoll(),
		PresentPoll:  cfg.Tags.PresentPoll(),
		ReadTimeout:  cfg.Tags.ReadTimeout(),
		ErrorBackoff: cfg.Tags.ErrorBackoff(),
	})

	b.buttonPoller = buttons.New(input, player, buttons.Config{
		Poll:       cfg.Buttons.Poll(),
		Cooldown:   cfg.Buttons.Cooldown(),
		VolumeStep: cfg.Audio.VolumeStep,
		Pins: buttons.Pins{
			VolumeUp:   cfg.Buttons.Pins.VolumeUp,
			VolumeDown: cfg.Buttons.Pins.VolumeDown,
			PlayPause:  cfg.Buttons.Pins.PlayPause,
		},
	})

	return b
}

// Start launches the polling loops.
func (b *Box) Start() {
	b.running.Store(true)

	b.wg.Add(2)
	go func() {
		defer b.wg.Done()
		b.tagPoller.Run(b.ctx)
	}()
	go func() {
		defer b.wg.Done()
		b.buttonPoller.Run(b.ctx)
	}()

	zlog.Info().Msgf("box: started with %d association(s)", b.table.Len())
}

// Running reports whether the box is running.
func (b *Box) Running() bool {
	return b.running.Load()
}

// Subscribe registers an external subscriber for raw tag-changed ids.
func (b *Box) Subscribe() (string, <-chan string) {
	return b.broadcaster.Subscribe()
}

// Unsubscribe removes a tag event subscriber.
func (b *Box) Unsubscribe(subscriptionID string) {
	b.broadcaster.Unsubscribe(subscriptionID)
}

// Presence returns the tag poller's debounced state.
func (b *Box) Presence() tagpoll.Presence {
	return b.tagPoller.Presence()
}

// TagChanged implements tagpoll.Handler. The id is broadcast to
// subscribers regardless of whether an association exists.
func (b *Box) TagChanged(id string) {
	b.broadcaster.Broadcast(id)

	path, ok := b.table.Lookup(id)
	if !ok {
		zlog.Info().Msgf("box: no audio file for tag %s", id)
		return
	}

	zlog.Info().Msgf("box: playing %s for tag %s", path, id)
	b.player.Play(path)
}

// TagRemoved implements tagpoll.Handler.
func (b *Box) TagRemoved() {
	zlog.Info().Msg("box: tag removed, stopping playback")
	b.player.Stop()
}

// Close stops the polling loops, stops playback and shuts the player
// down. Safe to call more than once.
func (b *Box) Close() {
	b.closeOnce.Do(func() {
		zlog.Info().Msg("box: shutting down")
		b.running.Store(false)

		// Pollers first, so nothing enqueues after the final stop
		b.cancel()
		b.wg.Wait()

		b.player.Stop()
		b.player.Close()

		zlog.Info().Msg("box: shutdown complete")
	})
}
