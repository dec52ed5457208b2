// Package buttons polls the three physical buttons and turns debounced
// presses into audio engine commands.
package buttons

import (
	"context"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/tagbox/internal/app/audio"
)

// Input is the digital input collaborator. Read returns the raw pin
// level; the inputs are active-low, so false means pressed.
type Input interface {
	Read(pin string) (bool, error)
}

// Player is the subset of the audio engine the poller drives.
type Player interface {
	Status() audio.Status
	SetVolume(level int)
	Pause()
	Resume()
}

// Pins names the three button pins.
type Pins struct {
	VolumeUp   string
	VolumeDown string
	PlayPause  string
}

// Config holds poller configuration.
type Config struct {
	Poll       time.Duration // Scan interval
	Cooldown   time.Duration // Minimum delay between two actions
	VolumeStep int           // Volume change per press
	Pins       Pins
}

// Poller scans the buttons at a fixed interval. Within one cooldown
// window at most one action fires, chosen by fixed priority:
// volume-up, then volume-down, then play/pause.
type Poller struct {
	input  Input
	player Player
	cfg    Config

	lastPress time.Time
	now       func() time.Time
}

// New creates a poller. Run must be called to start scanning.
func New(input Input, player Player, cfg Config) *Poller {
	return &Poller{
		input:  input,
		player: player,
		cfg:    cfg,
		now:    time.Now,
	}
}

// Run scans the buttons until the context is cancelled.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.cfg.Poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.scan()
		}
	}
}

// scan performs one debounced pass over the buttons.
func (p *Poller) scan() {
	if p.now().Sub(p.lastPress) < p.cfg.Cooldown {
		return
	}

	switch {
	case p.pressed(p.cfg.Pins.VolumeUp):
		target := p.player.Status().Volume + p.cfg.VolumeStep
		zlog.Info().Msgf("buttons: volume up: %d", target)
		p.player.SetVolume(target)
		p.lastPress = p.now()

	case p.pressed(p.cfg.Pins.VolumeDown):
		target := p.player.Status().Volume - p.cfg.VolumeStep
		zlog.Info().Msgf("buttons: volume down: %d", target)
		p.player.SetVolume(target)
		p.lastPress = p.now()

	case p.pressed(p.cfg.Pins.PlayPause):
		p.togglePlayback()
		p.lastPress = p.now()
	}
}

// togglePlayback pauses or resumes based on the observed state. A stale
// snapshot is harmless: the engine ignores pause unless playing and
// resume unless paused.
func (p *Poller) togglePlayback() {
	switch p.player.Status().State {
	case audio.StatePlaying:
		zlog.Info().Msg("buttons: pausing playback")
		p.player.Pause()
	case audio.StatePaused:
		zlog.Info().Msg("buttons: resuming playback")
		p.player.Resume()
	default:
		zlog.Debug().Msg("buttons: play/pause pressed while stopped, ignoring")
	}
}

// pressed reads one pin, treating errors as not-pressed.
func (p *Poller) pressed(pin string) bool {
	level, err := p.input.Read(pin)
	if err != nil {
		zlog.Error().Err(err).Msgf("buttons: failed to read %s", pin)
		return false
	}
	return !level // active-low
}
