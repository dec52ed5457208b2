// Package beepaudio implements the playback device on top of gopxl/beep.
package beepaudio

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
)

// sampleRate is the fixed speaker rate; all files are resampled to it so
// the speaker only needs to be initialized once.
const sampleRate = beep.SampleRate(44100)

// Device plays local audio files through the system speaker. It is driven
// by the audio engine's executor, so methods need no external locking, but
// a mutex keeps the device safe on its own.
type Device struct {
	mu sync.Mutex

	initialized bool
	streamer    beep.StreamSeekCloser
	ctrl        *beep.Ctrl
	volume      *effects.Volume
	fraction    float64
}

// New creates a device. The speaker is initialized lazily on first load.
func New() *Device {
	return &Device{fraction: 1.0}
}

// Load decodes the file and prepares it for playback, replacing any
// previously loaded file.
func (d *Device) Load(path string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()

	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "failed to open %s", path)
	}

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	case ".wav":
		streamer, format, err = wav.Decode(f)
	case ".ogg":
		streamer, format, err = vorbis.Decode(f)
	case ".flac":
		streamer, format, err = flac.Decode(f)
	default:
		_ = f.Close()
		return errors.Newf("unsupported audio format: %s", path)
	}
	if err != nil {
		_ = f.Close()
		return errors.Wrapf(err, "failed to decode %s", path)
	}

	if !d.initialized {
		if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
			_ = streamer.Close()
			return errors.Wrap(err, "failed to initialize speaker")
		}
		d.initialized = true
	}

	resampled := beep.Resample(4, format.SampleRate, sampleRate, streamer)
	d.ctrl = &beep.Ctrl{Streamer: resampled}
	d.volume = &effects.Volume{
		Streamer: d.ctrl,
		Base:     2,
		Volume:   fractionToGain(d.fraction),
		Silent:   d.fraction == 0,
	}
	d.streamer = streamer

	return nil
}

// Play starts playback of the loaded file.
func (d *Device) Play() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.volume == nil {
		return errors.New("no file loaded")
	}
	speaker.Play(d.volume)
	return nil
}

// Stop halts playback and releases the loaded file.
func (d *Device) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
}

func (d *Device) stopLocked() {
	if d.initialized {
		speaker.Clear()
	}
	if d.streamer != nil {
		_ = d.streamer.Close()
		d.streamer = nil
	}
	d.ctrl = nil
	d.volume = nil
}

// Pause suspends playback, keeping the position.
func (d *Device) Pause() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.ctrl != nil {
		speaker.Lock()
		d.ctrl.Paused = true
		speaker.Unlock()
	}
}

// Resume continues paused playback.
func (d *Device) Resume() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.ctrl != nil {
		speaker.Lock()
		d.ctrl.Paused = false
		speaker.Unlock()
	}
}

// SetVolume applies a volume fraction in [0.0, 1.0]. The fraction is
// remembered and re-applied to files loaded later.
func (d *Device) SetVolume(fraction float64) error {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.fraction = fraction
	if d.volume != nil {
		speaker.Lock()
		d.volume.Silent = fraction == 0
		d.volume.Volume = fractionToGain(fraction)
		speaker.Unlock()
	}
	return nil
}

// Close stops playback and releases resources.
func (d *Device) Close() error {
	d.Stop()
	return nil
}

// fractionToGain converts a linear volume fraction to the exponential
// gain expected by effects.Volume (real volume = Base^Volume).
func fractionToGain(fraction float64) float64 {
	if fraction <= 0 {
		return 0
	}
	return math.Log2(fraction)
}
