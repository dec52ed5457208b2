// Package hardware constructs the physical collaborators (tag reader,
// button inputs, audio output) from configuration.
package hardware

import (
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"periph.io/x/host/v3"
)

// TagReader reads proximity tags. A (nil, nil) return means no tag was in
// range before the timeout expired.
type TagReader interface {
	ReadPassiveTarget(timeout time.Duration) ([]byte, error)
	Close() error
}

// Input reads digital input pins. The buttons are wired active-low, so a
// false return means pressed.
type Input interface {
	Read(pin string) (bool, error)
	Close() error
}

// AudioDevice is the playback device surface, matching what the audio
// engine drives.
type AudioDevice interface {
	Load(path string) error
	Play() error
	Stop()
	Pause()
	Resume()
	SetVolume(fraction float64) error
	Close() error
}

var (
	hostInitOnce sync.Once
	hostInitErr  error
)

// initHost initializes the periph host drivers once per process.
func initHost() error {
	hostInitOnce.Do(func() {
		_, hostInitErr = host.Init()
	})
	return errors.Wrap(hostInitErr, "failed to initialize periph host")
}
