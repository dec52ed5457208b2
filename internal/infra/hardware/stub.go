package hardware

import (
	"time"

	zlog "github.com/rs/zerolog/log"
)

// stubReader never sees a tag. It lets the daemon run on a bench without
// a reader attached.
type stubReader struct{}

func (stubReader) ReadPassiveTarget(time.Duration) ([]byte, error) { return nil, nil }
func (stubReader) Close() error { return nil }

// stubInput reports every pin as released.
type stubInput struct{}

func (stubInput) Read(string) (bool, error) { return true, nil }
func (stubInput) Close() error { return nil }

// nullDevice discards playback, logging what it would have done. Useful
// for debugging the association table on hardware without sound output.
type nullDevice struct{}

func (nullDevice) Load(path string) error {
	zlog.Info().Msgf("hardware: null audio: load %s", path)
	return nil
}
func (nullDevice) Play() error { zlog.Info().Msg("hardware: null audio: play"); return nil }
func (nullDevice) Stop() { zlog.Info().Msg("hardware: null audio: stop") }
func (nullDevice) Pause() { zlog.Info().Msg("hardware: null audio: pause") }
func (nullDevice) Resume() { zlog.Info().Msg("hardware: null audio: resume") }
func (nullDevice) SetVolume(fraction float64) error {
	zlog.Debug().Msgf("hardware: null audio: volume %.2f", fraction)
	return nil
}
func (nullDevice) Close() error { return nil }
