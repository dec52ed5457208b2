package hardware

import (
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/tagbox/internal/infra/beepaudio"
	"github.com/osa030/tagbox/internal/infra/config"
)

// Rig bundles the constructed hardware collaborators.
type Rig struct {
	Reader TagReader
	Input  Input
	Device AudioDevice
}

// New constructs all collaborators from configuration. Any driver that
// fails to come up aborts startup; this is the one fatal path.
func New(cfg config.HardwareConfig) (*Rig, error) {
	reader, err := NewReader(cfg.Reader)
	if err != nil {
		return nil, err
	}

	input, err := newInput(cfg.Input)
	if err != nil {
		_ = reader.Close()
		return nil, err
	}

	device, err := newOutput(cfg.Output)
	if err != nil {
		_ = input.Close()
		_ = reader.Close()
		return nil, err
	}

	return &Rig{Reader: reader, Input: input, Device: device}, nil
}

// Close releases all collaborators, device first.
func (r *Rig) Close() error {
	var err error
	if cerr := r.Device.Close(); cerr != nil {
		err = cerr
	}
	if cerr := r.Input.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if cerr := r.Reader.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// NewReader constructs the tag reader on its own; the association utility
// needs no other hardware.
func NewReader(cfg config.DriverConfig) (TagReader, error) {
	zlog.Debug().Msgf("hardware: creating reader driver: type=%s settings=%+v", cfg.Type, cfg.Settings)
	switch cfg.Type {
	case "mfrc522":
		return newMFRC522(cfg.Settings)
	case "stub":
		return stubReader{}, nil
	default:
		return nil, errors.Newf("unsupported reader type: %s", cfg.Type)
	}
}

func newInput(cfg config.DriverConfig) (Input, error) {
	zlog.Debug().Msgf("hardware: creating input driver: type=%s", cfg.Type)
	switch cfg.Type {
	case "gpio":
		return newGPIOInput()
	case "stub":
		return stubInput{}, nil
	default:
		return nil, errors.Newf("unsupported input type: %s", cfg.Type)
	}
}

func newOutput(cfg config.DriverConfig) (AudioDevice, error) {
	zlog.Debug().Msgf("hardware: creating output driver: type=%s", cfg.Type)
	switch cfg.Type {
	case "beep":
		return beepaudio.New(), nil
	case "null":
		return nullDevice{}, nil
	default:
		return nil, errors.Newf("unsupported output type: %s", cfg.Type)
	}
}
