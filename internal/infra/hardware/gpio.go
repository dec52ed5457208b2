package hardware

import (
	"sync"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

// gpioInput reads button pins through periph. Pins are configured with an
// internal pull-up on first use, matching the active-low wiring.
type gpioInput struct {
	mu   sync.Mutex
	pins map[string]gpio.PinIO
}

// newGPIOInput prepares the GPIO input driver.
func newGPIOInput() (*gpioInput, error) {
	if err := initHost(); err != nil {
		return nil, err
	}
	return &gpioInput{pins: make(map[string]gpio.PinIO)}, nil
}

// Read returns the raw level of the named pin; false means pressed.
func (in *gpioInput) Read(name string) (bool, error) {
	pin, err := in.pin(name)
	if err != nil {
		return false, err
	}
	return pin.Read() == gpio.High, nil
}

// pin looks up and configures a pin, caching the result.
func (in *gpioInput) pin(name string) (gpio.PinIO, error) {
	in.mu.Lock()
	defer in.mu.Unlock()

	if pin, ok := in.pins[name]; ok {
		return pin, nil
	}

	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, errors.Newf("unknown gpio pin %q", name)
	}
	if err := pin.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, errors.Wrapf(err, "failed to configure pin %s", name)
	}

	zlog.Debug().Msgf("hardware: configured %s as pulled-up input", name)
	in.pins[name] = pin
	return pin, nil
}

// Close releases the configured pins.
func (in *gpioInput) Close() error {
	in.mu.Lock()
	defer in.mu.Unlock()

	var err error
	for name, pin := range in.pins {
		if herr := pin.Halt(); herr != nil && err == nil {
			err = errors.Wrapf(herr, "failed to halt pin %s", name)
		}
	}
	in.pins = make(map[string]gpio.PinIO)
	return err
}
