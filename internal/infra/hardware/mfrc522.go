package hardware

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/mfrc522"
)

// MFRC522Settings configures the SPI-attached MFRC522 reader.
type MFRC522Settings struct {
	Port     string `mapstructure:"port"` // Empty selects the first SPI port
	ResetPin string `mapstructure:"reset_pin" validate:"required"`
	IRQPin   string `mapstructure:"irq_pin" validate:"required"`
}

// mfrc522Reader adapts the periph MFRC522 driver to the TagReader
// contract: a timed-out read reports absence, not an error.
type mfrc522Reader struct {
	dev  *mfrc522.Dev
	port spi.PortCloser
}

// newMFRC522 opens the SPI port and brings the reader up.
func newMFRC522(settings map[string]any) (*mfrc522Reader, error) {
	var cfg MFRC522Settings
	if err := mapstructure.Decode(settings, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to decode mfrc522 settings")
	}
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, errors.Wrap(err, "mfrc522 settings validation failed")
	}

	if err := initHost(); err != nil {
		return nil, err
	}

	port, err := spireg.Open(cfg.Port)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open SPI port %q", cfg.Port)
	}

	resetPin := gpioreg.ByName(cfg.ResetPin)
	if resetPin == nil {
		_ = port.Close()
		return nil, errors.Newf("unknown reset pin %q", cfg.ResetPin)
	}
	irqPin := gpioreg.ByName(cfg.IRQPin)
	if irqPin == nil {
		_ = port.Close()
		return nil, errors.Newf("unknown irq pin %q", cfg.IRQPin)
	}

	dev, err := mfrc522.NewSPI(port, resetPin, irqPin)
	if err != nil {
		_ = port.Close()
		return nil, errors.Wrap(err, "failed to initialize mfrc522")
	}

	zlog.Info().Msgf("hardware: mfrc522 ready on %s (reset=%s irq=%s)", dev, cfg.ResetPin, cfg.IRQPin)
	return &mfrc522Reader{dev: dev, port: port}, nil
}

// ReadPassiveTarget returns the UID of a tag in range, or (nil, nil) when
// none responds before the timeout.
func (r *mfrc522Reader) ReadPassiveTarget(timeout time.Duration) ([]byte, error) {
	uid, err := r.dev.ReadUID(timeout)
	if err != nil {
		if isTimeout(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "mfrc522 read failed")
	}
	return uid, nil
}

// Close halts the device and releases the SPI port.
func (r *mfrc522Reader) Close() error {
	err := r.dev.Halt()
	if cerr := r.port.Close(); err == nil {
		err = cerr
	}
	return errors.Wrap(err, "failed to close mfrc522")
}

// isTimeout reports whether the driver error means "no tag in range".
// The periph driver surfaces that condition as a timeout error.
func isTimeout(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "timeout")
}
