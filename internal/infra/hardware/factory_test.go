package hardware

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/tagbox/internal/infra/config"
)

func TestNew_Stubs(t *testing.T) {
	rig, err := New(config.HardwareConfig{
		Reader: config.DriverConfig{Type: "stub"},
		Input:  config.DriverConfig{Type: "stub"},
		Output: config.DriverConfig{Type: "null"},
	})
	require.NoError(t, err)
	defer func() { _ = rig.Close() }()

	uid, err := rig.Reader.ReadPassiveTarget(0)
	require.NoError(t, err)
	assert.Nil(t, uid)

	level, err := rig.Input.Read("GPIO22")
	require.NoError(t, err)
	assert.True(t, level, "stub input reads released (high)")

	require.NoError(t, rig.Device.Load("/music/a.mp3"))
	require.NoError(t, rig.Device.Play())
	rig.Device.Stop()
}

func TestNew_UnknownTypes(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.HardwareConfig
	}{
		{
			name: "unknown reader",
			cfg: config.HardwareConfig{
				Reader: config.DriverConfig{Type: "pn532"},
				Input:  config.DriverConfig{Type: "stub"},
				Output: config.DriverConfig{Type: "null"},
			},
		},
		{
			name: "unknown input",
			cfg: config.HardwareConfig{
				Reader: config.DriverConfig{Type: "stub"},
				Input:  config.DriverConfig{Type: "serial"},
				Output: config.DriverConfig{Type: "null"},
			},
		},
		{
			name: "unknown output",
			cfg: config.HardwareConfig{
				Reader: config.DriverConfig{Type: "stub"},
				Input:  config.DriverConfig{Type: "stub"},
				Output: config.DriverConfig{Type: "alsa"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestNewReader_MFRC522RequiresPins(t *testing.T) {
	_, err := NewReader(config.DriverConfig{
		Type:     "mfrc522",
		Settings: map[string]any{},
	})
	assert.Error(t, err)
}
