package audio

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDevice records calls in order and can be told to fail loads.
type fakeDevice struct {
	mu       sync.Mutex
	calls    []string
	failLoad map[string]bool
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{failLoad: make(map[string]bool)}
}

func (d *fakeDevice) record(call string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, call)
}

func (d *fakeDevice) Load(path string) error {
	d.record("load:" + path)
	d.mu.Lock()
	fail := d.failLoad[path]
	d.mu.Unlock()
	if fail {
		return errors.New("decode failed")
	}
	return nil
}

func (d *fakeDevice) Play() error { d.record("play"); return nil }
func (d *fakeDevice) Stop() { d.record("stop") }
func (d *fakeDevice) Pause() { d.record("pause") }
func (d *fakeDevice) Resume() { d.record("resume") }
func (d *fakeDevice) Close() error { d.record("close"); return nil }
func (d *fakeDevice) SetVolume(f float64) error {
	d.record(fmt.Sprintf("volume:%.2f", f))
	return nil
}

func (d *fakeDevice) callLog() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	result := make([]string, len(d.calls))
	copy(result, d.calls)
	return result
}

func newTestEngine(t *testing.T, device Device) *Engine {
	t.Helper()
	e := New(device, Config{
		InitialVolume: 50,
		CommandBuffer: 32,
		IdleWake:      10 * time.Millisecond,
	})
	t.Cleanup(e.Close)
	return e
}

func waitForStatus(t *testing.T, e *Engine, want func(Status) bool) {
	t.Helper()
	assert.Eventually(t, func() bool { return want(e.Status()) },
		2*time.Second, 5*time.Millisecond)
}

func TestEngine_PlayStop(t *testing.T) {
	device := newFakeDevice()
	e := newTestEngine(t, device)

	e.Play("/music/a.mp3")
	waitForStatus(t, e, func(s Status) bool {
		return s.State == StatePlaying && s.CurrentFile == "/music/a.mp3"
	})

	e.Stop()
	waitForStatus(t, e, func(s Status) bool {
		return s.State == StateStopped && s.CurrentFile == ""
	})

	calls := device.callLog()
	assert.Contains(t, calls, "load:/music/a.mp3")
	assert.Contains(t, calls, "play")
	assert.Contains(t, calls, "stop")
}

func TestEngine_PlayReplacesCurrent(t *testing.T) {
	device := newFakeDevice()
	e := newTestEngine(t, device)

	e.Play("/music/a.mp3")
	e.Play("/music/b.mp3")

	waitForStatus(t, e, func(s Status) bool {
		return s.State == StatePlaying && s.CurrentFile == "/music/b.mp3"
	})

	// The second play stops the device exactly once before starting B.
	calls := device.callLog()
	var afterA []string
	seenA := false
	for _, c := range calls {
		if c == "play" && !seenA {
			seenA = true
			continue
		}
		if seenA {
			afterA = append(afterA, c)
		}
	}
	assert.Equal(t, []string{"stop", "load:/music/b.mp3", "play"}, afterA)
}

func TestEngine_PauseResume(t *testing.T) {
	device := newFakeDevice()
	e := newTestEngine(t, device)

	e.Play("/music/a.mp3")
	e.Pause()
	waitForStatus(t, e, func(s Status) bool { return s.State == StatePaused })

	// Still the same file while paused
	assert.Equal(t, "/music/a.mp3", e.Status().CurrentFile)

	e.Resume()
	waitForStatus(t, e, func(s Status) bool { return s.State == StatePlaying })
}

func TestEngine_PauseWhileStoppedIsNoop(t *testing.T) {
	device := newFakeDevice()
	e := newTestEngine(t, device)

	e.Pause()
	e.Resume()
	e.Stop()

	// FIFO barrier: once this volume lands, the no-op commands have run
	e.SetVolume(40)
	waitForStatus(t, e, func(s Status) bool { return s.Volume == 40 })

	assert.Equal(t, StateStopped, e.Status().State)
	assert.NotContains(t, device.callLog(), "pause")
	assert.NotContains(t, device.callLog(), "resume")
	// Stop while stopped never reaches the device either; the only device
	// calls so far are volume applications.
	for _, c := range device.callLog() {
		assert.NotEqual(t, "stop", c)
	}
}

func TestEngine_SetVolumeClampIdempotent(t *testing.T) {
	device := newFakeDevice()
	e := newTestEngine(t, device)

	e.SetVolume(150)
	waitForStatus(t, e, func(s Status) bool { return s.Volume == 100 })

	e.SetVolume(150)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 100, e.Status().Volume)

	e.SetVolume(-20)
	waitForStatus(t, e, func(s Status) bool { return s.Volume == 0 })

	calls := device.callLog()
	assert.Contains(t, calls, "volume:1.00")
	assert.Contains(t, calls, "volume:0.00")
}

func TestEngine_VolumePersistsWhileStopped(t *testing.T) {
	device := newFakeDevice()
	e := newTestEngine(t, device)

	e.SetVolume(80)
	waitForStatus(t, e, func(s Status) bool { return s.Volume == 80 })
	assert.Equal(t, StateStopped, e.Status().State)
}

func TestEngine_LoadFailureLeavesStateUntouched(t *testing.T) {
	device := newFakeDevice()
	device.failLoad["/music/bad.mp3"] = true
	e := newTestEngine(t, device)

	e.Play("/music/good.mp3")
	waitForStatus(t, e, func(s Status) bool { return s.State == StatePlaying })

	e.Play("/music/bad.mp3")
	// Use a volume command as a barrier: FIFO order guarantees the failed
	// play has executed once the volume shows up.
	e.SetVolume(60)
	waitForStatus(t, e, func(s Status) bool { return s.Volume == 60 })

	st := e.Status()
	assert.Equal(t, StatePlaying, st.State)
	assert.Equal(t, "/music/good.mp3", st.CurrentFile)
}

func TestEngine_Events(t *testing.T) {
	device := newFakeDevice()
	e := newTestEngine(t, device)

	e.Play("/music/a.mp3")
	e.Stop()

	var got []Event
	deadline := time.After(2 * time.Second)
	for len(got) < 2 {
		select {
		case ev := <-e.Events():
			got = append(got, ev)
		case <-deadline:
			t.Fatalf("timed out waiting for events, got %v", got)
		}
	}

	require.Len(t, got, 2)
	assert.Equal(t, EventStarted, got[0].Type)
	assert.Equal(t, "/music/a.mp3", got[0].Path)
	assert.Equal(t, EventStopped, got[1].Type)
	assert.Equal(t, "/music/a.mp3", got[1].Path)
}

func TestEngine_CloseDrainsQueue(t *testing.T) {
	device := newFakeDevice()
	e := New(device, Config{InitialVolume: 50, CommandBuffer: 32, IdleWake: 10 * time.Millisecond})

	e.Play("/music/a.mp3")
	waitForStatus(t, e, func(s Status) bool { return s.State == StatePlaying })

	e.Stop()
	e.Close()

	assert.Equal(t, StateStopped, e.Status().State)
	assert.Contains(t, device.callLog(), "stop")
	assert.Contains(t, device.callLog(), "close")

	// Close is idempotent
	e.Close()
}
