package audio

import (
	"context"
	"sync"
	"time"

	zlog "github.com/rs/zerolog/log"
)

// Device is the playback device the engine drives. Implementations are not
// required to be thread-safe: the engine serializes all calls.
type Device interface {
	Load(path string) error
	Play() error
	Stop()
	Pause()
	Resume()
	SetVolume(fraction float64) error
	Close() error
}

// Status is a snapshot of the engine's observable state.
type Status struct {
	State       State
	Volume      int    // 0-100
	CurrentFile string // Empty when stopped
}

// Config holds engine configuration.
type Config struct {
	InitialVolume int           // Initial volume level (0-100)
	CommandBuffer int           // Command queue capacity
	IdleWake      time.Duration // Executor wake interval while idle
}

type op int

const (
	opPlay op = iota
	opStop
	opPause
	opResume
	opSetVolume
)

func (o op) String() string {
	switch o {
	case opPlay:
		return "play"
	case opStop:
		return "stop"
	case opPause:
		return "pause"
	case opResume:
		return "resume"
	case opSetVolume:
		return "set_volume"
	default:
		return "unknown"
	}
}

type command struct {
	op    op
	path  string
	level int
}

// Engine drives a Device through a serialized command queue. Commands are
// enqueued without blocking the caller and executed strictly in submission
// order by a single executor goroutine.
type Engine struct {
	device Device

	mu     sync.RWMutex // guards status only
	status Status

	cmdCh   chan command
	eventCh chan Event

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	idleWake  time.Duration
	closeOnce sync.Once
}

// New creates an engine and starts its command executor.
func New(device Device, cfg Config) *Engine {
	if cfg.CommandBuffer <= 0 {
		cfg.CommandBuffer = 16
	}
	if cfg.IdleWake <= 0 {
		cfg.IdleWake = 500 * time.Millisecond
	}

	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		device: device,
		status: Status{
			State:  StateStopped,
			Volume: clampVolume(cfg.InitialVolume),
		},
		cmdCh:    make(chan command, cfg.CommandBuffer),
		eventCh:  make(chan Event, 10),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
		idleWake: cfg.IdleWake,
	}

	go e.run()

	// Bring the device in line with the initial status
	e.enqueue(command{op: opSetVolume, level: e.status.Volume})

	return e
}

// Events returns the event channel.
func (e *Engine) Events() <-chan Event {
	return e.eventCh
}

// Status returns a snapshot of the current status.
func (e *Engine) Status() Status {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.status
}

// Play enqueues playback of the given file. Any current playback is
// stopped first when the command executes.
func (e *Engine) Play(path string) {
	e.enqueue(command{op: opPlay, path: path})
}

// Stop enqueues a stop. No-op when already stopped.
func (e *Engine) Stop() {
	e.enqueue(command{op: opStop})
}

// Pause enqueues a pause. No-op unless playing.
func (e *Engine) Pause() {
	e.enqueue(command{op: opPause})
}

// Resume enqueues a resume. No-op unless paused.
func (e *Engine) Resume() {
	e.enqueue(command{op: opResume})
}

// SetVolume enqueues a volume change. The level is clamped to [0,100].
func (e *Engine) SetVolume(level int) {
	e.enqueue(command{op: opSetVolume, level: level})
}

// Close shuts down the executor after draining queued commands, then
// closes the device. Safe to call more than once.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		e.cancel()
		<-e.done
		close(e.eventCh)
		if err := e.device.Close(); err != nil {
			zlog.Error().Err(err).Msg("audio: failed to close device")
		}
	})
}

// enqueue submits a command without blocking. A full queue drops the
// command; pollers must never stall on the engine.
func (e *Engine) enqueue(cmd command) {
	select {
	case e.cmdCh <- cmd:
	default:
		zlog.Warn().Msgf("audio: command queue full, dropping %s", cmd.op)
	}
}

// run is the single executor. It drains the command queue in FIFO order
// with a periodic wake so shutdown is observed even while idle.
func (e *Engine) run() {
	defer close(e.done)

	ticker := time.NewTicker(e.idleWake)
	defer ticker.Stop()

	for {
		select {
		case cmd := <-e.cmdCh:
			e.execute(cmd)
		case <-ticker.C:
		case <-e.ctx.Done():
			e.drain()
			return
		}
	}
}

// drain executes commands still queued at shutdown, so a final stop
// submitted before Close is not lost.
func (e *Engine) drain() {
	for {
		select {
		case cmd := <-e.cmdCh:
			e.execute(cmd)
		default:
			return
		}
	}
}

func (e *Engine) execute(cmd command) {
	switch cmd.op {
	case opPlay:
		e.doPlay(cmd.path)
	case opStop:
		e.doStop()
	case opPause:
		e.doPause()
	case opResume:
		e.doResume()
	case opSetVolume:
		e.doSetVolume(cmd.level)
	}
}

func (e *Engine) doPlay(path string) {
	if e.Status().State != StateStopped {
		e.device.Stop()
	}

	if err := e.device.Load(path); err != nil {
		zlog.Error().Err(err).Msgf("audio: failed to load %s", path)
		return
	}
	if err := e.device.Play(); err != nil {
		zlog.Error().Err(err).Msgf("audio: failed to play %s", path)
		return
	}

	e.mu.Lock()
	e.status.State = StatePlaying
	e.status.CurrentFile = path
	e.mu.Unlock()

	e.emit(Event{Type: EventStarted, Path: path})
}

func (e *Engine) doStop() {
	st := e.Status()
	if st.State == StateStopped {
		return
	}

	e.device.Stop()

	e.mu.Lock()
	e.status.State = StateStopped
	e.status.CurrentFile = ""
	e.mu.Unlock()

	e.emit(Event{Type: EventStopped, Path: st.CurrentFile})
}

func (e *Engine) doPause() {
	if e.Status().State != StatePlaying {
		return
	}

	e.device.Pause()

	e.mu.Lock()
	e.status.State = StatePaused
	e.mu.Unlock()
}

func (e *Engine) doResume() {
	if e.Status().State != StatePaused {
		return
	}

	e.device.Resume()

	e.mu.Lock()
	e.status.State = StatePlaying
	e.mu.Unlock()
}

func (e *Engine) doSetVolume(level int) {
	level = clampVolume(level)

	if err := e.device.SetVolume(float64(level) / 100); err != nil {
		zlog.Error().Err(err).Msgf("audio: failed to set volume to %d", level)
	}

	// Recorded regardless of playback state or device errors, so button
	// steps stay anchored to the requested level.
	e.mu.Lock()
	e.status.Volume = level
	e.mu.Unlock()
}

// emit sends an event without blocking. A full channel drops the event.
func (e *Engine) emit(ev Event) {
	select {
	case e.eventCh <- ev:
	default:
		zlog.Warn().Msgf("audio: event channel full, dropping %s", ev.Type)
	}
}

func clampVolume(level int) int {
	if level < 0 {
		return 0
	}
	if level > 100 {
		return 100
	}
	return level
}
