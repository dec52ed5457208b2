package box

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/tagbox/internal/app/audio"
	"github.com/osa030/tagbox/internal/domain/association"
	"github.com/osa030/tagbox/internal/infra/config"
)

// fakePlayer records commands.
type fakePlayer struct {
	commands []string
}

func (p *fakePlayer) Play(path string) { p.commands = append(p.commands, "play:"+path) }
func (p *fakePlayer) Stop() { p.commands = append(p.commands, "stop") }
func (p *fakePlayer) Pause() { p.commands = append(p.commands, "pause") }
func (p *fakePlayer) Resume() { p.commands = append(p.commands, "resume") }
func (p *fakePlayer) SetVolume(level int) { p.commands = append(p.commands, "volume") }
func (p *fakePlayer) Status() audio.Status {
	return audio.Status{State: audio.StateStopped, Volume: 50}
}
func (p *fakePlayer) Close() { p.commands = append(p.commands, "close") }

type idleReader struct{}

func (idleReader) ReadPassiveTarget(time.Duration) ([]byte, error) { return nil, nil }

type idleInput struct{}

func (idleInput) Read(string) (bool, error) { return true, nil }

func testBox(table *association.Table, player Player) *Box {
	cfg := &config.Config{
		Audio:   config.AudioConfig{InitialVolume: 50, VolumeStep: 10, CommandBuffer: 16, IdleWakeMs: 100},
		Tags:    config.TagsConfig{AbsentPollMs: 10, PresentPollMs: 10, ReadTimeoutMs: 10, ErrorBackoffMs: 10},
		Buttons: config.ButtonsConfig{PollMs: 10, CooldownMs: 300},
	}
	return New(cfg, table, player, idleReader{}, idleInput{})
}

func TestBox_TagChangedPlaysAssociatedFile(t *testing.T) {
	table := association.NewTable([]association.Entry{
		{TagID: "AA:BB", Path: "/music/a.mp3", Kind: 1},
	})
	player := &fakePlayer{}
	b := testBox(table, player)

	b.TagChanged("AA:BB")

	assert.Equal(t, []string{"play:/music/a.mp3"}, player.commands)
}

func TestBox_TagChangedUnknownTagIsNoop(t *testing.T) {
	player := &fakePlayer{}
	b := testBox(association.NewTable(nil), player)

	b.TagChanged("CC:DD")

	assert.Empty(t, player.commands)
}

func TestBox_TagRemovedStops(t *testing.T) {
	player := &fakePlayer{}
	b := testBox(association.NewTable(nil), player)

	b.TagRemoved()

	assert.Equal(t, []string{"stop"}, player.commands)
}

func TestBox_BroadcastReachesSubscribersEvenWithoutAssociation(t *testing.T) {
	player := &fakePlayer{}
	b := testBox(association.NewTable(nil), player)

	id, ch := b.Subscribe()
	defer b.Unsubscribe(id)

	b.TagChanged("AA:BB")

	select {
	case got := <-ch:
		assert.Equal(t, "AA:BB", got)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for broadcast")
	}
	// Playback was not triggered, broadcast still happened
	assert.Empty(t, player.commands)
}

func TestBox_Unsubscribe(t *testing.T) {
	b := testBox(association.NewTable(nil), &fakePlayer{})

	id, ch := b.Subscribe()
	require.Equal(t, 1, b.broadcaster.Count())

	b.Unsubscribe(id)
	assert.Equal(t, 0, b.broadcaster.Count())

	// Channel is closed after unsubscribe
	_, open := <-ch
	assert.False(t, open)
}

func TestBox_StartAndClose(t *testing.T) {
	player := &fakePlayer{}
	b := testBox(association.NewTable(nil), player)

	b.Start()
	assert.True(t, b.Running())

	b.Close()
	assert.False(t, b.Running())

	// Final stop then player shutdown, in that order
	require.GreaterOrEqual(t, len(player.commands), 2)
	assert.Equal(t, "stop", player.commands[len(player.commands)-2])
	assert.Equal(t, "close", player.commands[len(player.commands)-1])

	// Close is idempotent
	b.Close()
}

func TestBroadcaster_SlowSubscriberDoesNotBlock(t *testing.T) {
	b := NewTagBroadcaster()
	_, ch := b.Subscribe()

	// Fill the buffer and keep broadcasting; none of these may block.
	for i := 0; i < 20; i++ {
		b.Broadcast("AA:BB")
	}

	// Buffered events are still readable
	assert.Equal(t, "AA:BB", <-ch)
}
