package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettleDelays_DelayFor(t *testing.T) {
	d := DefaultSettleDelays()
	assert.Equal(t, 800*time.Millisecond, d.DelayFor("play_hand"))
	assert.Equal(t, d.Default, d.DelayFor("never_heard_of_it"))
}

func TestLoadSettleDelays_EmptyPathReturnsDefaults(t *testing.T) {
	d, err := LoadSettleDelays("")
	require.NoError(t, err)
	assert.Equal(t, DefaultSettleDelays(), d)
}

func TestLoadSettleDelays_FileMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "delays.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
default: 250ms
actions:
  play_hand: 1s
  custom_move: 150ms
`), 0o644))

	d, err := LoadSettleDelays(path)
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, d.Default)
	assert.Equal(t, time.Second, d.DelayFor("play_hand"), "file value overrides the built-in")
	assert.Equal(t, 150*time.Millisecond, d.DelayFor("custom_move"))
	assert.Equal(t, 400*time.Millisecond, d.DelayFor("discard"), "untouched defaults survive the merge")
}

func TestLoadSettleDelays_Errors(t *testing.T) {
	_, err := LoadSettleDelays(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("default: soonish\n"), 0o644))
	_, err = LoadSettleDelays(bad)
	assert.Error(t, err)
}
