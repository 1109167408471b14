package config

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/char5742/gaze-pointer/internal/types"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 100, cfg.Controller.MovementThreshold)
	assert.Equal(t, 500*time.Millisecond, cfg.Controller.ConfirmDwell)
	assert.Equal(t, SinkLog, cfg.Pointer.Sink)
}

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "loading must not create the file")
}

func TestLoadConfigParsesDurations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[controller]
use_smoothed = false
movement_threshold = 80
confirm_dwell = "750ms"
animation_duration = "0s"
animation_tick = "16ms"

[controller.origin]
x = 1920
y = 0

[pointer]
sink = "robotgo"

[log]
level = "debug"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.False(t, cfg.Controller.UseSmoothed)
	assert.Equal(t, 80, cfg.Controller.MovementThreshold)
	assert.Equal(t, 750*time.Millisecond, cfg.Controller.ConfirmDwell)
	assert.Equal(t, time.Duration(0), cfg.Controller.AnimationDuration)
	assert.Equal(t, 16*time.Millisecond, cfg.Controller.AnimationTick)
	assert.Equal(t, types.Pt(1920, 0), cfg.Controller.Origin)
	assert.Equal(t, SinkRobotgo, cfg.Pointer.Sink)
	assert.Equal(t, "debug", cfg.Log.Level)

	// 指定していない項目はデフォルトのまま
	assert.Equal(t, 32, cfg.Controller.HistoryCapacity)
	assert.Equal(t, "-", cfg.Source.Path)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[controller]\nmovement_threshold = -5\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigRejectsBrokenToml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[controller\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.Error(t, err)
	assert.NotNil(t, cfg)
}

func TestControllerConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*ControllerConfig)
		field  string
	}{
		{"zero tick", func(c *ControllerConfig) { c.AnimationTick = 0 }, "animation_tick"},
		{"negative threshold", func(c *ControllerConfig) { c.MovementThreshold = -1 }, "movement_threshold"},
		{"negative dwell", func(c *ControllerConfig) { c.ConfirmDwell = -time.Millisecond }, "confirm_dwell"},
		{"negative duration", func(c *ControllerConfig) { c.AnimationDuration = -time.Millisecond }, "animation_duration"},
		{"duration shorter than tick", func(c *ControllerConfig) { c.AnimationDuration = 10 * time.Millisecond }, "animation_duration"},
		{"empty history", func(c *ControllerConfig) { c.HistoryCapacity = 0 }, "history_capacity"},
		{"filter factor one", func(c *ControllerConfig) { c.FilterSmoothingFactor = 1 }, "filter_smoothing_factor"},
		{"negative warm up", func(c *ControllerConfig) { c.FilterWarmUpCount = -1 }, "filter_warm_up_count"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig().Controller
			tt.modify(&cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)

			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestControllerConfigAllowsEdgeValues(t *testing.T) {
	cfg := DefaultConfig().Controller
	cfg.MovementThreshold = 0
	cfg.ConfirmDwell = 0
	cfg.AnimationDuration = 0
	assert.NoError(t, cfg.Validate())

	cfg.AnimationDuration = cfg.AnimationTick
	assert.NoError(t, cfg.Validate())
}

func TestConfigValidatePointer(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Pointer.Sink = "mouse"
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg = DefaultConfig()
	cfg.Pointer.Sink = SinkUInput
	cfg.Pointer.Width = 0
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg.Pointer.Width = 2560
	assert.NoError(t, cfg.Validate())
}

func TestEncodeRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Controller.Origin = types.Pt(-1280, 0)
	cfg.Controller.ConfirmDwell = 650 * time.Millisecond

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, cfg))
	assert.Contains(t, buf.String(), "[controller]")

	decoded := &Config{}
	_, err := toml.Decode(buf.String(), decoded)
	require.NoError(t, err)
	assert.Equal(t, cfg, decoded)
}

func TestWatchReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[controller]\nmovement_threshold = 100\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan *Config, 4)
	require.NoError(t, Watch(ctx, path, func(cfg *Config) { changes <- cfg }, nil))

	// 無関係なファイルは無視される
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.toml"), []byte("x = 1\n"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte("[controller]\nmovement_threshold = 42\n"), 0o644))

	select {
	case cfg := <-changes:
		assert.Equal(t, 42, cfg.Controller.MovementThreshold)
	case <-time.After(5 * time.Second):
		t.Fatal("config change was not delivered")
	}
}

func TestWatchDebouncesUntilWritesSettle(t *testing.T) {
	saved := reloadDebounce
	reloadDebounce = 300 * time.Millisecond
	t.Cleanup(func() { reloadDebounce = saved })

	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[controller]\nmovement_threshold = 100\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan *Config, 8)
	require.NoError(t, Watch(ctx, path, func(cfg *Config) { changes <- cfg }, nil))

	// 待ち時間より短い間隔で書き込み続ける
	for _, threshold := range []string{"10", "20", "30", "40"} {
		require.NoError(t, os.WriteFile(path, []byte("[controller]\nmovement_threshold = "+threshold+"\n"), 0o644))
		time.Sleep(100 * time.Millisecond)
	}

	select {
	case cfg := <-changes:
		assert.Equal(t, 40, cfg.Controller.MovementThreshold)
	case <-time.After(5 * time.Second):
		t.Fatal("config change was not delivered")
	}

	select {
	case cfg := <-changes:
		t.Fatalf("unexpected second reload: threshold=%d", cfg.Controller.MovementThreshold)
	case <-time.After(time.Second):
	}
}
