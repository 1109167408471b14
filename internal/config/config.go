package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/char5742/gaze-pointer/internal/types"
)

// ErrInvalidConfig は設定値が不正な場合に返されるエラー
var ErrInvalidConfig = errors.New("invalid configuration")

// ConfigError は不正な設定項目を表す
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

// Config はアプリケーション全体の設定を表す構造体
type Config struct {
	Controller ControllerConfig `toml:"controller" json:"controller"`
	Display    DisplayConfig    `toml:"display" json:"display"`
	Pointer    PointerConfig    `toml:"pointer" json:"pointer"`
	Source     SourceConfig     `toml:"source" json:"source"`
	Hotkeys    HotkeysConfig    `toml:"hotkeys" json:"hotkeys"`
	Log        LogConfig        `toml:"log" json:"log"`
	Service    ServiceConfig    `toml:"service" json:"service"`
}

// ControllerConfig は視線ポインター制御の設定
type ControllerConfig struct {
	UseSmoothed       bool          `toml:"use_smoothed" json:"use_smoothed"`             // センサー側の平滑化座標を使う
	MovementThreshold int           `toml:"movement_threshold" json:"movement_threshold"` // 移動とみなす距離 (px)
	ConfirmDwell      time.Duration `toml:"confirm_dwell" json:"confirm_dwell"`           // 移動を確定するまでの静止時間
	AnimationDuration time.Duration `toml:"animation_duration" json:"animation_duration"` // 0 の場合は即時ジャンプ
	AnimationTick     time.Duration `toml:"animation_tick" json:"animation_tick"`
	HistoryCapacity   int           `toml:"history_capacity" json:"history_capacity"`

	// 0 の場合は前段フィルターを使わない
	FilterSmoothingFactor float64 `toml:"filter_smoothing_factor" json:"filter_smoothing_factor"`
	FilterWarmUpCount     int     `toml:"filter_warm_up_count" json:"filter_warm_up_count"`

	// アクティブディスプレイの左上座標
	Origin types.ScreenPoint `toml:"origin" json:"origin"`
}

// DisplayConfig はディスプレイの設定
type DisplayConfig struct {
	// robotgo のディスプレイ番号。-1 の場合は controller.origin をそのまま使う
	Index int `toml:"index" json:"index"`
}

// PointerConfig はカーソル移動先の設定
type PointerConfig struct {
	Sink       string `toml:"sink" json:"sink"` // uinput, robotgo, log
	UInputPath string `toml:"uinput_path" json:"uinput_path"`
	Width      int    `toml:"width" json:"width"`
	Height     int    `toml:"height" json:"height"`
}

// SourceConfig は視線サンプルの入力元の設定
type SourceConfig struct {
	Path     string `toml:"path" json:"path"` // JSON Lines ファイル。"-" は標準入力
	Realtime bool   `toml:"realtime" json:"realtime"`
}

// HotkeysConfig はグローバルホットキーの設定
type HotkeysConfig struct {
	Enabled bool `toml:"enabled" json:"enabled"`
}

// LogConfig はログ出力の設定
type LogConfig struct {
	Level  string `toml:"level" json:"level"`
	Format string `toml:"format" json:"format"`
}

// ServiceConfig はサービス起動時の設定
type ServiceConfig struct {
	EnableOnStart bool `toml:"enable_on_start" json:"enable_on_start"`
}

const (
	SinkUInput  = "uinput"
	SinkRobotgo = "robotgo"
	SinkLog     = "log"
)

// DefaultConfig はデフォルト設定を返す
func DefaultConfig() *Config {
	return &Config{
		Controller: ControllerConfig{
			UseSmoothed:           true,
			MovementThreshold:     100,
			ConfirmDwell:          500 * time.Millisecond,
			AnimationDuration:     200 * time.Millisecond,
			AnimationTick:         33 * time.Millisecond, // 約30Hz
			HistoryCapacity:       32,
			FilterSmoothingFactor: 0,
			FilterWarmUpCount:     5,
		},
		Display: DisplayConfig{
			Index: -1,
		},
		Pointer: PointerConfig{
			Sink:       SinkLog,
			UInputPath: "/dev/uinput",
			Width:      1920,
			Height:     1080,
		},
		Source: SourceConfig{
			Path:     "-",
			Realtime: true,
		},
		Hotkeys: HotkeysConfig{
			Enabled: false,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Service: ServiceConfig{
			EnableOnStart: true,
		},
	}
}

// GetDefaultConfigDir はデフォルトの設定ディレクトリを返す
func GetDefaultConfigDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "gaze-pointer"), nil
}

// LoadConfig は設定ファイルから設定を読み込む
// ファイルが存在しない場合はデフォルト設定を返す (ファイルは作成しない)
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(configPath, cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("設定ファイルの解析に失敗しました: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return DefaultConfig(), err
	}

	return cfg, nil
}

// Encode は設定をTOML形式で書き出す
func Encode(w io.Writer, cfg *Config) error {
	return toml.NewEncoder(w).Encode(cfg)
}

// Validate は設定全体を検証する
func (c *Config) Validate() error {
	if err := c.Controller.Validate(); err != nil {
		return err
	}

	switch c.Pointer.Sink {
	case SinkUInput:
		if c.Pointer.Width <= 0 || c.Pointer.Height <= 0 {
			return &ConfigError{Field: "pointer.width/height", Reason: "must be positive for uinput"}
		}
	case SinkRobotgo, SinkLog:
	default:
		return &ConfigError{Field: "pointer.sink", Reason: fmt.Sprintf("unknown sink %q", c.Pointer.Sink)}
	}

	return nil
}

// Validate はコントローラー設定を検証する
func (c ControllerConfig) Validate() error {
	switch {
	case c.AnimationTick <= 0:
		return &ConfigError{Field: "animation_tick", Reason: "must be positive"}
	case c.MovementThreshold < 0:
		return &ConfigError{Field: "movement_threshold", Reason: "must not be negative"}
	case c.ConfirmDwell < 0:
		return &ConfigError{Field: "confirm_dwell", Reason: "must not be negative"}
	case c.AnimationDuration < 0:
		return &ConfigError{Field: "animation_duration", Reason: "must not be negative"}
	case c.AnimationDuration > 0 && c.AnimationDuration < c.AnimationTick:
		return &ConfigError{Field: "animation_duration", Reason: "must be 0 or at least animation_tick"}
	case c.HistoryCapacity < 1:
		return &ConfigError{Field: "history_capacity", Reason: "must be at least 1"}
	case c.FilterSmoothingFactor < 0 || c.FilterSmoothingFactor >= 1:
		return &ConfigError{Field: "filter_smoothing_factor", Reason: "must be in [0, 1)"}
	case c.FilterWarmUpCount < 0:
		return &ConfigError{Field: "filter_warm_up_count", Reason: "must not be negative"}
	}
	return nil
}
