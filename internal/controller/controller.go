// Package controller は視線サンプルをカーソル移動に変換するポインターコントローラー
package controller

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/char5742/gaze-pointer/internal/config"
	"github.com/char5742/gaze-pointer/internal/features"
	"github.com/char5742/gaze-pointer/internal/types"
)

// ErrControllerEnabled は有効な状態で設定を変更しようとした場合に返される
var ErrControllerEnabled = errors.New("controller must be disabled to configure")

// PointerSink はシステムカーソルを絶対座標へ移動させる唯一のプラットフォーム操作
type PointerSink interface {
	MoveTo(x, y int) error
}

// Option は PointerController の生成オプション
type Option func(*PointerController)

// WithLogger はロガーを設定する
func WithLogger(logger *zap.Logger) Option {
	return func(c *PointerController) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithCursor は初期のカーソル位置を設定する
func WithCursor(p types.ScreenPoint) Option {
	return func(c *PointerController) {
		c.cursor = p
	}
}

// PointerController は視線サンプルを受け取り、カーソルを動かすかどうかを判断する
//
// OnGazeSample と OnTimerTick は別々のゴルーチンから呼ばれてもよい。
// 内部状態はすべて mu で保護される。
type PointerController struct {
	mu       sync.Mutex
	sink     PointerSink
	logger   *zap.Logger
	cfg      config.ControllerConfig
	enabled  bool
	cursor   types.ScreenPoint // 最後に配置した位置
	timer    features.ConfirmTimer
	animator features.CursorAnimator
	history  *features.PositionHistory
	filter   *features.MotionFilter
	counters Counters
}

// Counters は診断用のカウンター
type Counters struct {
	Samples       uint64 `json:"samples"`
	Discarded     uint64 `json:"discarded"`
	Confirmed     uint64 `json:"confirmed"`
	Dropped       uint64 `json:"dropped"`
	Placements    uint64 `json:"placements"`
	SinkFailures  uint64 `json:"sink_failures"`
	Restarts      uint64 `json:"restarts"`
	Interruptions uint64 `json:"interruptions"`
}

// New は PointerController を作成する。初期状態は無効でデフォルト設定が適用される
func New(sink PointerSink, opts ...Option) *PointerController {
	c := &PointerController{
		sink:   sink,
		logger: zap.NewNop(),
	}
	c.apply(config.DefaultConfig().Controller)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configure は設定を置き換える。無効な状態でのみ呼び出せる
func (c *PointerController) Configure(cfg config.ControllerConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.enabled {
		return ErrControllerEnabled
	}
	c.apply(cfg)
	c.logger.Info("コントローラーの設定を更新しました",
		zap.Int("threshold", cfg.MovementThreshold),
		zap.Duration("dwell", cfg.ConfirmDwell),
		zap.Duration("animation", cfg.AnimationDuration),
		zap.Duration("tick", cfg.AnimationTick),
	)
	return nil
}

func (c *PointerController) apply(cfg config.ControllerConfig) {
	c.cfg = cfg
	c.history = features.NewPositionHistory(cfg.HistoryCapacity)
	c.filter = features.NewMotionFilter(cfg.FilterSmoothingFactor, cfg.FilterWarmUpCount)
	c.timer.Reset()
	c.animator.Stop()
}

// SetEnabled は視線によるカーソル制御を有効または無効にする
// 無効にすると確定待ちとアニメーションを即座に破棄する
func (c *PointerController) SetEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.enabled == enabled {
		return
	}
	c.enabled = enabled

	if !enabled {
		if c.timer.State() == features.ConfirmArmed || c.animator.Active() {
			c.counters.Interruptions++
		}
		c.timer.Reset()
		c.animator.Stop()
		c.filter.Reset()
	}
	c.logger.Info("視線ポインターの状態を変更しました", zap.Bool("enabled", enabled))
}

// Enabled は有効かどうかを返す
func (c *PointerController) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

// SetCursor は実際のカーソル位置を通知する (有効化直後の同期用)
// アニメーション中は無視する
func (c *PointerController) SetCursor(p types.ScreenPoint) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.animator.Active() {
		return
	}
	c.cursor = p
}

// OnGazeSample はセンサーから届いた視線サンプルを処理する
func (c *PointerController) OnGazeSample(sample types.GazeSample) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.enabled {
		return
	}
	c.counters.Samples++

	if !sample.HasTracking() {
		c.counters.Discarded++
		return
	}

	p := sample.Point(c.cfg.UseSmoothed)
	if c.filter.Enabled() {
		p = c.filter.Filter(p)
	}
	p = p.Add(c.cfg.Origin)

	// (0,0) はセンサーの「視線なし」
	if p.IsZero() {
		c.counters.Discarded++
		return
	}

	wasArmed := c.timer.State() == features.ConfirmArmed
	before := c.timer.Candidate()

	c.timer.Observe(p, c.reference(), c.cfg.MovementThreshold, c.cfg.ConfirmDwell)

	if c.timer.State() == features.ConfirmArmed {
		switch {
		case !wasArmed:
			c.logger.Debug("移動候補を検出しました", zap.Stringer("candidate", p))
		case !before.Equal(c.timer.Candidate()):
			c.counters.Restarts++
			c.logger.Debug("視線が移動したため確定待ちをやり直します", zap.Stringer("candidate", p))
		}
	}
}

// OnTimerTick は確定待ちとアニメーションを経過時間だけ進める
// 外部のスケジューラーから一定間隔で呼び出す
func (c *PointerController) OnTimerTick(elapsed time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.enabled || elapsed < 0 {
		return
	}

	// 新しく始まったアニメーションが同じ経過時間を消費しないよう、先にアニメーションを進める
	for _, p := range c.animator.Advance(elapsed) {
		c.place(p)
	}

	armed := c.timer.State() == features.ConfirmArmed
	target, ok := c.timer.Advance(elapsed, c.cfg.MovementThreshold)
	if !ok {
		if armed && c.timer.State() == features.ConfirmIdle {
			c.counters.Dropped++
			c.logger.Debug("視線が候補から外れたため移動を取り消しました", zap.Stringer("candidate", c.timer.Candidate()))
		}
		return
	}

	c.counters.Confirmed++
	c.history.Push(target)
	c.logger.Debug("移動を確定しました", zap.Stringer("target", target), zap.Stringer("from", c.cursor))

	if p, immediate := c.animator.Start(c.cursor, target, c.cfg.AnimationDuration, c.cfg.AnimationTick); immediate {
		c.place(p)
	}
}

// reference は移動判定の基準となるカーソル位置を返す
// アニメーション中は移動先を基準にする
func (c *PointerController) reference() types.ScreenPoint {
	if c.animator.Active() {
		return c.animator.Goal()
	}
	return c.cursor
}

// place はカーソルを移動させる。失敗しても内部状態は変えずに処理を続ける
func (c *PointerController) place(p types.ScreenPoint) {
	c.cursor = p
	c.counters.Placements++
	if err := c.sink.MoveTo(p.X, p.Y); err != nil {
		c.counters.SinkFailures++
		c.logger.Warn("カーソルの移動に失敗しました", zap.Stringer("point", p), zap.Error(err))
	}
}

// Status はコントローラーの状態のスナップショット
type Status struct {
	Enabled     bool                   `json:"enabled"`
	State       string                 `json:"state"`
	Candidate   *types.ScreenPoint     `json:"candidate,omitempty"`
	Remaining   time.Duration          `json:"remaining_ns"`
	Cursor      types.ScreenPoint      `json:"cursor"`
	Animating   bool                   `json:"animating"`
	Goal        *types.ScreenPoint     `json:"goal,omitempty"`
	Step        types.Vector           `json:"step"`
	History     []types.ScreenPoint    `json:"history"`
	HistoryStat features.PositionStats `json:"history_stats"`
	Counters    Counters               `json:"counters"`
}

// Status は現在の状態を返す
// statsWindow は統計を計算する履歴の件数 (0 以下で全件)
func (c *PointerController) Status(statsWindow int) Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := Status{
		Enabled:     c.enabled,
		State:       c.timer.State().String(),
		Cursor:      c.cursor,
		Animating:   c.animator.Active(),
		History:     c.history.Snapshot(),
		HistoryStat: c.history.Stats(statsWindow),
		Counters:    c.counters,
	}
	if c.timer.State() == features.ConfirmArmed {
		candidate := c.timer.Candidate()
		st.Candidate = &candidate
		st.Remaining = c.timer.Remaining()
	}
	if st.Animating {
		goal := c.animator.Goal()
		st.Goal = &goal
		st.Step = c.animator.Step()
	}
	return st
}
