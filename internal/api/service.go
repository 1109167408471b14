package api

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/char5742/gaze-pointer/internal/config"
	"github.com/char5742/gaze-pointer/internal/controller"
	"github.com/char5742/gaze-pointer/internal/features"
	"github.com/char5742/gaze-pointer/internal/types"
)

var (
	ErrServiceRunning = errors.New("service is already running")
	ErrServiceStopped = errors.New("service is not running")
)

// CursorLocator は現在のカーソル位置を取得できるシンク
type CursorLocator interface {
	Location() types.ScreenPoint
}

// PointerService は視線ポインターの実行を管理する構造体
//
// サンプルの受信、タイマーティック、設定更新はすべて runLoop の単一ゴルーチンで処理する。
type PointerService struct {
	cfg          *config.Config
	source       features.GazeSource
	sink         controller.PointerSink
	controller   *controller.PointerController
	logger       *zap.Logger
	stopChan     chan struct{}
	doneChan     chan struct{}
	running      bool
	statusMutex  sync.RWMutex
	enableMutex  sync.Mutex // 有効・無効の読み取りと切り替えをまとめて行う
	updateConfig chan *config.Config
	now          func() time.Time
}

// NewPointerService は新しいサービスを作成する
func NewPointerService(cfg *config.Config, source features.GazeSource, sink controller.PointerSink, logger *zap.Logger) *PointerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PointerService{
		cfg:          cfg,
		source:       source,
		sink:         sink,
		controller:   controller.New(sink, controller.WithLogger(logger.Named("controller"))),
		logger:       logger,
		updateConfig: make(chan *config.Config, 1),
		now:          time.Now,
	}
}

// Controller はサービスが保持するコントローラーを返す
func (s *PointerService) Controller() *controller.PointerController {
	return s.controller
}

// Config は現在の設定を返す
func (s *PointerService) Config() *config.Config {
	s.statusMutex.RLock()
	defer s.statusMutex.RUnlock()
	return s.cfg
}

// Start はサービスを開始する
func (s *PointerService) Start() error {
	s.statusMutex.Lock()
	defer s.statusMutex.Unlock()

	if s.running {
		return ErrServiceRunning
	}

	if err := s.reconfigure(s.cfg, false); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	samples, err := s.source.Samples(ctx)
	if err != nil {
		cancel()
		return fmt.Errorf("視線データの取得に失敗しました: %w", err)
	}

	if s.cfg.Service.EnableOnStart {
		s.SetEnabled(true)
	}

	s.stopChan = make(chan struct{})
	s.doneChan = make(chan struct{})
	s.running = true

	go s.runLoop(ctx, cancel, samples, s.cfg.Controller.AnimationTick, s.stopChan, s.doneChan)

	s.logger.Info("視線ポインターサービスを開始しました",
		zap.Duration("tick", s.cfg.Controller.AnimationTick))
	return nil
}

// Stop はサービスを停止し、ループの終了を待つ
func (s *PointerService) Stop() error {
	s.statusMutex.Lock()
	if !s.running {
		s.statusMutex.Unlock()
		return ErrServiceStopped
	}
	close(s.stopChan)
	done := s.doneChan
	s.running = false
	s.statusMutex.Unlock()

	<-done
	return nil
}

// IsRunning はサービスが実行中かどうかを返す
func (s *PointerService) IsRunning() bool {
	s.statusMutex.RLock()
	defer s.statusMutex.RUnlock()
	return s.running
}

// UpdateConfig は設定を更新する
// 実行中はループ内で適用され、未処理の古い設定は新しい設定で置き換える
func (s *PointerService) UpdateConfig(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	if !s.IsRunning() {
		s.statusMutex.Lock()
		defer s.statusMutex.Unlock()
		return s.reconfigure(cfg, true)
	}

	select {
	case s.updateConfig <- cfg:
	default:
		select {
		case <-s.updateConfig:
		default:
		}
		s.updateConfig <- cfg
	}
	return nil
}

// SetEnabled は視線ポインターを有効または無効にする
func (s *PointerService) SetEnabled(enabled bool) {
	s.enableMutex.Lock()
	defer s.enableMutex.Unlock()
	s.enable(enabled)
}

// Toggle は有効・無効を切り替え、切り替え後の状態を返す
func (s *PointerService) Toggle() bool {
	s.enableMutex.Lock()
	defer s.enableMutex.Unlock()

	enabled := !s.controller.Enabled()
	s.enable(enabled)
	return enabled
}

func (s *PointerService) enable(enabled bool) {
	if enabled {
		if loc, ok := s.sink.(CursorLocator); ok {
			s.controller.SetCursor(loc.Location())
		}
	}
	s.controller.SetEnabled(enabled)
}

// reconfigure は無効化 → 設定 → 元の状態に戻す の順で設定を適用する
// restore が false の場合は無効のままにする
func (s *PointerService) reconfigure(cfg *config.Config, restore bool) error {
	s.enableMutex.Lock()
	defer s.enableMutex.Unlock()

	restore = restore && s.controller.Enabled()
	s.controller.SetEnabled(false)
	if err := s.controller.Configure(cfg.Controller); err != nil {
		if restore {
			s.enable(true)
		}
		return err
	}
	s.cfg = cfg
	if restore {
		s.enable(true)
	}
	return nil
}

func (s *PointerService) runLoop(ctx context.Context, cancel context.CancelFunc, samples <-chan types.GazeSample, tick time.Duration, stop, done chan struct{}) {
	defer close(done)
	defer cancel()
	defer s.controller.SetEnabled(false)

	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	last := s.now()

	s.logger.Info("視線ポインターのループを開始しました")

	for {
		select {
		case <-stop:
			s.logger.Info("視線ポインターサービスを停止しました")
			return

		case sample, ok := <-samples:
			if !ok {
				s.logger.Info("視線データの入力が終了しました")
				samples = nil
				continue
			}
			s.controller.OnGazeSample(sample)

		case <-ticker.C:
			now := s.now()
			s.controller.OnTimerTick(now.Sub(last))
			last = now

		case cfg := <-s.updateConfig:
			s.statusMutex.Lock()
			err := s.reconfigure(cfg, true)
			s.statusMutex.Unlock()
			if err != nil {
				s.logger.Warn("設定の更新に失敗しました", zap.Error(err))
				continue
			}
			ticker.Reset(cfg.Controller.AnimationTick)
			last = s.now()
			s.logger.Info("設定を更新しました")
		}
	}
}
