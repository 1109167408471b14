package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// 短時間に連続するファイルイベントをまとめるための待ち時間
// 最後のイベントからこの時間が経過してから再読み込みする
var reloadDebounce = 500 * time.Millisecond

// Watch は設定ファイルの変更を監視し、検証済みの新しい設定で onChange を呼び出す
// エディタによる置き換え保存にも対応するため、ファイルではなくディレクトリを監視する
func Watch(ctx context.Context, configPath string, onChange func(*Config), logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("ファイル監視の作成に失敗しました: %w", err)
	}

	absPath, err := filepath.Abs(configPath)
	if err != nil {
		_ = watcher.Close()
		return err
	}

	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("ディレクトリの監視に失敗しました: %w", err)
	}

	logger.Info("設定ファイルの監視を開始します", zap.String("path", absPath))

	go watchLoop(ctx, watcher, absPath, reloadDebounce, onChange, logger)
	return nil
}

func watchLoop(ctx context.Context, watcher *fsnotify.Watcher, path string, debounce time.Duration, onChange func(*Config), logger *zap.Logger) {
	defer watcher.Close()

	timer := time.NewTimer(debounce)
	timer.Stop()
	pending := false

	for {
		select {
		case <-ctx.Done():
			logger.Info("設定ファイルの監視を停止します")
			return

		case <-timer.C:
			if !pending {
				continue
			}
			pending = false

			cfg, err := LoadConfig(path)
			if err != nil {
				logger.Warn("設定ファイルの再読み込みに失敗しました", zap.Error(err))
				continue
			}
			logger.Info("設定ファイルを再読み込みしました", zap.String("path", path))
			onChange(cfg)

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			logger.Debug("設定ファイルイベント", zap.String("op", event.Op.String()))
			pending = true
			timer.Reset(debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("ファイル監視エラー", zap.Error(err))
		}
	}
}
