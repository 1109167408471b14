package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/pkg/browser"
	"go.uber.org/zap"

	"github.com/char5742/gaze-pointer/internal/api"
	"github.com/char5742/gaze-pointer/internal/config"
	"github.com/char5742/gaze-pointer/internal/desktop"
	"github.com/char5742/gaze-pointer/internal/features"
	"github.com/char5742/gaze-pointer/internal/logging"
)

func main() {
	// コマンドライン引数の解析
	useApi := flag.Bool("api", false, "APIサーバーモードで起動します")
	configPath := flag.String("config", "", "設定ファイルのパス (指定しない場合はデフォルトパスを使用)")
	port := flag.Int("port", 8080, "APIサーバーのポート番号")
	sourcePath := flag.String("source", "", "視線データ (JSON Lines) のパス。\"-\" は標準入力")
	sinkName := flag.String("sink", "", "カーソルの移動先 (uinput, robotgo, log)")
	openBrowser := flag.Bool("open", false, "APIモードで状態ページをブラウザで開きます")
	printConfig := flag.Bool("print-config", false, "現在の設定をTOML形式で出力して終了します")
	watch := flag.Bool("watch", true, "設定ファイルの変更を監視して再読み込みします")
	flag.Parse()

	// 設定ファイルパスの決定
	cfgPath := *configPath
	if cfgPath == "" {
		if configDir, err := config.GetDefaultConfigDir(); err == nil {
			cfgPath = filepath.Join(configDir, "config.toml")
		}
	}

	// 設定ファイルの読み込み
	cfg := config.DefaultConfig()
	var loadErr error
	if cfgPath != "" {
		cfg, loadErr = config.LoadConfig(cfgPath)
	}
	if *sourcePath != "" {
		cfg.Source.Path = *sourcePath
	}
	if *sinkName != "" {
		cfg.Pointer.Sink = *sinkName
	}

	if *printConfig {
		if err := config.Encode(os.Stdout, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "設定の出力に失敗しました: %v\n", err)
			os.Exit(1)
		}
		return
	}

	logger, err := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		fmt.Fprintf(os.Stderr, "ロガーの初期化に失敗しました: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if loadErr != nil {
		logger.Warn("設定ファイルの読み込みに失敗しました。デフォルト設定を使用します", zap.Error(loadErr))
	} else if cfgPath != "" {
		logger.Info("設定ファイルを読み込みました", zap.String("path", cfgPath))
	}

	if err := cfg.Validate(); err != nil {
		logger.Fatal("設定が不正です", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sink, err := createPointer(cfg, logger)
	if err != nil {
		logger.Fatal("カーソル出力の作成に失敗しました", zap.Error(err))
	}
	defer sink.Close()

	if cfg.Display.Index >= 0 {
		origin, err := desktop.DisplayOrigin(cfg.Display.Index)
		if err != nil {
			logger.Warn("ディスプレイ座標の取得に失敗しました", zap.Error(err))
		} else {
			cfg.Controller.Origin = origin
			logger.Info("アクティブディスプレイを設定しました", zap.Int("index", cfg.Display.Index), zap.Stringer("origin", origin))
		}
	}

	source := features.NewReplaySource(cfg.Source.Path, cfg.Source.Realtime, logger.Named("source"))
	service := api.NewPointerService(cfg, source, sink, logger.Named("service"))

	if *watch && cfgPath != "" {
		if err := config.Watch(ctx, cfgPath, func(newCfg *config.Config) {
			newCfg.Controller.Origin = service.Config().Controller.Origin
			if err := service.UpdateConfig(newCfg); err != nil {
				logger.Warn("設定を適用できませんでした", zap.Error(err))
			}
		}, logger.Named("config")); err != nil {
			logger.Warn("設定ファイルの監視を開始できませんでした", zap.Error(err))
		}
	}

	if cfg.Hotkeys.Enabled {
		go desktop.ListenHotkeys(ctx, desktop.HotkeyHandlers{
			Disable: func() { service.SetEnabled(false) },
			Toggle:  func() { service.Toggle() },
		}, logger.Named("hotkeys"))
	}

	// APIモードかCLIモードかを判断
	if *useApi {
		runApiServer(ctx, service, *port, *openBrowser, logger)
	} else {
		runCLI(ctx, service, logger)
	}
}

// createPointer は設定に応じたカーソル出力を作成する
func createPointer(cfg *config.Config, logger *zap.Logger) (features.Pointer, error) {
	switch cfg.Pointer.Sink {
	case config.SinkUInput:
		return features.CreateUInputPointer(cfg.Pointer.UInputPath, []byte("GazePointer"), cfg.Pointer.Width, cfg.Pointer.Height)
	case config.SinkRobotgo:
		return desktop.NewRobotgoPointer(), nil
	default:
		return features.NewLogPointer(logger.Named("pointer")), nil
	}
}

// APIサーバーモードでの実行
func runApiServer(ctx context.Context, service *api.PointerService, port int, open bool, logger *zap.Logger) {
	server := api.NewServer(service, port, logger.Named("api"))

	if err := service.Start(); err != nil {
		logger.Warn("視線ポインターサービスの起動に失敗しました", zap.Error(err))
	}

	go func() {
		waitForSignal(ctx)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Stop(shutdownCtx)
	}()

	ready := func() {
		if !open {
			return
		}
		if err := browser.OpenURL(server.URL() + "/api/controller/status"); err != nil {
			logger.Warn("ブラウザを開けませんでした", zap.Error(err))
		}
	}

	if err := server.Start(ready); err != nil {
		logger.Fatal("APIサーバーの起動に失敗しました", zap.Error(err))
	}
	if service.IsRunning() {
		_ = service.Stop()
	}
}

// CLIモードでの実行
func runCLI(ctx context.Context, service *api.PointerService, logger *zap.Logger) {
	if err := service.Start(); err != nil {
		logger.Error("視線ポインターサービスの起動に失敗しました", zap.Error(err))
		os.Exit(1)
	}

	waitForSignal(ctx)
	if err := service.Stop(); err != nil {
		logger.Warn("サービスの停止に失敗しました", zap.Error(err))
	}
}

// waitForSignal は終了シグナルを受け取るまでブロックする
func waitForSignal(ctx context.Context) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-sigChan:
		fmt.Println("シャットダウンします...")
	case <-ctx.Done():
	}
}
