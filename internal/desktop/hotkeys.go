package desktop

import (
	"context"

	hook "github.com/robotn/gohook"
	"go.uber.org/zap"
)

// HotkeyHandlers はホットキー押下時に呼ばれる処理
type HotkeyHandlers struct {
	Disable func() // Esc
	Toggle  func() // Ctrl+Shift+M
}

// ListenHotkeys はグローバルホットキーを登録し、ctx がキャンセルされるまでブロックする
func ListenHotkeys(ctx context.Context, handlers HotkeyHandlers, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if handlers.Disable != nil {
		hook.Register(hook.KeyDown, []string{"esc"}, func(e hook.Event) {
			logger.Info("ホットキー: 視線ポインターを無効化します")
			handlers.Disable()
		})
	}
	if handlers.Toggle != nil {
		hook.Register(hook.KeyDown, []string{"m", "ctrl", "shift"}, func(e hook.Event) {
			logger.Info("ホットキー: 視線ポインターを切り替えます")
			handlers.Toggle()
		})
	}

	evChan := hook.Start()
	go func() {
		<-ctx.Done()
		hook.End()
	}()

	logger.Info("ホットキーの監視を開始しました")
	// hook.End() が呼ばれるまでブロックする
	<-hook.Process(evChan)
	logger.Info("ホットキーの監視を停止しました")
}
