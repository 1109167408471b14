package features

import (
	"time"

	"github.com/char5742/gaze-pointer/internal/types"
)

// ConfirmState は確定タイマーの状態
type ConfirmState int

const (
	ConfirmIdle ConfirmState = iota
	ConfirmArmed
)

func (s ConfirmState) String() string {
	if s == ConfirmArmed {
		return "armed"
	}
	return "idle"
}

// ConfirmTimer は視線が候補点に一定時間留まったときだけ移動を確定するデバウンス処理
//
// IDLE でカーソルから閾値以上離れた視線を受け取ると、その点を候補として ARMED になる。
// ARMED 中に候補点から閾値以上ずれた視線が来ると候補を差し替えて待ち時間をやり直す。
// 待ち時間を使い切った時点で最新の視線が候補点の閾値内にあれば確定し、そうでなければ破棄する。
type ConfirmTimer struct {
	state     ConfirmState
	candidate types.ScreenPoint
	remaining time.Duration
	latest    types.ScreenPoint
	hasLatest bool
}

// Observe は新しい視線座標を評価する
// 移動と判定されなくても最新の視線座標として記録する
func (t *ConfirmTimer) Observe(gaze, cursor types.ScreenPoint, thresholdPixels int, dwell time.Duration) {
	t.track(gaze)

	switch t.state {
	case ConfirmIdle:
		// カーソルと同じ座標では閾値 0 でも候補にしない
		if drifted(gaze, cursor, thresholdPixels) {
			t.arm(gaze, dwell)
		}
	case ConfirmArmed:
		if drifted(gaze, t.candidate, thresholdPixels) {
			t.arm(gaze, dwell)
		}
	}
}

// track は状態遷移を行わずに最新の視線座標だけを更新する
func (t *ConfirmTimer) track(gaze types.ScreenPoint) {
	t.latest = gaze
	t.hasLatest = true
}

func (t *ConfirmTimer) arm(candidate types.ScreenPoint, dwell time.Duration) {
	t.state = ConfirmArmed
	t.candidate = candidate
	t.remaining = dwell
}

// Advance は経過時間だけ待ち時間を進める
// 待ち時間を使い切り、最新の視線が候補点の閾値内に留まっていれば候補点と true を返す
func (t *ConfirmTimer) Advance(elapsed time.Duration, thresholdPixels int) (types.ScreenPoint, bool) {
	if t.state != ConfirmArmed {
		return types.ScreenPoint{}, false
	}

	t.remaining -= elapsed
	if t.remaining > 0 {
		return types.ScreenPoint{}, false
	}

	candidate := t.candidate
	t.state = ConfirmIdle
	t.remaining = 0

	if t.hasLatest && drifted(t.latest, candidate, thresholdPixels) {
		return types.ScreenPoint{}, false
	}
	return candidate, true
}

// Reset はタイマーを IDLE に戻す
func (t *ConfirmTimer) Reset() {
	*t = ConfirmTimer{}
}

func (t *ConfirmTimer) State() ConfirmState {
	return t.state
}

func (t *ConfirmTimer) Candidate() types.ScreenPoint {
	return t.candidate
}

func (t *ConfirmTimer) Remaining() time.Duration {
	return t.remaining
}
