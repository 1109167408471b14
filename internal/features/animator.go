package features

import (
	"time"

	"github.com/char5742/gaze-pointer/internal/types"
)

// CursorAnimator は確定した目標点までカーソルを一定間隔で滑らかに移動させる
//
// i ステップ目の位置は start + delta*i/steps (0方向への切り捨て) で求める。
// 各ステップを始点から計算するため切り捨て誤差は蓄積せず、最終ステップで必ず目標点に一致する。
type CursorAnimator struct {
	start   types.ScreenPoint
	goal    types.ScreenPoint
	current types.ScreenPoint
	delta   types.Vector
	step    types.Vector
	steps   int
	taken   int
	tick    time.Duration
	pending time.Duration
	active  bool
}

// Start はアニメーションを開始する
// 移動量が 0 の場合や duration が 0 の場合は目標点を即座に返し、アニメーションは開始しない
// 実行中のアニメーションは破棄して上書きする
func (a *CursorAnimator) Start(current, target types.ScreenPoint, duration, tick time.Duration) (types.ScreenPoint, bool) {
	a.Stop()
	a.current = current

	if current.Equal(target) || duration <= 0 || tick <= 0 {
		a.current = target
		a.goal = target
		return target, true
	}

	steps := int(duration / tick)
	if steps < 1 {
		steps = 1
	}

	a.start = current
	a.goal = target
	a.delta = target.Sub(current)
	a.step = types.Vector{DX: a.delta.DX / steps, DY: a.delta.DY / steps}
	a.steps = steps
	a.tick = tick
	a.active = true
	return types.ScreenPoint{}, false
}

// Advance は経過時間に応じてアニメーションを進め、配置すべき座標を順に返す
// tick に満たない端数は次回に持ち越す
func (a *CursorAnimator) Advance(elapsed time.Duration) []types.ScreenPoint {
	if !a.active {
		return nil
	}

	a.pending += elapsed
	var placements []types.ScreenPoint
	for a.active && a.pending >= a.tick {
		a.pending -= a.tick
		a.taken++

		if a.taken >= a.steps {
			a.current = a.goal
			a.active = false
			a.pending = 0
		} else {
			a.current = types.ScreenPoint{
				X: a.start.X + a.delta.DX*a.taken/a.steps,
				Y: a.start.Y + a.delta.DY*a.taken/a.steps,
			}
		}
		placements = append(placements, a.current)
	}
	return placements
}

// Stop は実行中のアニメーションを破棄する (現在位置は保持する)
func (a *CursorAnimator) Stop() {
	current := a.current
	*a = CursorAnimator{current: current}
}

func (a *CursorAnimator) Active() bool {
	return a.active
}

func (a *CursorAnimator) Current() types.ScreenPoint {
	return a.current
}

func (a *CursorAnimator) Goal() types.ScreenPoint {
	return a.goal
}

// Step は1ティックあたりの名目上の移動量を返す
func (a *CursorAnimator) Step() types.Vector {
	return a.step
}

// Steps はアニメーション全体のステップ数と完了済みステップ数を返す
func (a *CursorAnimator) Steps() (total, taken int) {
	return a.steps, a.taken
}
