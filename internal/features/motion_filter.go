package features

import (
	"math"

	"github.com/char5742/gaze-pointer/internal/types"
)

// MotionFilter は視線座標に指数移動平均をかけてノイズを抑える
// センサー側の平滑化座標が使えない場合の前段フィルター
type MotionFilter struct {
	smoothingFactor float64 // 0.0-1.0の範囲。1.0に近いほど滑らかになりますが、遅延が大きくなります
	lastX           float64
	lastY           float64
	warmUpCount     int
	currentCount    int
	initialized     bool
}

// NewMotionFilter は新しいモーションフィルターを作成します
func NewMotionFilter(smoothingFactor float64, warmUpCount int) *MotionFilter {
	return &MotionFilter{
		smoothingFactor: smoothingFactor,
		warmUpCount:     warmUpCount,
	}
}

// Filter は座標に平滑化を適用します
// ウォームアップ中は入力をそのまま返します
func (mf *MotionFilter) Filter(p types.ScreenPoint) types.ScreenPoint {
	if !mf.initialized || mf.currentCount < mf.warmUpCount {
		mf.currentCount++
		mf.lastX = float64(p.X)
		mf.lastY = float64(p.Y)
		mf.initialized = true
		return p
	}

	f := mf.smoothingFactor
	mf.lastX = float64(p.X)*(1.0-f) + mf.lastX*f
	mf.lastY = float64(p.Y)*(1.0-f) + mf.lastY*f

	return types.ScreenPoint{X: int(math.Round(mf.lastX)), Y: int(math.Round(mf.lastY))}
}

// Enabled はフィルターが有効かどうかを返す
func (mf *MotionFilter) Enabled() bool {
	return mf != nil && mf.smoothingFactor > 0
}

// Reset はフィルターの状態をリセットします
func (mf *MotionFilter) Reset() {
	mf.lastX = 0
	mf.lastY = 0
	mf.currentCount = 0
	mf.initialized = false
}
