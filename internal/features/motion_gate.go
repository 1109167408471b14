package features

import (
	"math"

	"github.com/char5742/gaze-pointer/internal/types"
)

// Distance は2点間のユークリッド距離を返す
func Distance(a, b types.ScreenPoint) float64 {
	return math.Hypot(float64(a.X-b.X), float64(a.Y-b.Y))
}

// IsMaterial は a と b の距離が閾値以上かどうかを返す
// 境界値 (距離 == 閾値) は移動とみなす
func IsMaterial(a, b types.ScreenPoint, thresholdPixels int) bool {
	return Distance(a, b) >= float64(thresholdPixels)
}

// drifted は視線が候補点から実際に動き、かつ閾値以上離れたかを返す
// 閾値 0 のとき同一点で再始動し続けないよう、同じ座標は除外する
func drifted(gaze, candidate types.ScreenPoint, thresholdPixels int) bool {
	return !gaze.Equal(candidate) && IsMaterial(gaze, candidate, thresholdPixels)
}
