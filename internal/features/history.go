package features

import (
	"gonum.org/v1/gonum/stat"

	"github.com/char5742/gaze-pointer/internal/types"
)

// PositionHistory は直近のカーソル位置を保持する固定長リングバッファ
type PositionHistory struct {
	data []types.ScreenPoint
	pos  int
	full bool
}

// PositionStats は直近のカーソル位置の統計量
type PositionStats struct {
	Count   int     `json:"count"`
	MeanX   float64 `json:"mean_x"`
	MeanY   float64 `json:"mean_y"`
	StdDevX float64 `json:"stddev_x"`
	StdDevY float64 `json:"stddev_y"`
}

// NewPositionHistory は指定した容量の履歴を作成する
func NewPositionHistory(capacity int) *PositionHistory {
	if capacity < 1 {
		capacity = 1
	}
	return &PositionHistory{data: make([]types.ScreenPoint, capacity)}
}

// Push は位置を追加する。満杯の場合は最も古い位置を上書きする
func (h *PositionHistory) Push(p types.ScreenPoint) {
	h.data[h.pos] = p
	h.pos++
	if h.pos >= len(h.data) {
		h.pos = 0
		h.full = true
	}
}

func (h *PositionHistory) Len() int {
	if h.full {
		return len(h.data)
	}
	return h.pos
}

func (h *PositionHistory) Cap() int {
	return len(h.data)
}

// Snapshot は古い順に並べた位置のコピーを返す
func (h *PositionHistory) Snapshot() []types.ScreenPoint {
	out := make([]types.ScreenPoint, h.Len())
	if h.full {
		n := copy(out, h.data[h.pos:])
		copy(out[n:], h.data[:h.pos])
	} else {
		copy(out, h.data[:h.pos])
	}
	return out
}

func (h *PositionHistory) Reset() {
	clear(h.data)
	h.pos = 0
	h.full = false
}

// Stats は直近 n 件の平均と標準偏差 (母標準偏差) を返す
// n が 0 以下または保持件数より大きい場合は保持している全件を対象にする
func (h *PositionHistory) Stats(n int) PositionStats {
	points := h.Snapshot()
	if n > 0 && n < len(points) {
		points = points[len(points)-n:]
	}
	if len(points) == 0 {
		return PositionStats{}
	}

	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i] = float64(p.X)
		ys[i] = float64(p.Y)
	}

	meanX, stdX := stat.PopMeanStdDev(xs, nil)
	meanY, stdY := stat.PopMeanStdDev(ys, nil)
	return PositionStats{
		Count:   len(points),
		MeanX:   meanX,
		MeanY:   meanY,
		StdDevX: stdX,
		StdDevY: stdY,
	}
}
