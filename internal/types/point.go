package types

import "fmt"

// ScreenPoint はスクリーン上の整数座標を表す構造体
type ScreenPoint struct {
	X int `json:"x" toml:"x"`
	Y int `json:"y" toml:"y"`
}

// Vector は1ティックあたりの移動量
type Vector struct {
	DX int `json:"dx"`
	DY int `json:"dy"`
}

// Pt は ScreenPoint を作成する
func Pt(x, y int) ScreenPoint {
	return ScreenPoint{X: x, Y: y}
}

// Add は座標を足し合わせる
func (p ScreenPoint) Add(o ScreenPoint) ScreenPoint {
	return ScreenPoint{X: p.X + o.X, Y: p.Y + o.Y}
}

// Sub は p から o を引いた差分を返す
func (p ScreenPoint) Sub(o ScreenPoint) Vector {
	return Vector{DX: p.X - o.X, DY: p.Y - o.Y}
}

func (p ScreenPoint) Equal(o ScreenPoint) bool {
	return p.X == o.X && p.Y == o.Y
}

// IsZero はセンサーが「視線なし」を示す (0,0) かどうかを返す
func (p ScreenPoint) IsZero() bool {
	return p.X == 0 && p.Y == 0
}

func (p ScreenPoint) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}
