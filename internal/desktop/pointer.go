// Package desktop は robotgo / gohook を使うデスクトップ環境向けの機能
package desktop

import (
	"fmt"

	"github.com/go-vgo/robotgo"

	"github.com/char5742/gaze-pointer/internal/types"
)

// RobotgoPointer は robotgo 経由でOSのカーソルを移動させる
type RobotgoPointer struct{}

func NewRobotgoPointer() *RobotgoPointer {
	return &RobotgoPointer{}
}

func (p *RobotgoPointer) MoveTo(x, y int) error {
	robotgo.Move(x, y)
	return nil
}

// Location は現在のカーソル位置を返す
func (p *RobotgoPointer) Location() types.ScreenPoint {
	x, y := robotgo.Location()
	return types.ScreenPoint{X: x, Y: y}
}

func (p *RobotgoPointer) Close() error {
	return nil
}

// DisplayOrigin は指定したディスプレイの左上座標を返す
func DisplayOrigin(index int) (types.ScreenPoint, error) {
	if n := robotgo.DisplaysNum(); index < 0 || index >= n {
		return types.ScreenPoint{}, fmt.Errorf("display %d not found (%d displays)", index, n)
	}
	x, y, _, _ := robotgo.GetDisplayBounds(index)
	return types.ScreenPoint{X: x, Y: y}, nil
}
