package features

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"syscall"

	"go.uber.org/zap"

	"github.com/char5742/gaze-pointer/internal/consts"
	"github.com/char5742/gaze-pointer/internal/types"
	"github.com/char5742/gaze-pointer/internal/utils"
)

// Pointer はシステムカーソルを絶対座標へ移動させるインターフェース
type Pointer interface {
	MoveTo(x, y int) error
	io.Closer
}

// UInputPointer は /dev/uinput 上に作成する仮想絶対座標ポインター
type UInputPointer struct {
	name       []byte
	deviceFile *os.File
	width      int
	height     int
}

// CreateUInputPointer は width x height の座標範囲を持つ仮想ポインターを作成する
func CreateUInputPointer(path string, name []byte, width, height int) (*UInputPointer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid pointer area %dx%d", width, height)
	}

	fd, err := createAbsolutePointer(path, name, int32(width-1), int32(height-1))
	if err != nil {
		return nil, err
	}

	return &UInputPointer{name: name, deviceFile: fd, width: width, height: height}, nil
}

// MoveTo はカーソルを絶対座標へ移動させる
// 範囲外の座標はデバイスの範囲に丸める
func (p *UInputPointer) MoveTo(x, y int) error {
	events := []types.Event{
		{Type: consts.Abs, Code: consts.AbsX, Value: clamp(int32(x), 0, int32(p.width-1))},
		{Type: consts.Abs, Code: consts.AbsY, Value: clamp(int32(y), 0, int32(p.height-1))},
		{Type: consts.Syn, Code: consts.SynReport, Value: 0},
	}
	return writeEvents(p.deviceFile, events)
}

func (p *UInputPointer) Close() error {
	_ = releaseDevice(p.deviceFile)
	return p.deviceFile.Close()
}

func createAbsolutePointer(path string, name []byte, maxX, maxY int32) (*os.File, error) {
	deviceFile, err := createDeviceFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not create absolute pointer device: %w", err)
	}

	// ボタンを持たない絶対座標デバイスはポインターとして扱われないため EV_KEY も登録する
	if err := registerDevice(deviceFile, uintptr(consts.Key)); err != nil {
		return nil, fmt.Errorf("キー入力イベント(EV_KEY)の登録に失敗しました: %w", err)
	}
	for _, ev := range []int{consts.MouseBtnLeft, consts.MouseBtnRight} {
		if err := utils.IOCtl(deviceFile, consts.SetKeyBit, uintptr(ev)); err != nil {
			_ = deviceFile.Close()
			return nil, fmt.Errorf("ボタンの登録に失敗しました %v: %w", ev, err)
		}
	}

	if err := registerDevice(deviceFile, uintptr(consts.Abs)); err != nil {
		return nil, fmt.Errorf("絶対座標入力イベント(EV_ABS)の登録に失敗しました: %w", err)
	}
	if err := utils.IOCtl(deviceFile, consts.SetPropBit, uintptr(consts.PropPointer)); err != nil {
		_ = deviceFile.Close()
		return nil, fmt.Errorf("ポインターデバイスプロパティの設定に失敗しました: %w", err)
	}
	for _, ev := range []int{consts.AbsX, consts.AbsY} {
		if err := utils.IOCtl(deviceFile, consts.SetAbsBit, uintptr(ev)); err != nil {
			_ = deviceFile.Close()
			return nil, fmt.Errorf("座標軸の登録に失敗しました %v: %w", ev, err)
		}
	}

	var absMin, absMax [consts.AbsSize]int32
	absMax[consts.AbsX] = maxX
	absMax[consts.AbsY] = maxY

	userDev := types.UserDev{
		Name: toUinputName(name),
		ID: types.InputID{
			Bustype: consts.BusVirtual,
			Vendor:  0x4711,
			Product: 0x0818,
			Version: 1,
		},
		Absmin: absMin,
		Absmax: absMax,
	}

	return createUsbDevice(deviceFile, userDev)
}

// デバイスファイルを開く
func createDeviceFile(path string) (*os.File, error) {
	deviceFile, err := os.OpenFile(path, syscall.O_WRONLY|syscall.O_NONBLOCK, 0660)
	if err != nil {
		return nil, fmt.Errorf("デバイスファイルを開くのに失敗しました: %w", err)
	}
	return deviceFile, nil
}

func releaseDevice(deviceFile *os.File) error {
	return utils.IOCtl(deviceFile, consts.DevDestroy, uintptr(0))
}

// イベント種別を登録する。失敗した場合はデバイスを閉じる
func registerDevice(deviceFile *os.File, evType uintptr) error {
	if err := utils.IOCtl(deviceFile, consts.SetEvBit, evType); err != nil {
		_ = releaseDevice(deviceFile)
		_ = deviceFile.Close()
		return err
	}
	return nil
}

// デバイス構造体を書き込んでデバイスを作成する
func createUsbDevice(deviceFile *os.File, dev types.UserDev) (*os.File, error) {
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, dev); err != nil {
		_ = deviceFile.Close()
		return nil, fmt.Errorf("ユーザーデバイスバッファの書き込みに失敗しました: %w", err)
	}
	if _, err := deviceFile.Write(buf.Bytes()); err != nil {
		_ = deviceFile.Close()
		return nil, fmt.Errorf("デバイス構造体をデバイスファイルに書き込むのに失敗しました: %w", err)
	}
	if err := utils.IOCtl(deviceFile, consts.DevCreate, uintptr(0)); err != nil {
		_ = deviceFile.Close()
		return nil, fmt.Errorf("デバイスの作成に失敗しました: %w", err)
	}
	return deviceFile, nil
}

func writeEvents(w io.Writer, events []types.Event) error {
	buf := new(bytes.Buffer)
	for _, ev := range events {
		if err := binary.Write(buf, binary.LittleEndian, ev); err != nil {
			return fmt.Errorf("イベントをバッファに書き込むのに失敗しました: %w", err)
		}
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("イベントの書き込みに失敗しました: %w", err)
	}
	return nil
}

// 名前をuinput用の固定長配列に変換する
func toUinputName(name []byte) [consts.MaxNameSize]byte {
	var fixedSizeName [consts.MaxNameSize]byte
	copy(fixedSizeName[:], name)
	return fixedSizeName
}

func clamp(value, min, max int32) int32 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// LogPointer はカーソルを動かさずに移動先をログに出すだけのポインター
type LogPointer struct {
	logger *zap.Logger
}

func NewLogPointer(logger *zap.Logger) *LogPointer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogPointer{logger: logger}
}

func (p *LogPointer) MoveTo(x, y int) error {
	p.logger.Info("カーソル移動", zap.Int("x", x), zap.Int("y", y))
	return nil
}

func (p *LogPointer) Close() error {
	return nil
}
