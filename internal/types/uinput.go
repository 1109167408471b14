package types

import (
	"syscall"

	"github.com/char5742/gaze-pointer/internal/consts"
)

// Event は uinput に書き込む入力イベント (struct input_event)
type Event struct {
	Time  syscall.Timeval // イベント発生時刻 (カーネル側で埋められる)
	Type  uint16          // EV_ABS / EV_KEY / EV_SYN
	Code  uint16          // ABS_X など
	Value int32
}

// InputID はデバイス識別子 (struct input_id)
type InputID struct {
	Bustype uint16
	Vendor  uint16
	Product uint16
	Version uint16
}

// UserDev は uinput_user_dev 構造体
// 絶対座標ポインターでは ABS_X / ABS_Y の範囲だけを設定する
type UserDev struct {
	Name       [consts.MaxNameSize]byte
	ID         InputID
	EffectsMax uint32
	Absmax     [consts.AbsSize]int32
	Absmin     [consts.AbsSize]int32
	Absfuzz    [consts.AbsSize]int32
	Absflat    [consts.AbsSize]int32
}
