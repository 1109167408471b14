package consts

// uinput の ioctl 番号 (uinput.h より)
const (
	MaxNameSize = 80         // デバイス名の最大サイズ
	DevCreate   = 0x5501     // UI_DEV_CREATE
	DevDestroy  = 0x5502     // UI_DEV_DESTROY
	SetEvBit    = 0x40045564 // UI_SET_EVBIT
	SetKeyBit   = 0x40045565 // UI_SET_KEYBIT
	SetAbsBit   = 0x40045567 // UI_SET_ABSBIT
	SetPropBit  = 0x4004556a // UI_SET_PROPBIT
	BusVirtual  = 0x06
)

const (
	AbsSize     = 64   // 絶対座標の配列サイズ
	PropPointer = 0x00 // INPUT_PROP_POINTER
)

// イベントタイプとコード (input-event-codes.h より)
const (
	Syn = 0x00
	Key = 0x01
	Abs = 0x03

	AbsX = 0x00
	AbsY = 0x01

	SynReport     = 0
	MouseBtnLeft  = 0x110
	MouseBtnRight = 0x111
)
