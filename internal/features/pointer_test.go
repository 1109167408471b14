package features

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/char5742/gaze-pointer/internal/consts"
	"github.com/char5742/gaze-pointer/internal/types"
)

func readEvents(t *testing.T, data []byte) []types.Event {
	t.Helper()
	size := binary.Size(types.Event{})
	require.Zero(t, len(data)%size)

	events := make([]types.Event, len(data)/size)
	require.NoError(t, binary.Read(bytes.NewReader(data), binary.LittleEndian, events))
	return events
}

func TestUInputPointerMoveToWritesAbsoluteEvents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	p := &UInputPointer{deviceFile: f, width: 1920, height: 1080}
	require.NoError(t, p.MoveTo(640, 480))
	require.NoError(t, p.MoveTo(5000, -20))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	events := readEvents(t, data)
	require.Len(t, events, 6)

	assert.Equal(t, uint16(consts.Abs), events[0].Type)
	assert.Equal(t, uint16(consts.AbsX), events[0].Code)
	assert.Equal(t, int32(640), events[0].Value)
	assert.Equal(t, uint16(consts.AbsY), events[1].Code)
	assert.Equal(t, int32(480), events[1].Value)
	assert.Equal(t, uint16(consts.Syn), events[2].Type)

	// 範囲外の座標は丸められる
	assert.Equal(t, int32(1919), events[3].Value)
	assert.Equal(t, int32(0), events[4].Value)
}

func TestCreateUInputPointerRejectsEmptyArea(t *testing.T) {
	_, err := CreateUInputPointer("/dev/null", []byte("test"), 0, 1080)
	assert.Error(t, err)
}

func TestToUinputName(t *testing.T) {
	name := toUinputName([]byte("GazePointer"))
	assert.Equal(t, "GazePointer", string(bytes.TrimRight(name[:], "\x00")))
}

func TestLogPointer(t *testing.T) {
	p := NewLogPointer(nil)
	assert.NoError(t, p.MoveTo(1, 2))
	assert.NoError(t, p.Close())
}
