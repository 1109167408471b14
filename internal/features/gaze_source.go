package features

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/char5742/gaze-pointer/internal/types"
)

// GazeSource は視線サンプルを供給するインターフェース
// チャネルは入力が尽きるか ctx がキャンセルされると閉じられる
type GazeSource interface {
	Samples(ctx context.Context) (<-chan types.GazeSample, error)
}

// replayRecord は JSON Lines の1行分
type replayRecord struct {
	Raw      *floatPoint `json:"raw"`
	Smoothed *floatPoint `json:"smoothed"`
	Gaze     bool        `json:"gaze"`
	Present  bool        `json:"present"`
	Delay    string      `json:"delay"` // 前のサンプルからの間隔 (例: "33ms")
}

type floatPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p *floatPoint) screenPoint() types.ScreenPoint {
	if p == nil {
		return types.ScreenPoint{}
	}
	return types.ScreenPoint{X: int(math.Round(p.X)), Y: int(math.Round(p.Y))}
}

// ReplaySource は記録済みの視線サンプルを JSON Lines 形式で読み込んで再生する
type ReplaySource struct {
	path     string
	reader   io.Reader
	realtime bool
	logger   *zap.Logger
	sleep    func(ctx context.Context, d time.Duration) bool
}

// NewReplaySource はファイルから読み込む ReplaySource を作成する。"-" は標準入力
func NewReplaySource(path string, realtime bool, logger *zap.Logger) *ReplaySource {
	return &ReplaySource{path: path, realtime: realtime, logger: orNop(logger), sleep: sleepCtx}
}

// NewReaderSource は任意の io.Reader から読み込む ReplaySource を作成する
func NewReaderSource(r io.Reader, realtime bool, logger *zap.Logger) *ReplaySource {
	return &ReplaySource{reader: r, realtime: realtime, logger: orNop(logger), sleep: sleepCtx}
}

func (s *ReplaySource) Samples(ctx context.Context) (<-chan types.GazeSample, error) {
	r := s.reader
	var closer io.Closer
	if r == nil {
		switch s.path {
		case "", "-":
			r = os.Stdin
		default:
			f, err := os.Open(s.path)
			if err != nil {
				return nil, fmt.Errorf("視線データの読み込みに失敗しました: %w", err)
			}
			r, closer = f, f
		}
	}

	out := make(chan types.GazeSample)
	go func() {
		defer close(out)
		if closer != nil {
			defer closer.Close()
		}
		s.replay(ctx, r, out)
	}()
	return out, nil
}

// 1行の最大長。これを超える行は読み飛ばす
const maxReplayLine = 64 * 1024

func (s *ReplaySource) replay(ctx context.Context, r io.Reader, out chan<- types.GazeSample) {
	br := bufio.NewReaderSize(r, maxReplayLine)
	line := 0
	for {
		raw, tooLong, err := readLine(br)
		if len(raw) > 0 || tooLong {
			line++
		}

		if tooLong {
			s.logger.Warn("長すぎる行を読み飛ばします", zap.Int("line", line))
		} else if text := strings.TrimSpace(string(raw)); text != "" && !strings.HasPrefix(text, "#") {
			sample, delay, perr := parseReplayLine(text)
			if perr != nil {
				s.logger.Warn("不正な視線データを読み飛ばします", zap.Int("line", line), zap.Error(perr))
			} else {
				if s.realtime && delay > 0 && !s.sleep(ctx, delay) {
					return
				}
				select {
				case out <- sample:
				case <-ctx.Done():
					return
				}
			}
		}

		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.logger.Warn("視線データの読み込みエラー", zap.Error(err))
			}
			return
		}
	}
}

// readLine は改行までの1行を返す
// バッファに収まらない行は残りを読み捨て、tooLong を true にして返す
func readLine(br *bufio.Reader) (line []byte, tooLong bool, err error) {
	for {
		chunk, err := br.ReadSlice('\n')
		if errors.Is(err, bufio.ErrBufferFull) {
			tooLong = true
			continue
		}
		if tooLong {
			return nil, true, err
		}
		return chunk, false, err
	}
}

func parseReplayLine(text string) (types.GazeSample, time.Duration, error) {
	var rec replayRecord
	if err := json.Unmarshal([]byte(text), &rec); err != nil {
		return types.GazeSample{}, 0, err
	}

	var delay time.Duration
	if rec.Delay != "" {
		d, err := time.ParseDuration(rec.Delay)
		if err != nil {
			return types.GazeSample{}, 0, fmt.Errorf("delay: %w", err)
		}
		delay = d
	}

	smoothed := rec.Smoothed
	if smoothed == nil {
		smoothed = rec.Raw
	}

	return types.GazeSample{
		Raw:              rec.Raw.screenPoint(),
		Smoothed:         smoothed.screenPoint(),
		TrackingGaze:     rec.Gaze,
		TrackingPresence: rec.Present,
	}, delay, nil
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func orNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
