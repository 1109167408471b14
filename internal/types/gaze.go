package types

// GazeSample はアイトラッカーから届く1フレーム分の視線データ
type GazeSample struct {
	Raw              ScreenPoint // 生の視線座標
	Smoothed         ScreenPoint // センサー側で平滑化された座標
	TrackingGaze     bool        // 視線を追跡中
	TrackingPresence bool        // ユーザーの存在を検出中
}

// HasTracking は追跡フラグのどちらかが立っているかを返す
// どちらも立っていないサンプルは位置情報を持たないので破棄する
func (s GazeSample) HasTracking() bool {
	return s.TrackingGaze || s.TrackingPresence
}

// Point は平滑化座標を使うかどうかに応じて座標を選ぶ
func (s GazeSample) Point(useSmoothed bool) ScreenPoint {
	if useSmoothed {
		return s.Smoothed
	}
	return s.Raw
}
