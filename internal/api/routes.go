package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/char5742/gaze-pointer/internal/config"
)

// 統計を計算する履歴件数のデフォルト
const defaultStatsWindow = 10

// ルートの設定
func (s *Server) setupRoutes(router *http.ServeMux) {
	// 設定関連のエンドポイント
	router.HandleFunc("GET /api/config", s.handleGetConfig)
	router.HandleFunc("PUT /api/config", s.handleUpdateConfig)

	// コントローラー関連のエンドポイント
	router.HandleFunc("POST /api/controller/enable", s.handleEnable)
	router.HandleFunc("POST /api/controller/disable", s.handleDisable)
	router.HandleFunc("POST /api/controller/toggle", s.handleToggle)
	router.HandleFunc("GET /api/controller/status", s.handleControllerStatus)

	// サービス関連のエンドポイント
	router.HandleFunc("POST /api/service/start", s.handleStartService)
	router.HandleFunc("POST /api/service/stop", s.handleStopService)
	router.HandleFunc("GET /api/service/status", s.handleServiceStatus)

	// ヘルスチェック用エンドポイント
	router.HandleFunc("GET /api/health", s.handleHealthCheck)
}

// 設定取得ハンドラ
// time.Duration の項目 (confirm_dwell など) は JSON ではナノ秒の整数になる。TOML の "500ms" 形式とは異なる
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.service.Config())
}

// 設定更新ハンドラ
// 送られてこなかった項目は現在の設定値を引き継ぐ
// 時間の項目はナノ秒の整数で受け取る
func (s *Server) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	newConfig := *s.service.Config()

	if err := json.NewDecoder(r.Body).Decode(&newConfig); err != nil {
		s.writeError(w, http.StatusBadRequest, "設定の解析に失敗しました")
		return
	}

	if err := s.service.UpdateConfig(&newConfig); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, config.ErrInvalidConfig) {
			status = http.StatusBadRequest
		}
		s.writeError(w, status, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func (s *Server) handleEnable(w http.ResponseWriter, r *http.Request) {
	s.service.SetEnabled(true)
	s.writeJSON(w, http.StatusOK, map[string]bool{"enabled": true})
}

func (s *Server) handleDisable(w http.ResponseWriter, r *http.Request) {
	s.service.SetEnabled(false)
	s.writeJSON(w, http.StatusOK, map[string]bool{"enabled": false})
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	enabled := s.service.Toggle()
	s.writeJSON(w, http.StatusOK, map[string]bool{"enabled": enabled})
}

// コントローラー状態取得ハンドラ
// ?window=n で統計を計算する履歴件数を指定できる
func (s *Server) handleControllerStatus(w http.ResponseWriter, r *http.Request) {
	window := defaultStatsWindow
	if v := r.URL.Query().Get("window"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("window が不正です: %q", v))
			return
		}
		window = n
	}

	s.writeJSON(w, http.StatusOK, s.service.Controller().Status(window))
}

// サービス起動ハンドラ
func (s *Server) handleStartService(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Start(); err != nil {
		if errors.Is(err, ErrServiceRunning) {
			s.writeJSON(w, http.StatusOK, map[string]string{"status": "already_running"})
			return
		}
		s.writeError(w, http.StatusInternalServerError, fmt.Sprintf("サービスの起動に失敗しました: %v", err))
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"status": "started"})
}

// サービス停止ハンドラ
func (s *Server) handleStopService(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Stop(); err != nil {
		if errors.Is(err, ErrServiceStopped) {
			s.writeJSON(w, http.StatusOK, map[string]string{"status": "not_running"})
			return
		}
		s.writeError(w, http.StatusInternalServerError, fmt.Sprintf("サービスの停止に失敗しました: %v", err))
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"status": "stopped"})
}

// サービス状態取得ハンドラ
func (s *Server) handleServiceStatus(w http.ResponseWriter, r *http.Request) {
	status := "stopped"
	if s.service.IsRunning() {
		status = "running"
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

// ヘルスチェックハンドラ
func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
