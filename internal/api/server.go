package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Server はAPIサーバーを表す構造体
type Server struct {
	server  *http.Server
	service *PointerService
	logger  *zap.Logger
	port    int
}

// NewServer は新しいAPIサーバーを作成する
func NewServer(service *PointerService, port int, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		service: service,
		logger:  logger,
		port:    port,
	}
}

// Handler はルーティング済みのハンドラーを返す
func (s *Server) Handler() http.Handler {
	router := http.NewServeMux()
	s.setupRoutes(router)
	return router
}

// URL はサーバーのベースURLを返す
func (s *Server) URL() string {
	return fmt.Sprintf("http://localhost:%d", s.port)
}

// Start はAPIサーバーを開始する。ready はリッスン開始後に呼ばれる
func (s *Server) Start(ready func()) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("ポートのリッスンに失敗しました: %w", err)
	}

	s.logger.Info("APIサーバーを開始します", zap.String("url", s.URL()))
	if ready != nil {
		ready()
	}

	if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop はAPIサーバーを停止する
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		s.logger.Info("APIサーバーを停止します...")
		return s.server.Shutdown(ctx)
	}
	return nil
}

// writeJSON はJSONレスポンスを書き込む
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			s.logger.Warn("JSONエンコードエラー", zap.Error(err))
		}
	}
}

// writeError はエラーレスポンスを書き込む
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
