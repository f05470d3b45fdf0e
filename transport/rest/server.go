package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/rocketscienceinc/playerstate-backend/internal/entity"
)

type gameReader interface {
	GetGame(ctx context.Context, gameID string) (*entity.Game, error)
	History(ctx context.Context, playerID string) ([]*entity.Result, error)
}

type Server struct {
	logger *slog.Logger
	games  gameReader

	router *mux.Router
}

func New(logger *slog.Logger, games gameReader) *Server {
	server := &Server{
		logger: logger.With("component", "rest"),
		games:  games,
		router: mux.NewRouter(),
	}

	server.router.HandleFunc("/ping", server.handlePing).Methods(http.MethodGet)
	server.router.HandleFunc("/games/{id}/players", server.handleGamePlayers).Methods(http.MethodGet)
	server.router.HandleFunc("/players/{id}/history", server.handleHistory).Methods(http.MethodGet)

	return server
}

func (that *Server) Handler() http.Handler {
	return that.router
}

// Start - starts HTTP server.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      that.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
