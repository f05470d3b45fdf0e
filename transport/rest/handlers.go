package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/rocketscienceinc/playerstate-backend/internal/apperror"
	"github.com/rocketscienceinc/playerstate-backend/internal/entity"
	"github.com/rocketscienceinc/playerstate-backend/internal/plugin/player"
)

// playersResponse is the per-player state of a game as the host committed it.
type playersResponse struct {
	GameID        string                            `json:"game_id"`
	Status        string                            `json:"status"`
	CurrentPlayer player.ID                         `json:"current_player"`
	NumPlayers    int                               `json:"num_players"`
	Players       *player.Store[entity.PlayerState] `json:"players"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (that *Server) handleGamePlayers(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "handleGamePlayers")

	gameID := mux.Vars(r)["id"]

	game, err := that.games.GetGame(r.Context(), gameID)
	if errors.Is(err, apperror.ErrNotFound) {
		that.writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}

	if err != nil {
		log.Error("failed to get game", "gameID", gameID, "error", err)
		that.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal Server Error"})
		return
	}

	that.writeJSON(w, http.StatusOK, playersResponse{
		GameID:        game.ID,
		Status:        game.Status,
		CurrentPlayer: game.Turn,
		NumPlayers:    game.NumPlayers(),
		Players:       game.Players,
	})
}

func (that *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "handleHistory")

	playerID := mux.Vars(r)["id"]

	results, err := that.games.History(r.Context(), playerID)
	if err != nil {
		log.Error("failed to list results", "playerID", playerID, "error", err)
		that.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal Server Error"})
		return
	}

	if results == nil {
		results = []*entity.Result{}
	}

	that.writeJSON(w, http.StatusOK, results)
}

func (that *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		that.logger.Error("failed to encode response", "error", err)
	}
}
