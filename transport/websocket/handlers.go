package websocket

import (
	"context"
	"errors"
	"fmt"

	"nhooyr.io/websocket"

	"github.com/rocketscienceinc/playerstate-backend/internal/apperror"
	"github.com/rocketscienceinc/playerstate-backend/internal/entity"
	"github.com/rocketscienceinc/playerstate-backend/internal/tictactoe"
)

func (that *Server) handleConnect(ctx context.Context, msg *Message, conn *websocket.Conn) error {
	log := that.logger.With("method", "handleConnect")

	payloadReq, err := msg.decode()
	if err != nil {
		return that.sendErrorResponse(ctx, conn, msg.Action, "malformed payload")
	}

	if payloadReq.Player == nil {
		return that.sendErrorResponse(ctx, conn, msg.Action, "Player is required")
	}

	player, err := that.uGame.GetOrCreatePlayer(ctx, payloadReq.Player.ID)
	if err != nil {
		log.Error("failed to create or get player", "error", err)
		return that.sendErrorResponse(ctx, conn, msg.Action, "failed to create a new player")
	}

	that.register(player.ID, conn)

	payloadResp := Payload{Player: player}

	if player.GameID != "" {
		game, err := that.uGame.GetGame(ctx, player.GameID)
		if err != nil {
			log.Error("failed to get game", "gameID", player.GameID, "error", err)
			return that.sendErrorResponse(ctx, conn, msg.Action, "failed to get the game")
		}

		payloadResp.Game = maskGameDetails(game)
	}

	if err = that.sendMessage(ctx, conn, msg.Action, payloadResp); err != nil {
		return fmt.Errorf("failed to send response: %w", err)
	}

	log.Info("successfully connected player", "playerID", player.ID)

	return nil
}

func (that *Server) handleNewGame(ctx context.Context, msg *Message, conn *websocket.Conn) error {
	log := that.logger.With("method", "handleNewGame")

	payloadReq, err := msg.decode()
	if err != nil {
		return that.sendErrorResponse(ctx, conn, msg.Action, "malformed payload")
	}

	if payloadReq.Player == nil {
		return that.sendErrorResponse(ctx, conn, msg.Action, "Player is required")
	}

	that.register(payloadReq.Player.ID, conn)

	game, err := that.uGame.GetOrCreateGame(ctx, payloadReq.Player.ID)
	if err != nil {
		log.Error("failed to create or get game", "error", err)
		return that.sendErrorResponse(ctx, conn, msg.Action, "failed to create a new game")
	}

	that.broadcast(ctx, msg.Action, game)

	log.Info("game created", "gameID", game.ID)

	return nil
}

func (that *Server) handleJoinGame(ctx context.Context, msg *Message, conn *websocket.Conn) error {
	log := that.logger.With("method", "handleJoinGame")

	payloadReq, err := msg.decode()
	if err != nil {
		return that.sendErrorResponse(ctx, conn, msg.Action, "malformed payload")
	}

	if payloadReq.Player == nil {
		return that.sendErrorResponse(ctx, conn, msg.Action, "Player is required")
	}

	if payloadReq.Game == nil {
		return that.sendErrorResponse(ctx, conn, msg.Action, "Game is required")
	}

	that.register(payloadReq.Player.ID, conn)

	log = log.With("playerID", payloadReq.Player.ID)

	game, err := that.uGame.ConnectToGame(ctx, payloadReq.Game.ID, payloadReq.Player.ID)
	if err != nil {
		log.Error("failed to join game", "error", err)
		return that.sendErrorResponse(ctx, conn, msg.Action, fmt.Sprintf("game %s: %v", payloadReq.Game.ID, err))
	}

	that.broadcast(ctx, msg.Action, game)

	log.Info("Player joined game", "gameID", game.ID)

	return nil
}

func (that *Server) handleGameTurn(ctx context.Context, msg *Message, conn *websocket.Conn) error {
	log := that.logger.With("method", "handleGameTurn")

	payloadReq, err := msg.decode()
	if err != nil {
		return that.sendErrorResponse(ctx, conn, msg.Action, "malformed payload")
	}

	if payloadReq.Player == nil {
		return that.sendErrorResponse(ctx, conn, msg.Action, "Player is required")
	}

	if payloadReq.Cell == nil {
		return that.sendErrorResponse(ctx, conn, msg.Action, "Cell is required")
	}

	that.register(payloadReq.Player.ID, conn)

	log = log.With("playerID", payloadReq.Player.ID)

	game, err := that.uGame.MakeTurn(ctx, payloadReq.Player.ID, *payloadReq.Cell)
	switch {
	case isRejectedTurn(err):
		return that.sendErrorResponse(ctx, conn, msg.Action, err.Error())
	case err != nil:
		log.Error("failed to make turn", "error", err)
		return that.sendErrorResponse(ctx, conn, msg.Action, "failed to make turn")
	}

	that.broadcast(ctx, msg.Action, game)

	if game.IsFinished() {
		log.Info("Game finished", "gameID", game.ID, "winner", game.Winner)
		return nil
	}

	log.Info("Player made a turn", "gameID", game.ID)

	return nil
}

// broadcast sends the game to every seated player that is connected.
func (that *Server) broadcast(ctx context.Context, action string, game *entity.Game) {
	log := that.logger.With("method", "broadcast", "gameID", game.ID)

	masked := maskGameDetails(game)

	for _, seated := range game.Seats {
		conn, ok := that.connection(seated.ID)
		if !ok {
			log.Warn("connection not found for player", "playerID", seated.ID)
			continue
		}

		if err := that.sendMessage(ctx, conn, action, Payload{Player: seated, Game: masked}); err != nil {
			log.Error("failed to send game update", "playerID", seated.ID, "error", err)
		}
	}
}

func isRejectedTurn(err error) bool {
	return errors.Is(err, apperror.ErrGameIsNotStarted) ||
		errors.Is(err, apperror.ErrGameFinished) ||
		errors.Is(err, apperror.ErrNotYourTurn) ||
		errors.Is(err, apperror.ErrCellOccupied) ||
		errors.Is(err, apperror.ErrNotInGame) ||
		errors.Is(err, apperror.ErrConflict) ||
		errors.Is(err, tictactoe.ErrInvalidCell)
}
