package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aescanero/fairdeal/pkg/domain"
)

// StartGameRequest represents a game session start request.
type StartGameRequest struct {
	NumPlayers     uint8 `json:"num_players" binding:"required"`
	CardsPerPlayer uint8 `json:"cards_per_player" binding:"required"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail represents error details.
type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks": gin.H{
			"orchestrator": "ok",
		},
	})
}

// handleStartGame handles game session creation.
func (s *Server) handleStartGame(c *gin.Context) {
	var req StartGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.logger.Error("invalid request", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: ErrorDetail{
				Code:    "INVALID_REQUEST",
				Message: err.Error(),
			},
		})
		return
	}

	initiation, err := s.orchestrator.Initiate(c.Request.Context(), req.NumPlayers, req.CardsPerPlayer)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, initiation)
}

// handleGetGame returns the full game state of a ready session.
func (s *Server) handleGetGame(c *gin.Context) {
	result, err := s.orchestrator.Result(c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id":   c.Param("id"),
		"game_state":   result.Game,
		"hands_named":  domain.HandNames(result.Game.PlayerHands),
		"artifact_ref": result.ArtifactRef,
	})
}

// handleGetStatus handles session status queries.
func (s *Server) handleGetStatus(c *gin.Context) {
	status, err := s.orchestrator.Status(c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}

// handleGetResult handles getting the terminal result of a session.
func (s *Server) handleGetResult(c *gin.Context) {
	result, err := s.orchestrator.Result(c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// handleGetProof returns the proof provenance of a ready session.
func (s *Server) handleGetProof(c *gin.Context) {
	sessionID := c.Param("id")

	result, err := s.orchestrator.Result(sessionID)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id":    sessionID,
		"artifact_ref":  result.ArtifactRef,
		"seed_metadata": result.Game.Seed,
	})
}

// DrawRequest identifies the drawing player.
type DrawRequest struct {
	Player uint8 `json:"player"`
}

// handleDrawCard draws one card for a player.
func (s *Server) handleDrawCard(c *gin.Context) {
	var req DrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: ErrorDetail{Code: "INVALID_REQUEST", Message: err.Error()},
		})
		return
	}

	card, state, err := s.orchestrator.DrawCard(c.Param("id"), req.Player)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"card":       card,
		"card_name":  domain.CardName(card),
		"game_state": state,
	})
}

// DrawMultipleRequest identifies the drawing player and the card count.
type DrawMultipleRequest struct {
	Player uint8 `json:"player"`
	Count  uint8 `json:"count" binding:"required"`
}

// handleDrawCards draws several cards for a player.
func (s *Server) handleDrawCards(c *gin.Context) {
	var req DrawMultipleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: ErrorDetail{Code: "INVALID_REQUEST", Message: err.Error()},
		})
		return
	}

	cards, state, err := s.orchestrator.DrawCards(c.Param("id"), req.Player, req.Count)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"cards":      cards,
		"card_names": domain.CardNames(cards),
		"game_state": state,
	})
}

// PlayRequest identifies the playing player and the hand position.
type PlayRequest struct {
	Player    uint8 `json:"player"`
	CardIndex int   `json:"card_index"`
}

// handlePlayCard plays a card from a player's hand onto the discard pile.
func (s *Server) handlePlayCard(c *gin.Context) {
	var req PlayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: ErrorDetail{Code: "INVALID_REQUEST", Message: err.Error()},
		})
		return
	}

	card, state, err := s.orchestrator.PlayCard(c.Param("id"), req.Player, req.CardIndex)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"card":       card,
		"card_name":  domain.CardName(card),
		"game_state": state,
	})
}

// handleGetHand returns a player's current hand.
func (s *Server) handleGetHand(c *gin.Context) {
	player, err := strconv.ParseUint(c.Param("player"), 10, 8)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: ErrorDetail{Code: "INVALID_REQUEST", Message: "player must be a small non-negative integer"},
		})
		return
	}

	hand, err := s.orchestrator.Hand(c.Param("id"), uint8(player))
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"player":     player,
		"hand":       hand,
		"hand_named": domain.CardNames(hand),
	})
}

// respondError maps domain errors to HTTP status codes.
func (s *Server) respondError(c *gin.Context, err error) {
	switch {
	case domain.IsValidation(err):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: ErrorDetail{Code: "INVALID_PARAMETERS", Message: err.Error()},
		})
	case errors.Is(err, domain.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: ErrorDetail{Code: "NOT_FOUND", Message: err.Error()},
		})
	case errors.Is(err, domain.ErrGameNotReady):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error: ErrorDetail{Code: "NOT_READY", Message: err.Error()},
		})
	default:
		s.logger.Error("request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: ErrorDetail{Code: "INTERNAL_ERROR", Message: err.Error()},
		})
	}
}
