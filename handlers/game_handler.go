package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"guessr/services"
)

type GameHandler struct {
	gameService *services.GameService
}

func NewGameHandler(gameService *services.GameService) *GameHandler {
	return &GameHandler{
		gameService: gameService,
	}
}

func (h *GameHandler) Events(c *gin.Context) {
	events, err := h.gameService.ListEvents(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, events)
}

func (h *GameHandler) StartRound(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	round, err := h.gameService.StartRound(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, round)
}

func (h *GameHandler) SubmitGuess(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req services.GuessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.gameService.SubmitGuess(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *GameHandler) CompleteRound(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req services.CompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.gameService.CompleteRound(c.Request.Context(), userID, req.GameRoundID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
