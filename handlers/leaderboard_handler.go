package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"guessr/services"
)

type LeaderboardHandler struct {
	leaderboardService *services.LeaderboardService
}

func NewLeaderboardHandler(leaderboardService *services.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{
		leaderboardService: leaderboardService,
	}
}

func limitParam(c *gin.Context) (int, bool) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(services.DefaultLeaderboardLimit)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Limit must be an integer"})
		return 0, false
	}
	return limit, true
}

func (h *LeaderboardHandler) TopScores(c *gin.Context) {
	limit, ok := limitParam(c)
	if !ok {
		return
	}

	board, err := h.leaderboardService.TopScores(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, board)
}

func (h *LeaderboardHandler) WeeklyScores(c *gin.Context) {
	limit, ok := limitParam(c)
	if !ok {
		return
	}

	board, err := h.leaderboardService.WeeklyScores(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, board)
}

func (h *LeaderboardHandler) MyStats(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	stats, err := h.leaderboardService.UserStats(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
