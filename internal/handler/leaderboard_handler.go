package handler

import (
	"net/http"
	"strconv"

	"quizduel/backend/internal/database"
	"quizduel/backend/internal/models"

	"github.com/gin-gonic/gin"
)

// region --- DTOs ---

// LeaderboardEntry defines one row of the global leaderboard.
type LeaderboardEntry struct {
	Position int    `json:"position"`
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	XP       int    `json:"xp"`
	Rank     string `json:"rank"`
}

// endregion

// GetLeaderboard godoc
// @Summary      Get the global leaderboard
// @Description  Gets the top players ordered by lifetime or weekly XP.
// @Tags         leaderboard
// @Produce      json
// @Security     BearerAuth
// @Param        period query string false "all or weekly" default(all)
// @Param        limit  query int    false "Number of entries" default(25)
// @Success      200 {array} LeaderboardEntry
// @Router       /leaderboard [get]
func GetLeaderboard(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "25"))
	if limit < 1 || limit > 100 {
		limit = 25
	}
	period := c.DefaultQuery("period", "all")

	order := "xp DESC"
	if period == "weekly" {
		order = "weekly_xp DESC"
	}

	var users []models.User
	if err := database.DB.Order(order).Order("id").Limit(limit).Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch leaderboard"})
		return
	}

	entries := make([]LeaderboardEntry, 0, len(users))
	for i, user := range users {
		xp := user.XP
		if period == "weekly" {
			xp = user.WeeklyXP
		}
		entries = append(entries, LeaderboardEntry{
			Position: i + 1,
			UserID:   user.ID,
			Username: user.Username,
			XP:       xp,
			Rank:     user.Rank,
		})
	}

	c.JSON(http.StatusOK, entries)
}
