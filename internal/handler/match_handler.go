package handler

import (
	"net/http"

	"quizduel/backend/internal/database"
	"quizduel/backend/internal/models"

	"github.com/gin-gonic/gin"
)

// region --- DTOs ---

// MatchPlayerResponse defines one participant's final standing.
type MatchPlayerResponse struct {
	UserID    uint   `json:"user_id"`
	Username  string `json:"username"`
	Score     int    `json:"score"`
	Forfeited bool   `json:"forfeited"`
}

// MatchResponse defines the structure for a persisted match record.
type MatchResponse struct {
	ID         string                `json:"id"`
	Category   string                `json:"category"`
	State      string                `json:"state"`
	WinnerID   *uint                 `json:"winner_id"`
	Reason     string                `json:"reason,omitempty"`
	StartedAt  *string               `json:"started_at,omitempty"`
	FinishedAt *string               `json:"finished_at,omitempty"`
	Players    []MatchPlayerResponse `json:"players"`
}

// endregion

// GetMatchByID godoc
// @Summary      Get a match record
// @Description  Gets the persisted record of a match, including final scores once finished.
// @Tags         matches
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Match ID"
// @Success      200 {object} MatchResponse
// @Failure      404 {object} ErrorResponse
// @Router       /matches/{id} [get]
func GetMatchByID(c *gin.Context) {
	id := c.Param("id")

	var match models.Match
	if err := database.DB.Preload("Players").Preload("Category").First(&match, "id = ?", id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Match not found"})
		return
	}

	players := make([]MatchPlayerResponse, 0, len(match.Players))
	for _, p := range match.Players {
		players = append(players, MatchPlayerResponse{
			UserID:    p.UserID,
			Username:  p.Username,
			Score:     p.Score,
			Forfeited: p.Forfeited,
		})
	}

	response := MatchResponse{
		ID:       match.ID,
		Category: match.Category.Name,
		State:    string(match.State),
		WinnerID: match.WinnerID,
		Reason:   match.Reason,
		Players:  players,
	}
	if match.StartedAt != nil {
		s := match.StartedAt.Format("2006-01-02T15:04:05Z07:00")
		response.StartedAt = &s
	}
	if match.FinishedAt != nil {
		s := match.FinishedAt.Format("2006-01-02T15:04:05Z07:00")
		response.FinishedAt = &s
	}

	c.JSON(http.StatusOK, response)
}
