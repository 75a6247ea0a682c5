package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/autokat/backend/internal/highscores"
)

const (
	defaultHighscoreLimit = 10
	maxHighscoreLimit     = 100
)

type HighscoreReader interface {
	Top(n int) []highscores.Entry
	Len() int
}

// GetHighscores returns the best entries, best first.
func GetHighscores(board HighscoreReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := defaultHighscoreLimit
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
				return
			}
			limit = n
		}
		if limit > maxHighscoreLimit {
			limit = maxHighscoreLimit
		}

		c.JSON(http.StatusOK, gin.H{
			"highscores": board.Top(limit),
			"total":      board.Len(),
		})
	}
}
