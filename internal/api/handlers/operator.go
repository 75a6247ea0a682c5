package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/autokat/backend/internal/admin"
	"github.com/autokat/backend/internal/models"
)

type OperatorAuth interface {
	Login(ctx context.Context, name, token string) (string, time.Time, error)
}

type AuditReader interface {
	Logs(ctx context.Context, limit, offset int) ([]models.OperatorAudit, error)
}

// OperatorLogin exchanges an operator token for a session JWT.
func OperatorLogin(auth OperatorAuth, audit AuditLogger, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Name  string `json:"name"`
			Token string `json:"token" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}

		name := strings.TrimSpace(req.Name)
		session, exp, err := auth.Login(c.Request.Context(), name, strings.TrimSpace(req.Token))
		if audit != nil {
			if aerr := audit.LogAction(c.Request.Context(), name, c.ClientIP(), c.FullPath(), "login", map[string]any{"name": name}, err == nil); aerr != nil {
				log.Warnf("[ADMIN] Failed to audit login for %s: %v", name, aerr)
			}
		}
		if err != nil {
			if errors.Is(err, admin.ErrUnauthorized) {
				log.Infof("[ADMIN] Login failed for operator %q", name)
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
				return
			}
			log.Errorf("[ADMIN] Login error for operator %q: %v", name, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"token": session, "expires_at": exp.UTC().Format(time.RFC3339)})
	}
}

// GetOperatorAuditLogs returns paginated audit log entries
func GetOperatorAuditLogs(audit AuditReader, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if audit == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Audit log requires a database"})
			return
		}
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "25"))
		offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
		if limit <= 0 || limit > 200 {
			limit = 200
		}
		if offset < 0 {
			offset = 0
		}

		logs, err := audit.Logs(c.Request.Context(), limit, offset)
		if err != nil {
			log.Errorf("[ADMIN] Failed to fetch audit logs: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch audit logs"})
			return
		}
		if logs == nil {
			logs = []models.OperatorAudit{}
		}
		c.JSON(http.StatusOK, gin.H{"logs": logs, "limit": limit, "offset": offset})
	}
}
