package admin

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/autokat/backend/internal/models"
)

// GetOperatorAccount retrieves an operator account by name
func GetOperatorAccount(ctx context.Context, db *sqlx.DB, name string) (*models.OperatorAccount, error) {
	var op models.OperatorAccount
	err := db.GetContext(ctx, &op, `SELECT name, display_name, token_hash, created_at, updated_at FROM operator_accounts WHERE name=$1`, name)
	if err != nil {
		return nil, err
	}
	return &op, nil
}

// VerifyOperatorToken checks if the provided token matches the stored hash
func VerifyOperatorToken(hashedToken, plainToken string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedToken), []byte(plainToken))
	return err == nil
}

// HashOperatorToken hashes a plain token for storage.
func HashOperatorToken(plainToken string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plainToken), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash token: %w", err)
	}
	return string(hashed), nil
}

// CreateOperatorAccount creates or replaces an operator account (used for seeding)
func CreateOperatorAccount(ctx context.Context, db *sqlx.DB, name, displayName, plainToken string) error {
	hashedToken, err := HashOperatorToken(plainToken)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO operator_accounts (name, display_name, token_hash, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (name) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			token_hash = EXCLUDED.token_hash,
			updated_at = NOW()
	`, name, displayName, hashedToken)
	return err
}

// ValidateOperatorToken validates a name + token combination
func ValidateOperatorToken(ctx context.Context, db *sqlx.DB, name, token string, log *zap.SugaredLogger) (*models.OperatorAccount, error) {
	op, err := GetOperatorAccount(ctx, db, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Infof("[ADMIN] No operator account found for: %s", name)
			return nil, ErrUnauthorized
		}
		log.Errorf("[ADMIN] Database error: %v", err)
		return nil, fmt.Errorf("database error: %w", err)
	}

	if !VerifyOperatorToken(op.TokenHash, token) {
		log.Infof("[ADMIN] Token verification failed for: %s", name)
		return nil, ErrUnauthorized
	}
	return op, nil
}

// LogOperatorAction records an operator action in the audit log
func LogOperatorAction(ctx context.Context, db *sqlx.DB, operator, ip, route, action string, details map[string]interface{}, success bool) error {
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		detailsJSON = []byte("{}")
	}

	var ipArg interface{}
	if ip != "" {
		ipArg = ip
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO operator_audit (operator_name, ip, route, action, details, success, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`, operator, ipArg, route, action, string(detailsJSON), success)
	if err != nil {
		return fmt.Errorf("record operator action: %w", err)
	}
	return nil
}

// GetOperatorAuditLogs retrieves recent audit entries with pagination
func GetOperatorAuditLogs(ctx context.Context, db *sqlx.DB, limit, offset int) ([]models.OperatorAudit, error) {
	var logs []models.OperatorAudit
	err := db.SelectContext(ctx, &logs, `
		SELECT id, operator_name, ip, route, action, details::text AS details, success, created_at
		FROM operator_audit
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	return logs, err
}

// Auditor writes operator actions to the audit table.
type Auditor struct {
	db *sqlx.DB
}

func NewAuditor(db *sqlx.DB) *Auditor {
	return &Auditor{db: db}
}

// Record logs an action issued over the websocket.
func (a *Auditor) Record(ctx context.Context, operator, action string, details map[string]any) error {
	return a.LogAction(ctx, operator, "", "/ws", action, details, true)
}

func (a *Auditor) LogAction(ctx context.Context, operator, ip, route, action string, details map[string]any, success bool) error {
	return LogOperatorAction(ctx, a.db, operator, ip, route, action, details, success)
}

func (a *Auditor) Logs(ctx context.Context, limit, offset int) ([]models.OperatorAudit, error) {
	return GetOperatorAuditLogs(ctx, a.db, limit, offset)
}
