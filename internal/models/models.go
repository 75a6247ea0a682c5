package models

import "time"

// OperatorAccount is a person allowed to calibrate the installation.
type OperatorAccount struct {
	Name        string    `db:"name" json:"name"`
	DisplayName string    `db:"display_name" json:"display_name"`
	TokenHash   string    `db:"token_hash" json:"-"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// OperatorAudit is one recorded operator action.
type OperatorAudit struct {
	ID           int       `db:"id" json:"id"`
	OperatorName string    `db:"operator_name" json:"operator_name"`
	IP           *string   `db:"ip" json:"ip"`
	Route        string    `db:"route" json:"route"`
	Action       string    `db:"action" json:"action"`
	Details      string    `db:"details" json:"details"`
	Success      bool      `db:"success" json:"success"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
