// Package infra provides database connectivity for the gorm-backed
// repositories.
package infra

import (
	"fmt"

	guardrailrepo "github.com/amirasaad/railpay/infra/repository/guardrail"
	"github.com/amirasaad/railpay/infra/repository/translog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewDatabase opens a Postgres connection and migrates the schema.
func NewDatabase(url string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(url), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.AutoMigrate(
		&guardrailrepo.Guardrails{},
		&translog.TransactionLog{},
	); err != nil {
		return nil, fmt.Errorf("migrating schema: %w", err)
	}
	return db, nil
}
