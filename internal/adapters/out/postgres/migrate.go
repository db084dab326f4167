package postgres

import (
	"dispatch/internal/adapters/out/postgres/commissionrepo"
	"dispatch/internal/adapters/out/postgres/orderrepo"
	"dispatch/internal/adapters/out/postgres/scanrepo"

	"gorm.io/gorm"
)

// Migrate creates or updates every table the adapters use.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&orderrepo.OrderDTO{},
		&scanrepo.ScanDTO{},
		&commissionrepo.AccountDTO{},
		&commissionrepo.TransactionDTO{},
	)
}
