package infra

import (
	"fmt"

	"commissionflow/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate
// to create / update all tables, then applies the idempotent SQL patches
// that AutoMigrate cannot express (partial indexes).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}

	return db, nil
}

// RunMigrations applies the schema. Also used by integration tests against
// a throwaway database.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Organization{},
		&model.User{},
		&model.Client{},
		&model.Project{},
		&model.SalesTransaction{},
		&model.CommissionPlan{},
		&model.CommissionRule{},
		&model.CommissionCalculation{},
		&model.CommissionAdjustment{},
		&model.PayoutRun{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL that GORM cannot express. Each
// statement guards on existence so re-running on a patched DB is a no-op.
func applySchemaPatches(db *gorm.DB) error {
	patches := []string{
		// Partial index for the approval queue: the dashboard and the
		// pending-calculations list only ever scan status = 'pending'.
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_calculations_pending') THEN
		    CREATE INDEX idx_calculations_pending
		        ON commission_calculations (organization_id, calculated_at)
		        WHERE status = 'pending';
		  END IF;
		END $$`,
		// Payout runs collect approved calculations by transaction date.
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_transactions_org_date') THEN
		    CREATE INDEX idx_transactions_org_date
		        ON sales_transactions (organization_id, date);
		  END IF;
		END $$`,
	}

	for _, sql := range patches {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", sql[:min(len(sql), 60)], err)
		}
	}
	return nil
}
