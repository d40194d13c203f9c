package database

import (
	"fmt"
	"testing"

	"loan-compare/internal/config"
	"loan-compare/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// cleanupTables is ordered children first so foreign keys never block a delete
var cleanupTables = []string{
	"application_documents",
	"loan_applications",
	"loan_questions",
	"bank_offers",
	"audit_logs",
	"blacklisted_tokens",
	"users",
}

func openTestDB(t *testing.T) *DB {
	t.Helper()

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	db, err := gorm.Open(sqlite.Open(":memory:"), gormConfig)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	// every sqlite :memory: connection is its own database
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	testDB := &DB{
		DB: db,
		config: &config.DatabaseConfig{
			Driver:         config.DriverSQLite,
			MaxConnections: 1,
			MaxIdleConns:   1,
		},
	}

	if err := testDB.AutoMigrate(); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return testDB
}

func SetupTestDB(t *testing.T) *DB {
	t.Helper()
	return openTestDB(t)
}

func CreateTestUser(t *testing.T, db *DB, email string) *models.User {
	t.Helper()

	user := &models.User{
		Email:        email,
		PasswordHash: "hashed_password",
		FullName:     "Test User",
		Role:         models.RoleApplicant,
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}

	return user
}

func CreateTestAdminUser(t *testing.T, db *DB, email string) *models.User {
	t.Helper()

	user := &models.User{
		Email:        email,
		PasswordHash: "hashed_password",
		FullName:     "Admin User",
		Role:         models.RoleAdmin,
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test admin user: %v", err)
	}

	return user
}

// CreateTestApplication stores a pending_documents application owned by user
func CreateTestApplication(t *testing.T, db *DB, user *models.User, loanType string) *models.LoanApplication {
	t.Helper()

	app := &models.LoanApplication{
		UserID:        user.ID,
		ApplicantName: user.FullName,
		Email:         user.Email,
		LoanType:      loanType,
		LoanAmount:    decimal.NewFromInt(250000),
		MonthlyIncome: decimal.NewFromInt(8000),
		ApplicationData: models.JSONBMap{
			"fullName": user.FullName,
		},
	}

	if err := db.Create(app).Error; err != nil {
		t.Fatalf("failed to create test application: %v", err)
	}

	return app
}

type TestDB struct {
	*DB
	t *testing.T
}

func NewTestDB(t *testing.T) *TestDB {
	t.Helper()
	return &TestDB{
		DB: openTestDB(t),
		t:  t,
	}
}

func (tdb *TestDB) Cleanup() {
	tdb.t.Helper()
	CleanupTestDB(tdb.t, tdb.DB)
}

func CleanupTestDB(t *testing.T, db *DB) {
	t.Helper()

	for _, table := range cleanupTables {
		if err := db.Exec(fmt.Sprintf("DELETE FROM %s", table)).Error; err != nil {
			t.Logf("failed to cleanup table %s: %v", table, err)
		}
	}
}
