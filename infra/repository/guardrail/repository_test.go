package guardrail

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	domain "github.com/amirasaad/railpay/pkg/domain/guardrail"
	"github.com/amirasaad/railpay/pkg/money"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDb, mock, err := sqlmock.New()
	require.NoError(t, err)
	dialector := postgres.New(postgres.Config{
		Conn:       mockDb,
		DriverName: "postgres",
	})
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestGormRepository_Get(t *testing.T) {
	db, mock := newMockDB(t)
	repo := gormRepository{db: db}
	userID := uuid.New()

	rows := sqlmock.NewRows([]string{
		"user_id", "currency", "max_single_payment_auto", "max_auto_top_up",
		"daily_auto_limit", "daily_spent_so_far", "kill_switch_engaged",
		"updated_at", "created_at",
	}).AddRow(userID, "MYR", int64(10000), int64(20000),
		int64(50000), int64(12000), true, time.Now(), time.Now())
	mock.ExpectQuery(`SELECT \* FROM "guardrails" WHERE user_id = \$1`).
		WithArgs(userID, 1).
		WillReturnRows(rows)

	g, err := repo.Get(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, userID, g.UserID)
	assert.True(t, g.MaxSinglePaymentAuto.Equals(money.Must(100, money.MYR)))
	assert.True(t, g.DailySpentSoFar.Equals(money.Must(120, money.MYR)))
	assert.True(t, g.KillSwitchEngaged)
}

func TestGormRepository_Get_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := gormRepository{db: db}
	userID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "guardrails"`).
		WithArgs(userID, 1).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}))

	_, err := repo.Get(context.Background(), userID)
	assert.ErrorIs(t, err, domain.ErrGuardrailsNotFound)
}

func TestGormRepository_IncrementDailySpent(t *testing.T) {
	db, mock := newMockDB(t)
	repo := gormRepository{db: db}
	userID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "guardrails" SET "daily_spent_so_far"=daily_spent_so_far \+ \$1 WHERE user_id = \$2`).
		WithArgs(int64(5000), userID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.IncrementDailySpent(context.Background(), userID, money.Must(50, money.MYR))
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormRepository_IncrementDailySpent_NoRow(t *testing.T) {
	db, mock := newMockDB(t)
	repo := gormRepository{db: db}

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "guardrails"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.IncrementDailySpent(context.Background(), uuid.New(), money.Must(50, money.MYR))
	assert.ErrorIs(t, err, domain.ErrGuardrailsNotFound)
}

func TestGormRepository_SetKillSwitch(t *testing.T) {
	db, mock := newMockDB(t)
	repo := gormRepository{db: db}
	userID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "guardrails" SET "kill_switch_engaged"=\$1 WHERE user_id = \$2`).
		WithArgs(true, userID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.SetKillSwitch(context.Background(), userID, true))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormRepository_SetKillSwitch_Error(t *testing.T) {
	db, mock := newMockDB(t)
	repo := gormRepository{db: db}

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "guardrails"`).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := repo.SetKillSwitch(context.Background(), uuid.New(), true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "setting kill switch")
}

func TestGormRepository_Update(t *testing.T) {
	db, mock := newMockDB(t)
	repo := gormRepository{db: db}

	g := &domain.Guardrails{
		UserID:               uuid.New(),
		MaxSinglePaymentAuto: money.Must(100, money.MYR),
		MaxAutoTopUp:         money.Must(200, money.MYR),
		DailyAutoLimit:       money.Must(500, money.MYR),
		DailySpentSoFar:      money.Zero(money.MYR),
	}

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "guardrails" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Update(context.Background(), g))
}
