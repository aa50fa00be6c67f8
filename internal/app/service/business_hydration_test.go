package service

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ikkim/localbiz-backend/internal/app/model"
	"github.com/ikkim/localbiz-backend/internal/app/repository"
	apperrors "github.com/ikkim/localbiz-backend/internal/errors"
	"github.com/ikkim/localbiz-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newMockBusinessService runs the service against a postgres dialect backed
// by sqlmock so the exact statements can be asserted.
func newMockBusinessService(t *testing.T) (*BusinessService, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	// hydration queries run concurrently
	mock.MatchExpectationsInOrder(false)

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	log := logger.Nop()
	svc := NewBusinessService(gdb, repository.NewBusinessRepository(gdb, log), repository.NewUserRepository(gdb, log), log)
	return svc, mock
}

func TestHydrate_EmptyInputIssuesNoQueries(t *testing.T) {
	svc, mock := newMockBusinessService(t)

	views, err := svc.hydrate(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, views)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHydrate_IssuesThreeQueries(t *testing.T) {
	svc, mock := newMockBusinessService(t)

	rows := []model.Business{
		{UEN: "A1", Name: "Alpha"},
		{UEN: "B2", Name: "Bravo", Open247: true},
	}

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "business_payment_options" WHERE uen IN ($1,$2) ORDER BY uen, payment_option`)).
		WithArgs("A1", "B2").
		WillReturnRows(sqlmock.NewRows([]string{"uen", "payment_option"}).
			AddRow("A1", "cash").
			AddRow("B2", "card").
			AddRow("B2", "paynow"))

	// only the business that is not open 24/7 needs hours
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "business_opening_hours" WHERE uen IN ($1)`)).
		WithArgs("A1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "uen", "day_of_week", "open_time", "close_time"}).
			AddRow(1, "A1", "monday", "09:00", "18:00"))

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT uen, rating FROM "business_reviews" WHERE uen IN ($1,$2)`)).
		WithArgs("A1", "B2").
		WillReturnRows(sqlmock.NewRows([]string{"uen", "rating"}).
			AddRow("A1", 3).
			AddRow("A1", 4))

	views, err := svc.hydrate(context.Background(), rows)
	require.NoError(t, err)
	require.Len(t, views, 2)

	assert.Equal(t, "A1", views[0].UEN)
	assert.Equal(t, []string{"cash"}, views[0].PaymentOptions)
	assert.Equal(t, map[string]model.HoursView{"monday": {Open: "09:00", Close: "18:00"}}, views[0].OpeningHours)
	assert.Equal(t, 4, views[0].AvgRating)

	assert.Equal(t, "B2", views[1].UEN)
	assert.Equal(t, []string{"card", "paynow"}, views[1].PaymentOptions)
	assert.Empty(t, views[1].OpeningHours)
	assert.Equal(t, 0, views[1].AvgRating)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHydrate_AnyFailedLookupFailsWhole(t *testing.T) {
	svc, mock := newMockBusinessService(t)

	rows := []model.Business{{UEN: "A1", Name: "Alpha"}}

	mock.ExpectQuery(`business_payment_options`).
		WillReturnRows(sqlmock.NewRows([]string{"uen", "payment_option"}))
	mock.ExpectQuery(`business_opening_hours`).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectQuery(`business_reviews`).
		WillReturnRows(sqlmock.NewRows([]string{"uen", "rating"}))

	views, err := svc.hydrate(context.Background(), rows)
	require.Error(t, err)
	assert.Nil(t, views)
	assert.Equal(t, apperrors.KindStore, apperrors.KindOf(err))
}
