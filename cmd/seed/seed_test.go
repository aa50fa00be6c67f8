package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/ikkim/localbiz-backend/internal/app/model"
	"github.com/ikkim/localbiz-backend/internal/app/repository"
	"github.com/ikkim/localbiz-backend/internal/app/service"
	"github.com/ikkim/localbiz-backend/internal/db"
	"github.com/ikkim/localbiz-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, rows [][]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	path := filepath.Join(t.TempDir(), "businesses.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

var header = []interface{}{
	"UEN", "business_name", "business_category", "price_tier", "open247",
	"payment_options", "latitude", "longitude", "monday", "sunday",
}

func TestReadBusinessesFromXLSX(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		header,
		{"201912345A", "Ah Seng Kopi", "food", "LOW", "no", "cash, paynow", "1.3521", "103.8198", "07:00-15:00", ""},
		{"T08LL0001B", "Night Owl Mart", "retail", "", "yes", "card", "", "", "09:00-18:00", ""},
		{"", "Nameless", "", "", "", "", "", "", "", ""},
		{"201912345a", "Duplicate Kopi", "food", "", "", "", "", "", "", ""},
		{"53300001C", "Bad Hours", "", "", "", "", "", "", "0700", ""},
		{"53300002D", "Bad Coordinate", "", "", "", "", "north", "", "", ""},
	})

	inputs, skipped, err := readBusinessesFromXLSX(path)
	require.NoError(t, err)
	require.Len(t, inputs, 2)

	kopi := inputs[0]
	assert.Equal(t, "201912345A", kopi.UEN)
	assert.Equal(t, "low", kopi.PriceTier)
	assert.Equal(t, []string{"cash", "paynow"}, kopi.PaymentOptions)
	require.NotNil(t, kopi.Latitude)
	assert.InDelta(t, 1.3521, *kopi.Latitude, 1e-9)
	assert.Equal(t, map[string]model.HoursView{"monday": {Open: "07:00", Close: "15:00"}}, kopi.OpeningHours)

	mart := inputs[1]
	assert.True(t, mart.Open247)
	assert.Equal(t, "medium", mart.PriceTier)
	assert.Nil(t, mart.OpeningHours, "24/7 rows ignore weekday columns")

	rowsSkipped := make([]int, 0, len(skipped))
	for _, s := range skipped {
		rowsSkipped = append(rowsSkipped, s.Row)
	}
	assert.Equal(t, []int{4, 5, 6, 7}, rowsSkipped)
}

func TestReadBusinessesFromXLSX_MissingColumn(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{"business_name", "address"},
		{"Kopi", "1 Main St"},
	})

	_, _, err := readBusinessesFromXLSX(path)
	assert.ErrorContains(t, err, `"uen"`)
}

func TestImportBusinesses(t *testing.T) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	defer db.CleanupTestDB(testDB)

	log := logger.Nop()
	users := repository.NewUserRepository(testDB, log)
	svc := service.NewBusinessService(testDB, repository.NewBusinessRepository(testDB, log), users, log)

	ctx := context.Background()
	owner := &model.User{Email: "owner@example.com", PasswordHash: "x", Name: "Owner", Role: model.RoleUser, ReferralCode: "OWNER001"}
	require.NoError(t, users.Create(ctx, owner))

	inputs := []service.BusinessInput{
		{UEN: "100A", Name: "First", PaymentOptions: []string{"cash"}},
		{UEN: "200B", Name: "Second", PaymentOptions: []string{"bitcoin"}},
	}

	result := importBusinesses(ctx, svc, owner.ID, inputs)
	assert.Equal(t, 1, result.Imported)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "200B", result.Failed[0].UEN)

	again := importBusinesses(ctx, svc, owner.ID, inputs[:1])
	assert.Equal(t, 0, again.Imported)
	assert.Equal(t, 1, again.Existing)

	reloaded, err := users.FindByID(ctx, owner.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.HasBusiness)
}
