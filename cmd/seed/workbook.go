package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ikkim/localbiz-backend/internal/app/model"
	"github.com/ikkim/localbiz-backend/internal/app/service"
	"github.com/xuri/excelize/v2"
)

var weekdays = []model.DayOfWeek{
	model.Monday, model.Tuesday, model.Wednesday, model.Thursday,
	model.Friday, model.Saturday, model.Sunday,
}

// skippedRow records why a spreadsheet row was not imported.
type skippedRow struct {
	Row    int
	Reason string
}

// readBusinessesFromXLSX reads the first sheet. The header row names the
// columns, so their order is free; unknown columns are ignored. Weekday
// columns hold "HH:MM-HH:MM" or stay empty for a closed day.
func readBusinessesFromXLSX(filePath string) ([]service.BusinessInput, []skippedRow, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, nil, fmt.Errorf("no sheets found in XLSX file")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("no data found in XLSX file")
	}

	columns := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		columns[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"uen", "business_name"} {
		if _, ok := columns[required]; !ok {
			return nil, nil, fmt.Errorf("missing required column %q", required)
		}
	}

	var (
		inputs  []service.BusinessInput
		skipped []skippedRow
		seen    = make(map[string]bool)
	)

	for i, row := range rows[1:] {
		rowNum := i + 2
		cell := func(name string) string {
			idx, ok := columns[name]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		input, err := parseRow(cell)
		if err != nil {
			skipped = append(skipped, skippedRow{Row: rowNum, Reason: err.Error()})
			continue
		}

		key := strings.ToUpper(input.UEN)
		if seen[key] {
			skipped = append(skipped, skippedRow{Row: rowNum, Reason: "duplicate uen " + input.UEN})
			continue
		}
		seen[key] = true
		inputs = append(inputs, input)
	}

	return inputs, skipped, nil
}

func parseRow(cell func(string) string) (service.BusinessInput, error) {
	input := service.BusinessInput{
		UEN:            cell("uen"),
		Name:           cell("business_name"),
		Category:       cell("business_category"),
		Description:    cell("description"),
		Address:        cell("address"),
		Phone:          cell("phone"),
		Website:        cell("website"),
		ImageURL:       cell("image_url"),
		PriceTier:      strings.ToLower(cell("price_tier")),
		Open247:        parseFlag(cell("open247")),
		OffersDelivery: parseFlag(cell("offers_delivery")),
		OffersPickup:   parseFlag(cell("offers_pickup")),
	}
	if input.UEN == "" || input.Name == "" {
		return input, fmt.Errorf("uen and business_name are required")
	}
	if input.PriceTier == "" {
		input.PriceTier = string(model.PriceTierMedium)
	}

	var err error
	if input.Latitude, err = parseCoord(cell("latitude")); err != nil {
		return input, fmt.Errorf("latitude: %w", err)
	}
	if input.Longitude, err = parseCoord(cell("longitude")); err != nil {
		return input, fmt.Errorf("longitude: %w", err)
	}

	if raw := cell("payment_options"); raw != "" {
		for _, opt := range strings.Split(raw, ",") {
			if opt = strings.ToLower(strings.TrimSpace(opt)); opt != "" {
				input.PaymentOptions = append(input.PaymentOptions, opt)
			}
		}
	}

	if !input.Open247 {
		for _, day := range weekdays {
			raw := cell(string(day))
			if raw == "" {
				continue
			}
			openAt, closeAt, ok := strings.Cut(raw, "-")
			if !ok {
				return input, fmt.Errorf("%s: expected HH:MM-HH:MM, got %q", day, raw)
			}
			if input.OpeningHours == nil {
				input.OpeningHours = make(map[string]model.HoursView)
			}
			input.OpeningHours[string(day)] = model.HoursView{
				Open:  strings.TrimSpace(openAt),
				Close: strings.TrimSpace(closeAt),
			}
		}
	}

	return input, nil
}

func parseFlag(s string) bool {
	switch strings.ToLower(s) {
	case "1", "y", "yes", "true":
		return true
	}
	return false
}

func parseCoord(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
