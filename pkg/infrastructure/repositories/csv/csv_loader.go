// Package csv loads planner seed data (capacity calendar, BOM links, routing
// table, stock levels) from CSV files.
package csv

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lfeng/aps/pkg/domain/entities"
)

// Loader handles loading planner seed data from CSV files.
type Loader struct{}

// NewLoader creates a new CSV loader.
func NewLoader() *Loader {
	return &Loader{}
}

// LoadCapacity loads the capacity calendar from a CSV file.
// Header: process,date,shift_hours,workstations
func (l *Loader) LoadCapacity(filename string) ([]*entities.CapacityRecord, error) {
	records, err := readAll(filename, []string{"process", "date", "shift_hours", "workstations"})
	if err != nil {
		return nil, fmt.Errorf("capacity CSV: %w", err)
	}

	var out []*entities.CapacityRecord
	for i, record := range records {
		date, err := time.Parse("2006-01-02", record[1])
		if err != nil {
			return nil, fmt.Errorf("capacity CSV row %d: invalid date %q (expected YYYY-MM-DD)", i+2, record[1])
		}
		shiftHours, err := decimal.NewFromString(record[2])
		if err != nil {
			return nil, fmt.Errorf("capacity CSV row %d: invalid shift_hours %q", i+2, record[2])
		}
		workstations, err := strconv.Atoi(record[3])
		if err != nil {
			return nil, fmt.Errorf("capacity CSV row %d: invalid workstations %q", i+2, record[3])
		}

		rec, err := entities.NewCapacityRecord(entities.ProcessName(record[0]), date, shiftHours, workstations)
		if err != nil {
			return nil, fmt.Errorf("capacity CSV row %d: %w", i+2, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// BOMLine pairs a parent key with one of its child links.
type BOMLine struct {
	ParentKey string
	Link      *entities.BOMChildLink
}

// LoadBOM loads BOM child links from a CSV file.
// Header: parent_code,child_code,child_name,standard_usage,output_process,source,lead_time_days
func (l *Loader) LoadBOM(filename string) ([]*BOMLine, error) {
	records, err := readAll(filename, []string{"parent_code", "child_code", "child_name", "standard_usage", "output_process", "source", "lead_time_days"})
	if err != nil {
		return nil, fmt.Errorf("BOM CSV: %w", err)
	}

	var out []*BOMLine
	for i, record := range records {
		usage, err := decimal.NewFromString(record[3])
		if err != nil {
			return nil, fmt.Errorf("BOM CSV row %d: invalid standard_usage %q", i+2, record[3])
		}

		var source entities.SourceType
		switch strings.ToLower(record[5]) {
		case "make":
			source = entities.MakeInternal
		case "buy":
			source = entities.BuyExternal
		default:
			return nil, fmt.Errorf("BOM CSV row %d: invalid source %q (expected 'make' or 'buy')", i+2, record[5])
		}

		leadTimeDays := 0
		if record[6] != "" {
			leadTimeDays, err = strconv.Atoi(record[6])
			if err != nil {
				return nil, fmt.Errorf("BOM CSV row %d: invalid lead_time_days %q", i+2, record[6])
			}
		}

		link, err := entities.NewBOMChildLink(entities.MaterialCode(record[1]), record[2], usage, entities.ProcessName(record[4]), source)
		if err != nil {
			return nil, fmt.Errorf("BOM CSV row %d: %w", i+2, err)
		}
		link.LeadTimeDays = leadTimeDays

		out = append(out, &BOMLine{ParentKey: record[0], Link: link})
	}
	return out, nil
}

// LoadRoutes loads the process routing table from a CSV file.
// Header: process,store_id,code_prefix,units_per_hour,min_remaining,enabled
func (l *Loader) LoadRoutes(filename string) ([]*entities.ProcessRoute, error) {
	records, err := readAll(filename, []string{"process", "store_id", "code_prefix", "units_per_hour", "min_remaining", "enabled"})
	if err != nil {
		return nil, fmt.Errorf("routing CSV: %w", err)
	}

	var out []*entities.ProcessRoute
	for i, record := range records {
		unitsPerHour, err := decimal.NewFromString(record[3])
		if err != nil {
			return nil, fmt.Errorf("routing CSV row %d: invalid units_per_hour %q", i+2, record[3])
		}
		minRemaining := decimal.Zero
		if record[4] != "" {
			minRemaining, err = decimal.NewFromString(record[4])
			if err != nil {
				return nil, fmt.Errorf("routing CSV row %d: invalid min_remaining %q", i+2, record[4])
			}
		}
		enabled, err := strconv.ParseBool(record[5])
		if err != nil {
			return nil, fmt.Errorf("routing CSV row %d: invalid enabled %q", i+2, record[5])
		}

		route, err := entities.NewProcessRoute(entities.ProcessName(record[0]), record[1], record[2], unitsPerHour, enabled)
		if err != nil {
			return nil, fmt.Errorf("routing CSV row %d: %w", i+2, err)
		}
		route.MinRemaining = minRemaining
		out = append(out, route)
	}
	return out, nil
}

// StockLine is one parsed stock row.
type StockLine struct {
	Material entities.MaterialCode
	Quantity entities.Quantity
}

// LoadStock loads available stock levels from a CSV file.
// Header: material_code,quantity
func (l *Loader) LoadStock(filename string) ([]*StockLine, error) {
	records, err := readAll(filename, []string{"material_code", "quantity"})
	if err != nil {
		return nil, fmt.Errorf("stock CSV: %w", err)
	}

	var out []*StockLine
	for i, record := range records {
		qty, err := strconv.ParseInt(record[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("stock CSV row %d: invalid quantity %q", i+2, record[1])
		}
		out = append(out, &StockLine{
			Material: entities.MaterialCode(record[0]),
			Quantity: entities.Quantity(qty),
		})
	}
	return out, nil
}

// readAll opens a CSV file, validates its header, and returns its data rows.
func readAll(filename string, expectedHeader []string) ([][]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", filename, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}

	if len(records) < 2 {
		return nil, fmt.Errorf("%s must have header and at least one data row", filename)
	}

	if !validateHeader(records[0], expectedHeader) {
		return nil, fmt.Errorf("%s header mismatch. Expected: %v, Got: %v", filename, expectedHeader, records[0])
	}

	for i, record := range records[1:] {
		if len(record) != len(expectedHeader) {
			return nil, fmt.Errorf("%s row %d: expected %d columns, got %d", filename, i+2, len(expectedHeader), len(record))
		}
	}

	return records[1:], nil
}

func validateHeader(actual, expected []string) bool {
	if len(actual) != len(expected) {
		return false
	}
	for i, col := range expected {
		if strings.ToLower(strings.TrimSpace(actual[i])) != col {
			return false
		}
	}
	return true
}
