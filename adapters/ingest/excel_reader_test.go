package ingest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/willpearse/bayesianflows/domain/core"
	"github.com/willpearse/bayesianflows/ports"
)

func writeWorkbook(t *testing.T, rows [][]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("Failed to write row %d: %v", i, err)
		}
	}

	path := filepath.Join(t.TempDir(), "flows.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("Failed to save workbook: %v", err)
	}
	return path
}

func TestExcelReaderRead(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{"Site", "Year", "Flow"},
		{"colorado", 1989, 210.5},
		{"columbia", 1990, 560.0},
		{"colorado", 1990, 205.0},
		{"snake", 1991, 90.25},
	})

	reader := NewExcelReader("")
	dataset, err := reader.Read(context.Background(), path, 1990)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	if dataset.GroupCount != 3 {
		t.Fatalf("Expected 3 sites, got %d", dataset.GroupCount)
	}
	// First-appearance order fixes the label -> id mapping.
	wantLabels := []core.SiteKey{"colorado", "columbia", "snake"}
	for i, want := range wantLabels {
		if dataset.Labels[i] != want {
			t.Errorf("Label %d is %q, expected %q", i, dataset.Labels[i], want)
		}
	}

	first := dataset.Observations[0]
	if first.GroupID != 0 || first.Year != 1989 || first.Flow != 210.5 {
		t.Errorf("Unexpected first observation %+v", first)
	}
	// The hinge transform is applied during ingestion.
	if first.YearCentered != -1 {
		t.Errorf("Expected centered year -1, got %v", first.YearCentered)
	}
	if err := dataset.Validate(); err != nil {
		t.Errorf("Ingested dataset failed validation: %v", err)
	}
}

func TestExcelReaderHeaderErrors(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{"Site", "Year", "Discharge"},
		{"colorado", 1989, 210.5},
	})

	reader := NewExcelReader("")
	_, err := reader.Read(context.Background(), path, 1990)
	if !core.IsConfigurationError(err) {
		t.Errorf("Expected configuration error for missing flow column, got %v", err)
	}
}

func TestExcelReaderEmpty(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{"site", "year", "flow"},
	})

	reader := NewExcelReader("")
	_, err := reader.Read(context.Background(), path, 1990)
	if !core.IsConfigurationError(err) {
		t.Errorf("Expected configuration error for header-only workbook, got %v", err)
	}
}

func TestExcelReaderBadValues(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{"site", "year", "flow"},
		{"colorado", "nineteen-eighty-nine", 210.5},
	})

	reader := NewExcelReader("")
	if _, err := reader.Read(context.Background(), path, 1990); err == nil {
		t.Error("Expected unparseable year to fail")
	}
}

func TestAssembleStableMapping(t *testing.T) {
	records := []ports.FlowRecord{
		{Site: "b", Year: 2000, Flow: 1},
		{Site: "a", Year: 2001, Flow: 2},
		{Site: "b", Year: 2002, Flow: 3},
	}

	first, err := Assemble(records, 1990)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	second, err := Assemble(records, 1990)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}

	// Identical input order gives an identical mapping.
	for i := range first.Observations {
		if first.Observations[i].GroupID != second.Observations[i].GroupID {
			t.Fatalf("Observation %d mapped differently across assemblies", i)
		}
	}
	if first.Observations[0].GroupID != 0 || first.Observations[1].GroupID != 1 {
		t.Errorf("Expected first-appearance ids, got %d then %d",
			first.Observations[0].GroupID, first.Observations[1].GroupID)
	}
}

func TestAssembleEmpty(t *testing.T) {
	if _, err := Assemble(nil, 1990); !core.IsConfigurationError(err) {
		t.Errorf("Expected configuration error for empty records, got %v", err)
	}
}
