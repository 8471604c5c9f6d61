// Package export writes the obras and the month's dashboard as an XLSX workbook.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/jordanlanch/obramap/pkg/dashboard"
	"github.com/jordanlanch/obramap/pkg/models"
	"github.com/xuri/excelize/v2"
)

// Sheet names.
const (
	SheetObras     = "Obras"
	SheetDashboard = "Dashboard"
)

// ContentType is the media type of the workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var obraHeaders = []string{
	"ID", "Nome", "Construtora", "Etapa", "Fase", "Data de Cadastro", "Última Atualização",
	"Latitude", "Longitude", "Contatos", "Tarefas Pendentes", "Propostas", "Valor em Propostas",
}

// Filename is the download name for a month's export.
func Filename(month string) string {
	return fmt.Sprintf("obramap-%s.xlsx", month)
}

// WriteWorkbook writes an "Obras" sheet with one row per obra and a
// "Dashboard" sheet with the figures of one month.
func WriteWorkbook(w io.Writer, obras []models.Obra, figures dashboard.Figures) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(SheetObras)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetDashboard); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to drop default sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}

	if err := writeObras(f, obras, headerStyle); err != nil {
		return err
	}
	if err := writeDashboard(f, figures, headerStyle); err != nil {
		return err
	}

	// DeleteSheet shifts indexes, so look the active sheet up again.
	if index, err = f.GetSheetIndex(SheetObras); err == nil && index >= 0 {
		f.SetActiveSheet(index)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func writeHeader(f *excelize.File, sheet string, row int, headers []string, style int) error {
	values := make([]interface{}, len(headers))
	for i, h := range headers {
		values[i] = h
	}
	if err := writeRow(f, sheet, row, values); err != nil {
		return err
	}
	first, _ := excelize.CoordinatesToCellName(1, row)
	last, _ := excelize.CoordinatesToCellName(len(headers), row)
	return f.SetCellStyle(sheet, first, last, style)
}

func writeObras(f *excelize.File, obras []models.Obra, headerStyle int) error {
	if err := writeHeader(f, SheetObras, 1, obraHeaders, headerStyle); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, o := range obras {
		lastUpdated := ""
		if o.LastUpdated != nil {
			lastUpdated = o.LastUpdated.UTC().Format(time.RFC3339)
		}
		pending := 0
		for _, t := range o.Tasks {
			if t.Status == models.TaskPending {
				pending++
			}
		}
		total := 0.0
		for _, p := range o.Proposals {
			total += p.Value.InexactFloat64()
		}

		row := []interface{}{
			o.ID, o.Name, o.Builder, string(o.Stage), string(o.Phase), o.RegisteredOn, lastUpdated,
			o.Lat, o.Lng, len(o.Contacts), pending, len(o.Proposals), total,
		}
		if err := writeRow(f, SheetObras, i+2, row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	last, _ := excelize.ColumnNumberToName(len(obraHeaders))
	return f.SetColWidth(SheetObras, "A", last, 18)
}

func writeDashboard(f *excelize.File, figures dashboard.Figures, headerStyle int) error {
	row := 1
	if err := writeRow(f, SheetDashboard, row, []interface{}{"Mês", figures.Month}); err != nil {
		return err
	}

	row += 2
	if err := writeHeader(f, SheetDashboard, row, []string{"Meta", "Realizado", "Objetivo", "Atingido (%)"}, headerStyle); err != nil {
		return err
	}
	goals := []struct {
		label string
		a     dashboard.Attainment
	}{
		{"Vendas", figures.Sales},
		{"Visitas", figures.Visits},
		{"Ligações", figures.Calls},
	}
	for _, pc := range figures.ClosedByPartner {
		goals = append(goals, struct {
			label string
			a     dashboard.Attainment
		}{"Vendas " + string(pc.Partner), pc.Attainment})
	}
	for _, g := range goals {
		row++
		values := []interface{}{g.label, g.a.Total.InexactFloat64(), g.a.Target.InexactFloat64(), g.a.Raw * 100}
		if err := writeRow(f, SheetDashboard, row, values); err != nil {
			return err
		}
	}

	row += 2
	if err := writeHeader(f, SheetDashboard, row, []string{"Etapa", "Obras"}, headerStyle); err != nil {
		return err
	}
	for _, sc := range figures.Stages {
		row++
		if err := writeRow(f, SheetDashboard, row, []interface{}{string(sc.Stage), sc.Count}); err != nil {
			return err
		}
	}

	row += 2
	if err := writeHeader(f, SheetDashboard, row, []string{"Representada", "Propostas", "Valor"}, headerStyle); err != nil {
		return err
	}
	for _, pp := range figures.Proposals {
		row++
		if err := writeRow(f, SheetDashboard, row, []interface{}{string(pp.Partner), pp.Count, pp.Value.InexactFloat64()}); err != nil {
			return err
		}
	}

	return f.SetColWidth(SheetDashboard, "A", "D", 20)
}
