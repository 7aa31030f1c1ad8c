// Package export writes a roster as CSV, JSON or a printable PDF table.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/kilianp07/rosterplan/core/model"
	"github.com/kilianp07/rosterplan/core/planner"
)

// Format selects an output encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatPDF  Format = "pdf"
)

// Columns is the header of the roster table.
var Columns = []string{
	"session_id", "date", "location_id", "location_name", "doctor_id",
	"doctor_name", "start_time", "end_time", "required_skill", "room",
}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatJSON, FormatPDF:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q", s)
	}
}

// FormatFromPath infers the format from a file extension, defaulting to CSV.
func FormatFromPath(path string) Format {
	if f, err := ParseFormat(strings.TrimPrefix(filepath.Ext(path), ".")); err == nil {
		return f
	}
	return FormatCSV
}

// Document is the JSON representation of a planning result.
type Document struct {
	RunID     string        `json:"run_id"`
	Status    string        `json:"status"`
	Objective int           `json:"objective"`
	Bound     *float64      `json:"bound,omitempty"`
	Rows      []planner.Row `json:"rows"`
}

// Write renders r in format f.
func Write(w io.Writer, f Format, snap *model.Snapshot, r *planner.Roster) error {
	rows := r.Rows(snap)
	switch f {
	case FormatCSV:
		return WriteCSV(w, rows)
	case FormatJSON:
		return WriteJSON(w, r, rows)
	case FormatPDF:
		title := fmt.Sprintf("Roster %s (%s, objective %d)", r.RunID, r.Status, r.Objective)
		return WritePDF(w, title, rows)
	default:
		return fmt.Errorf("unknown output format %q", f)
	}
}

func record(r planner.Row) []string {
	return []string{
		r.SessionID, r.Date.String(), r.LocationID, r.LocationName, r.DoctorID,
		r.DoctorName, r.Start.String(), r.End.String(), r.RequiredSkill, r.Room,
	}
}

// WriteCSV writes the roster rows with the Columns header.
func WriteCSV(w io.Writer, rows []planner.Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(record(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the roster summary and its rows.
func WriteJSON(w io.Writer, r *planner.Roster, rows []planner.Row) error {
	doc := Document{RunID: r.RunID, Status: r.Status.String(), Objective: r.Objective, Rows: rows}
	if rows == nil {
		doc.Rows = []planner.Row{}
	}
	if r.HasBound {
		b := r.Bound
		doc.Bound = &b
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// WritePDF renders the rows as an A4 landscape table.
func WritePDF(w io.Writer, title string, rows []planner.Row) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, title, "", 1, "C", false, 0, "")
		pdf.Ln(5)
	}

	colWidth := 277.0 / float64(len(Columns))
	pdf.SetFont("Arial", "B", 8)
	for _, h := range Columns {
		pdf.CellFormat(colWidth, 8, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 8)
	for _, r := range rows {
		for _, v := range record(r) {
			pdf.CellFormat(colWidth, 7, v, "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}
