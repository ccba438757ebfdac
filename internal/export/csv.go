package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sadopc/leadr/internal/lead"
)

var csvHeader = []string{"Name", "Email", "Phone", "Source", "Status", "Interest", "Location", "Notes", "Created Date"}

// ToCSV renders leads with every field quoted and embedded quotes doubled.
// Rows are joined by "\n" with no trailing newline.
func ToCSV(leads []lead.Lead) string {
	rows := make([]string, 0, len(leads)+1)
	header := make([]string, len(csvHeader))
	for i, h := range csvHeader {
		header[i] = quote(h)
	}
	rows = append(rows, strings.Join(header, ","))
	for _, l := range leads {
		fields := []string{
			l.Name,
			l.Email,
			l.Phone,
			l.Source,
			string(l.Status),
			l.Interest,
			l.Location,
			l.Notes,
			formatDate(l.CreatedAt),
		}
		for i, f := range fields {
			fields[i] = quote(f)
		}
		rows = append(rows, strings.Join(fields, ","))
	}
	return strings.Join(rows, "\n")
}

// WriteCSV writes ToCSV(leads) into dir and returns the file path.
func WriteCSV(dir string, leads []lead.Lead, now time.Time) (string, error) {
	path := filepath.Join(dir, FileName("csv", now))
	if err := os.WriteFile(path, []byte(ToCSV(leads)), 0o644); err != nil {
		return "", fmt.Errorf("write csv file: %w", err)
	}
	return path, nil
}

// FileName is leads_export_<date>.<ext>, dated by the UTC calendar day.
func FileName(ext string, now time.Time) string {
	return fmt.Sprintf("leads_export_%s.%s", now.UTC().Format("2006-01-02"), ext)
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// formatDate renders the local calendar date as M/D/YYYY.
func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("1/2/2006")
}
