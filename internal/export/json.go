package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sadopc/leadr/internal/lead"
)

type jsonExport struct {
	ExportedAt string     `json:"exported_at"`
	Count      int        `json:"count"`
	Leads      []jsonLead `json:"leads"`
}

type jsonLead struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone"`
	Source    string `json:"source"`
	Status    string `json:"status"`
	Interest  string `json:"interest,omitempty"`
	Location  string `json:"location,omitempty"`
	Notes     string `json:"notes,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// WriteJSON writes the leads as an indented document into dir and returns
// the file path.
func WriteJSON(dir string, leads []lead.Lead, now time.Time) (string, error) {
	export := jsonExport{
		ExportedAt: now.UTC().Format(time.RFC3339),
		Count:      len(leads),
		Leads:      make([]jsonLead, 0, len(leads)),
	}

	for _, l := range leads {
		export.Leads = append(export.Leads, jsonLead{
			ID:        l.ID,
			Name:      l.Name,
			Email:     l.Email,
			Phone:     l.Phone,
			Source:    l.Source,
			Status:    string(l.Status),
			Interest:  l.Interest,
			Location:  l.Location,
			Notes:     l.Notes,
			CreatedAt: formatTimestamp(l.CreatedAt),
			UpdatedAt: formatTimestamp(l.UpdatedAt),
		})
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal json: %w", err)
	}

	path := filepath.Join(dir, FileName("json", now))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write json file: %w", err)
	}
	return path, nil
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
