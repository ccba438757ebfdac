package lead

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// Status is the pipeline stage of a lead.
type Status string

const (
	StatusNew        Status = "NEW"
	StatusContacted  Status = "CONTACTED"
	StatusInterested Status = "INTERESTED"
	StatusConverted  Status = "CONVERTED"
	StatusLost       Status = "LOST"
)

// Statuses lists every status in pipeline order.
var Statuses = []Status{StatusNew, StatusContacted, StatusInterested, StatusConverted, StatusLost}

var ErrInvalidStatus = errors.New("invalid lead status")

// ParseStatus accepts any letter case ("new", "New", "NEW").
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", ErrInvalidStatus
	}
	return st, nil
}

func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusContacted, StatusInterested, StatusConverted, StatusLost:
		return true
	}
	return false
}

// Label is the human readable column title.
func (s Status) Label() string {
	if !s.Valid() {
		return string(s)
	}
	v := strings.ToLower(string(s))
	return strings.ToUpper(v[:1]) + v[1:]
}

// Lead is a sales prospect as served by the backend.
type Lead struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone"`
	Source    string    `json:"source"`
	Status    Status    `json:"status"`
	Interest  string    `json:"interest,omitempty"`
	Location  string    `json:"location,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// wireLead mirrors Lead with loosely typed fields so a malformed record
// still decodes.
type wireLead struct {
	ID        json.RawMessage `json:"id"`
	Name      string          `json:"name"`
	Email     *string         `json:"email"`
	Phone     string          `json:"phone"`
	Source    string          `json:"source"`
	Status    string          `json:"status"`
	Interest  *string         `json:"interest"`
	Location  *string         `json:"location"`
	Notes     *string         `json:"notes"`
	CreatedAt string          `json:"createdAt"`
	UpdatedAt string          `json:"updatedAt"`
}

func (l *Lead) UnmarshalJSON(data []byte) error {
	var w wireLead
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*l = Lead{
		ID:        decodeID(w.ID),
		Name:      w.Name,
		Email:     deref(w.Email),
		Phone:     w.Phone,
		Source:    w.Source,
		Status:    Status(strings.ToUpper(strings.TrimSpace(w.Status))),
		Interest:  deref(w.Interest),
		Location:  deref(w.Location),
		Notes:     deref(w.Notes),
		CreatedAt: ParseTime(w.CreatedAt),
		UpdatedAt: ParseTime(w.UpdatedAt),
	}
	return nil
}

// decodeID accepts both string and numeric ids.
func decodeID(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTime parses the timestamp shapes the backend emits. Date-only and
// zone-less values are read as local time. Unparseable input yields the zero
// time.
func ParseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t
		}
	}
	return time.Time{}
}

// NewLead is the payload for creating a lead.
type NewLead struct {
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone"`
	Location string `json:"location,omitempty"`
	Source   string `json:"source"`
	Interest string `json:"interest,omitempty"`
}

var (
	ErrNameRequired  = errors.New("name is required")
	ErrPhoneRequired = errors.New("phone is required")
)

func (n NewLead) Validate() error {
	if strings.TrimSpace(n.Name) == "" {
		return ErrNameRequired
	}
	if strings.TrimSpace(n.Phone) == "" {
		return ErrPhoneRequired
	}
	return nil
}
