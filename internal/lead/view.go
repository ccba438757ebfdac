package lead

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

type SortKey string

const (
	SortByName      SortKey = "name"
	SortByCreatedAt SortKey = "createdAt"
	SortByStatus    SortKey = "status"
)

var SortKeys = []SortKey{SortByName, SortByCreatedAt, SortByStatus}

type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

// All matches every value for the source and status filters.
const All = "all"

// Criteria describes the derived view shown to the user.
type Criteria struct {
	Search string
	Source string
	Status string
	Window Window
	SortBy SortKey
	Order  SortOrder
}

// DefaultCriteria shows newest leads first.
func DefaultCriteria() Criteria {
	return Criteria{
		Source: All,
		Status: All,
		SortBy: SortByCreatedAt,
		Order:  Desc,
	}
}

// ToggleSort flips the order when key is already active, otherwise switches
// to key ascending.
func (c Criteria) ToggleSort(key SortKey) Criteria {
	if c.SortBy == key {
		if c.Order == Desc {
			c.Order = Asc
		} else {
			c.Order = Desc
		}
		return c
	}
	c.SortBy = key
	c.Order = Asc
	return c
}

func ParseSortKey(s string) (SortKey, error) {
	for _, k := range SortKeys {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown sort key %q", s)
}

func ParseSortOrder(s string) (SortOrder, error) {
	switch SortOrder(s) {
	case Asc, Desc:
		return SortOrder(s), nil
	}
	return "", fmt.Errorf("unknown sort order %q", s)
}

// MatchesSearch is a case-insensitive substring test against name, email and
// phone.
func MatchesSearch(l Lead, term string) bool {
	if term == "" {
		return true
	}
	term = strings.ToLower(term)
	return strings.Contains(strings.ToLower(l.Name), term) ||
		(l.Email != "" && strings.Contains(strings.ToLower(l.Email), term)) ||
		strings.Contains(strings.ToLower(l.Phone), term)
}

func matchesTag(value, filter string) bool {
	return filter == "" || filter == All || value == filter
}

// Matches reports whether l passes every predicate of c.
func (c Criteria) Matches(l Lead) bool {
	return MatchesSearch(l, c.Search) &&
		matchesTag(l.Source, c.Source) &&
		matchesTag(string(l.Status), c.Status) &&
		(c.Window.IsZero() || c.Window.Contains(l.CreatedAt))
}

// DeriveView filters and sorts leads. The input slice is left untouched.
func DeriveView(leads []Lead, c Criteria) []Lead {
	out := make([]Lead, 0, len(leads))
	for _, l := range leads {
		if c.Matches(l) {
			out = append(out, l)
		}
	}

	slices.SortStableFunc(out, comparator(c.SortBy))
	if c.Order == Desc {
		slices.Reverse(out)
	}
	return out
}

func comparator(key SortKey) func(a, b Lead) int {
	switch key {
	case SortByName:
		col := collate.New(language.Und)
		return func(a, b Lead) int { return col.CompareString(a.Name, b.Name) }
	case SortByStatus:
		return func(a, b Lead) int { return strings.Compare(string(a.Status), string(b.Status)) }
	default:
		return func(a, b Lead) int { return a.CreatedAt.Compare(b.CreatedAt) }
	}
}
