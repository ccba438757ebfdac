package lead

// Column is one Kanban lane definition.
type Column struct {
	ID    Status
	Title string
	Color string
}

// Columns is the fixed board layout.
var Columns = []Column{
	{ID: StatusNew, Title: "New", Color: "#3B82F6"},
	{ID: StatusContacted, Title: "Contacted", Color: "#EAB308"},
	{ID: StatusInterested, Title: "Interested", Color: "#A855F7"},
	{ID: StatusConverted, Title: "Converted", Color: "#22C55E"},
	{ID: StatusLost, Title: "Lost", Color: "#EF4444"},
}

// Lane is a column with the leads placed in it.
type Lane struct {
	Column Column
	Leads  []Lead
}

// Partition groups view into one lane per column, in column order. Every lead
// lands in exactly one lane; a lead whose status matches no column goes to the
// first lane. Lanes with no leads are kept.
func Partition(view []Lead, columns []Column) []Lane {
	lanes := make([]Lane, len(columns))
	index := make(map[Status]int, len(columns))
	for i, c := range columns {
		lanes[i] = Lane{Column: c, Leads: []Lead{}}
		if _, dup := index[c.ID]; !dup {
			index[c.ID] = i
		}
	}
	if len(lanes) == 0 {
		return lanes
	}
	for _, l := range view {
		i, ok := index[l.Status]
		if !ok {
			i = 0
		}
		lanes[i].Leads = append(lanes[i].Leads, l)
	}
	return lanes
}

// ColumnIndex returns the position of status in columns, or -1.
func ColumnIndex(columns []Column, status Status) int {
	for i, c := range columns {
		if c.ID == status {
			return i
		}
	}
	return -1
}
