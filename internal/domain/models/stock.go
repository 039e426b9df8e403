package models

// Equipment identifies a sequencing instrument category. Every table is scoped to one.
type Equipment string

func (e Equipment) String() string { return string(e) }

// StockEntry is one kit line of an equipment's stock table.
type StockEntry struct {
	Kit      string `json:"kit"`
	Quantity int    `json:"quantity"`
}

// StockTable holds the ordered stock entries of a single equipment.
type StockTable struct {
	Equipment Equipment    `json:"equipment"`
	Entries   []StockEntry `json:"entries"`
}

// Index returns the position of kit in the table, or -1.
func (t StockTable) Index(kit string) int {
	for i, entry := range t.Entries {
		if entry.Kit == kit {
			return i
		}
	}
	return -1
}

// Total sums every entry quantity.
func (t StockTable) Total() int {
	var total int
	for _, entry := range t.Entries {
		total += entry.Quantity
	}
	return total
}

// Kits lists the kit names in table order.
func (t StockTable) Kits() []string {
	kits := make([]string, 0, len(t.Entries))
	for _, entry := range t.Entries {
		kits = append(kits, entry.Kit)
	}
	return kits
}

// Clone returns a copy that shares no backing array with t.
func (t StockTable) Clone() StockTable {
	out := StockTable{Equipment: t.Equipment}
	if t.Entries != nil {
		out.Entries = make([]StockEntry, len(t.Entries))
		copy(out.Entries, t.Entries)
	}
	return out
}
