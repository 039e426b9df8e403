package models

// UsageRecord counts the successful deductions performed on a kit.
type UsageRecord struct {
	Kit       string `json:"kit"`
	Frequency int    `json:"frequency"`
}

// UsageHistoryTable holds the usage records of a single equipment.
type UsageHistoryTable struct {
	Equipment Equipment     `json:"equipment"`
	Records   []UsageRecord `json:"records"`
}

// Index returns the position of kit in the table, or -1.
func (t UsageHistoryTable) Index(kit string) int {
	for i, record := range t.Records {
		if record.Kit == kit {
			return i
		}
	}
	return -1
}

// Frequency returns the counter for kit and whether a record exists.
func (t UsageHistoryTable) Frequency(kit string) (int, bool) {
	idx := t.Index(kit)
	if idx < 0 {
		return 0, false
	}
	return t.Records[idx].Frequency, true
}

// Clone returns a copy that shares no backing array with t.
func (t UsageHistoryTable) Clone() UsageHistoryTable {
	out := UsageHistoryTable{Equipment: t.Equipment}
	if t.Records != nil {
		out.Records = make([]UsageRecord, len(t.Records))
		copy(out.Records, t.Records)
	}
	return out
}
