package filter

// Type represents the kind of a scan filter.
type Type int

const (
	// TypePage limits the number of rows returned by a scan.
	TypePage Type = iota
	// TypePrefix restricts a scan to row keys sharing a prefix.
	TypePrefix
	// TypeColumnValue compares a column value of every scanned row.
	TypeColumnValue
	// TypeList combines filters conjunctively.
	TypeList
)

func (t Type) String() string {
	switch t {
	case TypePage:
		return "Page"
	case TypePrefix:
		return "Prefix"
	case TypeColumnValue:
		return "ColumnValue"
	case TypeList:
		return "List"
	default:
		return "Unknown"
	}
}
