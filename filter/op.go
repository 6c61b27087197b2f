package filter

// Op represents the comparison operation of a column value filter.
type Op int

const (
	// OpEqual represents equality comparison.
	OpEqual Op = iota
	// OpNotEqual represents inequality comparison.
	OpNotEqual
	// OpGreater represents greater than comparison.
	OpGreater
	// OpLess represents less than comparison.
	OpLess
	// OpGreaterOrEqual represents greater than or equal comparison.
	OpGreaterOrEqual
	// OpLessOrEqual represents less than or equal comparison.
	OpLessOrEqual
)

func (op Op) String() string {
	switch op {
	case OpEqual:
		return "Equal"
	case OpNotEqual:
		return "NotEqual"
	case OpGreater:
		return "Greater"
	case OpLess:
		return "Less"
	case OpGreaterOrEqual:
		return "GreaterOrEqual"
	case OpLessOrEqual:
		return "LessOrEqual"
	default:
		return "Unknown"
	}
}

// holds reports whether a comparison result (as returned by bytes.Compare)
// satisfies the operation.
func (op Op) holds(cmp int) (bool, bool) {
	switch op {
	case OpEqual:
		return cmp == 0, true
	case OpNotEqual:
		return cmp != 0, true
	case OpGreater:
		return cmp > 0, true
	case OpLess:
		return cmp < 0, true
	case OpGreaterOrEqual:
		return cmp >= 0, true
	case OpLessOrEqual:
		return cmp <= 0, true
	default:
		return false, false
	}
}
