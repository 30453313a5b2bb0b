package entities

// EstimationScale is the fixed ordered card deck. Votes outside the scale
// are rejected before they reach the ledger.
var EstimationScale = []int{0, 1, 2, 3, 5, 8, 13, 21, 34, 55, 89}

// OnScale reports whether value is a playable card.
func OnScale(value int) bool {
	return scaleIndex(value) >= 0
}

// AdjacentOnScale reports whether a and b sit exactly one step apart on the
// scale. Values not on the scale are never adjacent.
func AdjacentOnScale(a int, b int) bool {
	ia := scaleIndex(a)
	ib := scaleIndex(b)
	if ia < 0 || ib < 0 {
		return false
	}
	diff := ia - ib
	return diff == 1 || diff == -1
}

func scaleIndex(value int) int {
	for i, card := range EstimationScale {
		if card == value {
			return i
		}
	}
	return -1
}
