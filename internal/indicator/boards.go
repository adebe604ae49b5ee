package indicator

import "moodcycle/internal/domain"

// BoardSummary groups limit-up rows by consecutive-board count.
type BoardSummary struct {
	First      int // == 1
	Second     int // == 2
	Third      int // == 3
	AboveThird int // >= 3, overlaps Third
	Max        int
}

// BoardStats counts limit-up rows per board tier. Rows without a board count
// are counted in no tier.
func BoardStats(limitUp []domain.LimitMoveRow) BoardSummary {
	var s BoardSummary
	for _, r := range limitUp {
		b := r.Board()
		switch b {
		case 0:
			continue
		case 1:
			s.First++
		case 2:
			s.Second++
		case 3:
			s.Third++
		}
		if b >= 3 {
			s.AboveThird++
		}
		if b > s.Max {
			s.Max = b
		}
	}
	return s
}
