package indicator

import "moodcycle/internal/domain"

// BreadthStats counts advancing and declining stocks.
type BreadthStats struct {
	Up    int // pct_chg > 0
	Down  int // pct_chg < 0
	Up5   int // pct_chg >= 5
	Down5 int // pct_chg <= -5
}

// Breadth counts quotes by percent change. Quotes without a finite percent
// change are ignored.
func Breadth(quotes []domain.QuoteRow) BreadthStats {
	var s BreadthStats
	for _, q := range quotes {
		pct := finite(q.PctChg)
		if !pct.Valid {
			continue
		}
		p := pct.Float64
		switch {
		case p > 0:
			s.Up++
		case p < 0:
			s.Down++
		}
		if p >= 5 {
			s.Up5++
		}
		if p <= -5 {
			s.Down5++
		}
	}
	return s
}
