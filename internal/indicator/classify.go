package indicator

import "moodcycle/internal/domain"

// Classified is a day's limit-move rows partitioned by tag.
type Classified struct {
	LimitUp   []domain.LimitMoveRow
	LimitDown []domain.LimitMoveRow
	Break     []domain.LimitMoveRow
}

// Classify partitions rows by tag. Rows with an empty or unknown tag are
// dropped.
func Classify(rows []domain.LimitMoveRow) Classified {
	var c Classified
	for _, r := range rows {
		switch r.Tag {
		case domain.LimitUp:
			c.LimitUp = append(c.LimitUp, r)
		case domain.LimitDown:
			c.LimitDown = append(c.LimitDown, r)
		case domain.BreakBoard:
			c.Break = append(c.Break, r)
		}
	}
	return c
}
