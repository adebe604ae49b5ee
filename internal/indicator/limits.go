package indicator

// LimitSummary holds limit-move counts and the break rate.
type LimitSummary struct {
	LimitUp   int
	LimitDown int
	Break     int
	BreakRate float64 // percent, 0 when nothing touched the limit
}

// LimitStats sizes the classified subsets and derives
// break_rate = break / (limit_up + break) * 100.
func LimitStats(c Classified) LimitSummary {
	s := LimitSummary{
		LimitUp:   len(c.LimitUp),
		LimitDown: len(c.LimitDown),
		Break:     len(c.Break),
	}
	s.BreakRate = percent(s.Break, s.LimitUp+s.Break).ValueOrZero()
	return s
}
