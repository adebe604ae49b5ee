package indicator

import "moodcycle/internal/domain"

// Compute derives the indicator record for today. yesterday may be nil.
// Cross-day metrics are computed only when yesterday has limit-up rows;
// otherwise they stay undefined. Compute holds no state and never fails.
func Compute(today, yesterday *domain.Snapshot) domain.IndicatorRecord {
	if today == nil {
		today = &domain.Snapshot{}
	}
	rec := domain.IndicatorRecord{TradeDate: today.TradeDate}

	c := Classify(domain.JoinQuotes(today.Limits, today.Quotes))

	b := Breadth(today.Quotes)
	rec.UpCount, rec.DownCount = b.Up, b.Down
	rec.Up5Count, rec.Down5Count = b.Up5, b.Down5

	l := LimitStats(c)
	rec.LimitUpCount, rec.LimitDownCount = l.LimitUp, l.LimitDown
	rec.BreakCount, rec.BreakRate = l.Break, l.BreakRate

	bs := BoardStats(c.LimitUp)
	rec.FirstBoard, rec.SecondBoard, rec.ThirdBoard = bs.First, bs.Second, bs.Third
	rec.AboveThird, rec.MaxBoard = bs.AboveThird, bs.Max

	var prevQuotes []domain.QuoteRow
	if yesterday != nil {
		prevQuotes = yesterday.Quotes
	}
	a := Advanced(c.LimitUp, prevQuotes)
	rec.FanpaoCount, rec.LimitAmount, rec.SealAmount = a.Fanpao, a.LimitAmount, a.SealAmount

	sd := SameDay(c.LimitUp)
	rec.FirstRedRate, rec.FirstPremium = sd.First.RedRate, sd.First.Premium
	rec.SecondRedRate, rec.SecondPremium = sd.Second.RedRate, sd.Second.Premium
	rec.ThirdRedRate, rec.ThirdPremium = sd.ThirdPlus.RedRate, sd.ThirdPlus.Premium

	if yesterday == nil {
		return rec
	}
	prevUp := Classify(yesterday.Limits).LimitUp
	if len(prevUp) == 0 {
		return rec
	}

	nd := NextDay(prevUp, today.Quotes)
	rec.YesterdayFirstRedRate, rec.YesterdayFirstPremium = nd.First.RedRate, nd.First.Premium
	rec.YesterdaySecondRedRate, rec.YesterdaySecondPremium = nd.Second.RedRate, nd.Second.Premium
	rec.YesterdayThirdRedRate, rec.YesterdayThirdPremium = nd.Third.RedRate, nd.Third.Premium
	rec.YesterdayThirdPlusRedRate, rec.YesterdayThirdPlusPremium = nd.ThirdPlus.RedRate, nd.ThirdPlus.Premium

	p := Promotion(prevUp, c.LimitUp, today.Quotes, today.IsEmpty())
	rec.Advance1To2, rec.Advance2To3 = p.OneToTwo, p.TwoToThree
	rec.Advance3To4, rec.Advance3Plus = p.ThreeToFour, p.ThreePlus
	return rec
}
