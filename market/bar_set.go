package market

import "time"

// BarSet is the output of the aligner: the merged bar sequence and
// bookkeeping about how it was produced.
type BarSet struct {
	Exchange string
	Market   string
	Bars     []Bar

	// Filled[i] is true when bar i had no price within tolerance and its
	// OHLC fields were carried forward from an earlier bar.
	Filled []bool

	// Dropped counts leading funding observations discarded because no
	// price had been seen yet.
	Dropped int
}

// AlignStats summarizes a BarSet.
type AlignStats struct {
	Bars       int
	Filled     int
	Dropped    int
	LongestGap time.Duration
	Start      time.Time
	End        time.Time
}

// Len returns the number of bars.
func (bs *BarSet) Len() int {
	return len(bs.Bars)
}

// Stats walks the set once and reports fill counts and the longest spacing
// between consecutive bars.
func (bs *BarSet) Stats() AlignStats {
	s := AlignStats{
		Bars:    len(bs.Bars),
		Dropped: bs.Dropped,
	}
	if len(bs.Bars) == 0 {
		return s
	}

	s.Start = bs.Bars[0].Time()
	s.End = bs.Bars[len(bs.Bars)-1].Time()

	for i := range bs.Bars {
		if i < len(bs.Filled) && bs.Filled[i] {
			s.Filled++
		}
		if i == 0 {
			continue
		}
		gap := time.Duration(bs.Bars[i].Timestamp-bs.Bars[i-1].Timestamp) * time.Second
		if gap > s.LongestGap {
			s.LongestGap = gap
		}
	}
	return s
}
