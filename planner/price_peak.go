package planner

import (
	"sort"

	"github.com/gridsmith/energyplanner/nordpool"
)

// The price-peak strategy looks for disjoint expensive windows (discharge
// candidates) and cheap windows (charge candidates) of fixed width, pairs
// each discharge window with a preceding charge window whose average price
// beats it by at least the configured efficiency factor, and schedules
// everything outside a matched pair as the configured in-between state.
//
// Window selection is greedy best-window-first over all sliding windows.
// This is a heuristic, not a global optimum: battery cycling cost dominates
// the marginal gain an exhaustive matching could add.

// extensionContext is how many extra quarter-hours on each side of a
// selected window are inspected when re-picking the extreme quarter-hours,
// so the window can capture the true local extremum span.
const extensionContext = 2

func planPricePeakDay(points []nordpool.PricePoint, cfg dayConfig) []ScheduleSegment {
	if len(points) == 0 {
		return nil
	}

	prices := make([]float64, len(points))
	for i, point := range points {
		prices[i] = point.Value
	}

	dischargeSize := quarterCount(cfg.dischargeHours, len(prices))
	chargeSize := quarterCount(cfg.chargeHours, len(prices))
	if dischargeSize == 0 || chargeSize == 0 {
		return nil
	}

	dischargePeriods := selectPeakWindows(prices, dischargeSize, chargeSize, false)
	chargePeriods := selectPeakWindows(prices, chargeSize, dischargeSize, true)

	matched := matchChargeDischargePeriods(prices, chargePeriods, dischargePeriods, cfg.efficiencyFactor)

	// Paint each quarter-hour with its resolved role, then coalesce runs
	// into segments.
	const (
		roleInbetween = 'p'
		roleCharge    = 'c'
		roleDischarge = 'd'
	)
	roles := make([]byte, len(prices))
	for i := range roles {
		roles[i] = roleInbetween
	}
	for _, pair := range matched {
		for _, i := range pair.charge {
			roles[i] = roleCharge
		}
		for _, i := range pair.discharge {
			roles[i] = roleDischarge
		}
	}

	var schedule []ScheduleSegment
	var prev byte
	for i, role := range roles {
		if role == prev {
			continue
		}
		prev = role
		if len(schedule) > 0 {
			schedule[len(schedule)-1].End = points[i].Start
		}
		segment := ScheduleSegment{Start: points[i].Start}
		switch role {
		case roleCharge:
			segment.State = cfg.cheapState
			segment.Soc = cfg.maxSoc
		case roleDischarge:
			segment.State = cfg.expensiveState
			segment.Soc = cfg.shutdownSoc
		default:
			segment.State = cfg.inbetweenState
			segment.Soc = cfg.maxSoc
		}
		schedule = append(schedule, segment)
	}
	if len(schedule) > 0 {
		schedule[len(schedule)-1].End = points[len(points)-1].End
	}

	return schedule
}

// selectPeakWindows returns disjoint windows of `size` quarter-hours in
// greedy best-first order: all sliding windows are ranked by aggregate price
// (ascending when cheap, descending otherwise) and accepted when they do not
// touch an already-used index. Each accepted window is extended outward
// along the monotonic price slope, then surrounded by a guard band the width
// of the opposite window type so charge and discharge windows cannot sit
// back to back. Finally each window is re-centred on the `size` most extreme
// quarter-hours within a small context around it.
func selectPeakWindows(prices []float64, size, guard int, cheap bool) [][]int {
	if size <= 0 || len(prices) < size {
		return nil
	}

	// against reports that v breaks the slope we are following: prices
	// rising again while walking away from a peak, or falling again while
	// walking away from a trough.
	against := func(v, reference float64) bool {
		if cheap {
			return v < reference
		}
		return v > reference
	}

	type candidate struct {
		total float64
		start int
	}
	candidates := make([]candidate, 0, len(prices)-size+1)
	for i := 0; i+size <= len(prices); i++ {
		total := 0.0
		for _, v := range prices[i : i+size] {
			total += v
		}
		candidates = append(candidates, candidate{total: total, start: i})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if cheap {
			return candidates[i].total < candidates[j].total
		}
		return candidates[i].total > candidates[j].total
	})

	used := make([]bool, len(prices))
	var starts []int
	for _, c := range candidates {
		overlaps := false
		for i := c.start; i < c.start+size; i++ {
			if used[i] {
				overlaps = true
				break
			}
		}
		if overlaps {
			continue
		}

		// Extend to the left while the slope keeps moving away from the
		// extremum; tolerate up to two contrary quarter-hours before giving
		// up, so a single noisy point does not cut the extension short.
		j := 0
		reference := prices[c.start]
		for {
			j++
			if c.start-j < 0 {
				break
			}
			if against(prices[c.start-j], reference) {
				if c.start-j-1 < 0 {
					break
				}
				if against(prices[c.start-j-1], reference) {
					if c.start-j-2 < 0 {
						break
					}
					if against(prices[c.start-j-2], reference) {
						break
					}
				}
			}
			reference = prices[c.start-j]
			used[c.start-j] = true
		}

		// Guard band sized to the opposite window type on both sides.
		lo := c.start - guard
		if lo < 0 {
			lo = 0
		}
		hi := c.start + size + guard
		if hi > len(prices) {
			hi = len(prices)
		}
		for i := lo; i < hi; i++ {
			used[i] = true
		}

		// Extend to the right, same slope rule.
		if c.start+size < len(prices) {
			j = 0
			reference = prices[c.start+size]
			for {
				j++
				if c.start+size+j >= len(prices) {
					break
				}
				if against(prices[c.start+size+j], reference) {
					if c.start+size+j+1 >= len(prices) {
						break
					}
					if against(prices[c.start+size+j+1], reference) {
						if c.start+size+j+2 >= len(prices) {
							break
						}
						if against(prices[c.start+size+j+2], reference) {
							break
						}
					}
				}
				reference = prices[c.start+size+j]
				used[c.start+size+j] = true
			}
		}

		starts = append(starts, c.start)
	}

	// Re-pick the `size` most extreme quarter-hours in a small context
	// around each selected window.
	var periods [][]int
	for _, start := range starts {
		lo := start - extensionContext
		if lo < 0 {
			lo = 0
		}
		hi := start + size + extensionContext
		if hi > len(prices) {
			hi = len(prices)
		}

		indices := make([]int, 0, hi-lo)
		for i := lo; i < hi; i++ {
			indices = append(indices, i)
		}
		sort.SliceStable(indices, func(a, b int) bool {
			if cheap {
				return prices[indices[a]] < prices[indices[b]]
			}
			return prices[indices[a]] > prices[indices[b]]
		})
		period := indices[:size]
		sort.Ints(period)
		periods = append(periods, append([]int(nil), period...))
	}

	return periods
}

// matchedPair couples one charge window with the discharge window it feeds,
// both as sorted quarter-hour index lists.
type matchedPair struct {
	charge    []int
	discharge []int
}

// matchChargeDischargePeriods pairs discharge windows with preceding charge
// windows whose average price is lower by at least the efficiency factor
// (charge average × factor < discharge average). Conflicts are resolved by
// dropping the window that was selected later (the weaker extremum) and
// re-running the match on what remains; the recursion terminates because
// every retry removes at least one window.
func matchChargeDischargePeriods(prices []float64, chargePeriods, dischargePeriods [][]int, efficiencyFactor float64) []matchedPair {
	// Drop any window that overlaps an earlier-selected one from the other
	// set; interleave the two lists in selection order so earlier selections
	// win regardless of which set they come from.
	occupancy := make([]int, len(prices))
	rounds := len(chargePeriods)
	if len(dischargePeriods) > rounds {
		rounds = len(dischargePeriods)
	}
	for i := 0; i < rounds; i++ {
		if i < len(chargePeriods) {
			for _, j := range chargePeriods[i] {
				if occupancy[j] != 0 {
					chargePeriods[i] = nil
					break
				}
				occupancy[j]++
			}
		}
		if i < len(dischargePeriods) {
			for _, j := range dischargePeriods[i] {
				if occupancy[j] != 0 {
					dischargePeriods[i] = nil
					break
				}
				occupancy[j]--
			}
		}
	}
	chargePeriods = compactPeriods(chargePeriods)
	dischargePeriods = compactPeriods(dischargePeriods)

	// Where two windows of the same type follow each other with no window of
	// the other type between them, keep only the one selected earlier.
	ids := make([]int, len(prices))
	for cp, period := range chargePeriods {
		for _, i := range period {
			ids[i] += cp + 1
		}
	}
	for dp, period := range dischargePeriods {
		for _, i := range period {
			ids[i] -= dp + 1
		}
	}
	var removeIDs []int
	lastSet := false
	last := 0
	for i := 1; i < len(ids); i++ {
		id := ids[i]
		if id > 0 && id != last {
			if !lastSet {
				last, lastSet = id, true
				continue
			}
			if last < 0 {
				last = id
				continue
			}
			if last > id {
				removeIDs = append(removeIDs, last)
				last = id
			} else {
				removeIDs = append(removeIDs, id)
				last = id
			}
		} else if id < 0 && id != last {
			if !lastSet {
				last, lastSet = id, true
				continue
			}
			if last > 0 {
				last = id
				continue
			}
			if last < id {
				removeIDs = append(removeIDs, last)
				last = id
			} else {
				removeIDs = append(removeIDs, id)
				last = id
			}
		}
	}
	for _, id := range removeIDs {
		if id < 0 {
			dischargePeriods[-id-1] = nil
		} else if id > 0 {
			chargePeriods[id-1] = nil
		}
	}
	chargePeriods = compactPeriods(chargePeriods)
	dischargePeriods = compactPeriods(dischargePeriods)

	// Lay the surviving windows out in time order as (average, type, index)
	// markers keyed by each window's first quarter-hour.
	type marker struct {
		average   float64
		discharge bool
		index     int
	}
	positioned := make([]*marker, len(prices))
	for j, period := range chargePeriods {
		positioned[period[0]] = &marker{average: averageAt(prices, period), index: j}
	}
	for j, period := range dischargePeriods {
		positioned[period[0]] = &marker{average: averageAt(prices, period), discharge: true, index: j}
	}
	var ordered []*marker
	for _, m := range positioned {
		if m != nil {
			ordered = append(ordered, m)
		}
	}

	// Pair walk: each discharge takes the nearest preceding unmatched
	// charge, provided the efficiency margin holds. On the first failure
	// the later-selected window of the failing pair is dropped and the
	// whole match is recomputed.
	var pairs []matchedPair
	var pending *marker
	for _, m := range ordered {
		if !m.discharge {
			pending = m
			continue
		}
		if pending == nil {
			// a discharge with no preceding charge can never be served
			dischargePeriods[m.index] = nil
			return matchChargeDischargePeriods(prices, compactPeriods(chargePeriods), compactPeriods(dischargePeriods), efficiencyFactor)
		}
		if pending.average*efficiencyFactor < m.average {
			pairs = append(pairs, matchedPair{
				charge:    chargePeriods[pending.index],
				discharge: dischargePeriods[m.index],
			})
			pending = nil
			continue
		}
		if m.index > pending.index {
			dischargePeriods[m.index] = nil
		} else {
			chargePeriods[pending.index] = nil
		}
		return matchChargeDischargePeriods(prices, compactPeriods(chargePeriods), compactPeriods(dischargePeriods), efficiencyFactor)
	}

	return pairs
}

func compactPeriods(periods [][]int) [][]int {
	kept := periods[:0]
	for _, period := range periods {
		if len(period) > 0 {
			kept = append(kept, period)
		}
	}
	return kept
}

func averageAt(prices []float64, indices []int) float64 {
	total := 0.0
	for _, i := range indices {
		total += prices[i]
	}
	return total / float64(len(indices))
}
