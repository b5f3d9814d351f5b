package game

import (
	"fmt"
	"sort"

	"github.com/feltworks/holdem/internal/evaluator"
)

// Pot is one tier of the hand's contributions: the main pot or a side pot.
// Eligible lists the positions of every seat that funded the tier, in
// ascending order, whether or not the seat is still active.
type Pot struct {
	Amount   int
	Eligible []int
}

// ComputeSidePots partitions the hand's total contributions into pot tiers
// using the standard construction: repeatedly peel the minimum remaining
// contribution off every contributor. The first tier is the main pot with the
// most eligible seats; later tiers are side pots contested by fewer seats.
//
// Contributions from seats that later folded still fund the tiers they were
// matched into; fold only affects who can win a tier, not who financed it.
func ComputeSidePots(seats []*Seat) []Pot {
	type stake struct {
		pos int
		bet int
	}
	var remaining []stake
	for _, s := range seats {
		if s.TotalBet > 0 {
			remaining = append(remaining, stake{pos: s.Position, bet: s.TotalBet})
		}
	}
	sort.Slice(remaining, func(i, j int) bool { return remaining[i].pos < remaining[j].pos })

	var pots []Pot
	for len(remaining) > 0 {
		m := remaining[0].bet
		for _, st := range remaining {
			if st.bet < m {
				m = st.bet
			}
		}

		pot := Pot{Amount: m * len(remaining)}
		next := remaining[:0]
		for _, st := range remaining {
			pot.Eligible = append(pot.Eligible, st.pos)
			if st.bet -= m; st.bet > 0 {
				next = append(next, st)
			}
		}
		pots = append(pots, pot)
		remaining = next
	}
	return pots
}

// settle distributes the pot at showdown. Each tier goes to the best hand
// among its still-active contributors; ties split the tier, with odd chips
// handed out one at a time in ascending seat position. If every contributor
// to a tier folded, the tier goes to the best hand among all of its
// contributors — chips never stay behind in the pot.
func (g *Game) settle() ([]Award, error) {
	var active []*Seat
	for _, s := range g.Seats {
		if s.Active {
			active = append(active, s)
		}
	}

	// Last seat standing: no evaluation needed.
	if len(active) == 1 {
		winner := active[0]
		amount := g.Pot
		winner.Chips += amount
		g.Pot = 0
		g.SidePots = nil
		return []Award{{Position: winner.Position, Amount: amount}}, nil
	}

	pots := ComputeSidePots(g.Seats)
	g.SidePots = pots

	values := make(map[int]evaluator.Value)
	valueFor := func(pos int) (evaluator.Value, error) {
		if v, ok := values[pos]; ok {
			return v, nil
		}
		s := g.Seats[pos]
		v, err := g.eval(s.HoleCards, g.CommunityCards)
		if err != nil {
			return evaluator.Value{}, fmt.Errorf("evaluating seat %d: %w", pos, err)
		}
		values[pos] = v
		return v, nil
	}

	won := make(map[int]int)
	var order []int
	for _, pot := range pots {
		var contenders []int
		for _, pos := range pot.Eligible {
			if g.Seats[pos].Active {
				contenders = append(contenders, pos)
			}
		}
		// Every contributor folded before showdown: the tier still has to
		// go somewhere, so it plays out among all of its contributors.
		if len(contenders) == 0 {
			contenders = pot.Eligible
		}

		var winners []int
		var best evaluator.Value
		for _, pos := range contenders {
			v, err := valueFor(pos)
			if err != nil {
				return nil, err
			}
			switch {
			case len(winners) == 0 || v.Strength > best.Strength:
				best = v
				winners = []int{pos}
			case v.Strength == best.Strength:
				winners = append(winners, pos)
			}
		}

		// winners is in ascending position order because contenders is.
		share := pot.Amount / len(winners)
		odd := pot.Amount % len(winners)
		for i, pos := range winners {
			amount := share
			if i < odd {
				amount++
			}
			g.Seats[pos].Chips += amount
			if _, seen := won[pos]; !seen {
				order = append(order, pos)
			}
			won[pos] += amount
		}
	}

	// One award per seat, however many tiers it took.
	var awards []Award
	for _, pos := range order {
		awards = append(awards, Award{
			Position: pos,
			Amount:   won[pos],
			Rank:     values[pos].Rank,
		})
	}

	g.Pot = 0
	return awards, nil
}
