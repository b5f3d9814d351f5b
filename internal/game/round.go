package game

// Round is a betting street. Rounds are totally ordered and only ever
// advance within a hand.
type Round int

const (
	Preflop Round = iota
	Flop
	Turn
	River
	Showdown
)

func (r Round) String() string {
	return [...]string{"preflop", "flop", "turn", "river", "showdown"}[r]
}

// HighestBet returns the highest current-round bet across seats.
func HighestBet(seats []*Seat) int {
	highest := 0
	for _, s := range seats {
		if s.CurrentBet > highest {
			highest = s.CurrentBet
		}
	}
	return highest
}

// IsRoundComplete reports whether the betting round is over: nobody can act,
// or every seat that can act has acted and matched the highest bet across
// the table. All-in bets count toward that highest, so a lone remaining seat
// still holds the round open until it calls or folds an unmatched shove.
func IsRoundComplete(seats []*Seat) bool {
	var eligible []*Seat
	for _, s := range seats {
		if s.CanAct() {
			eligible = append(eligible, s)
		}
	}
	if len(eligible) == 0 {
		return true
	}

	highest := HighestBet(seats)
	if len(eligible) == 1 {
		return eligible[0].CurrentBet == highest
	}
	for _, s := range eligible {
		if !s.Acted || s.CurrentBet != highest {
			return false
		}
	}
	return true
}

// NextActorIndex scans seat positions cyclically starting after current and
// returns the first seat that still owes action: active, not all-in, and
// either unacted or short of the highest bet. Returns current unchanged when
// nobody owes action.
func NextActorIndex(seats []*Seat, current int) int {
	highest := HighestBet(seats)
	n := len(seats)
	for i := 1; i <= n; i++ {
		pos := ((current + i) % n + n) % n
		s := seats[pos]
		if s.CanAct() && (!s.Acted || s.CurrentBet != highest) {
			return pos
		}
	}
	return current
}

// advanceRound moves the hand to its next phase once a betting round is
// complete: the last-seat-standing shortcut, the all-in board runout, or a
// normal street transition. Settlement is triggered synchronously here.
func (g *Game) advanceRound() (*Outcome, error) {
	for _, s := range g.Seats {
		s.CurrentBet = 0
		s.Acted = false
	}

	var contesting, allInLive, active []*Seat
	for _, s := range g.Seats {
		if !s.Active {
			continue
		}
		active = append(active, s)
		if s.AllIn {
			allInLive = append(allInLive, s)
		} else {
			contesting = append(contesting, s)
		}
	}

	// Everyone else folded: the pot goes to the survivor without dealing
	// another card, whatever the street.
	if len(active) == 1 {
		return g.finishByFold(active[0]), nil
	}

	// At most one seat can still bet against the all-ins: no further betting
	// is possible, so run the board out and settle.
	if len(contesting) <= 1 && len(allInLive) > 0 {
		g.runOutBoard()
		return g.finishAtShowdown()
	}

	switch g.Round {
	case Preflop:
		g.burn()
		g.dealCommunity(3)
		g.Round = Flop
	case Flop:
		g.burn()
		g.dealCommunity(1)
		g.Round = Turn
	case Turn:
		g.burn()
		g.dealCommunity(1)
		g.Round = River
	case River:
		return g.finishAtShowdown()
	case Showdown:
		return &Outcome{Winner: -1}, nil
	}

	g.publish(newStreetChangeEvent(g.ID, g.Round, g.CommunityCards, g.Pot))

	// First actor for the new street: first contesting seat after the button.
	g.CurrentIndex = -1
	n := len(g.Seats)
	for i := 1; i <= n; i++ {
		pos := (g.DealerIndex + i) % n
		if g.Seats[pos].CanAct() {
			g.CurrentIndex = pos
			break
		}
	}

	return &Outcome{Winner: -1}, nil
}

// runOutBoard completes the community cards to five, burning one card before
// each street's batch and reporting every street as it is dealt.
func (g *Game) runOutBoard() {
	for len(g.CommunityCards) < 5 {
		g.burn()
		switch len(g.CommunityCards) {
		case 0:
			g.dealCommunity(3)
			g.Round = Flop
		case 3:
			g.dealCommunity(1)
			g.Round = Turn
		default:
			g.dealCommunity(1)
			g.Round = River
		}
		g.publish(newStreetChangeEvent(g.ID, g.Round, g.CommunityCards, g.Pot))
	}
}
