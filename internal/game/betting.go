package game

import "fmt"

// Action is a player action. The zero value is Fold.
type Action int

const (
	Fold Action = iota
	Check
	Call
	Bet
	Raise
	AllIn
)

func (a Action) String() string {
	switch a {
	case Fold:
		return "fold"
	case Check:
		return "check"
	case Call:
		return "call"
	case Bet:
		return "bet"
	case Raise:
		return "raise"
	case AllIn:
		return "all-in"
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// ParseAction maps an action token from the wire onto the enum.
func ParseAction(s string) (Action, error) {
	switch s {
	case "fold":
		return Fold, nil
	case "check":
		return Check, nil
	case "call":
		return Call, nil
	case "bet":
		return Bet, nil
	case "raise":
		return Raise, nil
	case "all-in", "allin":
		return AllIn, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidAction, s)
}

// ActionResult is the computed effect of a single action. ApplyAction only
// computes it; the caller commits it to the seat, the pot and the other
// seats' Acted flags.
type ActionResult struct {
	NewBet      int  // seat's current-round bet after the action
	BetIncrease int  // chips moving from the stack into the pot
	StillActive bool // false only for fold
	BecameAllIn bool
}

// ApplyAction validates action for the acting seat against a snapshot of all
// seats and returns the resulting bet. It performs no mutation, so a failed
// action leaves no trace. amount is only meaningful for Bet and Raise; zero
// or negative means "use the big blind".
func ApplyAction(seats []*Seat, acting *Seat, action Action, amount, bigBlind int) (ActionResult, error) {
	if !acting.Active || acting.AllIn {
		return ActionResult{}, fmt.Errorf("%w: seat %d", ErrIllegalActor, acting.Position)
	}

	highest := HighestBet(seats)

	switch action {
	case Fold:
		return ActionResult{
			NewBet:      acting.CurrentBet,
			StillActive: false,
		}, nil

	case Check:
		if acting.CurrentBet != highest {
			return ActionResult{}, fmt.Errorf("%w: cannot check facing a bet of %d", ErrIllegalAction, highest)
		}
		return ActionResult{
			NewBet:      acting.CurrentBet,
			StillActive: true,
		}, nil

	case Call:
		increase := min(highest-acting.CurrentBet, acting.Chips)
		return ActionResult{
			NewBet:      acting.CurrentBet + increase,
			BetIncrease: increase,
			StillActive: true,
			BecameAllIn: increase == acting.Chips,
		}, nil

	case Bet, Raise:
		increase := amount
		if increase <= 0 {
			increase = bigBlind
		}
		if increase > acting.Chips {
			return ActionResult{}, fmt.Errorf("%w: %d > %d", ErrBetTooLarge, increase, acting.Chips)
		}
		newBet := acting.CurrentBet + increase
		if newBet <= highest {
			return ActionResult{}, fmt.Errorf("%w: %d must exceed %d", ErrRaiseTooSmall, newBet, highest)
		}
		return ActionResult{
			NewBet:      newBet,
			BetIncrease: increase,
			StillActive: true,
			BecameAllIn: increase == acting.Chips,
		}, nil

	case AllIn:
		return ActionResult{
			NewBet:      acting.CurrentBet + acting.Chips,
			BetIncrease: acting.Chips,
			StillActive: true,
			BecameAllIn: true,
		}, nil
	}

	return ActionResult{}, fmt.Errorf("%w: %d", ErrInvalidAction, int(action))
}
