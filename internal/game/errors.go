package game

import "errors"

// Rule violations surface as one of these sentinels, wrapped with context.
// They are returned synchronously from the action that caused them and never
// leave the game partially mutated: validation always precedes any write.
var (
	ErrNotFound         = errors.New("not found")
	ErrIllegalActor     = errors.New("seat cannot act")
	ErrIllegalAction    = errors.New("action not allowed")
	ErrBetTooLarge      = errors.New("bet exceeds remaining chips")
	ErrRaiseTooSmall    = errors.New("raise must exceed the highest bet")
	ErrNotEnoughPlayers = errors.New("need at least two funded seats")
	ErrInvalidAction    = errors.New("unrecognized action")
	ErrGameFull         = errors.New("game is full")
	ErrAlreadyJoined    = errors.New("player already seated")
	ErrNotPlaying       = errors.New("game is not in play")
	ErrAlreadyStarted   = errors.New("game already started")
)
