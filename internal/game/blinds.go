package game

import "time"

// BlindLevel is one step of a blind schedule. Ante is zero when the level
// has none.
type BlindLevel struct {
	Level      int `json:"level" hcl:"level"`
	SmallBlind int `json:"small_blind" hcl:"small_blind"`
	BigBlind   int `json:"big_blind" hcl:"big_blind"`
	Ante       int `json:"ante,omitempty" hcl:"ante,optional"`
}

// Structure is a named blind schedule. Levels are ordered and a game's
// BlindLevel index only ever moves forward through them.
type Structure struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	BlindDuration time.Duration `json:"blind_duration"`
	Levels        []BlindLevel  `json:"levels"`
	CreatedAt     time.Time     `json:"created_at"`
}

// LevelAt returns the blind level at index i, clamped to the schedule.
func (s *Structure) LevelAt(i int) BlindLevel {
	if len(s.Levels) == 0 {
		return BlindLevel{}
	}
	if i < 0 {
		i = 0
	}
	if i >= len(s.Levels) {
		i = len(s.Levels) - 1
	}
	return s.Levels[i]
}

// DefaultStructures returns the built-in schedules. The slow structure ramps
// over fifteen levels; turbo and hyper cut levels and shorten the clock.
func DefaultStructures() []*Structure {
	return []*Structure{
		{
			ID:            "normal",
			Name:          "normal",
			BlindDuration: 12 * time.Minute,
			Levels: []BlindLevel{
				{Level: 1, SmallBlind: 25, BigBlind: 50},
				{Level: 2, SmallBlind: 50, BigBlind: 100},
				{Level: 3, SmallBlind: 75, BigBlind: 150},
				{Level: 4, SmallBlind: 100, BigBlind: 200},
				{Level: 5, SmallBlind: 150, BigBlind: 300},
				{Level: 6, SmallBlind: 200, BigBlind: 400, Ante: 50},
				{Level: 7, SmallBlind: 300, BigBlind: 600, Ante: 75},
				{Level: 8, SmallBlind: 400, BigBlind: 800, Ante: 100},
				{Level: 9, SmallBlind: 500, BigBlind: 1000, Ante: 125},
				{Level: 10, SmallBlind: 600, BigBlind: 1200, Ante: 150},
				{Level: 11, SmallBlind: 800, BigBlind: 1600, Ante: 200},
				{Level: 12, SmallBlind: 1000, BigBlind: 2000, Ante: 250},
				{Level: 13, SmallBlind: 1200, BigBlind: 2400, Ante: 300},
				{Level: 14, SmallBlind: 1500, BigBlind: 3000, Ante: 400},
				{Level: 15, SmallBlind: 2000, BigBlind: 4000, Ante: 500},
			},
		},
		{
			ID:            "turbo",
			Name:          "turbo",
			BlindDuration: 7 * time.Minute,
			Levels: []BlindLevel{
				{Level: 1, SmallBlind: 50, BigBlind: 100},
				{Level: 2, SmallBlind: 75, BigBlind: 150},
				{Level: 3, SmallBlind: 100, BigBlind: 200},
				{Level: 4, SmallBlind: 150, BigBlind: 300},
				{Level: 5, SmallBlind: 200, BigBlind: 400, Ante: 50},
				{Level: 6, SmallBlind: 300, BigBlind: 600, Ante: 75},
				{Level: 7, SmallBlind: 400, BigBlind: 800, Ante: 100},
				{Level: 8, SmallBlind: 500, BigBlind: 1000, Ante: 125},
				{Level: 9, SmallBlind: 600, BigBlind: 1200, Ante: 150},
				{Level: 10, SmallBlind: 800, BigBlind: 1600, Ante: 200},
				{Level: 11, SmallBlind: 1000, BigBlind: 2000, Ante: 250},
				{Level: 12, SmallBlind: 1200, BigBlind: 2400, Ante: 300},
				{Level: 13, SmallBlind: 1500, BigBlind: 3000, Ante: 400},
				{Level: 14, SmallBlind: 2000, BigBlind: 4000, Ante: 500},
			},
		},
		{
			ID:            "hyper",
			Name:          "hyper",
			BlindDuration: 4 * time.Minute,
			Levels: []BlindLevel{
				{Level: 1, SmallBlind: 100, BigBlind: 200},
				{Level: 2, SmallBlind: 150, BigBlind: 300},
				{Level: 3, SmallBlind: 200, BigBlind: 400},
				{Level: 4, SmallBlind: 300, BigBlind: 600, Ante: 75},
				{Level: 5, SmallBlind: 400, BigBlind: 800, Ante: 100},
				{Level: 6, SmallBlind: 500, BigBlind: 1000, Ante: 125},
				{Level: 7, SmallBlind: 600, BigBlind: 1200, Ante: 150},
				{Level: 8, SmallBlind: 800, BigBlind: 1600, Ante: 200},
				{Level: 9, SmallBlind: 1000, BigBlind: 2000, Ante: 250},
				{Level: 10, SmallBlind: 1200, BigBlind: 2400, Ante: 300},
				{Level: 11, SmallBlind: 1500, BigBlind: 3000, Ante: 400},
				{Level: 12, SmallBlind: 2000, BigBlind: 4000, Ante: 500},
			},
		},
	}
}
