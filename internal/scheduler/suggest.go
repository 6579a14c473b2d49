package scheduler

import (
	"math/rand"
	"sort"
)

// DefaultSuggestionLimit caps how many alternatives Suggest returns.
const DefaultSuggestionLimit = 5

// Suggestion is an alternative placement that passes CheckMove.
type Suggestion struct {
	Day  Day
	Slot Slot
	Room Room
}

// Suggest looks for up to limit alternative (day, slot, room) placements for entry.
// Days are shuffled and the slot order is shuffled once for the whole search.
// Rooms of the entry's current room type are tried first.
func Suggest(rng *rand.Rand, entries []Entry, rooms []Room, entry Entry, limit int) []Suggestion {
	if limit <= 0 {
		limit = DefaultSuggestionLimit
	}
	if rng == nil {
		rng = NewRand(0)
	}

	preferred := ClassroomRoom
	for _, room := range rooms {
		if room.ID == entry.RoomID {
			preferred = room.Type
			break
		}
	}
	ordered := make([]Room, len(rooms))
	copy(ordered, rooms)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Type == preferred && ordered[j].Type != preferred
	})

	days := Days()
	shuffle(rng, days)
	slots := Slots()
	shuffle(rng, slots)

	occ := OccupancyFromEntries(entries, entry.ID)
	suggestions := make([]Suggestion, 0, limit)
	for _, day := range days {
		for _, slot := range slots {
			if day == entry.Day && slot == entry.Slot {
				continue
			}
			for _, room := range ordered {
				if !occ.Admits(entry, day, slot, room.ID) {
					continue
				}
				suggestions = append(suggestions, Suggestion{Day: day, Slot: slot, Room: room})
				break
			}
			if len(suggestions) >= limit {
				return suggestions
			}
		}
	}
	return suggestions
}
