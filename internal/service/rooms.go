package service

import (
	"sort"

	"hotelbook/internal/models"
)

// RoomCatalog is the read-only list of rooms shown on the site, ordered by
// SortOrder then ID.
type RoomCatalog struct {
	rooms []models.Room
	byID  map[int64]models.Room
}

func NewRoomCatalog(rooms []models.Room) *RoomCatalog {
	sorted := append([]models.Room(nil), rooms...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].SortOrder != sorted[j].SortOrder {
			return sorted[i].SortOrder < sorted[j].SortOrder
		}
		return sorted[i].ID < sorted[j].ID
	})

	byID := make(map[int64]models.Room, len(sorted))
	for _, r := range sorted {
		byID[r.ID] = r
	}
	return &RoomCatalog{rooms: sorted, byID: byID}
}

func (c *RoomCatalog) ListRooms() []models.Room {
	return append([]models.Room(nil), c.rooms...)
}

func (c *RoomCatalog) GetRoom(id int64) (models.Room, bool) {
	r, ok := c.byID[id]
	return r, ok
}

// Featured returns the rooms flagged for the landing page, falling back to
// the first three when none are flagged.
func (c *RoomCatalog) Featured() []models.Room {
	var out []models.Room
	for _, r := range c.rooms {
		if r.Featured {
			out = append(out, r)
		}
	}
	if len(out) == 0 && len(c.rooms) > 0 {
		n := 3
		if len(c.rooms) < n {
			n = len(c.rooms)
		}
		out = append(out, c.rooms[:n]...)
	}
	return out
}
