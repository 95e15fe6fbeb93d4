package model

import "time"

// RoomType categorises an auditorium.  The type is structural: it cannot
// change while the room has active future screenings.
type RoomType string

const (
	RoomStandard RoomType = "STANDARD"
	RoomPremium  RoomType = "PREMIUM"
	RoomVIP      RoomType = "VIP"
	RoomIMAX     RoomType = "IMAX"
	RoomFourDX   RoomType = "FOURDX"
)

// ValidRoomType reports whether t is one of the known room categories.
func ValidRoomType(t RoomType) bool {
	switch t {
	case RoomStandard, RoomPremium, RoomVIP, RoomIMAX, RoomFourDX:
		return true
	}
	return false
}

// Room is a physical auditorium.  Capacity is always Rows*SeatsPerRow and is
// never stored independently; screenings snapshot it into their seat counters
// at creation time.
//
// Fields:
//  ID               – primary key identifier.
//  Number           – auditorium number, unique across the venue.
//  Name             – display name.
//  Type             – room category (see RoomType).
//  Rows             – number of seating rows.
//  SeatsPerRow      – seats in each row.
//  SurchargeCents   – per-seat surcharge added to a screening's base price.
//  Active           – whether the room may host new screenings.
//  DolbyAtmos       – equipment flag.
//  WheelchairAccess – equipment flag.
//  Notes            – free-form operator notes.
type Room struct {
	ID               uint64    `json:"id"`
	Number           uint32    `json:"number"`
	Name             string    `json:"name"`
	Type             RoomType  `json:"type"`
	Rows             uint32    `json:"rows"`
	SeatsPerRow      uint32    `json:"seats_per_row"`
	SurchargeCents   int64     `json:"surcharge_cents"`
	Active           bool      `json:"active"`
	DolbyAtmos       bool      `json:"dolby_atmos"`
	WheelchairAccess bool      `json:"wheelchair_access"`
	Notes            string    `json:"notes"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Capacity returns the total seat count of the room.
func (r *Room) Capacity() int {
	return int(r.Rows) * int(r.SeatsPerRow)
}
