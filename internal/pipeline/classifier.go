package pipeline

import (
	"sort"

	"github.com/sanspareilsmyn/triplens/internal/trip"
)

// midtownZones is the fixed set of qualifying pickup zones. Kept sorted for
// the binary-search membership probe; the set never changes at runtime.
var midtownZones = []int{90, 100, 161, 162, 163, 164, 186, 230, 234}

// jfkZone is the TLC location ID for JFK airport.
const jfkZone = 132

// IsMidtownPickup reports whether zone is one of the qualifying midtown
// pickup zones.
func IsMidtownPickup(zone int) bool {
	i := sort.SearchInts(midtownZones, zone)
	return i < len(midtownZones) && midtownZones[i] == zone
}

// IsJFKDropoff reports whether zone is the JFK airport zone.
func IsJFKDropoff(zone int) bool {
	return zone == jfkZone
}

// IsWeekday reports whether ts falls on Monday through Friday.
func IsWeekday(ts trip.Timestamp) bool {
	d := ts.ISOWeekday()
	return d >= 1 && d <= 5
}
