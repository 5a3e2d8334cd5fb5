package trip

// Record is one decoded trip observation. The timestamp fields hold the raw
// text from the source; they are parsed on demand only for records that pass
// the zone gate. A Record is owned by the pipeline for a single iteration
// step and never retained.
type Record struct {
	PickupTime  string
	DropoffTime string
	PickupZone  int
	DropoffZone int
}
