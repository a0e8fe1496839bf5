package scheduler

import (
	"sort"

	"github.com/brightpath/aba-scheduler-api/internal/models"
)

// CoverageSlot is one required-presence window that must be filled by a
// staff assignment. Slots are the genes of the genetic search: generic ABA
// coverage is sliced into fixed-length blocks on the 15-minute grid, allied
// health needs contribute one slot per declared window.
type CoverageSlot struct {
	ClientID         string
	DayOfWeek        int
	StartMinute      int
	EndMinute        int
	SessionType      models.SessionType
	RequiredRole     *models.StaffRole
	PreferredStaffID *string
}

type timeRange struct {
	start int
	end   int
}

// DeriveCoverageSlots expands every client's required coverage for the
// target days into an ordered slot list. Derivation is deterministic:
// clients are visited in id order, days ascending, windows ascending.
func DeriveCoverageSlots(snap *Snapshot, days []int, slotMinutes int) []CoverageSlot {
	if slotMinutes <= 0 || slotMinutes%GridMinutes != 0 {
		slotMinutes = 60
	}
	sortedDays := append([]int(nil), days...)
	sort.Ints(sortedDays)

	var slots []CoverageSlot
	for _, clientID := range snap.sortedClientIDs() {
		client := snap.ClientByID(clientID)
		if client == nil || !client.Active {
			continue
		}
		for _, day := range sortedDays {
			// Allied-health windows are carved out of the generic
			// coverage so the same client is never required twice
			// in one interval.
			var blocked []timeRange
			for _, need := range client.AlliedHealthNeeds {
				if !need.OnDay(day) {
					continue
				}
				role := need.Type
				staffRole := models.StaffRole(role)
				slots = append(slots, CoverageSlot{
					ClientID:         client.ID,
					DayOfWeek:        day,
					StartMinute:      need.StartMinute,
					EndMinute:        need.EndMinute,
					SessionType:      need.SessionType(),
					RequiredRole:     &staffRole,
					PreferredStaffID: need.PreferredStaffID,
				})
				blocked = append(blocked, timeRange{start: need.StartMinute, end: need.EndMinute})
			}

			for _, free := range subtractRanges(timeRange{start: snap.Hours.StartMinute, end: snap.Hours.EndMinute}, blocked) {
				for start := free.start; start+slotMinutes <= free.end; start += slotMinutes {
					slots = append(slots, CoverageSlot{
						ClientID:    client.ID,
						DayOfWeek:   day,
						StartMinute: start,
						EndMinute:   start + slotMinutes,
						SessionType: models.SessionABA,
					})
				}
			}
		}
	}

	sort.SliceStable(slots, func(i, j int) bool {
		if slots[i].ClientID != slots[j].ClientID {
			return slots[i].ClientID < slots[j].ClientID
		}
		if slots[i].DayOfWeek != slots[j].DayOfWeek {
			return slots[i].DayOfWeek < slots[j].DayOfWeek
		}
		return slots[i].StartMinute < slots[j].StartMinute
	})
	return slots
}

// subtractRanges removes the blocked intervals from base and returns the
// remaining free intervals in ascending order.
func subtractRanges(base timeRange, blocked []timeRange) []timeRange {
	if len(blocked) == 0 {
		return []timeRange{base}
	}
	sorted := append([]timeRange(nil), blocked...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].start < sorted[j].start })

	var free []timeRange
	cursor := base.start
	for _, b := range sorted {
		if b.end <= cursor || b.start >= base.end {
			continue
		}
		if b.start > cursor {
			free = append(free, timeRange{start: cursor, end: b.start})
		}
		if b.end > cursor {
			cursor = b.end
		}
	}
	if cursor < base.end {
		free = append(free, timeRange{start: cursor, end: base.end})
	}
	return free
}

// EligibleStaff returns the staff ids that pass the hard role and
// qualification filter for a slot, ordered by hierarchy preference (higher
// tier first when a required qualification asks for it) with id as the tie
// break.
func EligibleStaff(slot CoverageSlot, snap *Snapshot) []string {
	client := snap.ClientByID(slot.ClientID)
	if client == nil {
		return nil
	}

	preferHighTier := false
	for _, q := range snap.ClientQualifications(client) {
		if q.HierarchyOrder != nil {
			preferHighTier = true
			break
		}
	}

	var eligible []*models.Staff
	for i := range snap.Staff {
		st := &snap.Staff[i]
		if !st.Active {
			continue
		}
		if slot.RequiredRole != nil {
			if st.Role != *slot.RequiredRole {
				continue
			}
		} else if st.Role.AlliedHealth() {
			continue
		}
		if !st.HoldsAll(client.RequiredQualificationIDs) {
			continue
		}
		eligible = append(eligible, st)
	}

	sort.Slice(eligible, func(i, j int) bool {
		a, b := eligible[i], eligible[j]
		sameTeamA := sameTeam(a.TeamID, client.TeamID)
		sameTeamB := sameTeam(b.TeamID, client.TeamID)
		if sameTeamA != sameTeamB {
			return sameTeamA
		}
		if preferHighTier && a.Role.Tier() != b.Role.Tier() {
			return a.Role.Tier() > b.Role.Tier()
		}
		return a.ID < b.ID
	})

	ids := make([]string, len(eligible))
	for i, st := range eligible {
		ids[i] = st.ID
	}
	return ids
}

func sameTeam(a, b *string) bool {
	return a != nil && b != nil && *a == *b
}
