package model

import "sort"

// PharmacyMatch is a candidate pharmacy for a verified order.
type PharmacyMatch struct {
	PharmacyID  string
	Name        string
	DistanceKM  float64
	HasAllItems bool
}

// SortMatches orders candidates by ascending distance; at equal distance a
// pharmacy able to fulfill every item ranks first.
func SortMatches(matches []PharmacyMatch) {
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].DistanceKM != matches[j].DistanceKM {
			return matches[i].DistanceKM < matches[j].DistanceKM
		}
		return matches[i].HasAllItems && !matches[j].HasAllItems
	})
}

// DispatchOutcome is the terminal result of notifying one pharmacy.
type DispatchOutcome struct {
	PharmacyID   string
	PharmacyName string
	Attempts     int
	Succeeded    bool
	Reason       string
}

// DispatchReport aggregates per-pharmacy notification outcomes for an order.
type DispatchReport struct {
	OrderID  string
	Outcomes []DispatchOutcome
}

// Succeeded lists pharmacies that acknowledged the notification.
func (r DispatchReport) Succeeded() []string {
	var ids []string
	for _, o := range r.Outcomes {
		if o.Succeeded {
			ids = append(ids, o.PharmacyID)
		}
	}
	return ids
}

// Failed lists outcomes that exhausted their attempts.
func (r DispatchReport) Failed() []DispatchOutcome {
	var failed []DispatchOutcome
	for _, o := range r.Outcomes {
		if !o.Succeeded {
			failed = append(failed, o)
		}
	}
	return failed
}
