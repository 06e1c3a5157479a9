package consultation

import (
	"math"
	"sort"

	"github.com/claudemarjean/Ivony/internal/core/domain"
)

// KPIs are the headline counters of a filtered selection.
type KPIs struct {
	Total    int `json:"total"`
	Unique   int `json:"unique"`
	Apps     int `json:"apps"`
	AuthRate int `json:"auth_rate"`
}

// ComputeKPIs aggregates records. AuthRate is the authenticated share in percent, rounded half
// away from zero, and 0 for an empty selection.
func ComputeKPIs(records []domain.Consultation) KPIs {
	k := KPIs{Total: len(records)}
	if k.Total == 0 {
		return k
	}

	apps := make(map[string]struct{})
	authenticated := 0
	for _, r := range records {
		if r.IsUnique {
			k.Unique++
		}
		if r.IsAuthenticated {
			authenticated++
		}
		apps[r.ApplicationID] = struct{}{}
	}
	k.Apps = len(apps)
	k.AuthRate = int(math.Round(float64(authenticated) / float64(k.Total) * 100))
	return k
}

// Countries lists the distinct non-empty countries, sorted.
func Countries(records []domain.Consultation) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, r := range records {
		if r.Country == "" {
			continue
		}
		if _, ok := seen[r.Country]; ok {
			continue
		}
		seen[r.Country] = struct{}{}
		out = append(out, r.Country)
	}
	sort.Strings(out)
	return out
}

// DeviceCounts splits views by device class.
type DeviceCounts struct {
	Mobile  int `json:"mobile"`
	Tablet  int `json:"tablet"`
	Desktop int `json:"desktop"`
}

// Stats summarises the visits of one application.
type Stats struct {
	TotalViews         int                   `json:"total_views"`
	UniqueViews        int                   `json:"unique_views"`
	AuthenticatedViews int                   `json:"authenticated_views"`
	AnonymousViews     int                   `json:"anonymous_views"`
	Countries          []string              `json:"countries"`
	Devices            DeviceCounts          `json:"devices"`
	Browsers           map[string]int        `json:"browsers"`
	RecentVisits       []domain.Consultation `json:"recent_visits"`
}

// RecentVisitCount bounds Stats.RecentVisits.
const RecentVisitCount = 10

// ComputeStats aggregates the visits of one application. Soft-deleted records are ignored.
func ComputeStats(records []domain.Consultation) Stats {
	visible := Visible(records)
	s := Stats{
		TotalViews: len(visible),
		Countries:  Countries(visible),
		Browsers:   make(map[string]int),
	}

	for _, r := range visible {
		if r.IsUnique {
			s.UniqueViews++
		}
		if r.IsAuthenticated {
			s.AuthenticatedViews++
		} else {
			s.AnonymousViews++
		}
		switch r.DeviceType {
		case "Mobile":
			s.Devices.Mobile++
		case "Tablet":
			s.Devices.Tablet++
		case "Desktop":
			s.Devices.Desktop++
		}
		if r.Browser != "" {
			s.Browsers[r.Browser]++
		}
	}

	recent := make([]domain.Consultation, len(visible))
	copy(recent, visible)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].VisitedAt.After(recent[j].VisitedAt)
	})
	if len(recent) > RecentVisitCount {
		recent = recent[:RecentVisitCount]
	}
	s.RecentVisits = recent
	return s
}
