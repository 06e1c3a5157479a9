// Package consultation filters and aggregates the in-memory list of tracked visits shown on the
// consultations page.
package consultation

import (
	"strings"
	"time"

	"github.com/claudemarjean/Ivony/internal/core/domain"
)

// Period selects the visited_at cutoff.
type Period string

const (
	PeriodAll   Period = "all"
	PeriodToday Period = "today"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

// Cutoff returns the earliest visited_at kept by p, relative to now in now's location.
// The boolean is false when p imposes no cutoff.
func (p Period) Cutoff(now time.Time) (time.Time, bool) {
	switch p {
	case PeriodToday:
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, now.Location()), true
	case PeriodWeek:
		return now.Add(-7 * 24 * time.Hour), true
	case PeriodMonth:
		return now.Add(-30 * 24 * time.Hour), true
	default:
		return time.Time{}, false
	}
}

// IPFilter selects records by the moderation status of their IP address.
type IPFilter string

const (
	IPFilterAny IPFilter = ""
	// IPFilterToReview keeps addresses nobody has blacklisted.
	IPFilterToReview  IPFilter = "mot-a-trouver"
	IPFilterBlacklist IPFilter = "blacklist"
)

// Matches reports whether status passes f.
func (f IPFilter) Matches(status domain.IPStatus) bool {
	switch f {
	case IPFilterToReview:
		return status == domain.IPStatusNone || status == domain.IPStatusWhitelist
	case IPFilterBlacklist:
		return status == domain.IPStatusBlacklist
	default:
		return true
	}
}

// Filter holds the active selections. Empty fields match everything.
type Filter struct {
	ApplicationID string   `form:"application_id"`
	Period        Period   `form:"period"`
	Country       string   `form:"country"`
	Device        string   `form:"device"`
	IPStatus      IPFilter `form:"ip_status"`
}

// StatusLookup resolves the moderation status of an IP address.
type StatusLookup func(ip string) domain.IPStatus

func (l StatusLookup) status(ip string) domain.IPStatus {
	if l == nil || ip == "" {
		return domain.IPStatusNone
	}
	if s := l(ip); s.Valid() {
		return s
	}
	return domain.IPStatusNone
}

// ApplyFilters returns the records passing every selection in f, preserving order. The input is
// not modified.
func ApplyFilters(records []domain.Consultation, f Filter, lookup StatusLookup, now time.Time) []domain.Consultation {
	cutoff, hasCutoff := f.Period.Cutoff(now)
	device := strings.TrimSpace(f.Device)

	out := make([]domain.Consultation, 0, len(records))
	for _, r := range records {
		if f.ApplicationID != "" && r.ApplicationID != f.ApplicationID {
			continue
		}
		if hasCutoff && r.VisitedAt.Before(cutoff) {
			continue
		}
		if f.Country != "" && r.Country != f.Country {
			continue
		}
		if device != "" && !strings.EqualFold(r.DeviceType, device) {
			continue
		}
		if f.IPStatus != IPFilterAny && !f.IPStatus.Matches(lookup.status(r.IPAddress)) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Tagged is a record annotated with the status of its IP address for inline moderation.
type Tagged struct {
	domain.Consultation
	IPStatus domain.IPStatus `json:"ip_status"`
}

// Tag annotates every record with its IP status.
func Tag(records []domain.Consultation, lookup StatusLookup) []Tagged {
	out := make([]Tagged, len(records))
	for i, r := range records {
		out[i] = Tagged{Consultation: r, IPStatus: lookup.status(r.IPAddress)}
	}
	return out
}

// Visible drops soft-deleted records.
func Visible(records []domain.Consultation) []domain.Consultation {
	out := make([]domain.Consultation, 0, len(records))
	for _, r := range records {
		if !r.IsDeleted {
			out = append(out, r)
		}
	}
	return out
}
