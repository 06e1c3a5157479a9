package consultation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claudemarjean/Ivony/internal/core/domain"
)

var paris = time.FixedZone("CET", 3600)

func sample(now time.Time) []domain.Consultation {
	return []domain.Consultation{
		{ID: "c1", ApplicationID: "app-1", VisitedAt: now.Add(-1 * time.Hour), Country: "France", DeviceType: "Desktop", Browser: "Chrome", IsUnique: true, IsAuthenticated: true, IPAddress: "10.0.0.1"},
		{ID: "c2", ApplicationID: "app-1", VisitedAt: now.Add(-26 * time.Hour), Country: "Belgique", DeviceType: "Mobile", Browser: "Safari", IPAddress: "10.0.0.2"},
		{ID: "c3", ApplicationID: "app-2", VisitedAt: now.Add(-10 * 24 * time.Hour), Country: "France", DeviceType: "mobile", Browser: "Safari", IsUnique: true, IPAddress: "10.0.0.3"},
		{ID: "c4", ApplicationID: "app-3", VisitedAt: now.Add(-40 * 24 * time.Hour), Country: "", DeviceType: "Tablet", IPAddress: "10.0.0.4"},
	}
}

func ids(records []domain.Consultation) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func TestPeriodCutoff(t *testing.T) {
	now := time.Date(2025, 6, 15, 14, 30, 0, 0, paris)

	cutoff, ok := PeriodToday.Cutoff(now)
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 6, 15, 0, 0, 0, 0, paris), cutoff)

	cutoff, ok = PeriodWeek.Cutoff(now)
	require.True(t, ok)
	assert.Equal(t, now.Add(-7*24*time.Hour), cutoff)

	cutoff, ok = PeriodMonth.Cutoff(now)
	require.True(t, ok)
	assert.Equal(t, now.Add(-30*24*time.Hour), cutoff)

	_, ok = PeriodAll.Cutoff(now)
	assert.False(t, ok)
	_, ok = Period("").Cutoff(now)
	assert.False(t, ok)
}

func TestApplyFilters(t *testing.T) {
	now := time.Date(2025, 6, 15, 14, 30, 0, 0, paris)
	records := sample(now)

	cases := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{name: "no filter", filter: Filter{}, want: []string{"c1", "c2", "c3", "c4"}},
		{name: "today", filter: Filter{Period: PeriodToday}, want: []string{"c1"}},
		{name: "week", filter: Filter{Period: PeriodWeek}, want: []string{"c1", "c2"}},
		{name: "month", filter: Filter{Period: PeriodMonth}, want: []string{"c1", "c2", "c3"}},
		{name: "application", filter: Filter{ApplicationID: "app-1"}, want: []string{"c1", "c2"}},
		{name: "country exact", filter: Filter{Country: "France"}, want: []string{"c1", "c3"}},
		{name: "country is case sensitive", filter: Filter{Country: "france"}, want: []string{}},
		{name: "device case insensitive", filter: Filter{Device: "mobile"}, want: []string{"c2", "c3"}},
		{name: "combined", filter: Filter{Country: "France", Device: "MOBILE", Period: PeriodMonth}, want: []string{"c3"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ApplyFilters(records, tc.filter, nil, now)
			assert.Equal(t, tc.want, ids(got))
		})
	}
}

func TestApplyFiltersTodayKeepsMidnight(t *testing.T) {
	now := time.Date(2025, 6, 15, 0, 5, 0, 0, paris)
	records := []domain.Consultation{
		{ID: "midnight", VisitedAt: time.Date(2025, 6, 15, 0, 0, 0, 0, paris)},
		{ID: "yesterday", VisitedAt: time.Date(2025, 6, 14, 23, 59, 59, 0, paris)},
	}

	got := ApplyFilters(records, Filter{Period: PeriodToday}, nil, now)
	assert.Equal(t, []string{"midnight"}, ids(got))
}

func TestApplyFiltersByIPStatus(t *testing.T) {
	now := time.Date(2025, 6, 15, 14, 30, 0, 0, paris)
	records := sample(now)
	statuses := map[string]domain.IPStatus{
		"10.0.0.2": domain.IPStatusBlacklist,
		"10.0.0.3": domain.IPStatusWhitelist,
	}
	lookup := func(ip string) domain.IPStatus { return statuses[ip] }

	blacklisted := ApplyFilters(records, Filter{IPStatus: IPFilterBlacklist}, lookup, now)
	assert.Equal(t, []string{"c2"}, ids(blacklisted))

	toReview := ApplyFilters(records, Filter{IPStatus: IPFilterToReview}, lookup, now)
	assert.Equal(t, []string{"c1", "c3", "c4"}, ids(toReview))

	tagged := Tag(records, lookup)
	require.Len(t, tagged, 4)
	assert.Equal(t, domain.IPStatusNone, tagged[0].IPStatus)
	assert.Equal(t, domain.IPStatusBlacklist, tagged[1].IPStatus)
	assert.Equal(t, domain.IPStatusWhitelist, tagged[2].IPStatus)
}

func TestComputeKPIs(t *testing.T) {
	assert.Equal(t, KPIs{}, ComputeKPIs(nil))
	assert.Equal(t, KPIs{}, ComputeKPIs([]domain.Consultation{}))

	now := time.Now()
	kpis := ComputeKPIs(sample(now))
	assert.Equal(t, KPIs{Total: 4, Unique: 2, Apps: 3, AuthRate: 25}, kpis)

	// 1 of 8 is 12.5%, rounded half away from zero.
	eight := make([]domain.Consultation, 8)
	eight[0].IsAuthenticated = true
	assert.Equal(t, 13, ComputeKPIs(eight).AuthRate)

	// 2 of 3 is 66.67%.
	three := []domain.Consultation{{IsAuthenticated: true}, {IsAuthenticated: true}, {}}
	assert.Equal(t, 67, ComputeKPIs(three).AuthRate)
}

func TestCountries(t *testing.T) {
	got := Countries(sample(time.Now()))
	assert.Equal(t, []string{"Belgique", "France"}, got)
	assert.Empty(t, Countries(nil))
}

func TestComputeStats(t *testing.T) {
	now := time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)
	records := sample(now)
	records = append(records, domain.Consultation{ID: "gone", ApplicationID: "app-1", VisitedAt: now, DeviceType: "Desktop", IsDeleted: true})

	stats := ComputeStats(records)

	assert.Equal(t, 4, stats.TotalViews)
	assert.Equal(t, 2, stats.UniqueViews)
	assert.Equal(t, 1, stats.AuthenticatedViews)
	assert.Equal(t, 3, stats.AnonymousViews)
	assert.Equal(t, DeviceCounts{Mobile: 1, Tablet: 1, Desktop: 1}, stats.Devices)
	assert.Equal(t, map[string]int{"Chrome": 1, "Safari": 2}, stats.Browsers)
	assert.Equal(t, []string{"c1", "c2", "c3", "c4"}, ids(stats.RecentVisits))
}

func TestComputeStatsCapsRecentVisits(t *testing.T) {
	now := time.Now()
	records := make([]domain.Consultation, 15)
	for i := range records {
		records[i] = domain.Consultation{ID: string(rune('a' + i)), VisitedAt: now.Add(-time.Duration(i) * time.Minute)}
	}

	stats := ComputeStats(records)
	require.Len(t, stats.RecentVisits, RecentVisitCount)
	assert.Equal(t, "a", stats.RecentVisits[0].ID)
}
