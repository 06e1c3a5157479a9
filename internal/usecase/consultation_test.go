package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/claudemarjean/Ivony/internal/consultation"
	"github.com/claudemarjean/Ivony/internal/core/domain"
)

const (
	appA   = "a0000000-0000-4000-8000-000000000001"
	visit1 = "c0000000-0000-4000-8000-000000000001"
	visit2 = "c0000000-0000-4000-8000-000000000002"
	visit3 = "c0000000-0000-4000-8000-000000000003"
)

type consultationFixture struct {
	svc     *ConsultationService
	repo    *fakeConsultationRepo
	apps    *fakeApplicationRepo
	ips     *fakeIPRepo
	pub     *recordingPublisher
	metrics *countingMetrics
	now     time.Time
}

func newConsultationFixture(t *testing.T) *consultationFixture {
	t.Helper()
	now := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	repo := &fakeConsultationRepo{records: []domain.Consultation{
		{ID: visit1, ApplicationID: appA, VisitedAt: now.Add(-time.Hour), Country: "FR", DeviceType: "Desktop", IPAddress: "203.0.113.1", IsUnique: true, IsAuthenticated: true},
		{ID: visit2, ApplicationID: appA, VisitedAt: now.Add(-48 * time.Hour), Country: "MG", DeviceType: "Mobile", IPAddress: "203.0.113.2"},
		{ID: visit3, ApplicationID: appA, VisitedAt: now.Add(-2 * time.Hour), Country: "FR", DeviceType: "Mobile", IPAddress: "203.0.113.3", IsDeleted: true},
	}}
	apps := &fakeApplicationRepo{apps: []domain.Application{{ID: appA, Name: "Portal"}}}
	ips := newFakeIPRepo(domain.IPAccess{IPAddress: "203.0.113.2", Status: domain.IPStatusBlacklist})
	pub := &recordingPublisher{}
	metrics := &countingMetrics{}
	log := zaptest.NewLogger(t)

	svc := NewConsultationService(ConsultationDeps{
		Consultations: repo,
		Applications:  apps,
		IPAccess:      NewIPAccessService(ips, IPAccessOptions{Logger: log}),
		Events:        pub,
		Metrics:       metrics,
		Logger:        log,
		Now:           func() time.Time { return now },
	})
	return &consultationFixture{svc: svc, repo: repo, apps: apps, ips: ips, pub: pub, metrics: metrics, now: now}
}

func TestConsultationLoadExcludesDeleted(t *testing.T) {
	fx := newConsultationFixture(t)

	ds, err := fx.svc.Load(context.Background())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if len(ds.Records) != 2 {
		t.Fatalf("expected 2 visible records, got %d", len(ds.Records))
	}
	if fx.repo.lastCap != domain.MaxConsultations {
		t.Fatalf("expected cap %d, got %d", domain.MaxConsultations, fx.repo.lastCap)
	}
	if len(fx.repo.lastIDs) != 1 || fx.repo.lastIDs[0] != appA {
		t.Fatalf("expected application ids to scope the query, got %v", fx.repo.lastIDs)
	}
}

func TestConsultationLoadWithoutApplications(t *testing.T) {
	fx := newConsultationFixture(t)
	fx.apps.apps = nil

	ds, err := fx.svc.Load(context.Background())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if len(ds.Records) != 0 || fx.repo.listRuns != 0 {
		t.Fatalf("expected empty dataset without querying visits")
	}
}

func TestConsultationViewTagsAndFilters(t *testing.T) {
	fx := newConsultationFixture(t)
	ctx := context.Background()
	ds, err := fx.svc.Load(ctx)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	all := fx.svc.View(ctx, ds, consultation.Filter{})
	if all.KPIs.Total != 2 || all.KPIs.AuthRate != 50 {
		t.Fatalf("unexpected kpis: %+v", all.KPIs)
	}
	if len(all.Countries) != 2 {
		t.Fatalf("expected two countries, got %v", all.Countries)
	}

	blacklisted := fx.svc.View(ctx, ds, consultation.Filter{IPStatus: consultation.IPFilterBlacklist})
	if len(blacklisted.Records) != 1 || blacklisted.Records[0].ID != visit2 {
		t.Fatalf("expected only the blacklisted visit, got %+v", blacklisted.Records)
	}
	if blacklisted.Records[0].IPStatus != domain.IPStatusBlacklist {
		t.Fatalf("expected record tagged blacklist, got %q", blacklisted.Records[0].IPStatus)
	}

	today := fx.svc.View(ctx, ds, consultation.Filter{Period: consultation.PeriodToday})
	if len(today.Records) != 1 || today.Records[0].ID != visit1 {
		t.Fatalf("expected only today's visit, got %+v", today.Records)
	}
}

func TestConsultationViewDegradesWithoutIPStatuses(t *testing.T) {
	fx := newConsultationFixture(t)
	ctx := context.Background()
	ds, err := fx.svc.Load(ctx)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	fx.ips.err = errors.New("network down")

	view := fx.svc.View(ctx, ds, consultation.Filter{IPStatus: consultation.IPFilterToReview})
	if len(view.Records) != 2 {
		t.Fatalf("expected every record to count as unreviewed, got %d", len(view.Records))
	}
}

func TestConsultationSoftDelete(t *testing.T) {
	fx := newConsultationFixture(t)
	ctx := WithActor(context.Background(), "admin-1")

	ds, err := fx.svc.SoftDelete(ctx, []string{visit1, visit1})
	if err != nil {
		t.Fatalf("SoftDelete returned error: %v", err)
	}
	if len(ds.Records) != 1 {
		t.Fatalf("expected reload to drop the deleted visit, got %d", len(ds.Records))
	}
	if len(fx.repo.deleted) != 1 || len(fx.repo.deleted[0]) != 1 {
		t.Fatalf("expected one deduplicated update, got %v", fx.repo.deleted)
	}
	if fx.metrics.deleted != 1 || len(fx.pub.deleted) != 1 {
		t.Fatalf("expected metrics and event for the deletion")
	}

	// deleting again leaves the dataset unchanged
	again, err := fx.svc.SoftDelete(ctx, []string{visit1})
	if err != nil {
		t.Fatalf("second SoftDelete returned error: %v", err)
	}
	if len(again.Records) != 1 {
		t.Fatalf("expected idempotent delete, got %d records", len(again.Records))
	}
}

func TestConsultationSoftDeleteValidation(t *testing.T) {
	fx := newConsultationFixture(t)

	if _, err := fx.svc.SoftDelete(context.Background(), nil); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for empty selection, got %v", err)
	}
	if _, err := fx.svc.SoftDelete(context.Background(), []string{"1; drop"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for malformed id, got %v", err)
	}
	if len(fx.repo.deleted) != 0 {
		t.Fatalf("expected no remote update")
	}
}

func TestConsultationStats(t *testing.T) {
	fx := newConsultationFixture(t)

	stats, err := fx.svc.Stats(context.Background(), appA)
	if err != nil {
		t.Fatalf("Stats returned error: %v", err)
	}
	if stats.TotalViews != 2 || stats.Devices.Mobile != 1 || stats.Devices.Desktop != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if _, err := fx.svc.Stats(context.Background(), "x"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
