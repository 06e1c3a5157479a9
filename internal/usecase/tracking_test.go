package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

const trackedApp = "2b7f1c0e-4a51-4d7e-9a5b-7c0f8e3d2a10"

func newTrackingFixture(t *testing.T, enabled bool) (*TrackingService, *fakeVisitStore, *recordingPublisher, *countingMetrics, *manualClock) {
	t.Helper()
	clock := &manualClock{now: time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)}
	store := &fakeVisitStore{apps: map[string]bool{trackedApp: true}}
	pub := &recordingPublisher{}
	metrics := &countingMetrics{}
	svc := NewTrackingService(store, TrackingOptions{
		Enabled: enabled,
		Events:  pub,
		Metrics: metrics,
		Logger:  zaptest.NewLogger(t),
		Now:     clock.Now,
	})
	return svc, store, pub, metrics, clock
}

func TestTrackVisitDisabled(t *testing.T) {
	svc, store, _, _, _ := newTrackingFixture(t, false)

	_, err := svc.TrackVisit(context.Background(), VisitInput{ApplicationID: trackedApp})
	if !errors.Is(err, ErrTrackingDisabled) {
		t.Fatalf("expected ErrTrackingDisabled, got %v", err)
	}
	if len(store.visits) != 0 {
		t.Fatalf("expected nothing stored, got %d", len(store.visits))
	}
}

func TestTrackVisitRejectsMissingApplication(t *testing.T) {
	svc, _, _, _, _ := newTrackingFixture(t, true)

	_, err := svc.TrackVisit(context.Background(), VisitInput{ApplicationID: "  "})
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Message != "Missing application ID" {
		t.Fatalf("expected missing application error, got %v", err)
	}

	_, err = svc.TrackVisit(context.Background(), VisitInput{ApplicationID: "3c1d9a8e-0000-4000-8000-000000000000"})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected unknown application to be rejected, got %v", err)
	}
}

func TestTrackVisitUniqueness(t *testing.T) {
	svc, store, pub, metrics, clock := newTrackingFixture(t, true)
	ctx := context.Background()
	in := VisitInput{
		ApplicationID: trackedApp,
		IP:            "203.0.113.7",
		UserAgent:     "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1",
		Source:        "click",
		URL:           "https://apps.ivony.io/demo",
		Authenticated: true,
	}

	first, err := svc.TrackVisit(ctx, in)
	if err != nil {
		t.Fatalf("first visit: %v", err)
	}
	if !first.IsUnique {
		t.Fatalf("expected first visit to be unique")
	}
	if first.DeviceType != "Mobile" || first.OS != "iOS" || first.Browser != "Safari" {
		t.Fatalf("unexpected agent classification: %+v", first)
	}

	clock.Advance(time.Hour)
	second, err := svc.TrackVisit(ctx, in)
	if err != nil {
		t.Fatalf("second visit: %v", err)
	}
	if second.IsUnique {
		t.Fatalf("expected repeat visit within the window to be non-unique")
	}
	if want := clock.Now().Add(-DefaultUniqueWindow); !store.lastSince.Equal(want) {
		t.Fatalf("expected window start %v, got %v", want, store.lastSince)
	}

	clock.Advance(25 * time.Hour)
	third, err := svc.TrackVisit(ctx, in)
	if err != nil {
		t.Fatalf("third visit: %v", err)
	}
	if !third.IsUnique {
		t.Fatalf("expected visit after the window to be unique again")
	}

	if len(pub.visits) != 3 {
		t.Fatalf("expected 3 visit events, got %d", len(pub.visits))
	}
	if metrics.visits[true] != 2 || metrics.visits[false] != 1 {
		t.Fatalf("unexpected visit metrics: %+v", metrics.visits)
	}
}

func TestTrackVisitToggle(t *testing.T) {
	svc, _, _, _, _ := newTrackingFixture(t, true)
	svc.SetEnabled(false)
	if svc.Enabled() {
		t.Fatalf("expected tracking disabled")
	}
	if _, err := svc.TrackVisit(context.Background(), VisitInput{ApplicationID: trackedApp}); !errors.Is(err, ErrTrackingDisabled) {
		t.Fatalf("expected ErrTrackingDisabled, got %v", err)
	}
}

func TestParseUserAgent(t *testing.T) {
	cases := []struct {
		ua   string
		want UserAgent
	}{
		{
			ua:   "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36",
			want: UserAgent{Device: "Desktop", Browser: "Chrome", OS: "Windows"},
		},
		{
			ua:   "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36 Edg/124.0",
			want: UserAgent{Device: "Desktop", Browser: "Edge", OS: "Windows"},
		},
		{
			ua:   "Mozilla/5.0 (iPad; CPU OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Safari/604.1",
			want: UserAgent{Device: "Tablet", Browser: "Safari", OS: "iOS"},
		},
		{
			ua:   "Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Mobile Safari/537.36",
			want: UserAgent{Device: "Mobile", Browser: "Chrome", OS: "Android"},
		},
		{
			ua:   "Mozilla/5.0 (X11; Linux x86_64; rv:125.0) Gecko/20100101 Firefox/125.0",
			want: UserAgent{Device: "Desktop", Browser: "Firefox", OS: "Linux"},
		},
		{ua: "", want: UserAgent{}},
	}

	for _, tc := range cases {
		if got := ParseUserAgent(tc.ua); got != tc.want {
			t.Fatalf("ParseUserAgent(%q) = %+v, want %+v", tc.ua, got, tc.want)
		}
	}
}
