package postgres

import (
	"context"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/claudemarjean/Ivony/internal/core/domain"
)

const testApp = "2b7f1c0e-4a51-4d7e-9a5b-7c0f8e3d2a10"

func TestVisitStore_ApplicationExists(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	store := NewVisitStore(mock)

	mock.ExpectQuery(`SELECT 1 FROM public\.ivony_application WHERE id = \$1 LIMIT 1`).
		WithArgs(testApp).
		WillReturnRows(pgxmock.NewRows([]string{"?column?"}).AddRow(1))

	ok, err := store.ApplicationExists(context.Background(), testApp)
	if err != nil {
		t.Fatalf("ApplicationExists returned error: %v", err)
	}
	if !ok {
		t.Fatalf("expected application to exist")
	}

	mock.ExpectQuery(`SELECT 1 FROM public\.ivony_application`).
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows([]string{"?column?"}))

	ok, err = store.ApplicationExists(context.Background(), "missing")
	if err != nil {
		t.Fatalf("ApplicationExists returned error: %v", err)
	}
	if ok {
		t.Fatalf("expected missing application")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestVisitStore_HasVisitSince(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	store := NewVisitStore(mock)
	since := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT 1 FROM public\.ivony_consultation WHERE application_id = \$1 AND ip_address = \$2 AND is_deleted = \$3 AND visited_at >= \$4 LIMIT 1`).
		WithArgs(testApp, "203.0.113.7", false, since).
		WillReturnRows(pgxmock.NewRows([]string{"?column?"}).AddRow(1))

	seen, err := store.HasVisitSince(context.Background(), testApp, "203.0.113.7", since)
	if err != nil {
		t.Fatalf("HasVisitSince returned error: %v", err)
	}
	if !seen {
		t.Fatalf("expected a recent visit")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestVisitStore_Insert(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	store := NewVisitStore(mock)
	visitedAt := time.Now().UTC()
	country := "FR"
	device := "Desktop"
	ip := "203.0.113.7"
	source := "click"
	visit := domain.Consultation{
		ID:            "c0000000-0000-4000-8000-000000000001",
		ApplicationID: testApp,
		VisitedAt:     visitedAt,
		Country:       country,
		DeviceType:    device,
		IsUnique:      true,
		IPAddress:     ip,
		Source:        source,
	}

	mock.ExpectExec(`INSERT INTO public\.ivony_consultation`).
		WithArgs(
			visit.ID,
			testApp,
			visitedAt,
			country,
			nil,
			nil,
			device,
			nil,
			nil,
			true,
			false,
			ip,
			source,
			nil,
			false,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := store.Insert(context.Background(), visit); err != nil {
		t.Fatalf("Insert returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
