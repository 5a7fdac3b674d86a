package memory

import (
	"context"
	"errors"
	"testing"

	"calendar-service/internal/models"
	"calendar-service/pkg/response"
)

func TestStorage_CreateReservation_Capacity(t *testing.T) {
	ctx := context.Background()
	store := New()

	const serviceID = "svc-1"
	const slot = int64(1614675600000)

	if _, err := store.CreateReservation(ctx, serviceID, slot, 2); err != nil {
		t.Fatalf("first reservation: %v", err)
	}
	if _, err := store.CreateReservation(ctx, serviceID, slot, 2); err != nil {
		t.Fatalf("second reservation: %v", err)
	}

	if _, err := store.CreateReservation(ctx, serviceID, slot, 2); !errors.Is(err, response.ErrConflict) {
		t.Fatalf("expected ErrConflict at capacity, got %v", err)
	}
	if count, _ := store.CountReservations(ctx, serviceID, slot); count != 2 {
		t.Fatalf("overrun attempt must be backed out, count = %d", count)
	}

	t.Run("other slots are independent", func(t *testing.T) {
		if _, err := store.CreateReservation(ctx, serviceID, slot+1800000, 2); err != nil {
			t.Fatalf("reservation at another timestamp: %v", err)
		}
	})

	t.Run("removal frees one hold", func(t *testing.T) {
		if err := store.RemoveReservation(ctx, serviceID, slot); err != nil {
			t.Fatalf("RemoveReservation: %v", err)
		}
		if count, _ := store.CountReservations(ctx, serviceID, slot); count != 1 {
			t.Fatalf("count after removal = %d, want 1", count)
		}
		if _, err := store.CreateReservation(ctx, serviceID, slot, 2); err != nil {
			t.Fatalf("reservation after removal: %v", err)
		}
	})
}

func TestStorage_EventScoping(t *testing.T) {
	ctx := context.Background()
	store := New()

	ev, err := models.NewCalendarEvent("cal-1", "alice", "acc-1", 1000, 500, true)
	if err != nil {
		t.Fatalf("NewCalendarEvent: %v", err)
	}
	if err := store.CreateEvent(ctx, ev); err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}

	if _, err := store.GetEvent(ctx, ev.ID, "acc-1"); err != nil {
		t.Fatalf("GetEvent: %v", err)
	}
	if _, err := store.GetEvent(ctx, ev.ID, "acc-2"); !errors.Is(err, response.ErrNotFound) {
		t.Fatalf("foreign account must look like a miss, got %v", err)
	}

	t.Run("calendar listing honors the span filter", func(t *testing.T) {
		span, err := models.NewTimeSpan(0, 900)
		if err != nil {
			t.Fatalf("NewTimeSpan: %v", err)
		}
		events, err := store.ListEventsByCalendar(ctx, "cal-1", &span)
		if err != nil {
			t.Fatalf("ListEventsByCalendar: %v", err)
		}
		if len(events) != 0 {
			t.Fatalf("event outside the span must be filtered, got %d", len(events))
		}

		span, err = models.NewTimeSpan(0, 1500)
		if err != nil {
			t.Fatalf("NewTimeSpan: %v", err)
		}
		events, err = store.ListEventsByCalendar(ctx, "cal-1", &span)
		if err != nil {
			t.Fatalf("ListEventsByCalendar: %v", err)
		}
		if len(events) != 1 {
			t.Fatalf("expected the event inside the span, got %d", len(events))
		}
	})
}

func TestStorage_ExpansionJobs(t *testing.T) {
	ctx := context.Background()
	store := New()

	if err := store.UpsertExpansionJob(ctx, "ev-1", 5000); err != nil {
		t.Fatalf("UpsertExpansionJob: %v", err)
	}
	if err := store.UpsertExpansionJob(ctx, "ev-1", 9000); err != nil {
		t.Fatalf("UpsertExpansionJob: %v", err)
	}

	if ts, ok := store.ExpansionJob("ev-1"); !ok || ts != 9000 {
		t.Fatalf("marker = (%d, %v), want (9000, true)", ts, ok)
	}

	if err := store.DeleteExpansionJobs(ctx, "ev-1"); err != nil {
		t.Fatalf("DeleteExpansionJobs: %v", err)
	}
	if _, ok := store.ExpansionJob("ev-1"); ok {
		t.Fatalf("marker should be gone after delete")
	}
}
