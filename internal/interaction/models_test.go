package interaction

import (
	"context"
	"testing"
	"time"
)

func TestStatusIsTerminal(t *testing.T) {
	terminal := []Status{StatusDelivered, StatusFailed, StatusUndelivered, StatusReceived}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Errorf("expected %q to be terminal", s)
		}
	}
	open := []Status{StatusRinging, StatusQueued, StatusSent, StatusCompleted, StatusNoAnswer}
	for _, s := range open {
		if s.IsTerminal() {
			t.Errorf("expected %q to be non-terminal", s)
		}
	}
}

func TestUpdateStatusBySID_UnknownSIDIsNoOp(t *testing.T) {
	repo := NewMemoryRepository()
	if err := repo.UpdateStatusBySID(context.Background(), "SMmissing", StatusDelivered, time.Now()); err != nil {
		t.Fatalf("expected no error for unknown sid, got %v", err)
	}
	if len(repo.All()) != 0 {
		t.Fatalf("expected no rows")
	}
}

func TestUpdateStatusBySID_DoesNotRevertTerminal(t *testing.T) {
	repo := NewMemoryRepository()
	now := time.Unix(1700000000, 0).UTC()
	_, err := repo.Insert(context.Background(), Interaction{
		ID:        "i1",
		TwilioSID: "SM1",
		Status:    StatusDelivered,
		CreatedAt: now,
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := repo.UpdateStatusBySID(context.Background(), "SM1", StatusSent, now.Add(time.Second)); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := repo.GetByID(context.Background(), "i1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != StatusDelivered {
		t.Fatalf("terminal status reverted: got %q", got.Status)
	}
}
