package audit

import (
	"context"
	"testing"
)

func TestService_AppendRequiresAction(t *testing.T) {
	svc := NewService(NewMemoryRepo())

	if err := svc.Append(context.Background(), Event{ActorUser: "admin"}); err == nil {
		t.Fatalf("expected error for missing action")
	}
}

func TestService_LogFillsIDAndTimestamp(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	if err := svc.Log(context.Background(), ActionClientUpdated, "admin", "admin", "1.2.3.4", "c1", "", "updated sms template"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	evs := repo.Events()
	if len(evs) != 1 {
		t.Fatalf("expected 1 event, got %d", len(evs))
	}
	e := evs[0]
	if e.ID == "" || e.CreatedAt.IsZero() {
		t.Fatalf("expected generated id and timestamp: %+v", e)
	}
	if e.Action != ActionClientUpdated || e.ClientID != "c1" || e.IPAddress != "1.2.3.4" {
		t.Fatalf("unexpected event: %+v", e)
	}
}

func TestMemoryRepo_ListFiltersAndOrders(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	_ = svc.Log(ctx, ActionLogin, "admin", "admin", "", "", "", "signed in")
	_ = svc.Log(ctx, ActionSMSSent, "admin", "admin", "", "c1", "i1", "manual sms")
	_ = svc.Log(ctx, ActionLeadUpdated, "admin", "admin", "", "c2", "l1", "status change")

	got, err := repo.List(ctx, "c1", 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].Action != ActionSMSSent {
		t.Fatalf("unexpected filtered events: %+v", got)
	}

	all, err := repo.List(ctx, "", 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 || all[0].Action != ActionLeadUpdated {
		t.Fatalf("expected newest-first limited list: %+v", all)
	}
}
