package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestOrderUpdateApply(t *testing.T) {
	created := time.Date(2025, 5, 26, 9, 0, 0, 0, time.UTC)
	o := &Order{
		ID:            1,
		SenderID:      1,
		Status:        StatusPending,
		PaymentStatus: PaymentPending,
		CreatedAt:     created,
	}

	st := StatusInTransit
	billed := true
	worker := "Karen"
	u := OrderUpdate{Status: &st, Billed: &billed, AssignedWorker: &worker}

	if u.StatusOnly() {
		t.Fatalf("update touching billed must not be status-only")
	}

	u.Apply(o)

	if o.Status != StatusInTransit {
		t.Errorf("status = %q, want %q", o.Status, StatusInTransit)
	}
	if !o.Billed {
		t.Errorf("billed flag not applied")
	}
	if o.AssignedWorker != "Karen" {
		t.Errorf("assigned worker = %q", o.AssignedWorker)
	}
	if o.PaymentStatus != PaymentPending {
		t.Errorf("payment status changed unexpectedly: %q", o.PaymentStatus)
	}
	if !o.CreatedAt.Equal(created) {
		t.Errorf("created at changed: %v", o.CreatedAt)
	}
}

func TestOrderReferences(t *testing.T) {
	rcpt := int64(7)
	o := &Order{SenderID: 3, RecipientID: &rcpt}

	if !o.References(3) || !o.References(7) {
		t.Fatalf("expected order to reference both parties")
	}
	if o.References(4) {
		t.Fatalf("unexpected reference to client 4")
	}
}

func TestSummarize(t *testing.T) {
	orders := []*Order{
		{Status: StatusPending, PaymentStatus: PaymentPending, Total: decimal.RequireFromString("100.00")},
		{Status: StatusInTransit, PaymentStatus: PaymentPaid, Total: decimal.RequireFromString("50.50"), Billed: true},
		{Status: StatusCancelled, PaymentStatus: PaymentPending, Total: decimal.RequireFromString("20.00")},
	}

	s := Summarize(orders)

	if s.Total != 3 {
		t.Fatalf("total = %d, want 3", s.Total)
	}
	if s.ByStatus[StatusPending] != 1 || s.ByStatus[StatusInTransit] != 1 || s.ByStatus[StatusCancelled] != 1 {
		t.Fatalf("by status = %v", s.ByStatus)
	}
	if s.ByStatus[StatusCompleted] != 0 {
		t.Fatalf("completed = %d, want 0", s.ByStatus[StatusCompleted])
	}
	if s.PendingPayment != 2 {
		t.Fatalf("pending payment = %d, want 2", s.PendingPayment)
	}
	if !s.Revenue.Equal(decimal.RequireFromString("150.50")) {
		t.Fatalf("revenue = %s, want 150.50", s.Revenue)
	}
	if !s.BilledAmount.Equal(decimal.RequireFromString("50.50")) {
		t.Fatalf("billed amount = %s, want 50.50", s.BilledAmount)
	}
}

func TestPrincipalCanSeeOrder(t *testing.T) {
	worker := Principal{Username: "Karen", Role: RoleWorker, Permissions: []string{PermOrdersViewAssigned}}
	admin := Principal{Username: "Yovani", Role: RoleAdmin}

	mine := &Order{AssignedWorker: "Karen"}
	other := &Order{AssignedWorker: "Luis"}

	if !worker.CanSeeOrder(mine) {
		t.Errorf("worker must see assigned order")
	}
	if worker.CanSeeOrder(other) {
		t.Errorf("worker must not see unassigned order")
	}
	if !admin.CanSeeOrder(other) {
		t.Errorf("admin must see every order")
	}
}
