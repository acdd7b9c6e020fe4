package repo

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/mdeepaktiwari/canvas-ai-backend/internal/domain"
)

func TestCreateOrder_AndFetch(t *testing.T) {
	db := newRepoDB(t, &domain.PaymentOrder{})
	ctx := context.Background()

	o, err := CreateOrder(ctx, db, "acc1", "order_ext_1", 9900, 120)
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if o.Status != domain.OrderStatusPending || o.Terminal() {
		t.Fatalf("new order must be pending: %+v", o)
	}

	got, err := GetOrderByExternalID(ctx, db, "order_ext_1", "acc1")
	if err != nil {
		t.Fatalf("GetOrderByExternalID: %v", err)
	}
	if got.ID != o.ID || got.Credits != 120 || got.Amount != 9900 {
		t.Fatalf("unexpected order: %+v", got)
	}

	// Wrong owner must not see the order.
	if _, err := GetOrderByExternalID(ctx, db, "order_ext_1", "acc2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign account, got %v", err)
	}
}

func TestCreateOrder_DuplicateExternalID(t *testing.T) {
	db := newRepoDB(t, &domain.PaymentOrder{})
	ctx := context.Background()

	if _, err := CreateOrder(ctx, db, "acc1", "order_dup", 100, 10); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := CreateOrder(ctx, db, "acc1", "order_dup", 100, 10)
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestCompleteOrder_TransitionsOnce(t *testing.T) {
	db := newRepoDB(t, &domain.PaymentOrder{})
	ctx := context.Background()
	o, _ := CreateOrder(ctx, db, "acc1", "order_once", 100, 10)

	won, err := CompleteOrder(ctx, db, o.ID, "pay_1", "sig_1")
	if err != nil || !won {
		t.Fatalf("first complete: won=%v err=%v", won, err)
	}

	got, _ := GetOrder(ctx, db, o.ID)
	if got.Status != domain.OrderStatusCompleted {
		t.Fatalf("status = %s, want completed", got.Status)
	}
	if got.ExternalPaymentID == nil || *got.ExternalPaymentID != "pay_1" {
		t.Fatalf("payment id not attached: %+v", got)
	}

	// Terminal orders never transition again.
	won, err = CompleteOrder(ctx, db, o.ID, "pay_2", "sig_2")
	if err != nil || won {
		t.Fatalf("second complete must lose: won=%v err=%v", won, err)
	}
	won, err = FailOrder(ctx, db, o.ID)
	if err != nil || won {
		t.Fatalf("fail after complete must lose: won=%v err=%v", won, err)
	}
}

func TestFailOrder_Transitions(t *testing.T) {
	db := newRepoDB(t, &domain.PaymentOrder{})
	ctx := context.Background()
	o, _ := CreateOrder(ctx, db, "acc1", "order_fail", 100, 10)

	won, err := FailOrder(ctx, db, o.ID)
	if err != nil || !won {
		t.Fatalf("FailOrder: won=%v err=%v", won, err)
	}
	got, _ := GetOrder(ctx, db, o.ID)
	if got.Status != domain.OrderStatusFailed {
		t.Fatalf("status = %s, want failed", got.Status)
	}
}

// Two concurrent settlement attempts: exactly one wins the pending→completed
// transition.
func TestCompleteOrder_ConcurrentSingleWinner(t *testing.T) {
	db := newRepoDB(t, &domain.PaymentOrder{})
	ctx := context.Background()
	o, _ := CreateOrder(ctx, db, "acc1", "order_race", 100, 10)

	results := make([]bool, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			won, err := CompleteOrder(ctx, db, o.ID, "pay_x", "sig_x")
			if err != nil {
				t.Errorf("concurrent complete: %v", err)
				return
			}
			results[i] = won
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, w := range results {
		if w {
			wins++
		}
	}
	if wins != 1 {
		t.Fatalf("exactly one completion must win, got %d", wins)
	}
}
