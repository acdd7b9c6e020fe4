package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mdeepaktiwari/canvas-ai-backend/internal/domain"
	"github.com/mdeepaktiwari/canvas-ai-backend/internal/repo"
)

// ----- Fake gateway -----

type fakeGateway struct {
	mu       sync.Mutex
	calls    int
	amounts  []int64
	receipts []string
	err      error
}

func (g *fakeGateway) CreateOrder(_ context.Context, amount int64, currency, receipt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	g.amounts = append(g.amounts, amount)
	g.receipts = append(g.receipts, receipt)
	if g.err != nil {
		return "", g.err
	}
	return fmt.Sprintf("order_ext_%d", g.calls), nil
}

const testSecret = "test-key-secret"

func signSettlement(orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// ----- Tests -----

func TestPaymentService_Packages(t *testing.T) {
	svc := NewPaymentService(newSvcDB(t), &fakeGateway{}, testSecret, "INR", time.Hour)
	pkgs := svc.Packages()
	if len(pkgs) == 0 {
		t.Fatal("no packages")
	}
	for _, p := range pkgs {
		if p.Price <= 0 || p.Credits <= 0 {
			t.Fatalf("package %q has non-positive price or credits", p.ID)
		}
	}
}

func TestPaymentService_CreateOrder(t *testing.T) {
	db := newSvcDB(t)
	acc := seedAccount(t, db, 0)
	gw := &fakeGateway{}
	svc := NewPaymentService(db, gw, testSecret, "INR", time.Hour)

	pkg, _ := domain.PackageByID("standard")
	order, err := svc.CreateOrder(context.Background(), acc.ID, pkg.ID, "")
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if order.Status != domain.OrderStatusPending {
		t.Fatalf("status = %q, want pending", order.Status)
	}
	if order.Amount != pkg.Price*100 {
		t.Fatalf("amount = %d paise, want %d", order.Amount, pkg.Price*100)
	}
	if order.Credits != pkg.Credits {
		t.Fatalf("credits = %d, want %d", order.Credits, pkg.Credits)
	}
	if gw.amounts[0] != pkg.Price*100 {
		t.Fatalf("gateway amount = %d, want %d", gw.amounts[0], pkg.Price*100)
	}
	if !strings.HasPrefix(gw.receipts[0], acc.ID+"_") {
		t.Fatalf("receipt %q not keyed by account", gw.receipts[0])
	}
}

func TestPaymentService_CreateOrder_UnknownPackage(t *testing.T) {
	db := newSvcDB(t)
	acc := seedAccount(t, db, 0)
	svc := NewPaymentService(db, &fakeGateway{}, testSecret, "INR", time.Hour)

	if _, err := svc.CreateOrder(context.Background(), acc.ID, "mega", ""); !errors.Is(err, ErrInvalidPackage) {
		t.Fatalf("err = %v, want ErrInvalidPackage", err)
	}
}

func TestPaymentService_CreateOrder_IdempotentRetry(t *testing.T) {
	db := newSvcDB(t)
	acc := seedAccount(t, db, 0)
	gw := &fakeGateway{}
	svc := NewPaymentService(db, gw, testSecret, "INR", time.Hour)
	ctx := context.Background()

	first, err := svc.CreateOrder(ctx, acc.ID, "starter", "idem-1")
	if err != nil {
		t.Fatalf("first CreateOrder: %v", err)
	}
	second, err := svc.CreateOrder(ctx, acc.ID, "starter", "idem-1")
	if err != nil {
		t.Fatalf("retry CreateOrder: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("retry produced a new order %s, want %s", second.ID, first.ID)
	}
	if gw.calls != 1 {
		t.Fatalf("gateway called %d times, want 1", gw.calls)
	}

	// A different key creates a fresh order.
	third, err := svc.CreateOrder(ctx, acc.ID, "starter", "idem-2")
	if err != nil {
		t.Fatalf("third CreateOrder: %v", err)
	}
	if third.ID == first.ID {
		t.Fatal("distinct keys returned the same order")
	}
}

func TestPaymentService_Verify_GrantsOnce(t *testing.T) {
	db := newSvcDB(t)
	acc := seedAccount(t, db, 5)
	svc := NewPaymentService(db, &fakeGateway{}, testSecret, "INR", time.Hour)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, acc.ID, "starter", "")
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	sig := signSettlement(order.ExternalOrderID, "pay_1")

	bal, err := svc.Verify(ctx, acc.ID, order.ExternalOrderID, "pay_1", sig)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if want := int64(5) + order.Credits; bal != want {
		t.Fatalf("balance = %d, want %d", bal, want)
	}

	got, err := repo.GetOrder(ctx, db, order.ID)
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if got.Status != domain.OrderStatusCompleted {
		t.Fatalf("status = %q, want completed", got.Status)
	}
	if got.ExternalPaymentID == nil || *got.ExternalPaymentID != "pay_1" {
		t.Fatal("payment id not recorded")
	}

	// Replay: no second grant.
	if _, err := svc.Verify(ctx, acc.ID, order.ExternalOrderID, "pay_1", sig); !errors.Is(err, ErrAlreadyProcessed) {
		t.Fatalf("replay err = %v, want ErrAlreadyProcessed", err)
	}
	if got := accountBalance(t, db, acc.ID); got != 5+order.Credits {
		t.Fatalf("replay changed balance to %d", got)
	}
}

func TestPaymentService_Verify_BadSignature(t *testing.T) {
	db := newSvcDB(t)
	acc := seedAccount(t, db, 0)
	svc := NewPaymentService(db, &fakeGateway{}, testSecret, "INR", time.Hour)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, acc.ID, "starter", "")
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	_, err = svc.Verify(ctx, acc.ID, order.ExternalOrderID, "pay_1", "deadbeef")
	if !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("err = %v, want ErrInvalidSignature", err)
	}
	if got := accountBalance(t, db, acc.ID); got != 0 {
		t.Fatalf("bad signature granted credits: balance %d", got)
	}

	got, err := repo.GetOrder(ctx, db, order.ID)
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if got.Status != domain.OrderStatusFailed {
		t.Fatalf("status = %q, want failed", got.Status)
	}

	// A later valid signature cannot resurrect the failed order.
	sig := signSettlement(order.ExternalOrderID, "pay_1")
	if _, err := svc.Verify(ctx, acc.ID, order.ExternalOrderID, "pay_1", sig); !errors.Is(err, ErrAlreadyProcessed) {
		t.Fatalf("err = %v, want ErrAlreadyProcessed", err)
	}
}

func TestPaymentService_Verify_OrderNotFound(t *testing.T) {
	db := newSvcDB(t)
	acc := seedAccount(t, db, 0)
	other := seedAccount(t, db, 0)
	svc := NewPaymentService(db, &fakeGateway{}, testSecret, "INR", time.Hour)
	ctx := context.Background()

	if _, err := svc.Verify(ctx, acc.ID, "order_missing", "p", "s"); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("err = %v, want ErrOrderNotFound", err)
	}

	// Another account's order is invisible.
	order, err := svc.CreateOrder(ctx, other.ID, "starter", "")
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	sig := signSettlement(order.ExternalOrderID, "pay_x")
	if _, err := svc.Verify(ctx, acc.ID, order.ExternalOrderID, "pay_x", sig); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("cross-account err = %v, want ErrOrderNotFound", err)
	}
}

func TestPaymentService_Verify_ConcurrentSingleGrant(t *testing.T) {
	db := newSvcDB(t)
	db.Exec("PRAGMA busy_timeout=5000;")
	acc := seedAccount(t, db, 0)
	svc := NewPaymentService(db, &fakeGateway{}, testSecret, "INR", time.Hour)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, acc.ID, "pro", "")
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	sig := signSettlement(order.ExternalOrderID, "pay_c")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Verify(ctx, acc.ID, order.ExternalOrderID, "pay_c", sig)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, e := range errs {
		if e == nil {
			wins++
		} else if !errors.Is(e, ErrAlreadyProcessed) {
			t.Fatalf("unexpected error: %v", e)
		}
	}
	if wins != 1 {
		t.Fatalf("wins = %d, want exactly 1", wins)
	}
	if got := accountBalance(t, db, acc.ID); got != order.Credits {
		t.Fatalf("balance = %d, want single grant %d", got, order.Credits)
	}
}
