package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/boddenberg/storefront-bff-go/internal/domain"
	"github.com/boddenberg/storefront-bff-go/internal/infra/observability"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
)

func TestAddItem_ReloadsAndRecomputesTotal(t *testing.T) {
	gw := newMockCartGateway()
	gw.seedProduct(mug())
	svc := newTestCartService(t, gw)

	cart, err := svc.AddItem(context.Background(), mug().ID, 2)
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if got := cart.Total(); got != 20 {
		t.Errorf("expected total 20.00, got %.2f", got)
	}
	if gw.getCalls != 1 {
		t.Errorf("expected exactly one reload, got %d", gw.getCalls)
	}
}

func TestAddItem_RejectsBadQuantityWithoutNetwork(t *testing.T) {
	gw := newMockCartGateway()
	svc := newTestCartService(t, gw)

	_, err := svc.AddItem(context.Background(), mug().ID, 0)
	var verr *domain.ErrValidation
	if !errors.As(err, &verr) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if gw.addCalls != 0 || gw.getCalls != 0 {
		t.Errorf("expected no network calls, got add=%d get=%d", gw.addCalls, gw.getCalls)
	}
}

func TestMirrorReplacedWholesale(t *testing.T) {
	gw := newMockCartGateway()
	gw.seedProduct(mug())
	svc := newTestCartService(t, gw)

	if _, err := svc.AddItem(context.Background(), mug().ID, 1); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	// Another device added a shirt. The next mutation's reload must pick
	// it up because the mirror is replaced, never patched.
	gw.seedProduct(shirt())
	gw.mu.Lock()
	gw.lines = append(gw.lines, domain.CartLine{ID: 99, Product: shirt(), Quantity: 1})
	gw.mu.Unlock()

	cart, err := svc.AddItem(context.Background(), mug().ID, 1)
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if len(cart.Lines) != 2 {
		t.Fatalf("expected mirror to carry both lines, got %+v", cart.Lines)
	}
}

func TestSetQuantity_SameValueSkipsNetwork(t *testing.T) {
	gw := newMockCartGateway()
	gw.seedProduct(mug())
	svc := newTestCartService(t, gw)

	cart, err := svc.AddItem(context.Background(), mug().ID, 2)
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	lineID := cart.Lines[0].ID

	before := gw.updateCalls
	again, err := svc.SetQuantity(context.Background(), lineID, 2)
	if err != nil {
		t.Fatalf("SetQuantity: %v", err)
	}
	if gw.updateCalls != before {
		t.Errorf("expected no update call for unchanged quantity")
	}
	if diff := cmp.Diff(cart, again); diff != "" {
		t.Errorf("mirror changed on no-op (-want +got):\n%s", diff)
	}
}

func TestSetQuantity_UpdatesAndReloads(t *testing.T) {
	gw := newMockCartGateway()
	gw.seedProduct(mug())
	svc := newTestCartService(t, gw)

	cart, err := svc.AddItem(context.Background(), mug().ID, 1)
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	cart, err = svc.SetQuantity(context.Background(), cart.Lines[0].ID, 5)
	if err != nil {
		t.Fatalf("SetQuantity: %v", err)
	}
	if cart.Lines[0].Quantity != 5 {
		t.Errorf("expected quantity 5, got %d", cart.Lines[0].Quantity)
	}
	if got := cart.Total(); got != 50 {
		t.Errorf("expected total 50.00, got %.2f", got)
	}
}

func TestSetQuantity_OverStockFailsLocally(t *testing.T) {
	gw := newMockCartGateway()
	gw.seedProduct(mug())
	svc := newTestCartService(t, gw)

	cart, err := svc.AddItem(context.Background(), mug().ID, 1)
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	before := gw.updateCalls
	_, err = svc.SetQuantity(context.Background(), cart.Lines[0].ID, mug().StockQuantity+1)
	var verr *domain.ErrValidation
	if !errors.As(err, &verr) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if gw.updateCalls != before {
		t.Errorf("expected no update request for an over-stock quantity")
	}
}

func TestRemoveLine_AbsentLineSucceeds(t *testing.T) {
	gw := newMockCartGateway()
	gw.seedProduct(mug())
	svc := newTestCartService(t, gw)

	if _, err := svc.AddItem(context.Background(), mug().ID, 1); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	cart, err := svc.RemoveLine(context.Background(), 12345)
	if err != nil {
		t.Fatalf("expected removing an absent line to succeed, got %v", err)
	}
	if len(cart.Lines) != 1 {
		t.Errorf("expected the existing line to survive, got %+v", cart.Lines)
	}
}

func TestRemoveLine_RemovesAndReloads(t *testing.T) {
	gw := newMockCartGateway()
	gw.seedProduct(mug())
	svc := newTestCartService(t, gw)

	cart, err := svc.AddItem(context.Background(), mug().ID, 1)
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	cart, err = svc.RemoveLine(context.Background(), cart.Lines[0].ID)
	if err != nil {
		t.Fatalf("RemoveLine: %v", err)
	}
	if len(cart.Lines) != 0 {
		t.Errorf("expected empty cart, got %+v", cart.Lines)
	}
	if got := cart.Total(); got != 0 {
		t.Errorf("expected total 0, got %.2f", got)
	}
}

func TestConcurrentSetQuantity_BothLand(t *testing.T) {
	gw := newMockCartGateway()
	gw.seedProduct(mug())
	gw.seedProduct(shirt())
	svc := newTestCartService(t, gw)

	cart, err := svc.AddItem(context.Background(), mug().ID, 1)
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	cart, err = svc.AddItem(context.Background(), shirt().ID, 1)
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	mugLine, shirtLine := cart.Lines[0].ID, cart.Lines[1].ID

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if _, err := svc.SetQuantity(context.Background(), mugLine, 3); err != nil {
			t.Errorf("SetQuantity mug: %v", err)
		}
	}()
	go func() {
		defer wg.Done()
		if _, err := svc.SetQuantity(context.Background(), shirtLine, 4); err != nil {
			t.Errorf("SetQuantity shirt: %v", err)
		}
	}()
	wg.Wait()

	final, err := svc.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if got := final.Line(mugLine); got == nil || got.Quantity != 3 {
		t.Errorf("mug line lost its update: %+v", got)
	}
	if got := final.Line(shirtLine); got == nil || got.Quantity != 4 {
		t.Errorf("shirt line lost its update: %+v", got)
	}
}

func TestLoad_SupersededFetchIsDiscarded(t *testing.T) {
	gw := newMockCartGateway()
	gw.seedProduct(mug())
	svc := newTestCartService(t, gw)

	started, release := gw.gateNextGet()

	loaded := make(chan *domain.Cart, 1)
	loadErr := make(chan error, 1)
	go func() {
		cart, err := svc.Load(context.Background())
		loadErr <- err
		loaded <- cart
	}()
	<-started

	// The add lands while the first fetch is still in flight. Its reload
	// wins; the stale empty snapshot must never overwrite the mirror.
	if _, err := svc.AddItem(context.Background(), mug().ID, 2); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	close(release)

	if err := <-loadErr; err != nil {
		t.Fatalf("Load: %v", err)
	}
	cart := <-loaded
	if len(cart.Lines) != 1 || cart.Lines[0].Quantity != 2 {
		t.Fatalf("superseded load handed back stale cart: %+v", cart.Lines)
	}

	before := gw.getCalls
	final, err := svc.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(final.Lines) != 1 || final.Lines[0].Quantity != 2 {
		t.Errorf("mirror lost the mutation to a stale load: %+v", final.Lines)
	}
	if gw.getCalls != before {
		t.Errorf("expected the mirror to be served without a fetch, getCalls=%d", gw.getCalls)
	}
}

func TestTotal_IsPureOverMirror(t *testing.T) {
	gw := newMockCartGateway()
	gw.seedProduct(mug())
	svc := newTestCartService(t, gw)

	if got := svc.Total(context.Background()); got != 0 {
		t.Errorf("expected 0 for an unsynced cart, got %.2f", got)
	}
	if gw.getCalls != 0 {
		t.Errorf("Total must not contact the server, getCalls=%d", gw.getCalls)
	}

	if _, err := svc.AddItem(context.Background(), mug().ID, 3); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	before := gw.getCalls
	if got := svc.Total(context.Background()); got != 30 {
		t.Errorf("expected total 30.00, got %.2f", got)
	}
	if gw.getCalls != before {
		t.Errorf("Total must read the mirror only, getCalls went %d to %d", before, gw.getCalls)
	}
}

func TestTotal_GuestIsZero(t *testing.T) {
	gw := newMockCartGateway()
	svc := NewCartService(gw, guestSession(t), observability.NewMetrics(), zap.NewNop())

	if got := svc.Total(context.Background()); got != 0 {
		t.Errorf("expected 0 for a guest, got %.2f", got)
	}
	if gw.getCalls != 0 {
		t.Errorf("expected no network call for a guest, getCalls=%d", gw.getCalls)
	}
}

func TestCartOperationsRequireSession(t *testing.T) {
	gw := newMockCartGateway()
	svc := NewCartService(gw, guestSession(t), observability.NewMetrics(), zap.NewNop())

	_, err := svc.Load(context.Background())
	var unauth *domain.ErrUnauthenticated
	if !errors.As(err, &unauth) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if gw.getCalls != 0 {
		t.Errorf("expected no network call for a guest")
	}
}

func TestDiscardAll_DropsMirrors(t *testing.T) {
	gw := newMockCartGateway()
	gw.seedProduct(mug())
	svc := newTestCartService(t, gw)

	if _, err := svc.AddItem(context.Background(), mug().ID, 1); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	svc.DiscardAll()

	before := gw.getCalls
	if _, err := svc.Snapshot(context.Background()); err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if gw.getCalls != before+1 {
		t.Errorf("expected a fresh load after discard, getCalls=%d", gw.getCalls)
	}
}
