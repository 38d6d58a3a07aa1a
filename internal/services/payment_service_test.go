package services_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"galeri/internal/models"
	"galeri/internal/services"
	"galeri/pkg/daraja"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// placeOrder runs a checkout for one unit of a fresh artwork and returns the
// result plus the artwork, for tests that start from an order awaiting its
// callback.
func placeOrder(t *testing.T, f *fixture) (*services.CheckoutResult, *models.Artwork) {
	t.Helper()
	a := f.addArtwork(t, "Sunset Over Nairobi", 4500, 3)
	result, err := f.checkout.Checkout(context.Background(), services.CheckoutRequest{
		UserID:           "user-1",
		Items:            []models.CartItem{{ArtworkID: a.ID, Quantity: 1}},
		DeliveryOptionID: f.shipOption.ID,
		ShippingAddress:  "14 Riverside Drive",
		PayerPhone:       "254712345678",
	})
	require.NoError(t, err)
	return result, a
}

func TestHandleCallback_SuccessSettlesOrder(t *testing.T) {
	f := newFixture(t)
	result, a := placeOrder(t, f)

	err := f.paymentSvc.HandleCallback(result.CheckoutRequestID, daraja.ResultSuccess, "The service request is processed successfully.", "QGH7SK61SU")
	require.NoError(t, err)

	order, err := f.orders.GetByID(result.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPaid, order.Status)
	assert.Equal(t, "QGH7SK61SU", order.PaymentGatewayRef)
	// Paid orders keep their stock reservation
	assert.Equal(t, 2, f.stockOf(t, a.ID))

	pending, err := f.payments.GetByCheckoutRequestID(result.CheckoutRequestID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentResolved, pending.Status)

	// Buyer sees the payment confirmation; back office sees the paid order
	page, err := f.notifier.ListForUser("user-1", false, false, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Contains(t, page.Items[0].Message, "Payment received")

	adminPage, err := f.notifier.ListForUser("admin-1", true, false, 1, 10)
	require.NoError(t, err)
	require.Len(t, adminPage.Items, 1)
	assert.Contains(t, adminPage.Items[0].Message, "paid")
}

func TestHandleCallback_FailureCancelsAndRestocks(t *testing.T) {
	f := newFixture(t)
	result, a := placeOrder(t, f)

	err := f.paymentSvc.HandleCallback(result.CheckoutRequestID, daraja.ResultCancelledByUser, "Request cancelled by user", "")
	require.NoError(t, err)

	order, err := f.orders.GetByID(result.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, order.Status)
	assert.Equal(t, 3, f.stockOf(t, a.ID))

	page, err := f.notifier.ListForUser("user-1", false, false, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Contains(t, page.Items[0].Message, "cancelled on the phone")
}

func TestHandleCallback_SuccessWithoutReceiptNeverPays(t *testing.T) {
	f := newFixture(t)
	result, a := placeOrder(t, f)

	err := f.paymentSvc.HandleCallback(result.CheckoutRequestID, daraja.ResultSuccess, "The service request is processed successfully.", "")
	require.NoError(t, err)

	order, err := f.orders.GetByID(result.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, order.Status)
	assert.Empty(t, order.PaymentGatewayRef)
	assert.Equal(t, 3, f.stockOf(t, a.ID))

	pending, err := f.payments.GetByCheckoutRequestID(result.CheckoutRequestID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentResolved, pending.Status)
	assert.Contains(t, pending.ResultDesc, "receipt number missing")

	page, err := f.notifier.ListForUser("user-1", false, false, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Contains(t, page.Items[0].Message, "missing its receipt number")
}

func TestHandleCallback_DuplicateDeliveryIsNoOp(t *testing.T) {
	f := newFixture(t)
	result, _ := placeOrder(t, f)

	require.NoError(t, f.paymentSvc.HandleCallback(result.CheckoutRequestID, daraja.ResultSuccess, "ok", "QGH7SK61SU"))

	err := f.paymentSvc.HandleCallback(result.CheckoutRequestID, daraja.ResultSuccess, "ok", "QGH7SK61SU")
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrUnknownCallback))

	order, err := f.orders.GetByID(result.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPaid, order.Status)
}

func TestHandleCallback_UnknownCheckoutRequestID(t *testing.T) {
	f := newFixture(t)

	err := f.paymentSvc.HandleCallback("ws_CO_never_issued", daraja.ResultSuccess, "ok", "QGH7SK61SU")
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrUnknownCallback))
}

func TestHandleCallback_ConcurrentDuplicates(t *testing.T) {
	f := newFixture(t)
	result, _ := placeOrder(t, f)

	const deliveries = 8
	var wg sync.WaitGroup
	errs := make([]error, deliveries)
	for i := 0; i < deliveries; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = f.paymentSvc.HandleCallback(result.CheckoutRequestID, daraja.ResultSuccess, "ok", "QGH7SK61SU")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.True(t, errors.Is(err, models.ErrUnknownCallback))
		}
	}
	assert.Equal(t, 1, succeeded)

	order, err := f.orders.GetByID(result.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPaid, order.Status)
}

func TestInitiate_RejectsNonPositiveAmount(t *testing.T) {
	f := newFixture(t)

	_, err := f.paymentSvc.Initiate(context.Background(), &models.Order{ID: "order-1"}, "254712345678")
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrInvalidAmount))
	assert.Equal(t, 0, f.gateway.calls)
}

func TestInitiate_ClassifiesGatewayFailure(t *testing.T) {
	f := newFixture(t)
	f.gateway.err = fmt.Errorf("dial tcp: i/o timeout")

	_, err := f.paymentSvc.Initiate(context.Background(), &models.Order{ID: "order-1", TotalPrice: 1000}, "254712345678")
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrGatewayUnavailable))
}

func TestExpireOverdue_CancelsOrderAndRestocks(t *testing.T) {
	f := newFixture(t)
	result, a := placeOrder(t, f)

	// Nothing is due yet
	n, err := f.paymentSvc.ExpireOverdue(time.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = f.paymentSvc.ExpireOverdue(time.Now().Add(10 * time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	order, err := f.orders.GetByID(result.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, order.Status)
	assert.Equal(t, 3, f.stockOf(t, a.ID))

	pending, err := f.payments.GetByCheckoutRequestID(result.CheckoutRequestID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentExpired, pending.Status)

	page, err := f.notifier.ListForUser("user-1", false, false, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Contains(t, page.Items[0].Message, "payment window expired")
}

func TestExpireOverdue_LateCallbackAfterExpiry(t *testing.T) {
	f := newFixture(t)
	result, _ := placeOrder(t, f)

	_, err := f.paymentSvc.ExpireOverdue(time.Now().Add(10 * time.Minute))
	require.NoError(t, err)

	// The provider delivers the callback after the sweep already won
	err = f.paymentSvc.HandleCallback(result.CheckoutRequestID, daraja.ResultSuccess, "ok", "QGH7SK61SU")
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrUnknownCallback))

	order, err := f.orders.GetByID(result.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, order.Status)
}

func TestExpireOverdue_ConcurrentSweeps(t *testing.T) {
	f := newFixture(t)
	result, _ := placeOrder(t, f)

	var wg sync.WaitGroup
	counts := make([]int, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			n, err := f.paymentSvc.ExpireOverdue(time.Now().Add(10 * time.Minute))
			assert.NoError(t, err)
			counts[i] = n
		}(i)
	}
	wg.Wait()

	total := 0
	for _, n := range counts {
		total += n
	}
	assert.Equal(t, 1, total)

	order, err := f.orders.GetByID(result.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, order.Status)
}

func TestRunExpirySweeper_StopsOnContextCancel(t *testing.T) {
	f := newFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		f.paymentSvc.RunExpirySweeper(ctx, 10*time.Millisecond)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after context cancellation")
	}
}
