package lifecycle

import (
	"context"
	"testing"

	"mallpay-be/internal/payment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validIntent() payment.PaymentIntent {
	return payment.PaymentIntent{
		OutTradeNo:  "PAY20240001",
		Amount:      19.99,
		Description: "test order",
		TradeType:   "NATIVE",
	}
}

func TestCoordinator_CreatePayment(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		store := newFakeStore()
		gw := &stubGateway{createPaymentRes: &payment.Result{Params: payment.Params{
			"prepay_id": "wx-prepay-1",
		}}}
		c := NewCoordinator(gw, NewService(store))

		res, err := c.CreatePayment(context.Background(), validIntent())
		require.NoError(t, err)
		assert.Equal(t, "wx-prepay-1", res.PrepayID())

		rec, err := store.GetPayment(context.Background(), "PAY20240001")
		require.NoError(t, err)
		assert.Equal(t, PaymentPending, rec.State)
		assert.Equal(t, int64(1999), rec.TotalFee)
	})

	t.Run("GatewayFailureLeavesNoRecord", func(t *testing.T) {
		store := newFakeStore()
		gw := &stubGateway{createPaymentErr: &payment.GatewayError{
			Category: payment.CategoryRejected,
			Message:  "appid not registered",
		}}
		c := NewCoordinator(gw, NewService(store))

		_, err := c.CreatePayment(context.Background(), validIntent())
		require.Error(t, err)

		_, err = store.GetPayment(context.Background(), "PAY20240001")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestCoordinator_CancelPayment(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		store := newFakeStore()
		svc := NewService(store)
		require.NoError(t, svc.StartPayment(context.Background(), "PAY1", 100))

		gw := &stubGateway{}
		c := NewCoordinator(gw, svc)

		require.NoError(t, c.CancelPayment(context.Background(), "PAY1"))
		assert.Equal(t, []string{"PAY1"}, gw.closedPayments)

		rec, err := store.GetPayment(context.Background(), "PAY1")
		require.NoError(t, err)
		assert.Equal(t, PaymentCancelled, rec.State)
	})

	t.Run("CloseRefusedKeepsState", func(t *testing.T) {
		store := newFakeStore()
		svc := NewService(store)
		require.NoError(t, svc.StartPayment(context.Background(), "PAY1", 100))

		gw := &stubGateway{closePaymentErr: &payment.GatewayError{
			Category: payment.CategoryRejected,
			Message:  "order already paid",
		}}
		c := NewCoordinator(gw, svc)

		require.Error(t, c.CancelPayment(context.Background(), "PAY1"))

		rec, err := store.GetPayment(context.Background(), "PAY1")
		require.NoError(t, err)
		assert.Equal(t, PaymentPending, rec.State)
	})
}

func TestCoordinator_SyncPayment(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	require.NoError(t, svc.StartPayment(context.Background(), "PAY1", 100))

	gw := &stubGateway{queryPaymentRes: &payment.Result{Params: payment.Params{
		"trade_state":    "SUCCESS",
		"transaction_id": "4200001",
	}}}
	c := NewCoordinator(gw, svc)

	state, err := c.SyncPayment(context.Background(), "PAY1")
	require.NoError(t, err)
	assert.Equal(t, PaymentPaid, state)

	rec, err := store.GetPayment(context.Background(), "PAY1")
	require.NoError(t, err)
	assert.Equal(t, "4200001", rec.TransactionID)
}

func TestCoordinator_RefundFlow(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)

	gw := &stubGateway{
		createRefundRes: &payment.Result{Params: payment.Params{"refund_id": "rf-900"}},
		queryRefundRes: &payment.Result{Params: payment.Params{
			"refund_status_0": "SUCCESS",
			"refund_id":       "rf-900",
		}},
	}
	c := NewCoordinator(gw, svc)

	res, err := c.RequestRefund(context.Background(), payment.RefundRequest{
		OutRefundNo: "RF1",
		OutTradeNo:  "PAY1",
		Amount:      19.99,
	})
	require.NoError(t, err)
	assert.Equal(t, "rf-900", res.RefundID())

	rec, err := store.GetRefund(context.Background(), "RF1")
	require.NoError(t, err)
	assert.Equal(t, RefundRequested, rec.State)

	state, err := c.SyncRefund(context.Background(), "RF1")
	require.NoError(t, err)
	assert.Equal(t, RefundCompleted, state)
}
