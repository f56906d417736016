package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/vega-gateway/internal/model"
)

var settleStaff = []model.StaffMember{
	{ID: "7", Name: "José da Silva", Contact: "11977776666", Status: model.StaffStatusActive},
	{ID: "8", Name: "Ana Souza", Contact: "11955554444", Status: model.StaffStatusActive},
}

var settleOrders = []model.Order{
	{Date: "10/01/2025", Consultant: "Jose  da Silva", TotalValue: 100, TotalCost: 60},
	{Date: "11/01/2025", Consultant: "JOSÉ DA SILVA", TotalValue: 50, TotalCost: 30},
	{Date: "12/01/2025", Consultant: "Ana Souza", TotalValue: 70, TotalCost: 20},
}

func TestSettleConsultantReconciled(t *testing.T) {
	// Авторитетное состояние после удаления: остаётся только Ana.
	source := &stubSource{sheets: map[string]string{
		"pedidos": "data;consultor;produto\n12/01/2025;Ana Souza;Vitamina C\n",
	}}
	sink := &stubSink{}
	svc := newTestService(source, sink)
	seedStaff(svc, settleStaff)
	seedOrders(svc, settleOrders)

	err := svc.SettleConsultant(context.Background(), "7")
	require.NoError(t, err)
	require.Equal(t, 1, sink.deleteCalls)

	for _, order := range svc.Orders() {
		assert.NotEqual(t, "jose da silva", NormalizeName(order.Consultant),
			"settled consultant must not remain after refetch")
	}
	require.Len(t, svc.Orders(), 1)
	assert.Equal(t, "Ana Souza", svc.Orders()[0].Consultant)
}

func TestSettleConsultantRollback(t *testing.T) {
	// Ошибка чтения после отката не должна мешать самому откату.
	source := &stubSource{errs: map[string]error{"pedidos": errors.New("sheet down")}}
	sink := &stubSink{deleteErr: errors.New("network down")}
	svc := newTestService(source, sink)
	seedStaff(svc, settleStaff)
	seedOrders(svc, settleOrders)

	err := svc.SettleConsultant(context.Background(), "7")
	require.ErrorIs(t, err, ErrSettlementFailed)

	restored := svc.Orders()
	require.Len(t, restored, len(settleOrders))
	for i, order := range settleOrders {
		assert.Equal(t, order, restored[i], "order %d must be restored exactly", i)
	}
}

func TestSettleConsultantNothingToSettle(t *testing.T) {
	sink := &stubSink{}
	svc := newTestService(nil, sink)
	seedStaff(svc, settleStaff)
	seedOrders(svc, []model.Order{
		{Consultant: "Ana Souza", TotalValue: 70},
	})

	err := svc.SettleConsultant(context.Background(), "7")
	require.ErrorIs(t, err, ErrNothingToSettle)
	assert.Zero(t, sink.deleteCalls, "remote delete must not be dispatched")
	assert.Len(t, svc.Orders(), 1, "orders must be untouched")
}

func TestSettleConsultantUnknownStaff(t *testing.T) {
	svc := newTestService(nil, nil)
	seedStaff(svc, settleStaff)

	err := svc.SettleConsultant(context.Background(), "999")
	require.ErrorIs(t, err, ErrStaffNotFound)
}

func TestSettleConsultantConcurrentGuard(t *testing.T) {
	source := &stubSource{sheets: map[string]string{"pedidos": "h\n"}}
	sink := &stubSink{
		deleteStarted: make(chan struct{}),
		deleteRelease: make(chan struct{}),
	}
	svc := newTestService(source, sink)
	seedStaff(svc, settleStaff)
	seedOrders(svc, settleOrders)

	firstDone := make(chan error, 1)
	go func() {
		firstDone <- svc.SettleConsultant(context.Background(), "7")
	}()

	// Дожидаемся, пока первая ликвидация повиснет на удалённой записи.
	select {
	case <-sink.deleteStarted:
	case <-time.After(time.Second):
		t.Fatal("first settlement never reached the remote call")
	}

	err := svc.SettleConsultant(context.Background(), "7")
	require.ErrorIs(t, err, ErrSettlementInProgress)

	// Другой консультант при этом не заблокирован.
	anaDone := make(chan error, 1)
	go func() {
		anaDone <- svc.SettleConsultant(context.Background(), "8")
	}()

	close(sink.deleteRelease)
	require.NoError(t, <-firstDone)
	require.NotErrorIs(t, <-anaDone, ErrSettlementInProgress)
}

func TestSettleConsultantContextCancelledDuringDelay(t *testing.T) {
	source := &stubSource{sheets: map[string]string{"pedidos": "h\n"}}
	sink := &stubSink{}
	svc := newTestService(source, sink)
	svc.opts.SettleDelay = time.Minute
	seedStaff(svc, settleStaff)
	seedOrders(svc, settleOrders)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- svc.SettleConsultant(ctx, "7")
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("settlement did not honour context cancellation")
	}
}
