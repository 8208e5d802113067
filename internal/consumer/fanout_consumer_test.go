package consumer

import (
	"context"
	"io"
	"testing"

	"github.com/streadway/amqp"

	"github.com/bunlarinHepsiBitecek/NotificationProcess/internal/models"
	"github.com/bunlarinHepsiBitecek/NotificationProcess/pkg/logger"
)

type fakeAcker struct {
	acked    bool
	nacked   bool
	requeued bool
	rejected bool
}

func (f *fakeAcker) Ack(tag uint64, multiple bool) error {
	f.acked = true
	return nil
}

func (f *fakeAcker) Nack(tag uint64, multiple, requeue bool) error {
	f.nacked = true
	f.requeued = requeue
	return nil
}

func (f *fakeAcker) Reject(tag uint64, requeue bool) error {
	f.rejected = true
	f.requeued = requeue
	return nil
}

type fakeRunner struct {
	err  error
	last *models.FanOutRequest
}

func (f *fakeRunner) FanOut(ctx context.Context, req *models.FanOutRequest) error {
	f.last = req
	return f.err
}

func newTestConsumer(runner FanOutRunner) *FanOutConsumer {
	logr := logger.NewWithWriter("error", io.Discard)
	return NewFanOutConsumer(nil, runner, logr, 3)
}

func TestHandleDeliveryAcksOnSuccess(t *testing.T) {
	runner := &fakeRunner{}
	c := newTestConsumer(runner)
	acker := &fakeAcker{}

	msg := amqp.Delivery{
		Acknowledger: acker,
		Body:         []byte(`{"requestType":"followRequest","fromWhom":"u1","toWhoms":["u2"]}`),
	}
	if err := c.handleDelivery(context.Background(), msg); err != nil {
		t.Fatalf("handleDelivery error: %v", err)
	}
	if !acker.acked {
		t.Error("message was not acked")
	}
	if runner.last == nil || runner.last.FromWhom != "u1" {
		t.Errorf("engine request = %+v", runner.last)
	}
}

func TestHandleDeliveryRejectsMalformedBody(t *testing.T) {
	runner := &fakeRunner{}
	c := newTestConsumer(runner)
	acker := &fakeAcker{}

	msg := amqp.Delivery{Acknowledger: acker, Body: []byte(`{"requestType":`)}
	if err := c.handleDelivery(context.Background(), msg); err == nil {
		t.Fatal("handleDelivery accepted malformed json")
	}
	if !acker.rejected || acker.requeued {
		t.Errorf("malformed body must be rejected without requeue: %+v", acker)
	}
	if runner.last != nil {
		t.Error("engine invoked for malformed body")
	}
}

func TestHandleDeliveryRejectsInvalidRequest(t *testing.T) {
	runner := &fakeRunner{}
	c := newTestConsumer(runner)
	acker := &fakeAcker{}

	msg := amqp.Delivery{
		Acknowledger: acker,
		Body:         []byte(`{"requestType":"followRequest","fromWhom":"u1","toWhoms":[]}`),
	}
	err := c.handleDelivery(context.Background(), msg)
	if models.CodeOf(err) != models.CodeInvalidReceiverCount {
		t.Fatalf("CodeOf(err) = %d, want %d", models.CodeOf(err), models.CodeInvalidReceiverCount)
	}
	if !acker.rejected || acker.requeued {
		t.Errorf("invalid event must be rejected without requeue: %+v", acker)
	}
}

func TestHandleDeliveryRequeuesFreshFailure(t *testing.T) {
	runner := &fakeRunner{err: models.Errf(models.CodeGraphGetEndpointFailed, nil)}
	c := newTestConsumer(runner)
	acker := &fakeAcker{}

	msg := amqp.Delivery{
		Acknowledger: acker,
		Body:         []byte(`{"requestType":"followRequest","fromWhom":"u1","toWhoms":["u2"]}`),
	}
	if err := c.handleDelivery(context.Background(), msg); err == nil {
		t.Fatal("handleDelivery swallowed the engine failure")
	}
	if !acker.nacked || !acker.requeued {
		t.Errorf("fresh failure should be requeued: %+v", acker)
	}
}

func TestHandleDeliveryDeadLettersExhaustedMessage(t *testing.T) {
	runner := &fakeRunner{err: models.Errf(models.CodeGraphGetEndpointFailed, nil)}
	c := newTestConsumer(runner)
	acker := &fakeAcker{}

	msg := amqp.Delivery{
		Acknowledger: acker,
		Body:         []byte(`{"requestType":"followRequest","fromWhom":"u1","toWhoms":["u2"]}`),
		Headers: amqp.Table{
			"x-death": []interface{}{amqp.Table{"count": int64(3)}},
		},
	}
	if err := c.handleDelivery(context.Background(), msg); err == nil {
		t.Fatal("handleDelivery swallowed the engine failure")
	}
	if !acker.nacked || acker.requeued {
		t.Errorf("exhausted message should be dead-lettered: %+v", acker)
	}
}

func TestDeliveryAttempts(t *testing.T) {
	if got := deliveryAttempts(&amqp.Delivery{}); got != 0 {
		t.Errorf("fresh delivery attempts = %d", got)
	}
	if got := deliveryAttempts(&amqp.Delivery{Redelivered: true}); got != 1 {
		t.Errorf("redelivered attempts = %d", got)
	}
	msg := &amqp.Delivery{Headers: amqp.Table{
		"x-death": []interface{}{amqp.Table{"count": int64(4)}},
	}}
	if got := deliveryAttempts(msg); got != 4 {
		t.Errorf("x-death attempts = %d", got)
	}
}
