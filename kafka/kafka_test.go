package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/KunArthit/petterrain-api-sub000/apperr"
	"github.com/KunArthit/petterrain-api-sub000/circuitbreaker"
	"github.com/KunArthit/petterrain-api-sub000/config"
	"github.com/KunArthit/petterrain-api-sub000/models"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap/zaptest"
)

var testKafka = config.KafkaConfig{
	OrderTopic:    "order-events",
	PaymentTopic:  "payment-events",
	ConsumerGroup: "commerce-api",
}

func TestPublishOrderEvent(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var got models.OrderEvent
		if err := json.Unmarshal(val, &got); err != nil {
			return err
		}
		if got.EventType != models.EventOrderCreated || got.InvoiceNo != "INV-1" {
			return fmt.Errorf("unexpected event %+v", got)
		}
		return nil
	})

	pub := NewOrderEventPublisher(producer, testKafka.OrderTopic, nil, zaptest.NewLogger(t))
	err := pub.PublishOrderEvent(context.Background(), models.OrderEvent{
		OrderID:     1,
		UserID:      7,
		InvoiceNo:   "INV-1",
		Status:      models.OrderStatusPending,
		TotalAmount: decimal.NewFromInt(117),
		EventType:   models.EventOrderCreated,
	})

	require.NoError(t, err)
	require.NoError(t, pub.Close())
}

func TestPublishOrderEventOpensCircuit(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	breaker := circuitbreaker.NewCircuitBreaker(1, time.Minute)
	pub := NewOrderEventPublisher(producer, testKafka.OrderTopic, breaker, zaptest.NewLogger(t))
	event := models.OrderEvent{OrderID: 1, EventType: models.EventOrderPaid}

	assert.ErrorIs(t, pub.PublishOrderEvent(context.Background(), event), sarama.ErrOutOfBrokers)
	assert.ErrorIs(t, pub.PublishOrderEvent(context.Background(), event), circuitbreaker.ErrCircuitOpen)
	assert.Equal(t, circuitbreaker.StateOpen, breaker.GetState())
	require.NoError(t, pub.Close())
}

func TestHeaderCarrierRoundTrip(t *testing.T) {
	prop := propagation.TraceContext{}
	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	out := make(saramaHeaderCarrier, 0)
	prop.Inject(ctx, &out)
	require.NotEmpty(t, out.Get("traceparent"))

	in := make(saramaHeaderCarrierConsumer, len(out))
	for i := range out {
		in[i] = &out[i]
	}
	extracted := trace.SpanContextFromContext(prop.Extract(context.Background(), in))
	assert.Equal(t, traceID, extracted.TraceID())
	assert.Contains(t, in.Keys(), "traceparent")
}

type fakeReconciler struct {
	calls  []models.PaymentEvent
	errs   []error
	onCall func()
}

func (f *fakeReconciler) UpdatePaymentStatus(_ context.Context, invoiceNo, status string, details json.RawMessage) (models.PaymentStatusResponse, error) {
	f.calls = append(f.calls, models.PaymentEvent{InvoiceNo: invoiceNo, PaymentStatus: status, Details: details})
	if f.onCall != nil {
		f.onCall()
	}
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return models.PaymentStatusResponse{}, err
	}
	return models.PaymentStatusResponse{InvoiceNo: invoiceNo, PaymentStatus: status}, nil
}

type fakeNotifier struct{ events []models.OrderEvent }

func (f *fakeNotifier) Notify(_ context.Context, e models.OrderEvent) error {
	f.events = append(f.events, e)
	return nil
}

type fakeSession struct {
	ctx    context.Context
	marked []int64
}

func (s *fakeSession) Claims() map[string][]int32                      { return nil }
func (s *fakeSession) MemberID() string                                { return "member" }
func (s *fakeSession) GenerationID() int32                             { return 1 }
func (s *fakeSession) MarkOffset(string, int32, int64, string)         {}
func (s *fakeSession) Commit()                                         {}
func (s *fakeSession) ResetOffset(string, int32, int64, string)        {}
func (s *fakeSession) Context() context.Context                        { return s.ctx }
func (s *fakeSession) MarkMessage(msg *sarama.ConsumerMessage, _ string) { s.marked = append(s.marked, msg.Offset) }

type fakeClaim struct {
	topic string
	msgs  chan *sarama.ConsumerMessage
}

func (c *fakeClaim) Topic() string                            { return c.topic }
func (c *fakeClaim) Partition() int32                         { return 0 }
func (c *fakeClaim) InitialOffset() int64                     { return 0 }
func (c *fakeClaim) HighWaterMarkOffset() int64               { return int64(len(c.msgs)) }
func (c *fakeClaim) Messages() <-chan *sarama.ConsumerMessage { return c.msgs }

func newTestConsumer(t *testing.T, r PaymentReconciler, n OrderNotifier) *Consumer {
	c := NewConsumer(nil, testKafka, r, n, zaptest.NewLogger(t))
	c.backoff = time.Millisecond
	return c
}

func consume(t *testing.T, c *Consumer, msgs ...*sarama.ConsumerMessage) *fakeSession {
	t.Helper()
	claim := &fakeClaim{topic: msgs[0].Topic, msgs: make(chan *sarama.ConsumerMessage, len(msgs))}
	for _, m := range msgs {
		claim.msgs <- m
	}
	close(claim.msgs)

	session := &fakeSession{ctx: context.Background()}
	require.NoError(t, c.ConsumeClaim(session, claim))
	return session
}

func TestConsumeClaimRoutesPaymentEvents(t *testing.T) {
	r := &fakeReconciler{}
	c := newTestConsumer(t, r, nil)

	session := consume(t, c,
		&sarama.ConsumerMessage{Topic: "payment-events", Offset: 10,
			Value: []byte(`{"invoice_no":"INV-1","payment_status":"completed","details":{"ref":"abc"}}`)},
		&sarama.ConsumerMessage{Topic: "payment-events", Offset: 11,
			Value: []byte(`{"invoice_no":"INV-2","payment_status":"failed"}`)},
	)

	require.Len(t, r.calls, 2)
	assert.Equal(t, "INV-1", r.calls[0].InvoiceNo)
	assert.Equal(t, "completed", r.calls[0].PaymentStatus)
	assert.JSONEq(t, `{"ref":"abc"}`, string(r.calls[0].Details))
	assert.Equal(t, []int64{10, 11}, session.marked)
}

func TestConsumeClaimSkipsStaleTransitions(t *testing.T) {
	r := &fakeReconciler{errs: []error{apperr.InvalidTransition("op", "shipped", "failed")}}
	c := newTestConsumer(t, r, nil)

	session := consume(t, c, &sarama.ConsumerMessage{Topic: "payment-events", Offset: 3,
		Value: []byte(`{"invoice_no":"INV-1","payment_status":"failed"}`)})

	assert.Len(t, r.calls, 1)
	assert.Equal(t, []int64{3}, session.marked)
}

func TestConsumeClaimRetriesTransientErrors(t *testing.T) {
	r := &fakeReconciler{errs: []error{errors.New("connection reset"), nil}}
	c := newTestConsumer(t, r, nil)

	consume(t, c, &sarama.ConsumerMessage{Topic: "payment-events",
		Value: []byte(`{"invoice_no":"INV-1","payment_status":"completed"}`)})

	assert.Len(t, r.calls, 2)
}

func TestConsumeClaimLeavesOffsetWhenStoppedMidRetry(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := &fakeReconciler{errs: []error{errors.New("connection reset")}, onCall: cancel}
	c := newTestConsumer(t, r, nil)
	c.backoff = time.Hour

	claim := &fakeClaim{topic: "payment-events", msgs: make(chan *sarama.ConsumerMessage, 1)}
	claim.msgs <- &sarama.ConsumerMessage{Topic: "payment-events", Offset: 77,
		Value: []byte(`{"invoice_no":"INV-1","payment_status":"completed"}`)}
	close(claim.msgs)

	session := &fakeSession{ctx: ctx}
	require.NoError(t, c.ConsumeClaim(session, claim))

	assert.Len(t, r.calls, 1)
	assert.Empty(t, session.marked)
}

func TestConsumeClaimDropsMalformedPayload(t *testing.T) {
	r := &fakeReconciler{}
	c := newTestConsumer(t, r, nil)

	session := consume(t, c,
		&sarama.ConsumerMessage{Topic: "payment-events", Offset: 1, Value: []byte(`{not json`)},
		&sarama.ConsumerMessage{Topic: "payment-events", Offset: 2, Value: []byte(`{"payment_status":"paid"}`)},
	)

	assert.Empty(t, r.calls)
	assert.Equal(t, []int64{1, 2}, session.marked)
}

func TestConsumeClaimRoutesOrderEvents(t *testing.T) {
	n := &fakeNotifier{}
	c := newTestConsumer(t, &fakeReconciler{}, n)

	otel.SetTextMapPropagator(propagation.TraceContext{})
	consume(t, c, &sarama.ConsumerMessage{Topic: "order-events",
		Value: []byte(`{"order_id":1,"user_id":7,"invoice_no":"INV-1","status":"paid","total_amount":"117","event_type":"order_paid"}`)})

	require.Len(t, n.events, 1)
	assert.Equal(t, models.EventOrderPaid, n.events[0].EventType)
	assert.True(t, decimal.NewFromInt(117).Equal(n.events[0].TotalAmount))
}
