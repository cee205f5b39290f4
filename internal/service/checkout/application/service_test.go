// internal/service/checkout/application/service_test.go
package application

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"meridian/internal/service/checkout/domain"
	"meridian/internal/service/checkout/domain/port"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

// --- 测试替身 ---

// memorySessionRepo 用 JSON 往返做存取，行为上等价于 Redis 仓储：
// 取出来的永远是独立副本，未 Save 的修改不会泄漏。
type memorySessionRepo struct {
	mu       sync.Mutex
	sessions map[string][]byte
}

func newMemorySessionRepo() *memorySessionRepo {
	return &memorySessionRepo{sessions: make(map[string][]byte)}
}

func (r *memorySessionRepo) Save(_ context.Context, sess *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	payload, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	r.sessions[sess.ID] = payload
	return nil
}

func (r *memorySessionRepo) FindByID(_ context.Context, id string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	payload, ok := r.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	var sess domain.Session
	if err := json.Unmarshal(payload, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (r *memorySessionRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

func (r *memorySessionRepo) ActiveIDs(_ context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	return ids, nil
}

type fakeOrderService struct {
	mu          sync.Mutex
	createCalls int
	tokens      []string
	fail        bool
	entered     chan struct{} // 非 nil 时，进入 CreateOrder 后发信号
	release     chan struct{} // 非 nil 时，阻塞直到被关闭
	paid        bool          // GetOrder 返回的支付状态
}

func (f *fakeOrderService) CreateOrder(_ context.Context, _ domain.OrderCreationRequest, idempotencyKey string) (*domain.Order, error) {
	f.mu.Lock()
	f.createCalls++
	n := f.createCalls
	f.tokens = append(f.tokens, idempotencyKey)
	entered, release, fail := f.entered, f.release, f.fail
	f.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if release != nil {
		<-release
	}
	if fail {
		return nil, &domain.OrderError{StatusCode: 503, Err: fmt.Errorf("order service down")}
	}
	return &domain.Order{
		ID:            fmt.Sprintf("order-%d", n),
		OrderNumber:   fmt.Sprintf("ORD-%04d", n),
		Status:        domain.OrderStatusPending,
		PaymentStatus: domain.PaymentStatusPending,
	}, nil
}

func (f *fakeOrderService) GetOrder(_ context.Context, id string) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	status := domain.PaymentStatusPending
	if f.paid {
		status = domain.PaymentStatusPaid
	}
	return &domain.Order{ID: id, Status: domain.OrderStatusPending, PaymentStatus: status}, nil
}

func (f *fakeOrderService) UpdateOrderStatus(_ context.Context, id string, _ *domain.OrderStatus, _ *domain.PaymentStatus) (*domain.Order, error) {
	return &domain.Order{ID: id}, nil
}

type fakePaymentService struct {
	mu          sync.Mutex
	fail        bool
	initiations int
}

func (f *fakePaymentService) InitiatePayment(_ context.Context, req domain.PaymentInitiationRequest) (*domain.PaymentHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.initiations++
	if f.fail {
		return nil, &domain.PaymentError{OrderID: req.OrderID, StatusCode: 502, Err: fmt.Errorf("gateway unavailable")}
	}
	return &domain.PaymentHandle{
		PaymentID:   fmt.Sprintf("pay-%d", f.initiations),
		Status:      domain.PaymentStatusPending,
		Type:        req.PaymentType,
		RedirectURL: "https://gateway.example.com/pay",
	}, nil
}

type fakeCustomerDirectory struct{}

func (fakeCustomerDirectory) Addresses(_ context.Context, _ string) ([]domain.Address, error) {
	return []domain.Address{
		{ID: "addr-1"},
		{ID: "addr-2", IsDefault: true},
	}, nil
}

func (fakeCustomerDirectory) DeliveryMethods(_ context.Context) ([]domain.DeliveryMethod, error) {
	return []domain.DeliveryMethod{{ID: "dm-regular", Fee: 900}}, nil
}

type fakeOriginResolver struct{}

func (fakeOriginResolver) ClientOrigin(_ context.Context) (string, error) {
	return "203.0.113.7", nil
}

type noopJournal struct{}

func (noopJournal) Record(_ context.Context, _ port.AttemptEntry) error { return nil }

const (
	gatewayOrigin = "https://gateway.example.com"
	appOrigin     = "https://shop.example.com"
)

type fixture struct {
	service  *CheckoutApplicationService
	sessions *memorySessionRepo
	orders   *fakeOrderService
	payments *fakePaymentService
}

func newFixture() *fixture {
	sessions := newMemorySessionRepo()
	orders := &fakeOrderService{}
	payments := &fakePaymentService{}
	service := NewCheckoutApplicationService(Deps{
		Sessions:  sessions,
		Orders:    orders,
		Payments:  payments,
		Customers: fakeCustomerDirectory{},
		Origins:   fakeOriginResolver{},
		Journal:   noopJournal{},
		Trusted:   domain.OriginAllowList{gatewayOrigin, appOrigin},
		Tracer:    otel.Tracer("checkout-test"),
		Currency:  "IDR",
		AppOrigin: appOrigin,
	})
	return &fixture{service: service, sessions: sessions, orders: orders, payments: payments}
}

func validLines() []domain.CartLine {
	return []domain.CartLine{
		{ProductID: "7c9e6679-7425-40de-944b-e07fc1f90ae7", Quantity: 2, UnitPrice: 2500},
	}
}

// startAtPayment 把会话推进到 Payment 步骤。
func (f *fixture) startAtPayment(t *testing.T, method domain.PaymentMethod) string {
	t.Helper()
	ctx := context.Background()
	view, err := f.service.BeginCheckout(ctx, &BeginCheckoutRequest{CustomerID: "cust-1", Lines: validLines()})
	require.NoError(t, err)
	if method != "" {
		m := string(method)
		_, err = f.service.UpdateSelection(ctx, view.SessionID, SelectionUpdate{PaymentMethod: &m})
		require.NoError(t, err)
	}
	_, err = f.service.AdvanceToPayment(ctx, view.SessionID)
	require.NoError(t, err)
	return view.SessionID
}

// --- 用例 ---

func TestBeginCheckout_AppliesDirectoryDefaults(t *testing.T) {
	f := newFixture()

	view, err := f.service.BeginCheckout(context.Background(), &BeginCheckoutRequest{
		CustomerID: "cust-1",
		Lines:      validLines(),
	})
	require.NoError(t, err)

	assert.Equal(t, domain.StepInfo, view.Step)
	assert.Equal(t, "addr-2", view.Selection.DeliveryAddressID)
	assert.Equal(t, "addr-2", view.Selection.BillingAddressID)
	assert.Equal(t, "dm-regular", view.Selection.DeliveryMethodID)
	assert.Equal(t, domain.MethodBankTransfer, view.Selection.PaymentMethod)
}

func TestBeginCheckout_RejectsInvalidCartBeforeCreatingAnything(t *testing.T) {
	f := newFixture()

	_, err := f.service.BeginCheckout(context.Background(), &BeginCheckoutRequest{
		CustomerID: "cust-1",
		Lines:      []domain.CartLine{{ProductID: "garbage", Quantity: 1, UnitPrice: 100}},
	})

	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	ids, _ := f.sessions.ActiveIDs(context.Background())
	assert.Empty(t, ids)
}

func TestPlaceOrder_HappyFlowReachesConfirmation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	sessionID := f.startAtPayment(t, domain.MethodEWallet)

	view, err := f.service.PlaceOrder(ctx, sessionID, "test-agent")
	require.NoError(t, err)

	assert.Equal(t, domain.StepConfirmation, view.Step)
	require.NotNil(t, view.Order)
	require.NotNil(t, view.Payment)
	assert.Equal(t, domain.GatewayTypeDebit, view.Payment.Type)
	assert.NotEmpty(t, view.Payment.RedirectURL)
	assert.Equal(t, 1, f.orders.createCalls)
	assert.NotEmpty(t, f.orders.tokens[0])
}

func TestPlaceOrder_RequiresPaymentStep(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	view, err := f.service.BeginCheckout(ctx, &BeginCheckoutRequest{CustomerID: "cust-1", Lines: validLines()})
	require.NoError(t, err)

	_, err = f.service.PlaceOrder(ctx, view.SessionID, "test-agent")
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Zero(t, f.orders.createCalls)
}

func TestPlaceOrder_SecondSubmitRejected(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	sessionID := f.startAtPayment(t, domain.MethodEWallet)

	_, err := f.service.PlaceOrder(ctx, sessionID, "test-agent")
	require.NoError(t, err)

	_, err = f.service.PlaceOrder(ctx, sessionID, "test-agent")
	require.Error(t, err)
	assert.Equal(t, 1, f.orders.createCalls)
}

func TestPlaceOrder_ConcurrentDuplicateGetsInFlightError(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	sessionID := f.startAtPayment(t, domain.MethodEWallet)

	f.orders.entered = make(chan struct{}, 1)
	f.orders.release = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := f.service.PlaceOrder(ctx, sessionID, "test-agent")
		done <- err
	}()

	// 等第一笔提交卡在订单服务里，再发第二笔
	<-f.orders.entered
	_, err := f.service.PlaceOrder(ctx, sessionID, "test-agent")
	assert.ErrorIs(t, err, domain.ErrSubmissionInFlight)

	close(f.orders.release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, f.orders.createCalls)
}

func TestPlaceOrder_PaymentFailureKeepsOrderAndAdvances(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	sessionID := f.startAtPayment(t, domain.MethodCreditCard)
	f.payments.fail = true

	view, err := f.service.PlaceOrder(ctx, sessionID, "test-agent")
	require.NoError(t, err)

	// 订单已创建且保留，支付句柄为空，提示挂在会话上
	assert.Equal(t, domain.StepConfirmation, view.Step)
	require.NotNil(t, view.Order)
	assert.Nil(t, view.Payment)
	assert.NotEmpty(t, view.PaymentNotice)

	// 原单重试支付，不会重建订单
	f.payments.fail = false
	view, err = f.service.RetryPayment(ctx, sessionID, "test-agent")
	require.NoError(t, err)
	require.NotNil(t, view.Payment)
	assert.Empty(t, view.PaymentNotice)
	assert.Equal(t, 1, f.orders.createCalls)
}

func TestRetryPayment_WithoutOrderFails(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	sessionID := f.startAtPayment(t, domain.MethodCreditCard)

	_, err := f.service.RetryPayment(ctx, sessionID, "test-agent")
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestHandleConfirmation_UntrustedOriginDropped(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	sessionID := f.startAtPayment(t, domain.MethodEWallet)
	_, err := f.service.PlaceOrder(ctx, sessionID, "test-agent")
	require.NoError(t, err)

	err = f.service.HandleConfirmation(ctx, sessionID, domain.ConfirmationMessage{
		Type:   domain.ConfirmationPaymentSuccess,
		Origin: "https://evil.example.com",
	})
	assert.ErrorIs(t, err, domain.ErrUntrustedOrigin)

	view, err := f.service.GetSession(ctx, sessionID)
	require.NoError(t, err)
	assert.False(t, view.PaymentConfirmed)
}

func TestHandleConfirmation_SuccessIsIdempotent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	sessionID := f.startAtPayment(t, domain.MethodEWallet)
	_, err := f.service.PlaceOrder(ctx, sessionID, "test-agent")
	require.NoError(t, err)

	msg := domain.ConfirmationMessage{Type: domain.ConfirmationPaymentSuccess, Origin: gatewayOrigin}
	require.NoError(t, f.service.HandleConfirmation(ctx, sessionID, msg))
	require.NoError(t, f.service.HandleConfirmation(ctx, sessionID, msg))

	view, err := f.service.GetSession(ctx, sessionID)
	require.NoError(t, err)
	assert.True(t, view.PaymentConfirmed)
	assert.Equal(t, domain.PaymentStatusPaid, view.Order.PaymentStatus)
}

func TestHandleConfirmation_IgnoredWhenNotArmed(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	// 银行转账走人工路由，没有异步确认
	sessionID := f.startAtPayment(t, domain.MethodBankTransfer)
	_, err := f.service.PlaceOrder(ctx, sessionID, "test-agent")
	require.NoError(t, err)

	err = f.service.HandleConfirmation(ctx, sessionID, domain.ConfirmationMessage{
		Type:   domain.ConfirmationPaymentSuccess,
		Origin: gatewayOrigin,
	})
	require.NoError(t, err)

	view, err := f.service.GetSession(ctx, sessionID)
	require.NoError(t, err)
	assert.False(t, view.PaymentConfirmed)
}

func TestHandleConfirmation_ErrorSetsNoticeOnly(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	sessionID := f.startAtPayment(t, domain.MethodEWallet)
	_, err := f.service.PlaceOrder(ctx, sessionID, "test-agent")
	require.NoError(t, err)

	err = f.service.HandleConfirmation(ctx, sessionID, domain.ConfirmationMessage{
		Type:    domain.ConfirmationPaymentError,
		Message: "card declined",
		Origin:  gatewayOrigin,
	})
	require.NoError(t, err)

	view, err := f.service.GetSession(ctx, sessionID)
	require.NoError(t, err)
	assert.False(t, view.PaymentConfirmed)
	assert.Equal(t, "card declined", view.PaymentNotice)
}

func TestRestart_PlacesFreshOrderWithNewToken(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	sessionID := f.startAtPayment(t, domain.MethodEWallet)
	_, err := f.service.PlaceOrder(ctx, sessionID, "test-agent")
	require.NoError(t, err)

	view, err := f.service.Restart(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, domain.StepPayment, view.Step)
	assert.Nil(t, view.Order)

	view, err = f.service.PlaceOrder(ctx, sessionID, "test-agent")
	require.NoError(t, err)
	require.NotNil(t, view.Order)
	assert.Equal(t, "order-2", view.Order.ID)
	require.Equal(t, 2, f.orders.createCalls)
	assert.NotEqual(t, f.orders.tokens[0], f.orders.tokens[1])
}

func TestUpdateSelection_RestrictedByStep(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	sessionID := f.startAtPayment(t, "")

	// Payment 步骤只允许改支付方式，配送字段的改动被忽略
	addr := "addr-other"
	method := string(domain.MethodCreditCard)
	view, err := f.service.UpdateSelection(ctx, sessionID, SelectionUpdate{
		DeliveryAddressID: &addr,
		PaymentMethod:     &method,
	})
	require.NoError(t, err)
	assert.Equal(t, "addr-2", view.Selection.DeliveryAddressID)
	assert.Equal(t, domain.MethodCreditCard, view.Selection.PaymentMethod)

	// Confirmation 步骤全部冻结
	_, err = f.service.PlaceOrder(ctx, sessionID, "test-agent")
	require.NoError(t, err)
	_, err = f.service.UpdateSelection(ctx, sessionID, SelectionUpdate{PaymentMethod: &method})
	require.Error(t, err)
}

func TestReconciler_ResolvesAbandonedConfirmation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	sessionID := f.startAtPayment(t, domain.MethodEWallet)
	_, err := f.service.PlaceOrder(ctx, sessionID, "test-agent")
	require.NoError(t, err)

	// 确认消息没来，但上游已经收款
	f.orders.paid = true
	r := NewReconciler(f.sessions, f.orders, noopJournal{}, otel.Tracer("checkout-test"), 0, 0)
	require.NoError(t, r.sweep(ctx))

	view, err := f.service.GetSession(ctx, sessionID)
	require.NoError(t, err)
	assert.True(t, view.PaymentConfirmed)
	assert.Equal(t, domain.PaymentStatusPaid, view.Order.PaymentStatus)
}

func TestReconciler_SkipsSessionsWithoutOrder(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.startAtPayment(t, domain.MethodEWallet)

	f.orders.paid = true
	r := NewReconciler(f.sessions, f.orders, noopJournal{}, otel.Tracer("checkout-test"), 0, 0)
	require.NoError(t, r.sweep(ctx))

	ids, _ := f.sessions.ActiveIDs(ctx)
	for _, id := range ids {
		view, err := f.service.GetSession(ctx, id)
		require.NoError(t, err)
		assert.False(t, view.PaymentConfirmed)
	}
}
