package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/bottlemart/backend/internal/platform/gateway"
	"github.com/bottlemart/backend/pkg/config"
	"github.com/bottlemart/backend/pkg/types"
)

// recordingGateway counts outbound gateway calls so tests can assert the
// service never reaches the gateway on a rejected request.
type recordingGateway struct {
	createCalls int
	refundCalls int
}

func (g *recordingGateway) Name() string { return string(types.PaymentGatewayMock) }

func (g *recordingGateway) CreateIntent(_ context.Context, req gateway.CreateIntentRequest) (*gateway.Intent, error) {
	g.createCalls++
	return &gateway.Intent{
		ID:       "pi_test_1",
		Status:   gateway.IntentStatusRequiresPaymentMethod,
		Amount:   req.Amount,
		Currency: req.Currency,
	}, nil
}

func (g *recordingGateway) RetrieveIntent(_ context.Context, _ string) (*gateway.Intent, error) {
	return nil, gateway.ErrIntentNotFound
}

func (g *recordingGateway) Refund(_ context.Context, req gateway.RefundRequest) (*gateway.Refund, error) {
	g.refundCalls++
	return &gateway.Refund{ID: "re_test_1", Amount: req.Amount, Status: "succeeded"}, nil
}

func (g *recordingGateway) VerifyWebhook(_ string, _ []byte) (*gateway.Event, error) {
	return nil, gateway.ErrInvalidSignature
}

func newStubbedService(t *testing.T, gw gateway.Client) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	return NewService(&config.Config{}, zap.NewNop().Sugar(), db, gw), mock
}

func orderRows(id, userID string, total float64, isPaid bool, payStatus types.PaymentStatus, status types.OrderStatus) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "total_price", "currency", "payment_status", "is_paid", "status"}).
		AddRow(id, userID, total, "inr", string(payStatus), isPaid, string(status))
}

func paymentRows(id, orderID, userID string, method types.PaymentMethod, status types.PaymentStatus, txnID string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "order_id", "user_id", "amount", "currency", "method", "gateway", "transaction_id", "status"}).
		AddRow(id, orderID, userID, 499.0, "inr", string(method), "mock", txnID, string(status))
}

func TestCreateIntent_RejectsPaidOrder(t *testing.T) {
	gw := &recordingGateway{}
	svc, mock := newStubbedService(t, gw)

	mock.ExpectQuery(`SELECT (.+) FROM "order" WHERE id = `).
		WillReturnRows(orderRows("o1", "u1", 499, true, types.PaymentStatusCompleted, types.OrderStatusPaid))

	_, err := svc.CreateIntent(context.Background(), CreateIntentInput{
		OrderID:   "o1",
		Amount:    499,
		Currency:  "inr",
		Requester: types.Principal{UserID: "u1", Role: types.UserRoleBuyer},
	})
	require.ErrorIs(t, err, ErrAlreadyProcessed)
	require.Zero(t, gw.createCalls, "a settled order must never be charged again")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateIntent_RejectsOrderPaidAfterPrecheck(t *testing.T) {
	// A webhook settles the order between the unlocked pre-check and the
	// transaction; the locked re-check must still refuse to reset it.
	gw := &recordingGateway{}
	svc, mock := newStubbedService(t, gw)

	mock.ExpectQuery(`SELECT (.+) FROM "order" WHERE id = `).
		WillReturnRows(orderRows("o1", "u1", 499, false, types.PaymentStatusPending, types.OrderStatusPending))
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "order" WHERE id = (.+) FOR UPDATE`).
		WillReturnRows(orderRows("o1", "u1", 499, true, types.PaymentStatusCompleted, types.OrderStatusPaid))
	mock.ExpectRollback()

	_, err := svc.CreateIntent(context.Background(), CreateIntentInput{
		OrderID:   "o1",
		Amount:    499,
		Currency:  "inr",
		Requester: types.Principal{UserID: "u1", Role: types.UserRoleBuyer},
	})
	require.ErrorIs(t, err, ErrAlreadyProcessed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmCash_RejectsPaidOrder(t *testing.T) {
	gw := &recordingGateway{}
	svc, mock := newStubbedService(t, gw)

	mock.ExpectQuery(`SELECT (.+) FROM "order" WHERE id = `).
		WillReturnRows(orderRows("o1", "u1", 499, true, types.PaymentStatusCompleted, types.OrderStatusPaid))

	_, err := svc.ConfirmCash(context.Background(), ConfirmCashInput{
		OrderID:   "o1",
		Amount:    499,
		Requester: types.Principal{UserID: "u1", Role: types.UserRoleBuyer},
	})
	require.ErrorIs(t, err, ErrAlreadyProcessed)
	require.NoError(t, mock.ExpectationsWereMet())
}

// The admin override and the webhook pipeline touch the same (order, payment)
// pair; both must take the order lock before the payment lock or they
// deadlock each other. The ordered expectations fail if the payment row is
// locked first.
func TestUpdateStatus_LocksOrderBeforePayment(t *testing.T) {
	gw := &recordingGateway{}
	svc, mock := newStubbedService(t, gw)

	mock.ExpectQuery(`SELECT (.+) FROM "payment" WHERE id = `).
		WillReturnRows(paymentRows("p1", "o1", "u1", types.PaymentMethodCash, types.PaymentStatusPending, "cash_abc"))
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "order" WHERE id = (.+) FOR UPDATE`).
		WillReturnRows(orderRows("o1", "u1", 499, false, types.PaymentStatusPending, types.OrderStatusConfirmed))
	mock.ExpectQuery(`SELECT (.+) FROM "payment" WHERE id = (.+) FOR UPDATE`).
		WillReturnRows(paymentRows("p1", "o1", "u1", types.PaymentMethodCash, types.PaymentStatusPending, "cash_abc"))
	mock.ExpectExec(`UPDATE "payment" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "order" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := svc.UpdateStatus(context.Background(), "p1", types.PaymentStatusCompleted,
		types.Principal{UserID: "a1", Role: types.UserRoleAdmin})
	require.NoError(t, err)
	require.Equal(t, types.PaymentStatusCompleted, res.Payment.Status)
	require.True(t, res.Order.IsPaid)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatus_RefundsCardViaGateway(t *testing.T) {
	gw := &recordingGateway{}
	svc, mock := newStubbedService(t, gw)

	mock.ExpectQuery(`SELECT (.+) FROM "payment" WHERE id = `).
		WillReturnRows(paymentRows("p1", "o1", "u1", types.PaymentMethodCard, types.PaymentStatusCompleted, "pi_1"))
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "order" WHERE id = (.+) FOR UPDATE`).
		WillReturnRows(orderRows("o1", "u1", 499, true, types.PaymentStatusCompleted, types.OrderStatusPaid))
	mock.ExpectQuery(`SELECT (.+) FROM "payment" WHERE id = (.+) FOR UPDATE`).
		WillReturnRows(paymentRows("p1", "o1", "u1", types.PaymentMethodCard, types.PaymentStatusCompleted, "pi_1"))
	mock.ExpectExec(`UPDATE "payment" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "order" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := svc.UpdateStatus(context.Background(), "p1", types.PaymentStatusRefunded,
		types.Principal{UserID: "a1", Role: types.UserRoleAdmin})
	require.NoError(t, err)
	require.Equal(t, 1, gw.refundCalls)
	require.Equal(t, types.PaymentStatusRefunded, res.Payment.Status)
	require.NotNil(t, res.Payment.RefundedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatus_NonAdminForbidden(t *testing.T) {
	svc, mock := newStubbedService(t, &recordingGateway{})

	_, err := svc.UpdateStatus(context.Background(), "p1", types.PaymentStatusCompleted,
		types.Principal{UserID: "u1", Role: types.UserRoleBuyer})
	require.ErrorIs(t, err, ErrForbidden)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApply_MovesPaymentAndOrderInOneTransaction(t *testing.T) {
	svc, mock := newStubbedService(t, &recordingGateway{})

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "order" WHERE id = (.+) FOR UPDATE`).
		WillReturnRows(orderRows("o1", "u1", 499, false, types.PaymentStatusPending, types.OrderStatusPending))
	mock.ExpectQuery(`SELECT (.+) FROM "payment" WHERE transaction_id = (.+) FOR UPDATE`).
		WillReturnRows(paymentRows("p1", "o1", "u1", types.PaymentMethodCard, types.PaymentStatusPending, "pi_1"))
	mock.ExpectExec(`UPDATE "payment" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "order" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := svc.Apply(context.Background(), ApplyInput{
		OrderID:       "o1",
		TransactionID: "pi_1",
		NewStatus:     types.PaymentStatusCompleted,
		Amount:        499,
		Currency:      "inr",
		Method:        types.PaymentMethodCard,
		Gateway:       types.PaymentGatewayMock,
	})
	require.NoError(t, err)
	require.True(t, res.Applied)
	require.True(t, res.Order.IsPaid)
	require.NotNil(t, res.Payment.ProcessedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApply_StaleTransitionWritesNothing(t *testing.T) {
	svc, mock := newStubbedService(t, &recordingGateway{})

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "order" WHERE id = (.+) FOR UPDATE`).
		WillReturnRows(orderRows("o1", "u1", 499, true, types.PaymentStatusCompleted, types.OrderStatusPaid))
	mock.ExpectQuery(`SELECT (.+) FROM "payment" WHERE transaction_id = (.+) FOR UPDATE`).
		WillReturnRows(paymentRows("p1", "o1", "u1", types.PaymentMethodCard, types.PaymentStatusCompleted, "pi_1"))
	mock.ExpectCommit()

	res, err := svc.Apply(context.Background(), ApplyInput{
		OrderID:       "o1",
		TransactionID: "pi_1",
		NewStatus:     types.PaymentStatusProcessing,
		Method:        types.PaymentMethodCard,
		Gateway:       types.PaymentGatewayMock,
	})
	require.NoError(t, err)
	require.False(t, res.Applied)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApply_UnknownOrder(t *testing.T) {
	svc, mock := newStubbedService(t, &recordingGateway{})

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "order" WHERE id = (.+) FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err := svc.Apply(context.Background(), ApplyInput{
		OrderID:       "o_missing",
		TransactionID: "pi_1",
		NewStatus:     types.PaymentStatusCompleted,
		Method:        types.PaymentMethodCard,
		Gateway:       types.PaymentGatewayMock,
	})
	require.True(t, errors.Is(err, ErrOrderNotFound))
	require.True(t, IsOrderNotFound(err))
	require.NoError(t, mock.ExpectationsWereMet())
}
