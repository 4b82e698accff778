package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ThanhHiepNguyen/techshop-backend/internal/clients/vnpay"
	"github.com/ThanhHiepNguyen/techshop-backend/internal/logger"
	"github.com/ThanhHiepNguyen/techshop-backend/internal/repos"
	"github.com/ThanhHiepNguyen/techshop-backend/internal/requestdata"
	"github.com/ThanhHiepNguyen/techshop-backend/internal/types"
)

// CallbackResult tells the handler how to answer the gateway redirect. The
// gateway retries IPN deliveries, so results for already-finalized payments
// report the stored outcome without touching the row again.
type CallbackResult struct {
	Success   bool
	OrderCode string
	Message   string
}

type PaymentService interface {
	// CreatePaymentURL builds a signed gateway redirect URL for a pending
	// VNPAY order and records the payment attempt.
	CreatePaymentURL(ctx context.Context, orderID uuid.UUID, clientIP, locale string) (string, error)
	// HandleCallback processes the gateway return/IPN params. A bad signature
	// mutates nothing.
	HandleCallback(ctx context.Context, params map[string]string) (*CallbackResult, error)
	GetByOrder(ctx context.Context, orderID uuid.UUID) (*types.Payment, error)
}

type paymentService struct {
	db          *gorm.DB
	log         *logger.Logger
	paymentRepo repos.PaymentRepo
	orderRepo   repos.OrderRepo
	gateway     *vnpay.Client
}

func NewPaymentService(
	db *gorm.DB,
	baseLog *logger.Logger,
	paymentRepo repos.PaymentRepo,
	orderRepo repos.OrderRepo,
	gateway *vnpay.Client,
) PaymentService {
	return &paymentService{
		db:          db,
		log:         baseLog.With("service", "PaymentService"),
		paymentRepo: paymentRepo,
		orderRepo:   orderRepo,
		gateway:     gateway,
	}
}

func (ps *paymentService) CreatePaymentURL(ctx context.Context, orderID uuid.UUID, clientIP, locale string) (string, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return "", fmt.Errorf("authentication required")
	}
	if ps.gateway == nil {
		return "", fmt.Errorf("payment gateway not configured")
	}

	orders, err := ps.orderRepo.GetByIDs(ctx, nil, []uuid.UUID{orderID})
	if err != nil {
		return "", fmt.Errorf("load order: %w", err)
	}
	if len(orders) == 0 {
		return "", fmt.Errorf("order not found")
	}
	order := orders[0]
	if order.UserID == nil || *order.UserID != rd.UserID {
		return "", fmt.Errorf("order not found")
	}
	if order.PaymentMethod != types.PaymentMethodVNPay {
		return "", fmt.Errorf("order %s is not a VNPAY order", order.Code)
	}
	if order.Status != types.OrderStatusPending {
		return "", fmt.Errorf("order %s is not awaiting payment", order.Code)
	}

	payment, err := ps.paymentRepo.GetByTxnRef(ctx, nil, order.Code)
	if err != nil {
		return "", fmt.Errorf("load payment: %w", err)
	}
	if payment == nil {
		payment = &types.Payment{
			ID:            uuid.New(),
			OrderID:       order.ID,
			TxnRef:        order.Code,
			Amount:        order.TotalAmount,
			PaymentMethod: types.PaymentMethodVNPay,
			PaymentStatus: types.PaymentStatusPending,
		}
		if _, err := ps.paymentRepo.Create(ctx, nil, []*types.Payment{payment}); err != nil {
			return "", fmt.Errorf("create payment: %w", err)
		}
	} else if payment.PaymentStatus == types.PaymentStatusPaid {
		return "", fmt.Errorf("order %s is already paid", order.Code)
	}

	url, err := ps.gateway.CreatePaymentURL(vnpay.PaymentRequest{
		Amount:    float64(order.TotalAmount),
		TxnRef:    payment.TxnRef,
		OrderInfo: fmt.Sprintf("Thanh toan don hang %s", order.Code),
		ClientIP:  clientIP,
		Locale:    locale,
	})
	if err != nil {
		return "", fmt.Errorf("build payment url: %w", err)
	}
	return url, nil
}

func (ps *paymentService) HandleCallback(ctx context.Context, params map[string]string) (*CallbackResult, error) {
	if ps.gateway == nil {
		return nil, fmt.Errorf("payment gateway not configured")
	}
	if !ps.gateway.VerifyCallback(params) {
		ps.log.Warn("payment callback rejected", "reason", "invalid signature", "txn_ref", params[vnpay.FieldTxnRef])
		return &CallbackResult{Success: false, Message: "Invalid signature"}, nil
	}

	txnRef := params[vnpay.FieldTxnRef]
	payment, err := ps.paymentRepo.GetByTxnRef(ctx, nil, txnRef)
	if err != nil {
		return nil, fmt.Errorf("load payment: %w", err)
	}
	if payment == nil {
		return &CallbackResult{Success: false, Message: "Payment not found"}, nil
	}

	if payment.PaymentStatus != types.PaymentStatusPending {
		return &CallbackResult{
			Success:   payment.PaymentStatus == types.PaymentStatusPaid,
			OrderCode: txnRef,
			Message:   "Payment already processed",
		}, nil
	}

	amount, err := vnpay.ParseAmount(params[vnpay.FieldAmount])
	if err != nil || amount != payment.Amount {
		ps.log.Warn("payment callback rejected", "reason", "amount mismatch",
			"txn_ref", txnRef, "got", params[vnpay.FieldAmount], "want", payment.Amount)
		return &CallbackResult{Success: false, OrderCode: txnRef, Message: "Amount mismatch"}, nil
	}

	payload, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("encode callback payload: %w", err)
	}

	responseCode := params[vnpay.FieldResponseCode]
	paid := responseCode == vnpay.ResponseCodeOK

	err = ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		payment.TransactionNo = params[vnpay.FieldTransactionNo]
		payment.TransactionDate = params[vnpay.FieldPayDate]
		payment.BankCode = params[vnpay.FieldBankCode]
		payment.GatewayPayload = payload
		if paid {
			payment.PaymentStatus = types.PaymentStatusPaid
		} else {
			payment.PaymentStatus = types.PaymentStatusFailed
		}
		if err := ps.paymentRepo.Update(ctx, tx, payment); err != nil {
			return fmt.Errorf("update payment: %w", err)
		}
		if paid {
			if err := ps.orderRepo.UpdateStatus(ctx, tx, payment.OrderID, types.OrderStatusProcessing); err != nil {
				return fmt.Errorf("update order status: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if paid {
		ps.log.Info("payment confirmed", "txn_ref", txnRef, "transaction_no", payment.TransactionNo)
		return &CallbackResult{Success: true, OrderCode: txnRef, Message: "Payment successful"}, nil
	}
	ps.log.Info("payment failed", "txn_ref", txnRef, "response_code", responseCode)
	return &CallbackResult{Success: false, OrderCode: txnRef, Message: fmt.Sprintf("Payment failed (code %s)", responseCode)}, nil
}

func (ps *paymentService) GetByOrder(ctx context.Context, orderID uuid.UUID) (*types.Payment, error) {
	payments, err := ps.paymentRepo.GetByOrderIDs(ctx, nil, []uuid.UUID{orderID})
	if err != nil {
		return nil, fmt.Errorf("load payments: %w", err)
	}
	if len(payments) == 0 {
		return nil, nil
	}
	return payments[0], nil
}
