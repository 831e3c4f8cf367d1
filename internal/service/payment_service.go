package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/posterme/backend/internal/config"
	"github.com/posterme/backend/internal/models"
	"github.com/posterme/backend/internal/payment"
)

const providerCashfree = "cashfree"

type PaymentStore interface {
	Create(ctx context.Context, payment *models.Payment) error
	UpdateStatus(ctx context.Context, paymentID int64, status string, payload string) error
	MarkPaid(ctx context.Context, paymentID int64, payload string) (bool, error)
	FindByProviderOrder(ctx context.Context, provider, orderID string) (*models.Payment, error)
}

// PlanCatalog resolves credit packages for settlement.
type PlanCatalog interface {
	GetDefault(ctx context.Context) (*models.Plan, error)
	GetByID(ctx context.Context, id int64) (*models.Plan, error)
}

type CheckoutProvider interface {
	CreateOrder(ctx context.Context, orderID string, amountMinorUnits int, currency string, customerID string) (*payment.Order, error)
	GetOrder(ctx context.Context, orderID string) (*payment.Order, error)
}

// PaymentService owns the top-up flow: create a Cashfree order for the
// default credit package, then grant the package exactly once when the
// provider confirms payment (webhook or explicit verify).
type PaymentService struct {
	cfg      config.Config
	log      *slog.Logger
	payments PaymentStore
	credits  *CreditService
	plans    PlanCatalog
	provider CheckoutProvider
}

func NewPaymentService(cfg config.Config, log *slog.Logger, payments PaymentStore, credits *CreditService, plans PlanCatalog, provider CheckoutProvider) *PaymentService {
	return &PaymentService{
		cfg:      cfg,
		log:      log,
		payments: payments,
		credits:  credits,
		plans:    plans,
		provider: provider,
	}
}

// CreateOrder registers a provider order for the default plan and records the
// pending payment. The returned order carries the payment session the SPA
// needs to open checkout.
func (s *PaymentService) CreateOrder(ctx context.Context, userID int64) (*payment.Order, error) {
	if userID == 0 {
		return nil, ErrUnauthenticated
	}
	plan, err := s.plans.GetDefault(ctx)
	if err != nil {
		return nil, fmt.Errorf("get default plan: %w", err)
	}
	if plan == nil {
		return nil, fmt.Errorf("no active plan configured")
	}

	orderID := uuid.NewString()
	order, err := s.provider.CreateOrder(ctx, orderID, plan.PriceMinorUnits, plan.Currency, fmt.Sprintf("user-%d", userID))
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	planID := plan.ID
	record := &models.Payment{
		UserID:        userID,
		PlanID:        &planID,
		Provider:      providerCashfree,
		ProviderOrder: order.OrderID,
		Currency:      plan.Currency,
		Amount:        plan.PriceMinorUnits,
		Status:        "pending",
		RawPayload:    string(jsonMustMarshal(order)),
	}
	if err := s.payments.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("record payment: %w", err)
	}
	return order, nil
}

// VerifyOrder asks the provider for current status and settles the payment
// if it is paid. Safe to call repeatedly: crediting happens only on the
// transition away from pending.
func (s *PaymentService) VerifyOrder(ctx context.Context, userID int64, orderID string) (bool, error) {
	if userID == 0 {
		return false, ErrUnauthenticated
	}
	pmt, err := s.payments.FindByProviderOrder(ctx, providerCashfree, orderID)
	if err != nil {
		return false, fmt.Errorf("find payment: %w", err)
	}
	if pmt == nil || pmt.UserID != userID {
		return false, fmt.Errorf("payment not found for order=%s", orderID)
	}
	if pmt.Status == "paid" {
		return true, nil
	}

	order, err := s.provider.GetOrder(ctx, orderID)
	if err != nil {
		return false, fmt.Errorf("get order: %w", err)
	}
	if !payment.Paid(order.Status) {
		return false, nil
	}
	if err := s.settle(ctx, pmt, string(jsonMustMarshal(order))); err != nil {
		return false, err
	}
	return true, nil
}

// HandleWebhook processes provider payment notifications and credits the user.
func (s *PaymentService) HandleWebhook(ctx context.Context, payload []byte) error {
	var evt struct {
		Type string `json:"type"`
		Data struct {
			Order struct {
				OrderID string `json:"order_id"`
			} `json:"order"`
			Payment struct {
				Status string `json:"payment_status"`
			} `json:"payment"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &evt); err != nil {
		return fmt.Errorf("parse webhook: %w", err)
	}
	if evt.Data.Order.OrderID == "" {
		return fmt.Errorf("webhook missing order id")
	}

	pmt, err := s.payments.FindByProviderOrder(ctx, providerCashfree, evt.Data.Order.OrderID)
	if err != nil {
		return fmt.Errorf("find payment: %w", err)
	}
	if pmt == nil {
		return fmt.Errorf("payment not found for order=%s", evt.Data.Order.OrderID)
	}
	if pmt.Status == "paid" {
		return nil // already processed
	}

	if evt.Data.Payment.Status == "SUCCESS" {
		return s.settle(ctx, pmt, string(payload))
	}

	// For failed/expired just update status.
	if err := s.payments.UpdateStatus(ctx, pmt.ID, evt.Data.Payment.Status, string(payload)); err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	return nil
}

// settle marks the payment paid and grants the plan's credit package. The
// paid transition is a conditional write, so only the caller that actually
// flips the status grants credits; a webhook racing a client verify settles
// once.
func (s *PaymentService) settle(ctx context.Context, pmt *models.Payment, payload string) error {
	transitioned, err := s.payments.MarkPaid(ctx, pmt.ID, payload)
	if err != nil {
		return fmt.Errorf("mark payment paid: %w", err)
	}
	if !transitioned {
		return nil
	}

	credits := s.cfg.PaymentCreditsPerPackage
	if pmt.PlanID != nil {
		plan, err := s.plans.GetByID(ctx, *pmt.PlanID)
		if err != nil {
			return fmt.Errorf("get plan: %w", err)
		}
		if plan != nil {
			credits = plan.Credits
		}
	}
	if err := s.credits.Grant(ctx, pmt.UserID, credits); err != nil {
		return fmt.Errorf("grant credits: %w", err)
	}
	s.log.Info("payment settled", "user", pmt.UserID, "order", pmt.ProviderOrder, "credits", credits)
	return nil
}

func jsonMustMarshal(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		return []byte("{}")
	}
	return b
}
