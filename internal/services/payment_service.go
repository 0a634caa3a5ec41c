package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"autobuy_panel_echo/internal/models"
)

const (
	// DefaultChargeExpiry applies when the gateway does not send an expiry
	DefaultChargeExpiry = 10 * time.Minute
	// MaxTransactionAge is the hard limit after which a sweep drops any transaction
	MaxTransactionAge = 24 * time.Hour
)

// CreateOrderInput is a purchase request after discount resolution.
// DiscountID marks a discount that has already been consumed for this order.
type CreateOrderInput struct {
	ProductType     string
	Username        string
	IsAdminPanel    bool
	UserID          string
	DiscountApplied int64
	DiscountID      string
}

// OrderDescriptor is returned to the buyer after a charge is created
type OrderDescriptor struct {
	TransactionID   string    `json:"transactionId"`
	Reference       string    `json:"reff"`
	ProductType     string    `json:"productType"`
	Username        string    `json:"username"`
	OriginalPrice   int64     `json:"originalPrice"`
	FinalPrice      int64     `json:"finalPrice"`
	DiscountApplied int64     `json:"discountApplied"`
	QRImage         string    `json:"qrImage"`
	QRString        string    `json:"qrString"`
	ExpiresAt       time.Time `json:"expiresAt"`
	GatewayChargeID string    `json:"atlanticId"`
	Fee             int64     `json:"fee"`
	GetBalance      int64     `json:"getBalance"`
}

// StatusResult is the outcome of reconciling a transaction with the gateway.
// Panel is set only when this call provisioned. ProvisioningErr is set when
// payment succeeded but the panel could not be created.
type StatusResult struct {
	Status          models.TransactionStatus
	Message         string
	Transaction     models.Transaction
	Panel           *PanelResult
	ProvisioningErr error
}

// CancelResult reports a cancellation. Removed is always true once the
// transaction was found, whatever the gateway answered.
type CancelResult struct {
	Removed      bool
	Acknowledged bool
	Message      string
	Transaction  models.Transaction
}

// TransactionService drives a purchase from charge creation to provisioning
type TransactionService struct {
	store       *TransactionStore
	gateway     PaymentGateway
	provisioner Provisioner
	notifier    Notifier
	catalog     *models.Catalog
	qr          QRRenderer

	now  func() time.Time
	refs referenceSequence
}

func NewTransactionService(store *TransactionStore, gateway PaymentGateway, provisioner Provisioner, notifier Notifier, catalog *models.Catalog, qr QRRenderer) *TransactionService {
	if catalog == nil {
		catalog = models.NewCatalog(nil)
	}
	return &TransactionService{
		store:       store,
		gateway:     gateway,
		provisioner: provisioner,
		notifier:    notifier,
		catalog:     catalog,
		qr:          qr,
		now:         time.Now,
	}
}

// Catalog returns the price list used to validate orders
func (s *TransactionService) Catalog() *models.Catalog {
	return s.catalog
}

// Create asks the gateway for a QRIS charge and registers the pending transaction.
// Nothing is stored when the gateway call fails.
func (s *TransactionService) Create(ctx context.Context, in CreateOrderInput) (*OrderDescriptor, error) {
	in.ProductType = strings.TrimSpace(in.ProductType)
	in.Username = strings.TrimSpace(in.Username)
	if in.ProductType == "" || in.Username == "" {
		return nil, fmt.Errorf("%w: product type and username are required", ErrInvalidInput)
	}

	price, ok := s.catalog.Price(in.ProductType)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidProduct, in.ProductType)
	}
	if in.DiscountApplied < 0 || in.DiscountApplied > price {
		return nil, fmt.Errorf("%w: discount %d out of range for price %d", ErrInvalidInput, in.DiscountApplied, price)
	}
	finalPrice := price - in.DiscountApplied

	reference := s.refs.next(s.now())
	charge, err := s.gateway.CreateCharge(ctx, ChargeRequest{Amount: finalPrice, Reference: reference})
	if err != nil {
		log.Printf("Failed to create charge %s: %v", reference, err)
		return nil, asGatewayError("create charge", err)
	}
	if charge == nil {
		return nil, gatewayError(ErrGatewayUnavailable, "create charge", "no transaction data received", nil)
	}

	now := s.now()
	id := charge.ID
	if id == "" {
		id = "TEMP_" + uuid.NewString()
	}
	expiresAt := charge.ExpiresAt
	if expiresAt.IsZero() {
		expiresAt = now.Add(DefaultChargeExpiry)
	}

	tx := models.Transaction{
		ID:              id,
		Reference:       reference,
		GatewayChargeID: charge.ID,
		ProductType:     in.ProductType,
		Username:        in.Username,
		IsAdminPanel:    in.IsAdminPanel,
		OriginalPrice:   price,
		DiscountApplied: in.DiscountApplied,
		FinalPrice:      finalPrice,
		DiscountID:      in.DiscountID,
		UserID:          in.UserID,
		Status:          models.TransactionStatusPending,
		CreatedAt:       now,
		ExpiresAt:       expiresAt,
	}
	if err := s.store.Insert(tx); err != nil {
		return nil, fmt.Errorf("failed to register transaction %s: %w", id, err)
	}

	qrString := charge.QRString
	if qrString == "" {
		qrString = charge.QRImage
	}
	getBalance := charge.GetBalance
	if getBalance == 0 {
		getBalance = finalPrice
	}

	log.Printf("Transaction %s created (ref %s, %s for %s)", id, reference, FormatRupiah(finalPrice), in.Username)

	return &OrderDescriptor{
		TransactionID:   id,
		Reference:       reference,
		ProductType:     tx.ProductType,
		Username:        tx.Username,
		OriginalPrice:   price,
		FinalPrice:      finalPrice,
		DiscountApplied: in.DiscountApplied,
		QRImage:         s.renderQR(qrString, id, finalPrice),
		QRString:        qrString,
		ExpiresAt:       expiresAt,
		GatewayChargeID: charge.ID,
		Fee:             charge.Fee,
		GetBalance:      getBalance,
	}, nil
}

// CheckStatus reconciles a transaction with the gateway and provisions on the
// first observed success. A transaction is provisioned at most once even when
// checks for the same id run in parallel.
func (s *TransactionService) CheckStatus(ctx context.Context, id string) (*StatusResult, error) {
	tx, ok := s.store.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTransactionNotFound, id)
	}

	st, err := s.gateway.GetStatus(ctx, tx.GatewayChargeID)
	if err != nil {
		log.Printf("Failed to check status of %s: %v", id, err)
		return nil, asGatewayError("check status", err)
	}
	if st == nil {
		return nil, gatewayError(ErrGatewayUnavailable, "check status", "no status data received", nil)
	}

	status := models.TransactionStatus(st.Status)
	tx, ok = s.store.Update(id, func(t *models.Transaction) { t.Status = status })
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTransactionNotFound, id)
	}

	result := &StatusResult{Status: status, Transaction: tx}
	if status != models.TransactionStatusSuccess {
		result.Message = fmt.Sprintf("Status: %s", status)
		return result, nil
	}

	claimed, outcome := s.store.ClaimProvisioning(id)
	switch outcome {
	case ClaimMissing:
		return nil, fmt.Errorf("%w: %s", ErrTransactionNotFound, id)
	case ClaimAlreadyProvisioned:
		result.Transaction = claimed
		result.Message = "Payment successful, panel has already been created"
		return result, nil
	case ClaimInFlight:
		result.Transaction = claimed
		result.Message = "Payment successful and panel is being created"
		return result, nil
	}

	// The buyer going away must not abort a paid provisioning half way.
	panel, perr := s.provision(context.WithoutCancel(ctx), claimed)

	released, found := s.store.ReleaseProvisioning(id, perr == nil)
	if !found {
		released = claimed
		released.Provisioned = perr == nil
	}
	result.Transaction = released

	if perr != nil {
		log.Printf("Payment %s succeeded but provisioning failed: %v", id, perr)
		result.ProvisioningErr = perr
		result.Message = "Payment successful but panel creation failed. Please contact the admin."
		return result, nil
	}

	log.Printf("Transaction %s provisioned for %s", id, released.Username)
	result.Panel = panel
	result.Message = "Payment successful and panel is being created"
	dispatchNotification(s.notifier, paymentSuccessMessage(released))
	return result, nil
}

func (s *TransactionService) provision(ctx context.Context, tx models.Transaction) (*PanelResult, error) {
	if s.provisioner == nil {
		return nil, &ProvisioningError{Step: "provision", Err: errors.New("no panel provisioner configured")}
	}
	if tx.IsAdminPanel {
		return s.provisioner.CreateAdminPanel(ctx, tx.Username)
	}
	return s.provisioner.CreateServer(ctx, tx.Username, tx.ProductType)
}

// Cancel voids the charge upstream and always drops the local record.
// The local view wins: a rejected or failed upstream cancel still removes the
// transaction, and the gateway error is returned together with the result.
func (s *TransactionService) Cancel(ctx context.Context, id string) (*CancelResult, error) {
	tx, ok := s.store.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTransactionNotFound, id)
	}

	ack, err := s.gateway.CancelCharge(ctx, tx.GatewayChargeID)

	if removed, ok := s.store.Delete(id); ok {
		tx = removed
	}
	result := &CancelResult{Removed: true, Transaction: tx}

	if err != nil {
		log.Printf("Upstream cancel of %s failed, removed locally: %v", id, err)
		if ack != nil {
			result.Message = ack.Message
		}
		return result, asGatewayError("cancel charge", err)
	}
	if ack == nil || !ack.Acknowledged {
		msg := "gateway did not acknowledge cancellation"
		if ack != nil && ack.Message != "" {
			msg = ack.Message
		}
		result.Message = msg
		log.Printf("Upstream cancel of %s not acknowledged, removed locally", id)
		return result, gatewayError(ErrGatewayRejected, "cancel charge", msg, nil)
	}

	result.Acknowledged = true
	result.Message = "Transaction cancelled"
	log.Printf("Transaction %s cancelled", id)
	dispatchNotification(s.notifier, cancellationMessage(tx))
	return result, nil
}

// Sweep removes transactions past their expiry or older than MaxTransactionAge
func (s *TransactionService) Sweep() []models.Transaction {
	now := s.now()
	removed := s.store.DeleteFunc(func(tx models.Transaction) bool {
		return tx.Expired(now, MaxTransactionAge)
	})
	for _, tx := range removed {
		log.Printf("Removed expired transaction %s (ref %s)", tx.ID, tx.Reference)
	}
	return removed
}

// ActiveTransactions is a snapshot of every in-flight transaction
func (s *TransactionService) ActiveTransactions() []models.Transaction {
	return s.store.Snapshot()
}

// ActiveCount reports the number of live transactions without copying them.
func (s *TransactionService) ActiveCount() int {
	return s.store.Len()
}

func (s *TransactionService) renderQR(source, id string, amount int64) string {
	if s.qr == nil {
		return ""
	}
	if source == "" {
		source = "https://example.com/payment/" + id
	}
	img, err := s.qr.DataURL(source)
	if err == nil {
		return img
	}
	log.Printf("Failed to render QR for %s: %v", id, err)
	img, err = s.qr.DataURL(fmt.Sprintf("Payment: %d", amount))
	if err != nil {
		return ""
	}
	return img
}

func asGatewayError(op string, err error) error {
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return gwErr
	}
	return gatewayError(ErrGatewayUnavailable, op, "", err)
}

// referenceSequence yields WEB-<millis> references that never repeat within a process
type referenceSequence struct {
	last atomic.Int64
}

func (r *referenceSequence) next(now time.Time) string {
	for {
		prev := r.last.Load()
		ms := now.UnixMilli()
		if ms <= prev {
			ms = prev + 1
		}
		if r.last.CompareAndSwap(prev, ms) {
			return fmt.Sprintf("WEB-%d", ms)
		}
	}
}
