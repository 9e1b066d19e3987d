package usecase

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/zapmercado/order-bridge/internal/biz/domain"
	"github.com/zapmercado/order-bridge/internal/biz/repo"
)

// ReceiptUsecase stores payment receipts and delivery addresses tied
// to the current order session.
type ReceiptUsecase struct {
	store  repo.Store
	config domain.SessionConfig
	log    zerolog.Logger
}

// NewReceiptUsecase creates a receipt usecase.
func NewReceiptUsecase(store repo.Store, config domain.SessionConfig, log zerolog.Logger) *ReceiptUsecase {
	return &ReceiptUsecase{store: store, config: config, log: log}
}

// SaveReceipt stores a receipt reference for the receipt window.
func (uc *ReceiptUsecase) SaveReceipt(ctx context.Context, customer, reference string) error {
	if err := uc.store.Set(ctx, receiptKey(customer), reference, uc.config.ReceiptTTL); err != nil {
		return fmt.Errorf("save receipt: %w", err)
	}
	uc.log.Info().Str("customer", customer).Msg("receipt saved")
	return nil
}

// Receipt returns the stored receipt reference, empty when absent.
func (uc *ReceiptUsecase) Receipt(ctx context.Context, customer string) (string, error) {
	ref, err := uc.store.Get(ctx, receiptKey(customer))
	if err == repo.ErrNotFound {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get receipt: %w", err)
	}
	return ref, nil
}

// SaveAddress stores the delivery address for the receipt window so a
// follow-up order inside it is not asked again.
func (uc *ReceiptUsecase) SaveAddress(ctx context.Context, customer, address string) error {
	if err := uc.store.Set(ctx, addressKey(customer), address, uc.config.ReceiptTTL); err != nil {
		return fmt.Errorf("save address: %w", err)
	}
	return nil
}

// Address returns the saved delivery address, empty when absent.
func (uc *ReceiptUsecase) Address(ctx context.Context, customer string) (string, error) {
	addr, err := uc.store.Get(ctx, addressKey(customer))
	if err == repo.ErrNotFound {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get address: %w", err)
	}
	return addr, nil
}
