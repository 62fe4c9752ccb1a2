package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/mcadelacruz/braceurself/shop-service/internal/domain"
	"github.com/mcadelacruz/braceurself/shop-service/internal/store"
)

// SellerService manages the single seller profile.
type SellerService struct {
	deps
	store store.Store
}

func NewSellerService(st store.Store, opts ...Option) *SellerService {
	return &SellerService{deps: newDeps(opts), store: st}
}

// RegisterSeller creates the seller profile. Only one may ever exist.
func (s *SellerService) RegisterSeller(ctx context.Context, userID int64) (*domain.SellerProfile, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: seller user id must be positive", domain.ErrInvalidInput)
	}
	profile := &domain.SellerProfile{UserID: userID, CreatedAt: s.now()}
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		n, err := tx.CountSellerProfiles(ctx)
		if err != nil {
			return fmt.Errorf("count sellers: %w", err)
		}
		if n > 0 {
			return domain.ErrSellerExists
		}
		return tx.CreateSellerProfile(ctx, profile)
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "seller registered", "user_id", userID)
	return profile, nil
}

// EnsureSeller returns the configured seller's profile, registering it on first start.
func (s *SellerService) EnsureSeller(ctx context.Context, userID int64) (*domain.SellerProfile, error) {
	profile, err := s.store.GetSellerProfile(ctx, userID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, domain.ErrSellerNotFound) {
		return nil, fmt.Errorf("get seller profile: %w", err)
	}
	profile, err = s.RegisterSeller(ctx, userID)
	if errors.Is(err, domain.ErrSellerExists) {
		return nil, fmt.Errorf("configured seller %d does not match the registered seller: %w", userID, err)
	}
	return profile, err
}
