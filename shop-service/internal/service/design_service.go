package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mcadelacruz/braceurself/shop-service/internal/domain"
	"github.com/mcadelacruz/braceurself/shop-service/internal/store"
)

// DesignService stores customers' custom bracelet designs.
type DesignService struct {
	deps
	store store.Store
}

func NewDesignService(st store.Store, opts ...Option) *DesignService {
	return &DesignService{deps: newDeps(opts), store: st}
}

type NewDesign struct {
	Name  string        `validate:"required,max=100"`
	Beads []domain.Bead `validate:"-"`
}

func (s *DesignService) CreateDesign(ctx context.Context, actor domain.Actor, in NewDesign) (*domain.CustomBraceletDesign, error) {
	if err := requireCustomer(actor); err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := s.validateStruct(in); err != nil {
		return nil, err
	}
	if n := len(in.Beads); n < domain.MinDesignBeads || n > domain.MaxDesignBeads {
		return nil, fmt.Errorf("%w: got %d", domain.ErrInvalidDesignSize, n)
	}

	design := &domain.CustomBraceletDesign{
		Name:       in.Name,
		Beads:      in.Beads,
		CustomerID: actor.UserID,
		CreatedAt:  s.now(),
	}
	if err := s.store.CreateDesign(ctx, design); err != nil {
		return nil, fmt.Errorf("create design: %w", err)
	}
	s.logger.InfoContext(ctx, "design saved", "design_id", design.ID, "beads", len(design.Beads))
	return design, nil
}

func (s *DesignService) GetDesign(ctx context.Context, id int64) (*domain.CustomBraceletDesign, error) {
	return s.store.GetDesign(ctx, id)
}

// ListDesigns returns the customer's own designs, newest first.
func (s *DesignService) ListDesigns(ctx context.Context, actor domain.Actor) ([]*domain.CustomBraceletDesign, error) {
	if err := requireCustomer(actor); err != nil {
		return nil, err
	}
	return s.store.ListDesigns(ctx, store.DesignFilter{CustomerID: actor.UserID})
}

// ListPublicDesigns returns everybody's designs, leaving out a customer's own.
func (s *DesignService) ListPublicDesigns(ctx context.Context, actor domain.Actor) ([]*domain.CustomBraceletDesign, error) {
	filter := store.DesignFilter{}
	if actor.IsCustomer() {
		filter.ExcludeCustomerID = actor.UserID
	}
	return s.store.ListDesigns(ctx, filter)
}

func (s *DesignService) DeleteDesign(ctx context.Context, actor domain.Actor, id int64) error {
	if err := requireCustomer(actor); err != nil {
		return err
	}
	return s.store.WithTx(ctx, func(tx store.Tx) error {
		design, err := tx.GetDesign(ctx, id)
		if err != nil {
			return err
		}
		if design.CustomerID != actor.UserID {
			return domain.ErrForbidden
		}
		return tx.DeleteDesign(ctx, id)
	})
}

// DesignForProduct finds the design a "Custom: " product was made from,
// looking only at the ordering customer's designs. It returns nil when
// the product is not custom or the design has since been deleted.
func (s *DesignService) DesignForProduct(ctx context.Context, product *domain.Product, customerID int64) (*domain.CustomBraceletDesign, error) {
	if !product.IsCustom() {
		return nil, nil
	}
	designs, err := s.store.ListDesigns(ctx, store.DesignFilter{
		CustomerID: customerID,
		Name:       product.DesignName(),
		Limit:      1,
	})
	if err != nil {
		return nil, fmt.Errorf("find design for product %d: %w", product.ID, err)
	}
	if len(designs) == 0 {
		return nil, nil
	}
	return designs[0], nil
}

// OrderDetails is an order with its product and, for custom orders, the design.
type OrderDetails struct {
	Order      *domain.Order                `json:"order"`
	Product    *domain.Product              `json:"product,omitempty"`
	Design     *domain.CustomBraceletDesign `json:"design,omitempty"`
	DesignText []string                     `json:"design_text,omitempty"`
}

// Details loads the product and design shown next to an order.
func (s *DesignService) Details(ctx context.Context, order *domain.Order) (*OrderDetails, error) {
	details := &OrderDetails{Order: order}
	product, err := s.store.GetProduct(ctx, order.ProductID)
	if errors.Is(err, domain.ErrProductNotFound) {
		return details, nil
	}
	if err != nil {
		return nil, err
	}
	details.Product = product

	design, err := s.DesignForProduct(ctx, product, order.CustomerID)
	if err != nil {
		return nil, err
	}
	if design != nil {
		details.Design = design
		details.DesignText = RenderDesignText(design)
	}
	return details, nil
}
