package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/ecommerce/internal/events"
	"github.com/Skotchmaster/ecommerce/internal/logging"
	"github.com/Skotchmaster/ecommerce/internal/models"
	"github.com/Skotchmaster/ecommerce/internal/repo"
	"github.com/Skotchmaster/ecommerce/internal/transport"
)

type CatalogService struct {
	Repo   *repo.GormRepo
	Events events.Publisher
}

func (s *CatalogService) GetProducts(ctx context.Context) ([]models.Product, error) {
	var items []models.Product
	err := s.Repo.InTx(ctx, func(tx *repo.GormRepo) error {
		var err error
		items, err = tx.GetProducts(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	var prod *models.Product
	err := s.Repo.InTx(ctx, func(tx *repo.GormRepo) error {
		var err error
		prod, err = getProduct(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return prod, nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, userID uint, req transport.CreateProductRequest) (*models.Product, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("product name is required: %w", ErrValidation)
	}

	prod := models.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
	}
	if err := s.Repo.InTx(ctx, func(tx *repo.GormRepo) error {
		return tx.CreateProduct(ctx, &prod)
	}); err != nil {
		return nil, err
	}

	publish(ctx, s.Events, events.TopicProductEvents, key(prod.ID), events.ProductEvent{
		Type:      events.ProductCreated,
		ProductID: prod.ID,
		Name:      prod.Name,
		UserID:    userID,
	})
	return &prod, nil
}

// PatchProduct merges req into the stored product. Only truthy values
// overwrite: a nil pointer, "", 0 and 0.0 all keep the current column, so a
// field can never be cleared through this call.
func (s *CatalogService) PatchProduct(ctx context.Context, id uint, req transport.PatchProductRequest) (*models.Product, error) {
	var prod *models.Product
	err := s.Repo.InTx(ctx, func(tx *repo.GormRepo) error {
		var err error
		prod, err = getProduct(ctx, tx, id)
		if err != nil {
			return err
		}
		mergeProduct(prod, req)
		return tx.SaveProduct(ctx, prod)
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.Events, events.TopicProductEvents, key(prod.ID), events.ProductEvent{
		Type:      events.ProductUpdated,
		ProductID: prod.ID,
		Name:      prod.Name,
	})
	return prod, nil
}

// DeleteProduct removes the product on behalf of userID. The admin check
// runs first, so a non-admin gets ErrForbidden even for unknown ids.
func (s *CatalogService) DeleteProduct(ctx context.Context, userID, id uint) (*models.Product, error) {
	var prod *models.Product
	err := s.Repo.InTx(ctx, func(tx *repo.GormRepo) error {
		isAdmin, err := authoriseAsAdmin(ctx, tx, userID)
		if err != nil {
			return err
		}
		if !isAdmin {
			return fmt.Errorf("user %d may not delete products: %w", userID, ErrForbidden)
		}

		prod, err = getProduct(ctx, tx, id)
		if err != nil {
			return err
		}
		n, err := tx.DeleteProduct(ctx, id)
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("product %d: %w", id, ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.Events, events.TopicProductEvents, key(prod.ID), events.ProductEvent{
		Type:      events.ProductDeleted,
		ProductID: prod.ID,
		Name:      prod.Name,
		UserID:    userID,
	})
	return prod, nil
}

func getProduct(ctx context.Context, r *repo.GormRepo, id uint) (*models.Product, error) {
	prod, err := r.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product %d: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return prod, nil
}

func mergeProduct(prod *models.Product, req transport.PatchProductRequest) {
	if req.Name != nil && *req.Name != "" {
		prod.Name = *req.Name
	}
	if req.Description != nil && *req.Description != "" {
		prod.Description = req.Description
	}
	if req.Price != nil && *req.Price != 0 {
		prod.Price = req.Price
	}
	if req.Stock != nil && *req.Stock != 0 {
		prod.Stock = req.Stock
	}
}

// authoriseAsAdmin reports the admin flag of the user behind a verified
// token. A user that no longer exists is not an admin.
func authoriseAsAdmin(ctx context.Context, r *repo.GormRepo, userID uint) (bool, error) {
	user, err := r.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logging.FromContext(ctx).Warn("authorise_admin_unknown_user", "user_id", userID)
			return false, nil
		}
		return false, err
	}
	return user.IsAdmin, nil
}

func key(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
