package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/kokoleng91-netizen/shop-backend/internal/es"
	"github.com/kokoleng91-netizen/shop-backend/internal/logging"
	"github.com/kokoleng91-netizen/shop-backend/internal/models"
	"github.com/kokoleng91-netizen/shop-backend/internal/mykafka"
	"github.com/kokoleng91-netizen/shop-backend/internal/repo"
	"github.com/kokoleng91-netizen/shop-backend/internal/transport"
)

var (
	ErrValidation = errors.New("validation")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
)

type Service struct {
	Repo     *repo.GormRepo
	Producer *mykafka.Producer
	ES       *elasticsearch.Client
}

func (s *Service) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	product, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return product, nil
}

func (s *Service) GetProducts(ctx context.Context, offset, limit int) (int64, []models.Product, error) {
	return s.Repo.GetProducts(ctx, offset, limit)
}

func (s *Service) CreateProduct(ctx context.Context, req transport.CreateProductRequest) (*models.Product, error) {
	if req.Price.IsNegative() {
		return nil, fmt.Errorf("%w: price must be >= 0", ErrValidation)
	}
	if req.StockQty < 0 {
		return nil, fmt.Errorf("%w: stock_qty must be >= 0", ErrValidation)
	}
	if _, err := s.Repo.GetCategory(ctx, req.CategoryID); err != nil {
		if repo.IsNotFound(err) {
			return nil, fmt.Errorf("%w: category %d does not exist", ErrValidation, req.CategoryID)
		}
		return nil, err
	}

	product := &models.Product{
		Name:       req.Name,
		Price:      req.Price,
		StockQty:   req.StockQty,
		CategoryID: req.CategoryID,
		Image:      req.Image,
	}
	if err := s.Repo.CreateProduct(ctx, product); err != nil {
		return nil, err
	}

	s.index(ctx, product)
	s.publish(ctx, map[string]any{
		"type":      "product_created",
		"productID": product.ID,
		"name":      product.Name,
	})
	return product, nil
}

func (s *Service) PatchProduct(ctx context.Context, req transport.PatchProductRequest, id uint) (*models.Product, error) {
	product, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return nil, fmt.Errorf("%w: price must be >= 0", ErrValidation)
		}
		product.Price = *req.Price
	}
	if req.StockQty != nil {
		if *req.StockQty < 0 {
			return nil, fmt.Errorf("%w: stock_qty must be >= 0", ErrValidation)
		}
		product.StockQty = *req.StockQty
	}
	if req.CategoryID != nil {
		if _, err := s.Repo.GetCategory(ctx, *req.CategoryID); err != nil {
			if repo.IsNotFound(err) {
				return nil, fmt.Errorf("%w: category %d does not exist", ErrValidation, *req.CategoryID)
			}
			return nil, err
		}
		product.CategoryID = *req.CategoryID
	}
	if req.Image != nil {
		product.Image = req.Image
	}

	if err := s.Repo.SaveProduct(ctx, product); err != nil {
		return nil, err
	}

	s.index(ctx, product)
	s.publish(ctx, map[string]any{
		"type":      "product_updated",
		"productID": product.ID,
		"name":      product.Name,
	})
	return product, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id uint) error {
	if err := s.Repo.DeleteProduct(ctx, id); err != nil {
		if repo.IsNotFound(err) {
			return ErrNotFound
		}
		return err
	}

	if s.ES != nil {
		if err := es.DeleteProduct(ctx, s.ES, id); err != nil {
			logging.FromContext(ctx).Error("es delete error", "product_id", id, "error", err)
		}
	}
	s.publish(ctx, map[string]any{
		"type":      "product_deleted",
		"productID": id,
	})
	return nil
}

func (s *Service) GetCategory(ctx context.Context, id uint) (*models.Category, error) {
	category, err := s.Repo.GetCategory(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return category, nil
}

func (s *Service) GetCategories(ctx context.Context) ([]models.Category, error) {
	return s.Repo.GetCategories(ctx)
}

func (s *Service) CreateCategory(ctx context.Context, req transport.CreateCategoryRequest) (*models.Category, error) {
	category := &models.Category{
		Name:        req.Name,
		Description: req.Description,
	}
	if err := s.Repo.CreateCategory(ctx, category); err != nil {
		return nil, fmt.Errorf("%w: category name must be unique", ErrConflict)
	}
	return category, nil
}

func (s *Service) PatchCategory(ctx context.Context, req transport.PatchCategoryRequest, id uint) (*models.Category, error) {
	category, err := s.Repo.GetCategory(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if req.Name != nil {
		category.Name = *req.Name
	}
	if req.Description != nil {
		category.Description = *req.Description
	}

	if err := s.Repo.SaveCategory(ctx, category); err != nil {
		return nil, fmt.Errorf("%w: category name must be unique", ErrConflict)
	}
	return category, nil
}

func (s *Service) DeleteCategory(ctx context.Context, id uint) error {
	if err := s.Repo.DeleteCategory(ctx, id); err != nil {
		if repo.IsNotFound(err) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *Service) index(ctx context.Context, product *models.Product) {
	if s.ES == nil {
		return
	}
	if err := es.IndexProduct(ctx, s.ES, product); err != nil {
		logging.FromContext(ctx).Error("es index error", "product_id", product.ID, "error", err)
	}
}

func (s *Service) publish(ctx context.Context, event map[string]any) {
	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.Producer.PublishEvent(pubCtx, mykafka.TopicProductEvents, fmt.Sprint(event["productID"]), event); err != nil {
		logging.FromContext(ctx).Error("kafka publish error", "error", err)
	}
}
