package service

import (
	"context"
	"errors"
	"io"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/search"
	"github.com/Skotchmaster/storefront/internal/storage"
)

type CatalogService struct {
	Repo   *repo.GormRepo
	Images storage.ImageStore
	// Index is optional; without it search runs against the database.
	Index  search.Index
	Events events.Publisher
}

type ProductInput struct {
	Name     string
	Price    float64
	Stock    int
	Image    string
	// IsActive defaults to true on create and to the stored value on update.
	IsActive *bool
}

func (in ProductInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return validationf("name is required")
	}
	if in.Price < 0 {
		return validationf("price must be >= 0")
	}
	if in.Stock < 0 {
		return validationf("stock must be >= 0")
	}
	return nil
}

func (s *CatalogService) ListActive(ctx context.Context) ([]models.Product, error) {
	return s.Repo.ListActiveProducts(ctx)
}

func (s *CatalogService) List(ctx context.Context, offset, limit int) (int64, []models.Product, error) {
	return s.Repo.ListProducts(ctx, offset, limit)
}

func (s *CatalogService) Search(ctx context.Context, q string, offset, limit int) (int64, []models.Product, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return 0, nil, validationf("query is required")
	}
	if s.Index == nil {
		return s.Repo.SearchProducts(ctx, q, offset, limit)
	}

	total, ids, err := s.Index.Search(ctx, q, offset, limit)
	if err != nil {
		logging.FromContext(ctx).Warn("search_index_unavailable", "error", err)
		return s.Repo.SearchProducts(ctx, q, offset, limit)
	}
	byID, err := s.Repo.GetProducts(ctx, ids)
	if err != nil {
		return 0, nil, err
	}
	items := make([]models.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok && p.IsActive {
			items = append(items, p)
		}
	}
	return total, items, nil
}

func (s *CatalogService) Create(ctx context.Context, in ProductInput) (*models.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	p := &models.Product{
		Name:     strings.TrimSpace(in.Name),
		Price:    in.Price,
		Stock:    in.Stock,
		Image:    in.Image,
		IsActive: in.IsActive == nil || *in.IsActive,
	}
	if err := s.Repo.CreateProduct(ctx, p); err != nil {
		return nil, err
	}

	s.reindex(ctx, p)
	events.Emit(ctx, s.Events, events.TopicProduct, p.ID, events.New("product_created", map[string]any{
		"product_id": p.ID,
		"name":       p.Name,
	}))
	return p, nil
}

// Update overwrites the product. A replaced image is removed only after the
// new row is committed.
func (s *CatalogService) Update(ctx context.Context, id uint, in ProductInput) (*models.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	old, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, productNotFound(id)
		}
		return nil, err
	}

	p := &models.Product{
		ID:        id,
		Name:      strings.TrimSpace(in.Name),
		Price:     in.Price,
		Stock:     in.Stock,
		Image:     in.Image,
		IsActive:  old.IsActive,
		CreatedAt: old.CreatedAt,
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	if err := s.Repo.UpdateProduct(ctx, p); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, productNotFound(id)
		}
		return nil, err
	}

	if old.Image != p.Image {
		s.releaseImage(ctx, old.Image)
	}
	s.reindex(ctx, p)
	events.Emit(ctx, s.Events, events.TopicProduct, p.ID, events.New("product_updated", map[string]any{
		"product_id": p.ID,
		"name":       p.Name,
	}))
	return p, nil
}

func (s *CatalogService) Delete(ctx context.Context, id uint) error {
	old, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return productNotFound(id)
		}
		return err
	}

	if err := s.Repo.DeleteProduct(ctx, id); err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return productNotFound(id)
		case errors.Is(err, repo.ErrProductInUse):
			return newError(ErrConflict, ErrProductInUse, "product %d is referenced by orders; deactivate it instead", id)
		}
		return err
	}

	s.releaseImage(ctx, old.Image)
	if s.Index != nil {
		if err := s.Index.Delete(ctx, id); err != nil {
			logging.FromContext(ctx).Error("search_index_delete_failed", "product_id", id, "error", err)
		}
	}
	events.Emit(ctx, s.Events, events.TopicProduct, id, events.New("product_deleted", map[string]any{
		"product_id": id,
	}))
	return nil
}

func (s *CatalogService) UploadImage(ctx context.Context, filename string, r io.Reader) (string, error) {
	p, err := s.Images.Save(ctx, filename, r)
	if err != nil {
		if errors.Is(err, storage.ErrNotImage) {
			return "", validationf("uploaded file is not an image")
		}
		return "", err
	}
	return p, nil
}

func (s *CatalogService) releaseImage(ctx context.Context, path string) {
	if s.Images == nil || !storage.IsStored(path) {
		return
	}
	if err := s.Images.Delete(ctx, path); err != nil {
		logging.FromContext(ctx).Error("image_delete_failed", "path", path, "error", err)
	}
}

func (s *CatalogService) reindex(ctx context.Context, p *models.Product) {
	if s.Index == nil {
		return
	}
	if err := s.Index.Put(ctx, *p); err != nil {
		logging.FromContext(ctx).Error("search_index_put_failed", "product_id", p.ID, "error", err)
	}
}
