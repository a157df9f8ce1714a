package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/tavolo-pos/tavolo-pos/internal/shared"
)

// Repository defines data access for the catalog.
type Repository interface {
	ListCategories(ctx context.Context, search string) ([]Category, error)
	CountCategories(ctx context.Context) (int, error)
	GetCategory(ctx context.Context, id int64) (Category, error)
	InsertCategory(ctx context.Context, name string) (Category, error)
	UpdateCategory(ctx context.Context, id int64, name string) (Category, error)
	DeleteCategory(ctx context.Context, id int64) error

	ListProducts(ctx context.Context, filter ProductFilter) ([]Product, error)
	CountProducts(ctx context.Context) (int, error)
	GetProduct(ctx context.Context, id int64) (Product, error)
	InsertProduct(ctx context.Context, p Product) (Product, error)
	UpdateProduct(ctx context.Context, p Product) (Product, error)
	DeleteProduct(ctx context.Context, id int64) error
}

// Service handles catalog business logic.
type Service struct {
	repo Repository
}

// NewService builds a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ListCategories returns categories matching the optional search term.
func (s *Service) ListCategories(ctx context.Context, search string) ([]Category, error) {
	return s.repo.ListCategories(ctx, strings.TrimSpace(search))
}

// GetCategory fetches one category.
func (s *Service) GetCategory(ctx context.Context, id int64) (Category, error) {
	return s.repo.GetCategory(ctx, id)
}

// CreateCategory inserts a category with a unique name.
func (s *Service) CreateCategory(ctx context.Context, name string) (Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Category{}, fmt.Errorf("%w: category name required", shared.ErrValidation)
	}
	return s.repo.InsertCategory(ctx, name)
}

// UpdateCategory renames a category.
func (s *Service) UpdateCategory(ctx context.Context, id int64, name string) (Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Category{}, fmt.Errorf("%w: category name required", shared.ErrValidation)
	}
	return s.repo.UpdateCategory(ctx, id, name)
}

// DeleteCategory removes a category.
func (s *Service) DeleteCategory(ctx context.Context, id int64) error {
	return s.repo.DeleteCategory(ctx, id)
}

// ListProducts returns products narrowed by the filter.
func (s *Service) ListProducts(ctx context.Context, filter ProductFilter) ([]Product, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	return s.repo.ListProducts(ctx, filter)
}

// GetProduct fetches one product.
func (s *Service) GetProduct(ctx context.Context, id int64) (Product, error) {
	return s.repo.GetProduct(ctx, id)
}

// CreateProduct validates and inserts a product.
func (s *Service) CreateProduct(ctx context.Context, p Product) (Product, error) {
	if err := validateProduct(p); err != nil {
		return Product{}, err
	}
	p.Name = strings.TrimSpace(p.Name)
	return s.repo.InsertProduct(ctx, p)
}

// UpdateProduct validates and overwrites a product.
func (s *Service) UpdateProduct(ctx context.Context, p Product) (Product, error) {
	if err := validateProduct(p); err != nil {
		return Product{}, err
	}
	p.Name = strings.TrimSpace(p.Name)
	return s.repo.UpdateProduct(ctx, p)
}

// DeleteProduct removes a product.
func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	return s.repo.DeleteProduct(ctx, id)
}

// Counts reports global category and product totals for dashboards.
func (s *Service) Counts(ctx context.Context) (categories, products int, err error) {
	categories, err = s.repo.CountCategories(ctx)
	if err != nil {
		return 0, 0, err
	}
	products, err = s.repo.CountProducts(ctx)
	if err != nil {
		return 0, 0, err
	}
	return categories, products, nil
}

func validateProduct(p Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: product name required", shared.ErrValidation)
	}
	if p.CategoryID <= 0 {
		return fmt.Errorf("%w: category required", shared.ErrValidation)
	}
	if p.Price < 0 {
		return fmt.Errorf("%w: price must be >= 0", shared.ErrValidation)
	}
	return nil
}
