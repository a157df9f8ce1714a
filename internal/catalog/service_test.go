package catalog

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tavolo-pos/tavolo-pos/internal/shared"
)

type memoryRepo struct {
	categories map[int64]Category
	products   map[int64]Product
	nextID     int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{categories: make(map[int64]Category), products: make(map[int64]Product)}
}

func (r *memoryRepo) ListCategories(ctx context.Context, search string) ([]Category, error) {
	out := []Category{}
	for _, c := range r.categories {
		if search == "" || strings.Contains(strings.ToLower(c.Name), strings.ToLower(search)) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *memoryRepo) CountCategories(ctx context.Context) (int, error) {
	return len(r.categories), nil
}

func (r *memoryRepo) GetCategory(ctx context.Context, id int64) (Category, error) {
	c, ok := r.categories[id]
	if !ok {
		return Category{}, shared.ErrNotFound
	}
	return c, nil
}

func (r *memoryRepo) InsertCategory(ctx context.Context, name string) (Category, error) {
	for _, c := range r.categories {
		if c.Name == name {
			return Category{}, shared.ErrAlreadyExists
		}
	}
	r.nextID++
	c := Category{ID: r.nextID, Name: name}
	r.categories[c.ID] = c
	return c, nil
}

func (r *memoryRepo) UpdateCategory(ctx context.Context, id int64, name string) (Category, error) {
	c, ok := r.categories[id]
	if !ok {
		return Category{}, shared.ErrNotFound
	}
	for _, other := range r.categories {
		if other.ID != id && other.Name == name {
			return Category{}, shared.ErrAlreadyExists
		}
	}
	c.Name = name
	r.categories[id] = c
	return c, nil
}

func (r *memoryRepo) DeleteCategory(ctx context.Context, id int64) error {
	if _, ok := r.categories[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.categories, id)
	return nil
}

func (r *memoryRepo) ListProducts(ctx context.Context, filter ProductFilter) ([]Product, error) {
	out := []Product{}
	for _, p := range r.products {
		if filter.CategoryID != 0 && p.CategoryID != filter.CategoryID {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *memoryRepo) CountProducts(ctx context.Context) (int, error) {
	return len(r.products), nil
}

func (r *memoryRepo) GetProduct(ctx context.Context, id int64) (Product, error) {
	p, ok := r.products[id]
	if !ok {
		return Product{}, shared.ErrNotFound
	}
	return p, nil
}

func (r *memoryRepo) InsertProduct(ctx context.Context, p Product) (Product, error) {
	for _, other := range r.products {
		if other.Name == p.Name {
			return Product{}, shared.ErrAlreadyExists
		}
	}
	r.nextID++
	p.ID = r.nextID
	r.products[p.ID] = p
	return p, nil
}

func (r *memoryRepo) UpdateProduct(ctx context.Context, p Product) (Product, error) {
	if _, ok := r.products[p.ID]; !ok {
		return Product{}, shared.ErrNotFound
	}
	r.products[p.ID] = p
	return p, nil
}

func (r *memoryRepo) DeleteProduct(ctx context.Context, id int64) error {
	if _, ok := r.products[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.products, id)
	return nil
}

func TestCreateCategoryDuplicateName(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	_, err := svc.CreateCategory(ctx, "Pizze")
	require.NoError(t, err)
	_, err = svc.CreateCategory(ctx, "Pizze")
	require.ErrorIs(t, err, shared.ErrAlreadyExists)
}

func TestCreateCategoryEmptyName(t *testing.T) {
	svc := NewService(newMemoryRepo())

	_, err := svc.CreateCategory(context.Background(), "   ")
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestUpdateMissingCategory(t *testing.T) {
	svc := NewService(newMemoryRepo())

	_, err := svc.UpdateCategory(context.Background(), 99, "Antipasti")
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCreateProductValidation(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, Product{Name: "", CategoryID: 1, Price: 10})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.CreateProduct(ctx, Product{Name: "Margherita", CategoryID: 0, Price: 10})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.CreateProduct(ctx, Product{Name: "Margherita", CategoryID: 1, Price: -1})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestListProductsFilter(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	pizze, err := svc.CreateCategory(ctx, "Pizze")
	require.NoError(t, err)
	dolci, err := svc.CreateCategory(ctx, "Dolci")
	require.NoError(t, err)

	_, err = svc.CreateProduct(ctx, Product{Name: "Margherita", CategoryID: pizze.ID, Price: 8.5})
	require.NoError(t, err)
	_, err = svc.CreateProduct(ctx, Product{Name: "Diavola", CategoryID: pizze.ID, Price: 10})
	require.NoError(t, err)
	_, err = svc.CreateProduct(ctx, Product{Name: "Tiramisu", CategoryID: dolci.ID, Price: 6})
	require.NoError(t, err)

	byCategory, err := svc.ListProducts(ctx, ProductFilter{CategoryID: pizze.ID})
	require.NoError(t, err)
	require.Len(t, byCategory, 2)

	bySearch, err := svc.ListProducts(ctx, ProductFilter{Search: "tira"})
	require.NoError(t, err)
	require.Len(t, bySearch, 1)
	require.Equal(t, "Tiramisu", bySearch[0].Name)

	categories, products, err := svc.Counts(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, categories)
	require.Equal(t, 3, products)
}
