package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkornilova/baraholka-api/internal/apperr"
	"github.com/mkornilova/baraholka-api/internal/config"
	"github.com/mkornilova/baraholka-api/internal/models"
)

// fakeProductStore — хранилище товаров в памяти для тестов сервиса
type fakeProductStore struct {
	mu         sync.Mutex
	products   map[uuid.UUID]*models.Product
	categories []models.Category
	lastFilter models.ProductFilter
	failViews  bool
}

func newFakeProductStore() *fakeProductStore {
	return &fakeProductStore{products: make(map[uuid.UUID]*models.Product)}
}

func (s *fakeProductStore) ListProducts(_ context.Context, filter models.ProductFilter) ([]models.Product, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastFilter = filter

	var out []models.Product
	for _, p := range s.products {
		if filter.SellerID != nil && p.SellerID != *filter.SellerID {
			continue
		}
		out = append(out, *p)
	}
	return out, len(out), nil
}

func (s *fakeProductStore) GetProduct(_ context.Context, id uuid.UUID) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	c := *p
	return &c, nil
}

func (s *fakeProductStore) IncrementViewCount(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failViews {
		return errors.New("счетчик недоступен")
	}
	if p, ok := s.products[id]; ok {
		p.ViewCount++
	}
	return nil
}

func (s *fakeProductStore) CreateProduct(_ context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *p
	s.products[p.ID] = &c
	return nil
}

func (s *fakeProductStore) UpdateProduct(_ context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[p.ID]; !ok {
		return apperr.ErrNotFound
	}
	c := *p
	s.products[p.ID] = &c
	return nil
}

func (s *fakeProductStore) DeleteProduct(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.products, id)
	return nil
}

func (s *fakeProductStore) ListCategories(_ context.Context) ([]models.Category, error) {
	return s.categories, nil
}

func newTestCatalogService(store Store) *CatalogService {
	return NewCatalogService(&config.Config{JWTSecret: "test-secret"}, store)
}

func validInput() ProductInput {
	return ProductInput{
		Title:       "Диван",
		Description: "Почти новый",
		Price:       15000,
		CategoryID:  3,
		Images:      []string{"https://example.com/sofa.jpg"},
	}
}

func TestCreateProductValidation(t *testing.T) {
	t.Parallel()

	svc := newTestCatalogService(newFakeProductStore())
	seller := uuid.New()

	cases := []struct {
		name   string
		mutate func(*ProductInput)
	}{
		{"empty title", func(in *ProductInput) { in.Title = "   " }},
		{"empty description", func(in *ProductInput) { in.Description = "" }},
		{"negative price", func(in *ProductInput) { in.Price = -1 }},
		{"missing category", func(in *ProductInput) { in.CategoryID = 0 }},
		{"unknown status", func(in *ProductInput) { in.Status = "archived" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			in := validInput()
			tc.mutate(&in)
			_, err := svc.Create(context.Background(), seller, in)
			require.ErrorIs(t, err, apperr.ErrValidation)
		})
	}
}

func TestCreateProductDefaultsStatus(t *testing.T) {
	t.Parallel()

	svc := newTestCatalogService(newFakeProductStore())

	product, err := svc.Create(context.Background(), uuid.New(), validInput())
	require.NoError(t, err)
	assert.Equal(t, models.ProductStatusSelling, product.Status)
	assert.Equal(t, "Диван", product.Title)
}

func TestListNormalizesFilter(t *testing.T) {
	t.Parallel()

	store := newFakeProductStore()
	svc := newTestCatalogService(store)

	_, _, err := svc.List(context.Background(), models.ProductFilter{Limit: 0, Offset: -5, Sort: "whatever"})
	require.NoError(t, err)
	assert.Equal(t, 20, store.lastFilter.Limit)
	assert.Equal(t, 0, store.lastFilter.Offset)
	assert.Equal(t, models.ProductSortLatest, store.lastFilter.Sort)

	_, _, err = svc.List(context.Background(), models.ProductFilter{Limit: 500, Sort: models.ProductSortPriceAsc})
	require.NoError(t, err)
	assert.Equal(t, 100, store.lastFilter.Limit)
	assert.Equal(t, models.ProductSortPriceAsc, store.lastFilter.Sort)
}

func TestMyProductsListsOnlyOwnListings(t *testing.T) {
	t.Parallel()

	store := newFakeProductStore()
	svc := newTestCatalogService(store)
	seller, other := uuid.New(), uuid.New()

	mine, err := svc.Create(context.Background(), seller, validInput())
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), other, validInput())
	require.NoError(t, err)

	soldInput := validInput()
	soldInput.Status = models.ProductStatusSold
	sold, err := svc.Create(context.Background(), seller, soldInput)
	require.NoError(t, err)

	products, total, err := svc.MyProducts(context.Background(), seller, models.ProductFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, products, 2)

	ids := []uuid.UUID{products[0].ID, products[1].ID}
	assert.Contains(t, ids, mine.ID)
	assert.Contains(t, ids, sold.ID)

	// Нормализация фильтра действует и здесь
	assert.Equal(t, 20, store.lastFilter.Limit)
	require.NotNil(t, store.lastFilter.SellerID)
	assert.Equal(t, seller, *store.lastFilter.SellerID)
}

func TestGetIncrementsViewCount(t *testing.T) {
	t.Parallel()

	store := newFakeProductStore()
	svc := newTestCatalogService(store)

	created, err := svc.Create(context.Background(), uuid.New(), validInput())
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.ViewCount)

	got, err = svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.ViewCount)
}

func TestGetSurvivesViewCountFailure(t *testing.T) {
	t.Parallel()

	store := newFakeProductStore()
	store.failViews = true
	svc := newTestCatalogService(store)

	created, err := svc.Create(context.Background(), uuid.New(), validInput())
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.ViewCount)
}

func TestGetUnknownProduct(t *testing.T) {
	t.Parallel()

	svc := newTestCatalogService(newFakeProductStore())

	_, err := svc.Get(context.Background(), uuid.New())
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUpdateOnlyByOwner(t *testing.T) {
	t.Parallel()

	store := newFakeProductStore()
	svc := newTestCatalogService(store)
	owner, stranger := uuid.New(), uuid.New()

	created, err := svc.Create(context.Background(), owner, validInput())
	require.NoError(t, err)

	in := validInput()
	in.Price = 12000
	in.Status = models.ProductStatusReserved

	_, err = svc.Update(context.Background(), created.ID, stranger, in)
	require.ErrorIs(t, err, apperr.ErrForbidden)

	updated, err := svc.Update(context.Background(), created.ID, owner, in)
	require.NoError(t, err)
	assert.Equal(t, int64(12000), updated.Price)
	assert.Equal(t, models.ProductStatusReserved, updated.Status)
}

func TestDeleteOnlyByOwner(t *testing.T) {
	t.Parallel()

	store := newFakeProductStore()
	svc := newTestCatalogService(store)
	owner, stranger := uuid.New(), uuid.New()

	created, err := svc.Create(context.Background(), owner, validInput())
	require.NoError(t, err)

	err = svc.Delete(context.Background(), created.ID, stranger)
	require.ErrorIs(t, err, apperr.ErrForbidden)

	require.NoError(t, svc.Delete(context.Background(), created.ID, owner))
	_, err = svc.Get(context.Background(), created.ID)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}
