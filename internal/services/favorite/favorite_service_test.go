package favorite

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkornilova/baraholka-api/internal/config"
	"github.com/mkornilova/baraholka-api/internal/models"
	"github.com/mkornilova/baraholka-api/internal/utils"
)

// fakeFavoriteStore — хранилище избранного в памяти для тестов
type fakeFavoriteStore struct {
	mu        sync.Mutex
	favorites map[uuid.UUID]map[uuid.UUID]models.Favorite
}

func newFakeFavoriteStore() *fakeFavoriteStore {
	return &fakeFavoriteStore{favorites: make(map[uuid.UUID]map[uuid.UUID]models.Favorite)}
}

func (s *fakeFavoriteStore) AddFavorite(_ context.Context, userID, productID uuid.UUID) (*models.Favorite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byUser, ok := s.favorites[userID]
	if !ok {
		byUser = make(map[uuid.UUID]models.Favorite)
		s.favorites[userID] = byUser
	}
	// Повторное добавление возвращает существующую запись
	if fav, ok := byUser[productID]; ok {
		return &fav, nil
	}
	fav := models.Favorite{ID: uuid.New(), UserID: userID, ProductID: productID, CreatedAt: time.Now()}
	byUser[productID] = fav
	return &fav, nil
}

func (s *fakeFavoriteStore) RemoveFavorite(_ context.Context, userID, productID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.favorites[userID], productID)
	return nil
}

func (s *fakeFavoriteStore) IsFavorite(_ context.Context, userID, productID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.favorites[userID][productID]
	return ok, nil
}

func (s *fakeFavoriteStore) ListFavorites(_ context.Context, userID uuid.UUID, limit, offset int) ([]models.Favorite, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Favorite
	for _, fav := range s.favorites[userID] {
		out = append(out, fav)
	}
	return out, len(out), nil
}

func newTestApp(t *testing.T) (*fiber.App, string) {
	t.Helper()

	cfg := &config.Config{JWTSecret: "test-secret"}
	svc := NewFavoriteService(cfg, newFakeFavoriteStore())

	app := fiber.New()
	svc.SetupRoutes(app)

	token, err := utils.NewJWTService(cfg.JWTSecret).GenerateToken(uuid.New().String())
	require.NoError(t, err)
	return app, token
}

func doRequest(t *testing.T, app *fiber.App, method, path, token string, body any) (*http.Response, map[string]json.RawMessage) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()

	var decoded map[string]json.RawMessage
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

func TestFavoritesRequireAuth(t *testing.T) {
	t.Parallel()

	app, _ := newTestApp(t)

	resp, _ := doRequest(t, app, http.MethodGet, "/api/favorites/", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, _ = doRequest(t, app, http.MethodGet, "/api/favorites/", "битый-токен", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAddCheckRemoveFavorite(t *testing.T) {
	t.Parallel()

	app, token := newTestApp(t)
	productID := uuid.New()

	resp, _ := doRequest(t, app, http.MethodPost, "/api/favorites/", token,
		map[string]string{"product_id": productID.String()})
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, body := doRequest(t, app, http.MethodGet, "/api/favorites/"+productID.String()+"/check", token, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.JSONEq(t, "true", string(body["is_favorite"]))

	resp, body = doRequest(t, app, http.MethodGet, "/api/favorites/", token, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.JSONEq(t, "1", string(body["total"]))

	resp, _ = doRequest(t, app, http.MethodDelete, "/api/favorites/"+productID.String(), token, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, body = doRequest(t, app, http.MethodGet, "/api/favorites/"+productID.String()+"/check", token, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.JSONEq(t, "false", string(body["is_favorite"]))
}

func TestAddFavoriteRejectsBadProductID(t *testing.T) {
	t.Parallel()

	app, token := newTestApp(t)

	resp, _ := doRequest(t, app, http.MethodPost, "/api/favorites/", token,
		map[string]string{"product_id": "не-uuid"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
