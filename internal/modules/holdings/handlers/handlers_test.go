package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kwchan/folio/internal/domain"
	"github.com/kwchan/folio/internal/events"
	"github.com/kwchan/folio/internal/modules/holdings"
	testhelper "github.com/kwchan/folio/internal/testing"
)

func newTestRouter(t *testing.T) (*chi.Mux, *holdings.Repository, *events.Bus) {
	t.Helper()

	db, cleanup := testhelper.NewTestDB(t, "portfolio")
	t.Cleanup(cleanup)

	repo := holdings.NewRepository(db.Conn(), zerolog.Nop())
	bus := events.NewBus(zerolog.Nop())

	router := chi.NewRouter()
	NewHandler(repo, bus, zerolog.Nop()).RegisterRoutes(router)

	return router, repo, bus
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestListEmpty(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/holdings/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestCreateAndList(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/holdings/", map[string]interface{}{
		"asset_type":    "Stock",
		"market":        "US",
		"ticker":        "aapl",
		"quantity":      10,
		"cost_basis":    150,
		"custom_sector": "Information Technology",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created domain.Holding
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "AAPL", created.Ticker, "ticker is normalized upper-case")

	rec = doJSON(t, router, http.MethodGet, "/holdings/", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var all []domain.Holding
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	assert.Len(t, all, 1)
}

func TestCreateNormalizesShortOption(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/holdings/", map[string]interface{}{
		"asset_type":   "Option",
		"market":       "US",
		"ticker":       "TSLA",
		"quantity":     2,
		"option_type":  "Put",
		"strike_price": 200,
		"side":         "Short",
		"expiry_date":  "",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created domain.Holding
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, -2.0, created.Quantity)
	assert.Nil(t, created.ExpiryDate, "empty expiry stored as null")
}

func TestCreateClearsOptionFieldsOnStock(t *testing.T) {
	router, repo, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/holdings/", map[string]interface{}{
		"asset_type":   "Stock",
		"market":       "HK",
		"ticker":       "0700",
		"quantity":     100,
		"option_type":  "Call",
		"strike_price": 300,
		"side":         "Long",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created domain.Holding
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	stored, err := repo.GetByID(created.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.OptionType)
	assert.Nil(t, stored.StrikePrice)
	assert.Nil(t, stored.Side)
}

func TestCreateInvalid(t *testing.T) {
	router, _, _ := newTestRouter(t)

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/holdings/", bytes.NewBufferString("{not json"))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bad asset type", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/holdings/", map[string]interface{}{
			"asset_type": "Bond",
			"market":     "US",
			"ticker":     "X",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "error")
	})
}

func TestUpdate(t *testing.T) {
	router, repo, _ := newTestRouter(t)

	h := &domain.Holding{AssetType: domain.AssetStock, Market: domain.MarketUS, Ticker: "AAPL", Quantity: 10}
	require.NoError(t, repo.Create(h))

	rec := doJSON(t, router, http.MethodPut, "/holdings/"+h.ID, map[string]interface{}{
		"asset_type": "Stock",
		"market":     "US",
		"ticker":     "AAPL",
		"quantity":   25,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	stored, err := repo.GetByID(h.ID)
	require.NoError(t, err)
	assert.Equal(t, 25.0, stored.Quantity)
}

func TestUpdate_NotFound(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPut, "/holdings/nonexistent", map[string]interface{}{
		"asset_type": "Stock",
		"market":     "US",
		"ticker":     "AAPL",
		"quantity":   1,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDelete(t *testing.T) {
	router, repo, bus := newTestRouter(t)

	ch, cancel := bus.Subscribe()
	defer cancel()

	h := &domain.Holding{AssetType: domain.AssetStock, Market: domain.MarketUS, Ticker: "AAPL", Quantity: 10}
	require.NoError(t, repo.Create(h))

	rec := doJSON(t, router, http.MethodDelete, "/holdings/"+h.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	stored, err := repo.GetByID(h.ID)
	require.NoError(t, err)
	assert.Nil(t, stored)

	evt := <-ch
	assert.Equal(t, events.HoldingDeleted, evt.Type)
	assert.Equal(t, h.ID, evt.Data["id"])
}

func TestDelete_NotFound(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodDelete, "/holdings/nonexistent", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
