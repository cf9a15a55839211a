package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	appledger "github.com/fintrack/backend/internal/application/ledger"
	"github.com/fintrack/backend/internal/domain/ledger"
	"github.com/fintrack/backend/internal/interfaces/http/dto"
	"github.com/fintrack/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAccountRouter(repo *memoryAccountRepo) *gin.Engine {
	h := NewAccountHandler(appledger.NewAccountService(repo))

	engine := gin.New()
	engine.Use(middleware.OwnerMiddleware())
	api := engine.Group("/api/v1")
	h.RegisterRoutes(api)
	return engine
}

func doOwnerRequest(router *gin.Engine, ownerID uuid.UUID, method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Owner-ID", ownerID.String())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAccountHandler_CreateAccount(t *testing.T) {
	repo := newMemoryAccountRepo()
	router := newAccountRouter(repo)
	ownerID := uuid.New()

	w := doOwnerRequest(router, ownerID, http.MethodPost, "/api/v1/accounts", gin.H{
		"name":            "Savings",
		"opening_balance": "1500.00",
	})

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	resp := decodeResponse(t, w)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "Savings", data["name"])
	assert.NotEmpty(t, data["balance_display"])
}

func TestAccountHandler_CreateAccount_EmptyName(t *testing.T) {
	repo := newMemoryAccountRepo()
	router := newAccountRouter(repo)

	w := doOwnerRequest(router, uuid.New(), http.MethodPost, "/api/v1/accounts", gin.H{
		"opening_balance": "10.00",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAccountHandler_GetAccount(t *testing.T) {
	repo := newMemoryAccountRepo()
	router := newAccountRouter(repo)
	ownerID := uuid.New()

	account, err := ledger.NewAccount(ownerID, "Checking", decimal.NewFromInt(100))
	require.NoError(t, err)
	require.NoError(t, repo.Save(t.Context(), account))

	w := doOwnerRequest(router, ownerID, http.MethodGet, "/api/v1/accounts/"+account.ID.String(), nil)

	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeResponse(t, w)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, account.ID.String(), data["id"])
}

func TestAccountHandler_GetAccount_OtherOwner(t *testing.T) {
	repo := newMemoryAccountRepo()
	router := newAccountRouter(repo)

	account, err := ledger.NewAccount(uuid.New(), "Checking", decimal.NewFromInt(100))
	require.NoError(t, err)
	require.NoError(t, repo.Save(t.Context(), account))

	w := doOwnerRequest(router, uuid.New(), http.MethodGet, "/api/v1/accounts/"+account.ID.String(), nil)

	assert.Equal(t, http.StatusNotFound, w.Code)

	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeNotFound, resp.Error.Code)
}

func TestAccountHandler_ListAccounts(t *testing.T) {
	repo := newMemoryAccountRepo()
	router := newAccountRouter(repo)
	ownerID := uuid.New()

	for _, name := range []string{"Checking", "Savings"} {
		account, err := ledger.NewAccount(ownerID, name, decimal.Zero)
		require.NoError(t, err)
		require.NoError(t, repo.Save(t.Context(), account))
	}

	w := doOwnerRequest(router, ownerID, http.MethodGet, "/api/v1/accounts", nil)

	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeResponse(t, w)
	assert.Len(t, resp.Data.([]interface{}), 2)
}
