package handler

import (
	"net/http"

	appledger "github.com/fintrack/backend/internal/application/ledger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AccountHandler handles ledger account API endpoints
type AccountHandler struct {
	BaseHandler
	service *appledger.AccountService
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(service *appledger.AccountService) *AccountHandler {
	return &AccountHandler{
		service: service,
	}
}

// ListAccounts godoc
// @ID           listAccounts
//
//	@Summary		List accounts
//	@Description	Get all accounts for the calling owner
//	@Tags			accounts
//	@Produce		json
//	@Success		200	{object}	APIResponse[[]appledger.AccountResponse]
//	@Failure		401	{object}	ErrorResponse
//	@Router			/accounts [get]
func (h *AccountHandler) ListAccounts(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil || ownerID == uuid.Nil {
		h.Unauthorized(c, "Invalid owner")
		return
	}

	accounts, err := h.service.List(c.Request.Context(), ownerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, accounts)
}

// GetAccount godoc
// @ID           getAccount
//
//	@Summary		Get account by ID
//	@Description	Get a single account by its ID
//	@Tags			accounts
//	@Produce		json
//	@Param			id	path		string	true	"Account ID"
//	@Success		200	{object}	APIResponse[appledger.AccountResponse]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Router			/accounts/{id} [get]
func (h *AccountHandler) GetAccount(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil || ownerID == uuid.Nil {
		h.Unauthorized(c, "Invalid owner")
		return
	}

	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid account ID")
		return
	}

	account, err := h.service.GetByID(c.Request.Context(), ownerID, accountID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, account)
}

// CreateAccount godoc
// @ID           createAccount
//
//	@Summary		Create account
//	@Description	Create a new account with an opening balance
//	@Tags			accounts
//	@Accept			json
//	@Produce		json
//	@Param			request	body		appledger.CreateAccountRequest	true	"Account creation request"
//	@Success		201		{object}	APIResponse[appledger.AccountResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Router			/accounts [post]
func (h *AccountHandler) CreateAccount(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil || ownerID == uuid.Nil {
		h.Unauthorized(c, "Invalid owner")
		return
	}

	var req appledger.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	account, err := h.service.Create(c.Request.Context(), ownerID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, account)
}

// RegisterRoutes registers all account routes
func (h *AccountHandler) RegisterRoutes(rg *gin.RouterGroup) {
	accounts := rg.Group("/accounts")
	{
		accounts.GET("", h.ListAccounts)
		accounts.GET("/:id", h.GetAccount)
		accounts.POST("", h.CreateAccount)
	}
}
