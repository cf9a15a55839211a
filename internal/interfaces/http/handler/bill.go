package handler

import (
	"net/http"
	"time"

	appbilling "github.com/fintrack/backend/internal/application/billing"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// BillHandler handles bill lifecycle and settlement API endpoints
type BillHandler struct {
	BaseHandler
	billService       *appbilling.BillService
	settlementService *appbilling.SettlementService
}

// NewBillHandler creates a new BillHandler
func NewBillHandler(billService *appbilling.BillService, settlementService *appbilling.SettlementService) *BillHandler {
	return &BillHandler{
		billService:       billService,
		settlementService: settlementService,
	}
}

// BillListQuery represents filter parameters for the bill list
//
//	@Description	Bill list filter
type BillListQuery struct {
	Status      string `form:"status"`
	Direction   string `form:"direction"`
	IsRecurring *bool  `form:"is_recurring"`
	DueFrom     string `form:"due_from"`
	DueTo       string `form:"due_to"`
	Search      string `form:"search"`
	Page        int    `form:"page,omitempty" binding:"omitempty,min=1" example:"1"`
	PageSize    int    `form:"page_size,omitempty" binding:"omitempty,min=1,max=100" json:"page_size" example:"20"`
}

// SettleBillRequest represents a request to settle a bill against its account
//
//	@Description	Settle bill request
type SettleBillRequest struct {
	// AccountID is the account to settle against
	AccountID string `json:"account_id" binding:"required" example:"a81bc81b-dead-4e5d-abff-90865d1e13b1"`
	// PaymentDate is the settlement date (YYYY-MM-DD); defaults to today
	PaymentDate string `json:"payment_date" example:"2026-08-29"`
	// AllowDuplicate confirms settlement after a duplicate warning
	AllowDuplicate bool `json:"allow_duplicate"`
}

// ListBills godoc
// @ID           listBills
//
//	@Summary		List bills
//	@Description	Get a paginated list of bills for the calling owner
//	@Tags			bills
//	@Produce		json
//	@Param			status		query		string	false	"Filter by status"	Enums(PENDING, OVERDUE, PAID, CANCELLED)
//	@Param			direction	query		string	false	"Filter by direction"	Enums(PAYABLE, RECEIVABLE)
//	@Param			is_recurring	query	bool	false	"Filter recurring bills"
//	@Param			due_from	query		string	false	"Due date lower bound (YYYY-MM-DD)"
//	@Param			due_to		query		string	false	"Due date upper bound (YYYY-MM-DD)"
//	@Param			search		query		string	false	"Search in description and contact name"
//	@Param			page		query		int		false	"Page number"	default(1)
//	@Param			page_size	query		int		false	"Page size"		default(20)
//	@Success		200			{object}	APIResponse[[]appbilling.BillResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		401			{object}	ErrorResponse
//	@Router			/bills [get]
func (h *BillHandler) ListBills(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil || ownerID == uuid.Nil {
		h.Unauthorized(c, "Invalid owner")
		return
	}

	var query BillListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	if query.Page <= 0 {
		query.Page = 1
	}
	if query.PageSize <= 0 {
		query.PageSize = 20
	}

	filter := appbilling.BillListFilter{
		Status:      query.Status,
		Direction:   query.Direction,
		IsRecurring: query.IsRecurring,
		Search:      query.Search,
		Page:        query.Page,
		PageSize:    query.PageSize,
	}
	if query.DueFrom != "" {
		t, err := time.Parse("2006-01-02", query.DueFrom)
		if err != nil {
			h.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "due_from must be YYYY-MM-DD")
			return
		}
		filter.DueFrom = &t
	}
	if query.DueTo != "" {
		t, err := time.Parse("2006-01-02", query.DueTo)
		if err != nil {
			h.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "due_to must be YYYY-MM-DD")
			return
		}
		// Inclusive upper bound
		t = t.Add(24*time.Hour - time.Second)
		filter.DueTo = &t
	}

	bills, total, err := h.billService.List(c.Request.Context(), ownerID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, bills, total, query.Page, query.PageSize)
}

// GetBill godoc
// @ID           getBill
//
//	@Summary		Get bill by ID
//	@Description	Get a single bill by its ID
//	@Tags			bills
//	@Produce		json
//	@Param			id	path		string	true	"Bill ID"
//	@Success		200	{object}	APIResponse[appbilling.BillResponse]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Router			/bills/{id} [get]
func (h *BillHandler) GetBill(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil || ownerID == uuid.Nil {
		h.Unauthorized(c, "Invalid owner")
		return
	}

	billID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid bill ID")
		return
	}

	bill, err := h.billService.GetByID(c.Request.Context(), ownerID, billID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, bill)
}

// CreateBill godoc
// @ID           createBill
//
//	@Summary		Create bill
//	@Description	Create a bill, or a full installment set when installment_count > 1
//	@Tags			bills
//	@Accept			json
//	@Produce		json
//	@Param			request	body		appbilling.CreateBillRequest	true	"Bill creation request"
//	@Success		201		{object}	APIResponse[[]appbilling.BillResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Router			/bills [post]
func (h *BillHandler) CreateBill(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil || ownerID == uuid.Nil {
		h.Unauthorized(c, "Invalid owner")
		return
	}

	var req appbilling.CreateBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	bills, err := h.billService.Create(c.Request.Context(), ownerID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, bills)
}

// UpdateBill godoc
// @ID           updateBill
//
//	@Summary		Update bill
//	@Description	Edit an unsettled bill; omitted fields are left untouched
//	@Tags			bills
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string							true	"Bill ID"
//	@Param			request	body		appbilling.UpdateBillRequest	true	"Bill update request"
//	@Success		200		{object}	APIResponse[appbilling.BillResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Router			/bills/{id} [put]
func (h *BillHandler) UpdateBill(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil || ownerID == uuid.Nil {
		h.Unauthorized(c, "Invalid owner")
		return
	}

	billID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid bill ID")
		return
	}

	var req appbilling.UpdateBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	bill, err := h.billService.Update(c.Request.Context(), ownerID, billID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, bill)
}

// DeleteBill godoc
// @ID           deleteBill
//
//	@Summary		Delete bill
//	@Description	Cancel an unsettled bill and remove its ledger shadow entries
//	@Tags			bills
//	@Produce		json
//	@Param			id	path		string	true	"Bill ID"
//	@Success		200	{object}	APIResponse[CountData]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Router			/bills/{id} [delete]
func (h *BillHandler) DeleteBill(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil || ownerID == uuid.Nil {
		h.Unauthorized(c, "Invalid owner")
		return
	}

	billID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid bill ID")
		return
	}

	removed, err := h.billService.Delete(c.Request.Context(), ownerID, billID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, CountData{Count: removed})
}

// SettleBill godoc
// @ID           settleBill
//
//	@Summary		Settle bill
//	@Description	Settle a bill against a chosen account, producing a ledger transaction
//	@Tags			bills
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Bill ID"
//	@Param			request	body		SettleBillRequest	true	"Settlement request"
//	@Success		200		{object}	APIResponse[appbilling.SettlementReceipt]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Router			/bills/{id}/settle [post]
func (h *BillHandler) SettleBill(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil || ownerID == uuid.Nil {
		h.Unauthorized(c, "Invalid owner")
		return
	}

	billID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid bill ID")
		return
	}

	var req SettleBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	accountID, err := uuid.Parse(req.AccountID)
	if err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid account ID")
		return
	}

	settleReq := appbilling.SettleRequest{
		OwnerID:        ownerID,
		BillID:         billID,
		AccountID:      accountID,
		AllowDuplicate: req.AllowDuplicate,
	}
	if req.PaymentDate != "" {
		t, err := time.Parse("2006-01-02", req.PaymentDate)
		if err != nil {
			h.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "payment_date must be YYYY-MM-DD")
			return
		}
		settleReq.PaymentDate = &t
	}

	receipt, err := h.settlementService.Settle(c.Request.Context(), settleReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, receipt)
}

// CancelBill godoc
// @ID           cancelBill
//
//	@Summary		Cancel bill
//	@Description	Move an unsettled bill to its CANCELLED terminal state
//	@Tags			bills
//	@Produce		json
//	@Param			id	path		string	true	"Bill ID"
//	@Success		200	{object}	APIResponse[appbilling.BillResponse]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		422	{object}	ErrorResponse
//	@Router			/bills/{id}/cancel [post]
func (h *BillHandler) CancelBill(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil || ownerID == uuid.Nil {
		h.Unauthorized(c, "Invalid owner")
		return
	}

	billID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid bill ID")
		return
	}

	bill, err := h.billService.Cancel(c.Request.Context(), ownerID, billID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, bill)
}

// RegisterRoutes registers all bill routes
func (h *BillHandler) RegisterRoutes(rg *gin.RouterGroup) {
	bills := rg.Group("/bills")
	{
		bills.GET("", h.ListBills)
		bills.GET("/:id", h.GetBill)
		bills.POST("", h.CreateBill)
		bills.PUT("/:id", h.UpdateBill)
		bills.DELETE("/:id", h.DeleteBill)
		bills.POST("/:id/settle", h.SettleBill)
		bills.POST("/:id/cancel", h.CancelBill)
	}
}
