package handler

import (
	"net/http"

	"github.com/fintrack/backend/internal/domain/category"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CategoryHandler exposes the read-only category views used to classify bills
type CategoryHandler struct {
	BaseHandler
	resolver category.Resolver
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(resolver category.Resolver) *CategoryHandler {
	return &CategoryHandler{
		resolver: resolver,
	}
}

// ListCategories godoc
// @ID           listCategories
//
//	@Summary		List categories
//	@Description	Get the merged system and owner categories of one type
//	@Tags			categories
//	@Produce		json
//	@Param			type	query		string	true	"Category type"	Enums(INCOME, EXPENSE)
//	@Success		200		{object}	APIResponse[[]category.Category]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Router			/categories [get]
func (h *CategoryHandler) ListCategories(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil || ownerID == uuid.Nil {
		h.Unauthorized(c, "Invalid owner")
		return
	}

	categoryType := category.Type(c.Query("type"))
	if !categoryType.IsValid() {
		h.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "type must be INCOME or EXPENSE")
		return
	}

	categories, err := h.resolver.ListByType(c.Request.Context(), ownerID, categoryType)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, categories)
}

// GetCategory godoc
// @ID           getCategory
//
//	@Summary		Get category by ID
//	@Description	Get a single category by its ID
//	@Tags			categories
//	@Produce		json
//	@Param			id	path		string	true	"Category ID"
//	@Success		200	{object}	APIResponse[category.Category]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Router			/categories/{id} [get]
func (h *CategoryHandler) GetCategory(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil || ownerID == uuid.Nil {
		h.Unauthorized(c, "Invalid owner")
		return
	}

	categoryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid category ID")
		return
	}

	cat, err := h.resolver.Resolve(c.Request.Context(), categoryID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, cat)
}

// RegisterRoutes registers all category routes
func (h *CategoryHandler) RegisterRoutes(rg *gin.RouterGroup) {
	categories := rg.Group("/categories")
	{
		categories.GET("", h.ListCategories)
		categories.GET("/:id", h.GetCategory)
	}
}
