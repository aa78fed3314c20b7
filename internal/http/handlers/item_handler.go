// Listing HTTP handlers.
//
// This file exposes REST endpoints for marketplace listings:
//   - POST   /items               (create)
//   - GET    /items               (list, paginated, ETag support)
//   - GET    /items/search        (keyword search)
//   - GET    /items/{id}          (fetch one)
//   - PUT    /items/{id}          (update, seller only)
//   - DELETE /items/{id}          (delete, seller only)
//   - POST   /items/{id}/offer    (notify the seller of a buyer's offer)
package handlers

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/afrimart/marketplace-backend/internal/domain"
	"github.com/afrimart/marketplace-backend/internal/services"
	"github.com/afrimart/marketplace-backend/internal/storage"
)

// ListingService defines the listing operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type ListingService interface {
	Create(ctx context.Context, sellerID string, in services.ItemInput) (*domain.Item, error)
	Get(ctx context.Context, id string) (*domain.Item, error)
	ListPage(ctx context.Context, page, pageSize int) ([]domain.Item, int64, error)
	Search(ctx context.Context, query string, limit int) ([]domain.Item, error)
	Update(ctx context.Context, userID, id string, upd services.ItemUpdate) (*domain.Item, error)
	Delete(ctx context.Context, userID, id string) error
	MakeOffer(ctx context.Context, buyerID, itemID string) (sellerID string, err error)
	// Stats returns the listing count and newest update time, used for ETags.
	Stats(ctx context.Context) (int64, *time.Time, error)
}

// ItemHandlers groups the listing endpoints.
type ItemHandlers struct {
	svc     ListingService
	uploads *storage.UploadStore
}

// NewItemHandlers constructs an ItemHandlers bound to the given service and
// upload store. The store may be nil when media uploads are disabled.
func NewItemHandlers(svc ListingService, uploads *storage.UploadStore) *ItemHandlers {
	return &ItemHandlers{svc: svc, uploads: uploads}
}

// maxItemMedia caps the number of media files accepted per listing.
const maxItemMedia = 3

//
// DTOs
//

// CreateItemForm is the multipart form for creating a listing. Media files
// ride alongside it in the "media" file field.
type CreateItemForm struct {
	Name        string  `form:"name" binding:"required" example:"Solar lamp"`
	Description string  `form:"description" example:"Barely used, 2 brightness modes"`
	Price       float64 `form:"price" binding:"required" example:"45.5"`
	Currency    string  `form:"currency" binding:"required" example:"NGN"`
	Category    string  `form:"category" example:"home"`
	Location    string  `form:"location" example:"Lagos"`
}

// UpdateItemRequest is the JSON payload for updating a listing. Absent fields
// are left unchanged.
type UpdateItemRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Currency    *string  `json:"currency"`
	Category    *string  `json:"category"`
	Location    *string  `json:"location"`
	Images      []string `json:"images"`
}

// ListItemsResponse wraps a page of listings and pagination information.
type ListItemsResponse struct {
	Items      []domain.Item `json:"items"`
	Pagination Pagination    `json:"pagination"`
}

// OfferResponse acknowledges a submitted offer.
type OfferResponse struct {
	Status string `json:"status" example:"offer sent"`
}

//
// Handlers
//

// Create godoc
// @ID          createItem
// @Summary     Create a listing
// @Description Creates a listing owned by the current user. Media files are stored and their public URLs attached to the listing.
// @Tags        Items
// @Accept      multipart/form-data
// @Produce     json
// @Security    BearerAuth
//
// @Param       name         formData  string  true   "Listing name"
// @Param       description  formData  string  false  "Description"
// @Param       price        formData  number  true   "Asking price"
// @Param       currency     formData  string  true   "ISO currency code"
// @Param       category     formData  string  false  "Category"
// @Param       location     formData  string  false  "Location"
// @Param       media        formData  file    true   "1 to 3 image files (png, jpeg, gif, webp, svg)"
//
// @Success     201  {object}  domain.Item
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     413  {object}  handlers.ErrorResponse  "File too large"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /items [post]
func (h *ItemHandlers) Create(c *gin.Context) {
	if h.uploads == nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "uploads are disabled")
		return
	}

	var req CreateItemForm
	if err := c.ShouldBind(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid form data")
		return
	}
	form, err := c.MultipartForm()
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "multipart form required")
		return
	}
	media := form.File["media"]
	if len(media) == 0 || len(media) > maxItemMedia {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest,
			fmt.Sprintf("between 1 and %d media files required", maxItemMedia))
		return
	}

	urls, err := h.saveMedia(media)
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrUnsupportedType):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "only image uploads are accepted")
		return
	case errors.Is(err, storage.ErrTooLarge):
		fail(c, http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge, "a file exceeds the size limit")
		return
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not store upload")
		return
	}

	it, err := h.svc.Create(c.Request.Context(), userID(c), services.ItemInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Currency:    req.Currency,
		Category:    req.Category,
		Location:    req.Location,
		Images:      urls,
	})
	switch {
	case err == nil:
		ok(c, http.StatusCreated, it)
	case errors.Is(err, services.ErrUnsupportedCurrency):
		fail(c, http.StatusBadRequest, ErrCodeUnsupportedCurrency,
			"currency must be one of "+strings.Join(domain.SupportedCurrencies, ", "))
	case errors.Is(err, services.ErrInvalidInput):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not create listing")
	}
}

// saveMedia stores each uploaded file and returns their public URLs in the
// order they were sent.
func (h *ItemHandlers) saveMedia(media []*multipart.FileHeader) ([]string, error) {
	urls := make([]string, 0, len(media))
	for _, fh := range media {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("open upload: %w", err)
		}
		url, err := h.uploads.Save(f)
		f.Close()
		if err != nil {
			return nil, err
		}
		urls = append(urls, url)
	}
	return urls, nil
}

// List godoc
// @ID          listItems
// @Summary     List listings (paginated)
// @Description Returns a page of listings, newest first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Items
// @Produce     json
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Param       page           query   int     false "Page number"     minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListItemsResponse
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /items [get]
func (h *ItemHandlers) List(c *gin.Context) {
	ctx := c.Request.Context()
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	if count, maxTS, err := h.svc.Stats(ctx); err == nil {
		var ts int64
		if maxTS != nil {
			ts = maxTS.Unix()
		}
		etag := fmt.Sprintf(`W/"items:%d:%d"`, count, ts)
		c.Header("ETag", etag)
		if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}

	items, total, err := h.svc.ListPage(ctx, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not list items")
		return
	}
	ok(c, http.StatusOK, ListItemsResponse{
		Items:      items,
		Pagination: newPagination(page, pageSize, total),
	})
}

// Search godoc
// @ID          searchItems
// @Summary     Search listings
// @Description Ranks listings against the query by keyword similarity.
// @Tags        Items
// @Produce     json
//
// @Param       q      query  string  true   "Search terms"
// @Param       limit  query  int     false  "Maximum results"  minimum(1) maximum(100) default(20)
//
// @Success     200  {array}   domain.Item
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /items/search [get]
func (h *ItemHandlers) Search(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "query parameter q is required")
		return
	}
	_, limit := clampPagination(c)

	items, err := h.svc.Search(c.Request.Context(), q, limit)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "search failed")
		return
	}
	if items == nil {
		items = []domain.Item{}
	}
	ok(c, http.StatusOK, items)
}

// Get godoc
// @ID          getItem
// @Summary     Fetch a listing
// @Tags        Items
// @Produce     json
//
// @Param       id  path  string  true  "Item ID (UUID)"  format(uuid)
//
// @Success     200  {object}  domain.Item
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Item not found"
// @Router      /items/{id} [get]
func (h *ItemHandlers) Get(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "item id must be a UUID")
		return
	}

	it, err := h.svc.Get(c.Request.Context(), id)
	switch {
	case err == nil:
		ok(c, http.StatusOK, it)
	case errors.Is(err, services.ErrItemNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "item not found")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not load item")
	}
}

// Update godoc
// @ID          updateItem
// @Summary     Update a listing
// @Description Applies the provided fields to a listing owned by the current user.
// @Tags        Items
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       id    path  string                      true  "Item ID (UUID)"  format(uuid)
// @Param       body  body  handlers.UpdateItemRequest  true  "Fields to change"
//
// @Success     200  {object}  domain.Item
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse  "Not the seller"
// @Failure     404  {object}  handlers.ErrorResponse  "Item not found"
// @Router      /items/{id} [put]
func (h *ItemHandlers) Update(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "item id must be a UUID")
		return
	}
	var req UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	it, err := h.svc.Update(c.Request.Context(), userID(c), id, services.ItemUpdate{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Currency:    req.Currency,
		Category:    req.Category,
		Location:    req.Location,
		Images:      req.Images,
	})
	switch {
	case err == nil:
		ok(c, http.StatusOK, it)
	case errors.Is(err, services.ErrItemNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "item not found")
	case errors.Is(err, services.ErrNotOwner):
		fail(c, http.StatusForbidden, ErrCodeForbidden, "only the seller can modify a listing")
	case errors.Is(err, services.ErrUnsupportedCurrency):
		fail(c, http.StatusBadRequest, ErrCodeUnsupportedCurrency,
			"currency must be one of "+strings.Join(domain.SupportedCurrencies, ", "))
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not update listing")
	}
}

// Delete godoc
// @ID          deleteItem
// @Summary     Delete a listing
// @Tags        Items
// @Security    BearerAuth
//
// @Param       id  path  string  true  "Item ID (UUID)"  format(uuid)
//
// @Success     204  {string}  string  "No Content"
// @Failure     403  {object}  handlers.ErrorResponse  "Not the seller"
// @Failure     404  {object}  handlers.ErrorResponse  "Item not found"
// @Router      /items/{id} [delete]
func (h *ItemHandlers) Delete(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "item id must be a UUID")
		return
	}

	err := h.svc.Delete(c.Request.Context(), userID(c), id)
	switch {
	case err == nil:
		noContent(c)
	case errors.Is(err, services.ErrItemNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "item not found")
	case errors.Is(err, services.ErrNotOwner):
		fail(c, http.StatusForbidden, ErrCodeForbidden, "only the seller can delete a listing")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not delete listing")
	}
}

// MakeOffer godoc
// @ID          makeOffer
// @Summary     Send an offer
// @Description Notifies the seller that the current user is interested in the listing. Delivery is best effort; an offline seller receives nothing.
// @Tags        Items
// @Produce     json
// @Security    BearerAuth
//
// @Param       id  path  string  true  "Item ID (UUID)"  format(uuid)
//
// @Success     202  {object}  handlers.OfferResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Item not found"
// @Router      /items/{id}/offer [post]
func (h *ItemHandlers) MakeOffer(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "item id must be a UUID")
		return
	}

	_, err := h.svc.MakeOffer(c.Request.Context(), userID(c), id)
	switch {
	case err == nil:
		ok(c, http.StatusAccepted, OfferResponse{Status: "offer sent"})
	case errors.Is(err, services.ErrItemNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "item not found")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not send offer")
	}
}
