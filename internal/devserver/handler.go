package devserver

import (
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/shopsync/internal/domain"
	"github.com/simp-lee/shopsync/internal/pkg"
)

// Handler serves the REST surface for one resource type: CRUD, paginated
// listing, free-text search, and typeahead suggestions.
type Handler[T domain.Entity] struct {
	repo *Repository[T]
}

// NewHandler creates a handler over the given repository.
func NewHandler[T domain.Entity](repo *Repository[T]) *Handler[T] {
	return &Handler[T]{repo: repo}
}

// Create handles POST /<resource>.
func (h *Handler[T]) Create(c *gin.Context) {
	var payload T
	if !pkg.BindAndValidate(c, &payload) {
		return
	}

	if err := h.repo.Create(c.Request.Context(), &payload); err != nil {
		pkg.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, pkg.Response{
		Code:    http.StatusCreated,
		Message: "success",
		Data:    payload,
	})
}

// Get handles GET /<resource>/:id.
func (h *Handler[T]) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		pkg.Error(c, domain.NewAppError(domain.CodeValidation, err.Error(), nil))
		return
	}

	entity, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.Success(c, entity)
}

// List handles GET /<resource>.
func (h *Handler[T]) List(c *gin.Context) {
	req := pkg.ParsePageRequest(c)

	result, err := h.repo.List(c.Request.Context(), req)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.List(c, result)
}

// Update handles PUT /<resource>/:id.
func (h *Handler[T]) Update(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		pkg.Error(c, domain.NewAppError(domain.CodeValidation, err.Error(), nil))
		return
	}

	existing, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	var payload T
	if !pkg.BindAndValidate(c, &payload) {
		return
	}

	// Keep the stored identity and timestamps; the payload only carries
	// business fields.
	applyIdentity(&payload, existing)

	if err := h.repo.Update(c.Request.Context(), &payload); err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.Success(c, payload)
}

// Delete handles DELETE /<resource>/:id.
func (h *Handler[T]) Delete(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		pkg.Error(c, domain.NewAppError(domain.CodeValidation, err.Error(), nil))
		return
	}

	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.Success(c, nil)
}

// Search handles GET /search/<resource>?q=...
func (h *Handler[T]) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	req := pkg.ParsePageRequest(c)

	result, err := h.repo.Search(c.Request.Context(), query, req)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.List(c, result)
}

// Suggest handles GET /suggest/<resource>?q=...
func (h *Handler[T]) Suggest(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	suggestions, err := h.repo.Suggest(c.Request.Context(), query, limit)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.Success(c, suggestions)
}

// applyIdentity copies the embedded BaseModel (ID and timestamps) from the
// stored entity into the bound payload so Save updates in place.
func applyIdentity[T domain.Entity](payload, existing *T) {
	pv := reflect.ValueOf(payload).Elem()
	ev := reflect.ValueOf(existing).Elem()
	field := pv.FieldByName("BaseModel")
	if field.IsValid() && field.CanSet() {
		field.Set(ev.FieldByName("BaseModel"))
	}
}

func parseID(c *gin.Context) (uint, error) {
	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id: %s", idStr)
	}
	if id > uint64(^uint(0)) {
		return 0, fmt.Errorf("invalid id: %s", idStr)
	}
	return uint(id), nil
}
