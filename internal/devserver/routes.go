package devserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/simp-lee/shopsync/internal/domain"
	"github.com/simp-lee/shopsync/internal/pkg"
	"github.com/simp-lee/shopsync/internal/search"
)

// RouteDeps holds all dependencies needed to register routes.
type RouteDeps struct {
	DB *gorm.DB
}

// RegisterRoutes registers the commerce API on the given gin.Engine: CRUD,
// search, and suggestion routes per resource, plus health and query-history
// endpoints.
func RegisterRoutes(r *gin.Engine, deps *RouteDeps) error {
	if r == nil {
		return errors.New("router is nil")
	}
	if deps == nil || deps.DB == nil {
		return errors.New("route dependencies are nil")
	}

	r.GET("/health", healthHandler(deps.DB))

	api := r.Group("/api/v1")

	mountResource(api, "products", NewHandler(NewRepository[domain.Product](deps.DB,
		[]string{"id", "name", "price_cents", "stock", "created_at", "updated_at"},
		[]string{"name", "category_id", "active"},
		[]string{"name", "description"},
	)))
	mountResource(api, "categories", NewHandler(NewRepository[domain.Category](deps.DB,
		[]string{"id", "name", "slug", "created_at"},
		[]string{"name", "slug", "parent_id"},
		[]string{"name", "slug"},
	)))
	mountResource(api, "orders", NewHandler(NewRepository[domain.Order](deps.DB,
		[]string{"id", "status", "total_cents", "created_at", "updated_at"},
		[]string{"status", "user_id"},
		[]string{"status"},
	)))
	mountResource(api, "users", NewHandler(NewRepository[domain.User](deps.DB,
		[]string{"id", "name", "email", "created_at", "updated_at"},
		[]string{"name", "email", "role"},
		[]string{"name", "email"},
	)))
	mountResource(api, "campaigns", NewHandler(NewRepository[domain.Campaign](deps.DB,
		[]string{"id", "name", "slug", "starts_at", "ends_at", "created_at"},
		[]string{"slug", "active"},
		[]string{"name", "slug"},
	)))

	// Query history, shared across resources.
	history := search.NewHistory(deps.DB)
	api.GET("/queries/recent", queryTermsHandler(history.Recent))
	api.GET("/queries/popular", queryTermsHandler(history.Popular))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, pkg.Response{Code: http.StatusNotFound, Message: "not found"})
	})

	return nil
}

// mountResource registers the full route set for one resource. Search and
// suggest live under their own prefixes so the :id wildcard stays
// unambiguous.
func mountResource[T domain.Entity](api *gin.RouterGroup, name string, h *Handler[T]) {
	api.POST("/"+name, h.Create)
	api.GET("/"+name, h.List)
	api.GET("/"+name+"/:id", h.Get)
	api.PUT("/"+name+"/:id", h.Update)
	api.DELETE("/"+name+"/:id", h.Delete)

	api.GET("/search/"+name, h.Search)
	api.GET("/suggest/"+name, h.Suggest)
}

func queryTermsHandler(fetch func(ctx context.Context, limit int) ([]string, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		terms, err := fetch(c.Request.Context(), 10)
		if err != nil {
			pkg.Error(c, err)
			return
		}
		pkg.Success(c, terms)
	}
}

// healthHandler returns a handler that pings the database and reports status.
func healthHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		dbStatus := "ok"
		status := "ok"
		code := http.StatusOK

		sqlDB, err := db.DB()
		if err != nil {
			dbStatus = "error"
			status = "degraded"
			code = http.StatusServiceUnavailable
		} else {
			ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
			defer cancel()
			if err := sqlDB.PingContext(ctx); err != nil {
				dbStatus = "error"
				status = "degraded"
				code = http.StatusServiceUnavailable
			}
		}

		c.JSON(code, gin.H{
			"status": status,
			"components": gin.H{
				"database": dbStatus,
			},
		})
	}
}
