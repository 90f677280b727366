package api

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"
	apiContext "qrforge/internal/api/context"
	"qrforge/internal/api/handlers"
)

type Dependencies struct {
	CodeHandler   *handlers.CodeHandler
	HealthHandler *handlers.HealthHandler
}

func NewRouter(deps *Dependencies) *httprouter.Router {
	router := httprouter.New()

	router.GET("/health", wrap(deps.HealthHandler.Check))

	// Code management
	router.POST("/api/v1/codes", wrap(deps.CodeHandler.Create))
	router.POST("/api/v1/codes/upload", wrap(deps.CodeHandler.Upload))
	router.GET("/api/v1/codes", wrap(deps.CodeHandler.List))

	// Rendering; POST accepts a multipart branding logo
	router.GET("/api/v1/codes/:code_id/image", wrap(deps.CodeHandler.Image))
	router.POST("/api/v1/codes/:code_id/image", wrap(deps.CodeHandler.Image))

	// Scan counter
	router.POST("/api/v1/codes/:code_id/scan", wrap(deps.CodeHandler.Scan))

	return router
}

// Convert http.HandlerFunc to httprouter.Handle
func wrap(handler http.HandlerFunc) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		// Inject params into context
		ctx := context.WithValue(r.Context(), apiContext.Params, ps)
		handler(w, r.WithContext(ctx))
	}
}
