package router

import (
	"net/http"

	"optikart/internal/handler"
	"optikart/internal/middleware"

	"github.com/rs/zerolog"
)

// New creates a new HTTP router with all routes and middleware configured.
func New(
	cartHandler *handler.CartHandler,
	profileHandler *handler.ProfileHandler,
	logger zerolog.Logger,
) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint (no identity required)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	// Cart routes (both with and without trailing slash)
	mux.HandleFunc("/api/cart", cartHandler.Get)
	mux.HandleFunc("/api/cart/", cartHandler.Get)
	mux.HandleFunc("/api/cart/clear", cartHandler.Clear)
	mux.HandleFunc("/api/cart/lines", cartHandler.AddLine)
	mux.HandleFunc("/api/cart/lines/", cartHandler.Line)

	// Profile routes
	mux.HandleFunc("/api/profiles", profileHandler.List)
	mux.HandleFunc("/api/profiles/", profileHandler.List)

	// Apply middleware in order: CORS -> Auth -> Logging -> Recovery
	var h http.Handler = mux
	h = middleware.Recovery(logger)(h)
	h = middleware.Logging(logger)(h)
	h = middleware.Authenticate(logger)(h)
	h = middleware.CORS(h)

	return h
}
