package middleware

import (
	"net/http"

	"github.com/rs/cors"

	"go-birthday-card/internal/payment"
)

func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	handler := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID", payment.SignatureHeader},
		ExposedHeaders:   []string{"Retry-After", "X-Request-ID", "X-RateLimit-Remaining"},
		MaxAge:           3600,
		AllowCredentials: false,
	})

	return handler.Handler
}
