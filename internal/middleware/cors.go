package middleware

import (
	"github.com/go-chi/cors"
)

// CORS returns cors.Options for the admin API. With no configured
// origins the API is same-origin only, which is the right default for
// an operator-facing service. If "*" is present, AllowCredentials is
// set to false (browsers reject Access-Control-Allow-Credentials: true
// with a wildcard origin).
func CORS(allowedOrigins []string) cors.Options {
	allowCreds := true
	for _, o := range allowedOrigins {
		if o == "*" {
			allowCreds = false
			break
		}
	}

	return cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: allowCreds,
		MaxAge:           300,
	}
}
