package router

import (
	"net/http"
	"strings"

	"github.com/Dragonxt022/Express-Services-sub000/internal/tenancy"
)

const businessHeader = "X-Business-Id"

// requireBusinessID enforces the tenancy header on customer-facing
// write endpoints.
func requireBusinessID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		businessID := strings.TrimSpace(r.Header.Get(businessHeader))
		if businessID == "" {
			http.Error(w, "missing X-Business-Id", http.StatusBadRequest)
			return
		}
		ctx := tenancy.WithBusinessID(r.Context(), businessID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
