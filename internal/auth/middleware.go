package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/ialicitacoes/gestao-licitacoes/internal/utils"
)

type ctxKey int

const userKey ctxKey = 0

// UserFromContext devolve o user_id injetado pelo RequireAuth.
func UserFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userKey).(string)
	return id, ok && id != ""
}

// ContextWithUser é usado pelos testes de handler para simular um usuário autenticado.
func ContextWithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey, userID)
}

// RequireAuth valida o bearer token e injeta a identidade no contexto da
// requisição. Nenhum handler assina stream de autenticação: a identidade
// chega explícita, por requisição.
func RequireAuth(secret string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get("Authorization")
		if raw == "" {
			// fallback p/ websocket e downloads: token via query string
			raw = r.URL.Query().Get("token")
		} else {
			raw = strings.TrimPrefix(raw, "Bearer ")
		}
		if raw == "" {
			utils.WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing token"})
			return
		}
		claims, err := ValidarToken(secret, raw)
		if err != nil {
			utils.WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), claims.UserID)))
	})
}
