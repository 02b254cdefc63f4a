package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// SessionHeader - заголовок с идентификатором сессии клиента
const SessionHeader = "X-Session-ID"

const maxSessionIDLength = 128

type sessionKey struct{}

// Session кладет идентификатор сессии в контекст запроса.
// Без заголовка (или с невалидным значением) генерируется новый UUID
func Session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := strings.TrimSpace(r.Header.Get(SessionHeader))
		if !validSessionID(sessionID) {
			sessionID = uuid.NewString()
		}

		w.Header().Set(SessionHeader, sessionID)
		next.ServeHTTP(w, r.WithContext(WithSessionID(r.Context(), sessionID)))
	})
}

// WithSessionID возвращает контекст с идентификатором сессии
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionKey{}, sessionID)
}

// SessionIDFrom извлекает идентификатор сессии, пустая строка если его нет
func SessionIDFrom(ctx context.Context) string {
	sessionID, _ := ctx.Value(sessionKey{}).(string)
	return sessionID
}

// validSessionID допускает только символы, безопасные для ключей объектов и логов
func validSessionID(value string) bool {
	if value == "" || len(value) > maxSessionIDLength {
		return false
	}
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
		default:
			return false
		}
	}
	return true
}
