package auth

import (
	"fmt"
	"net/http"
)

// Заголовок, который шлюз проставляет после проверки сессии.
// Само ядро аутентификацией не занимается
const UserHeader = "X-User-ID"

// UserFromRequest извлекает идентификатор аутентифицированного пользователя
func UserFromRequest(r *http.Request) (string, error) {
	userID := r.Header.Get(UserHeader)
	if userID == "" {
		return "", fmt.Errorf("no authenticated user in request")
	}

	return userID, nil
}
