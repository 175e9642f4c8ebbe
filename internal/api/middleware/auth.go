// Package middleware содержит HTTP middleware: аутентификацию сотрудников
// и сбор метрик запросов.
package middleware

import (
	"context"
	"net/http"
	"strconv"

	"github.com/m04kA/SMC-SalonBookingService/internal/api/handlers"
)

type ctxKey string

const staffIDKey ctxKey = "staffID"

// HeaderStaffID заголовок аутентификации сотрудника салона.
// Значение подставляет API gateway после собственной проверки токена,
// сам сервис доверяет заголовку.
const HeaderStaffID = "X-Staff-ID"

// Auth требует валидный X-Staff-ID для защищенных маршрутов
func Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(HeaderStaffID)
		if raw == "" {
			handlers.RespondForbidden(w, "требуется заголовок "+HeaderStaffID)
			return
		}

		staffID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || staffID <= 0 {
			handlers.RespondForbidden(w, "некорректный "+HeaderStaffID)
			return
		}

		ctx := context.WithValue(r.Context(), staffIDKey, staffID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// StaffIDFromContext возвращает ID сотрудника, положенный Auth middleware
func StaffIDFromContext(ctx context.Context) (int64, bool) {
	staffID, ok := ctx.Value(staffIDKey).(int64)
	return staffID, ok
}
