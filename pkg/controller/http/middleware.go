package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mnemos/pkg/domain/model"
	"github.com/secmon-lab/mnemos/pkg/usecase"
	"github.com/secmon-lab/mnemos/pkg/utils/errutil"
	"github.com/secmon-lab/mnemos/pkg/utils/logging"
)

// requestLogger binds a logger carrying the request ID to the request context
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := logging.Default().With("request_id", middleware.GetReqID(r.Context()))
		ctx := logging.With(r.Context(), logger)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireUserID rejects requests whose user ID path parameter is blank and
// adds it to the request logger
func requireUserID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(chi.URLParam(r, "userID"))
		if userID == "" {
			errutil.HandleHTTP(r.Context(), w,
				goerr.Wrap(usecase.ErrInvalidInput, "user ID is required"),
				http.StatusBadRequest)
			return
		}

		logger := logging.From(r.Context()).With(model.UserIDKey, userID)
		ctx := logging.With(r.Context(), logger)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
