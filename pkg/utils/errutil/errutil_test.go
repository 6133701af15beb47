package errutil_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/mnemos/pkg/utils/errutil"
	"github.com/secmon-lab/mnemos/pkg/utils/logging"
)

func TestHandle(t *testing.T) {
	buf := &bytes.Buffer{}
	ctx := logging.With(context.Background(), logging.New("debug", buf))

	t.Run("nil error is passed through", func(t *testing.T) {
		gt.NoError(t, errutil.Handle(ctx, nil, "nothing"))
	})

	t.Run("goerr values are logged", func(t *testing.T) {
		src := goerr.New("boom", goerr.V("user_id", "user-1"))
		err := errutil.Handle(ctx, src, "operation failed")
		gt.Value(t, errors.Is(err, src)).Equal(true)
		gt.S(t, buf.String()).Contains("operation failed")
		gt.S(t, buf.String()).Contains("user-1")
	})
}

func TestHandleHTTP(t *testing.T) {
	buf := &bytes.Buffer{}
	ctx := logging.With(context.Background(), logging.New("debug", buf))

	w := httptest.NewRecorder()
	errutil.HandleHTTP(ctx, w, errors.New("invalid memory"), http.StatusBadRequest)

	gt.Value(t, w.Code).Equal(http.StatusBadRequest)
	gt.S(t, w.Body.String()).Contains("invalid memory")
	gt.S(t, buf.String()).Contains("HTTP error")
}
