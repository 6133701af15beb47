package safe_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/mnemos/pkg/utils/logging"
	"github.com/secmon-lab/mnemos/pkg/utils/safe"
)

type closer struct {
	err    error
	closed bool
}

func (c *closer) Close() error {
	c.closed = true
	return c.err
}

func TestClose(t *testing.T) {
	var buf bytes.Buffer
	ctx := logging.With(context.Background(), logging.NewJSON("debug", &buf))

	t.Run("closes", func(t *testing.T) {
		c := &closer{}
		safe.Close(ctx, c)
		gt.Bool(t, c.closed).True()
		gt.Value(t, buf.Len()).Equal(0)
	})

	t.Run("logs failure with attributes", func(t *testing.T) {
		c := &closer{err: errors.New("disk gone")}
		safe.Close(ctx, c, "key", "conversations/u1/s1.json")
		gt.S(t, buf.String()).Contains("disk gone")
		gt.S(t, buf.String()).Contains("conversations/u1/s1.json")
	})

	t.Run("ignores nil", func(t *testing.T) {
		safe.Close(ctx, nil)
	})
}
