//go:build unit || !integration

package closer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext(b *bytes.Buffer) context.Context {
	logger := zerolog.New(b).With().Str("foo", "bar").Logger()
	return logger.WithContext(context.Background())
}

func TestCloseWithLogOnError_noErrors(t *testing.T) {
	var b bytes.Buffer
	CloseWithLogOnError(testContext(&b), t.Name(), fakeCloser{nil})
	assert.Empty(t, b.String())
}

func TestCloseWithLogOnError_logsErrors(t *testing.T) {
	var b bytes.Buffer
	CloseWithLogOnError(testContext(&b), "snapshot file", fakeCloser{fmt.Errorf("disk full")})

	var content map[string]string
	require.NoError(t, json.Unmarshal(b.Bytes(), &content))
	assert.Equal(t, "bar", content["foo"])
	assert.Equal(t, "warn", content["level"])
	assert.Equal(t, "disk full", content["error"])
	assert.Equal(t, "failed to close snapshot file", content["message"])
}

func TestCloseWithLogOnError_ignoresAlreadyClosed(t *testing.T) {
	for _, test := range []error{os.ErrClosed, net.ErrClosed} {
		t.Run(test.Error(), func(t *testing.T) {
			var b bytes.Buffer
			CloseWithLogOnError(testContext(&b), t.Name(), fakeCloser{fmt.Errorf("wrapped: %w", test)})
			assert.Empty(t, b.String())
		})
	}
}

var _ io.Closer = fakeCloser{}

type fakeCloser struct {
	err error
}

func (c fakeCloser) Close() error {
	return c.err
}
