package closer

import (
	"context"
	"errors"
	"io"
	"net"
	"os"

	"github.com/rs/zerolog/log"
)

// CloseWithLogOnError closes c and logs a failure against the context
// logger. Closing something that is already closed is not reported.
func CloseWithLogOnError(ctx context.Context, name string, c io.Closer) {
	err := c.Close()
	if err == nil || errors.Is(err, os.ErrClosed) || errors.Is(err, net.ErrClosed) {
		return
	}
	log.Ctx(ctx).Warn().Err(err).Msgf("failed to close %s", name)
}
