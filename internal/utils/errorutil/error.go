package errorutil

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
)

// HandleContextError reports a deadline or cancellation with timeoutMsg and
// any other failure with errorMsg.
func HandleContextError(log zerolog.Logger, ctx context.Context, err error, timeoutMsg, errorMsg string) {
	if err == nil {
		return
	}
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
		log.Error().Err(err).Msg(timeoutMsg)
		return
	}
	log.Error().Err(err).Msg(errorMsg)
}
