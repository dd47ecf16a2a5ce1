package utils

import (
	"io"
)

// drainLimit caps how much of an unread body is discarded before closing.
const drainLimit = 64 << 10

// DrainAndClose discards what is left of an HTTP response body, up to a
// limit, then closes it so the transport can reuse the connection.
func DrainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, drainLimit))
	_ = body.Close()
}
