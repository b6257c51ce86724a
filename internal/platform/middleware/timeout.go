package middleware

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

// RequestTimeout returns middleware that sets a context deadline on each
// incoming request. If the deadline is exceeded before the handler completes,
// a 504 response in the standard envelope is written and any later writes
// from the abandoned handler are dropped.
//
// Individual handlers that call the prediction engine apply their own,
// tighter deadline derived from this one.
func RequestTimeout(timeout time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
			defer cancel()

			c.SetRequest(c.Request().WithContext(ctx))

			// All handler output goes through the guard so the timeout
			// path and a late handler cannot both reach the wire.
			guard := &guardedWriter{ResponseWriter: c.Response().Writer}
			c.Response().Writer = guard

			done := make(chan error, 1)
			go func() {
				done <- next(c)
			}()

			select {
			case err := <-done:
				return err
			case <-ctx.Done():
				if ctx.Err() == context.DeadlineExceeded {
					if guard.seal() {
						writeTimeoutEnvelope(guard.ResponseWriter)
					}
					return nil
				}
				// Other cancellation reasons (e.g. client disconnect).
				return ctx.Err()
			}
		}
	}
}

// guardedWriter serializes response writes. Once sealed, writes from the
// abandoned handler goroutine are silently discarded.
type guardedWriter struct {
	http.ResponseWriter
	mu     sync.Mutex
	sealed bool
	wrote  bool
}

func (w *guardedWriter) WriteHeader(code int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.sealed {
		return
	}
	w.wrote = true
	w.ResponseWriter.WriteHeader(code)
}

func (w *guardedWriter) Write(b []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.sealed {
		return len(b), nil
	}
	w.wrote = true
	return w.ResponseWriter.Write(b)
}

// seal blocks all further writes through the guard. It reports whether the
// timeout response may still be written, which is only the case when the
// handler had not started the response.
func (w *guardedWriter) seal() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.sealed = true
	return !w.wrote
}

// writeTimeoutEnvelope goes directly to the underlying writer: the guard is
// sealed at this point and the echo response bookkeeping may still be touched
// by the abandoned handler.
func writeTimeoutEnvelope(w http.ResponseWriter) {
	w.Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	w.WriteHeader(http.StatusGatewayTimeout)
	fmt.Fprint(w, `{"success":false,"message":"request processing exceeded the allowed time limit"}`)
}
