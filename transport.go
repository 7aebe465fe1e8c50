package kumpul

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"
)

// TransportCompletion receives the raw result of one transport invocation:
// the response bytes, the status code and the transport error. It fires
// exactly once per Perform call.
type TransportCompletion func(body []byte, statusCode int, err error)

// CancelHandle aborts an in-flight transport invocation, best effort. The
// invocation still reports through its completion callback after an abort.
type CancelHandle interface {
	Cancel()
}

// CancelHandleFunc adapts a plain function to the CancelHandle interface.
type CancelHandleFunc func()

func (f CancelHandleFunc) Cancel() { f() }

// Transport performs one exchange described by a Descriptor and reports the
// outcome through onComplete, exactly once. Implementations must honor
// cancellation of the returned handle with a best-effort abort.
type Transport interface {
	Perform(d Descriptor, onComplete TransportCompletion) CancelHandle
}

// HTTPTransport is the default Transport, backed by a shared *http.Client.
// The client carries no per-request mutable state and is safe for concurrent
// use across tasks.
type HTTPTransport struct {
	client *http.Client
}

// NewHTTPTransport wraps client. A nil client gets a 30 second timeout so a
// dead endpoint can never pin a pool slot forever.
func NewHTTPTransport(client *http.Client) *HTTPTransport {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPTransport{client: client}
}

// Perform runs the exchange on its own goroutine. Cancelling the returned
// handle cancels the request context, which surfaces as a transport error on
// the completion callback.
func (t *HTTPTransport) Perform(d Descriptor, onComplete TransportCompletion) CancelHandle {
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		defer cancel()

		method := d.Method
		if method == "" {
			method = http.MethodGet
		}
		var bodyReader io.Reader
		if len(d.Body) > 0 {
			bodyReader = bytes.NewReader(d.Body)
		}

		req, err := http.NewRequestWithContext(ctx, method, d.URL, bodyReader)
		if err != nil {
			onComplete(nil, 0, err)
			return
		}
		for key, values := range d.Header {
			for _, value := range values {
				req.Header.Add(key, value)
			}
		}

		resp, err := t.client.Do(req)
		if err != nil {
			onComplete(nil, 0, err)
			return
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			onComplete(nil, resp.StatusCode, err)
			return
		}
		onComplete(body, resp.StatusCode, nil)
	}()

	return CancelHandleFunc(cancel)
}
