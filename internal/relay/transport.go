// Package relay implements the transport shim (§4.1), the round
// primitives built on top of it (§4.2), and the per-pair AEAD channel used
// inside DKG round 3 (§4.3).
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/aerius-tss/gg18-signer/internal/logging"
)

const (
	maxAttempts   = 3
	retryBackoff  = 250 * time.Millisecond
)

var logger = logging.Named("relay")

// Transport is the signer-side view of the coordinator's key/value relay:
// idempotent set, single-shot get. Implementations need not offer any
// ordering guarantee across concurrent calls (§4.1).
type Transport interface {
	Set(ctx context.Context, key string, value []byte) error
	// Get returns found=false, no error, when the key is absent.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
}

// envelope mirrors the coordinator's {Ok: ...} | {Err: ...} response shape.
type envelope struct {
	Ok  json.RawMessage `json:"Ok,omitempty"`
	Err string          `json:"Err,omitempty"`
}

// HTTPTransport posts to a coordinator's /set and /get endpoints.
type HTTPTransport struct {
	BaseURL string
	Client  *http.Client
}

func NewHTTPTransport(baseURL string) *HTTPTransport {
	return &HTTPTransport{BaseURL: baseURL, Client: &http.Client{Timeout: 15 * time.Second}}
}

type setRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type getRequest struct {
	Key string `json:"key"`
}

func (t *HTTPTransport) Set(ctx context.Context, key string, value []byte) error {
	return withRetry(func() error {
		body, _ := json.Marshal(setRequest{Key: key, Value: string(value)})
		resp, err := t.post(ctx, "/set", body)
		if err != nil {
			return err
		}
		_, err = decodeEnvelope(resp)
		return err
	})
}

func (t *HTTPTransport) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	var found bool
	err := withRetry(func() error {
		body, _ := json.Marshal(getRequest{Key: key})
		resp, err := t.post(ctx, "/get", body)
		if err != nil {
			return err
		}
		raw, err := decodeEnvelope(resp)
		if err != nil {
			if err == errNotFound {
				found = false
				return nil
			}
			return err
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return errors.Wrap(err, "relay: malformed get response")
		}
		value, found = []byte(s), true
		return nil
	})
	return value, found, err
}

var errNotFound = errors.New("relay: key not found")

func (t *HTTPTransport) post(ctx context.Context, path string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "relay: building request")
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := t.Client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "relay: transport failure")
	}
	defer resp.Body.Close()
	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, errors.Wrap(err, "relay: reading response")
	}
	if resp.StatusCode >= 500 {
		return nil, errors.Errorf("relay: transport error, status %d", resp.StatusCode)
	}
	return buf.Bytes(), nil
}

func decodeEnvelope(body []byte) (json.RawMessage, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, errors.Wrap(err, "relay: unparseable response")
	}
	if env.Err != "" {
		if env.Err == "not_found" {
			return nil, errNotFound
		}
		return nil, errors.Errorf("relay: %s", env.Err)
	}
	return env.Ok, nil
}

// withRetry retries a transport operation up to maxAttempts times with a
// fixed backoff, per §4.1's "retries up to 3 times with ~250ms backoff".
func withRetry(op func() error) error {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(retryBackoff)
		}
		if err := op(); err != nil {
			lastErr = err
			if err == errNotFound {
				return err
			}
			logger.Debugw("transport attempt failed, retrying", "attempt", attempt, "error", err)
			continue
		}
		return nil
	}
	return errors.Wrap(lastErr, "relay: transport exhausted retries")
}
