package gateway

import (
	"context"
	"encoding/json"
	"fmt"

	ierr "github.com/academyhub/paycore/internal/errors"
	"github.com/academyhub/paycore/internal/httpclient"
)

// Rejection is a non 2xx answer from a gateway. It becomes a failed result, not an error.
type Rejection struct {
	StatusCode int
	Body       map[string]any
}

// Message extracts the most useful human readable text from a rejection body
func (r *Rejection) Message() string {
	for _, path := range []string{"message", "detail", "error", "data.message"} {
		if msg := FieldString(r.Body, path); msg != "" {
			return msg
		}
	}
	if errs, ok := r.Body["errors"].([]any); ok && len(errs) > 0 {
		if first, ok := errs[0].(map[string]any); ok {
			if msg := FieldString(first, "description"); msg != "" {
				return msg
			}
		}
	}
	return fmt.Sprintf("gateway returned status %d", r.StatusCode)
}

// Result converts the rejection into a failed result
func (r *Rejection) Result(code string) *PaymentResult {
	return Failed(code, r.Message(), r.Body)
}

// CallJSON sends req and decodes a JSON object response.
// Transport failures return an error; non 2xx answers return a Rejection.
func CallJSON(ctx context.Context, client httpclient.Client, req *httpclient.Request) (map[string]any, *Rejection, error) {
	resp, err := client.Send(ctx, req)
	if err != nil {
		if httpErr, ok := httpclient.IsHTTPError(err); ok {
			body, _ := decodeObject(httpErr.Response)
			return nil, &Rejection{StatusCode: httpErr.StatusCode, Body: body}, nil
		}
		return nil, nil, err
	}

	body, err := decodeObject(resp.Body)
	if err != nil {
		return nil, nil, ierr.WithError(err).
			WithHint("Gateway returned an unreadable response").
			Mark(ierr.ErrHTTPClient)
	}
	return body, nil, nil
}

// EncodeJSON marshals a request body
func EncodeJSON(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to encode gateway request").
			Mark(ierr.ErrSystem)
	}
	return b, nil
}

func decodeObject(raw []byte) (map[string]any, error) {
	if len(raw) == 0 {
		return map[string]any{}, nil
	}
	out, err := DecodeJSON(raw)
	if err != nil {
		return map[string]any{"raw": string(raw)}, err
	}
	return out, nil
}
