package transbank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"transbank-webpay/internal/logger"

	"go.uber.org/zap"
)

const (
	headerAPIKeyID     = "Tbk-Api-Key-Id"
	headerAPIKeySecret = "Tbk-Api-Key-Secret"
)

// requester carries the credentials and transport shared by the product clients.
type requester struct {
	options    Options
	httpClient *http.Client
}

func newRequester(options Options) requester {
	return requester{
		options: options,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// send performs one API call and returns the raw response body of a 2xx answer.
func (r requester) send(ctx context.Context, op Op, method, path string, payload any) ([]byte, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("op", string(op)),
		zap.String("method", method),
		zap.String("path", path),
	)

	var body io.Reader
	if payload != nil {
		jsonBody, err := json.Marshal(payload)
		if err != nil {
			log.Error("Failed to marshal transbank request", zap.Error(err))
			return nil, &APIError{Op: op, Message: err.Error(), Err: err}
		}
		body = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.options.Host()+path, body)
	if err != nil {
		log.Error("Failed creating request", zap.Error(err))
		return nil, &APIError{Op: op, Message: err.Error(), Err: err}
	}

	req.Header.Set(headerAPIKeyID, r.options.CommerceCode)
	req.Header.Set(headerAPIKeySecret, r.options.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		log.Error("Transbank request failed", zap.Error(err))
		return nil, &APIError{Op: op, Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Error("Failed to read response body", zap.Error(err))
		return nil, &APIError{Op: op, StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to read transbank response: %v", err), Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Error("Transbank returned non-success status",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("response", bodyBytes),
		)
		return nil, &APIError{Op: op, StatusCode: resp.StatusCode, Message: errorMessage(bodyBytes)}
	}

	return bodyBytes, nil
}

func (r requester) decode(ctx context.Context, op Op, method, path string, payload, out any) ([]byte, error) {
	raw, err := r.send(ctx, op, method, path, payload)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(raw, out); err != nil {
		logger.FromCtx(ctx).Error("Failed decoding transbank response",
			zap.String("op", string(op)),
			zap.Error(err),
		)
		return nil, &APIError{Op: op, Message: err.Error(), Err: err}
	}
	return raw, nil
}

func errorMessage(body []byte) string {
	var apiErr struct {
		ErrorMessage string `json:"error_message"`
	}
	if err := json.Unmarshal(body, &apiErr); err != nil || apiErr.ErrorMessage == "" {
		return defaultErrorMessage
	}
	return apiErr.ErrorMessage
}
