package transbank

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockRoundTripper allows us to mock the HTTP response
type MockRoundTripper func(req *http.Request) *http.Response

func (f MockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req), nil
}

type MockRoundTripperWithError func(req *http.Request) (*http.Response, error)

func (f MockRoundTripperWithError) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     make(http.Header),
	}
}

const commitBody = `{
	"vci": "TSY",
	"amount": 10000,
	"status": "AUTHORIZED",
	"buy_order": "wc:1a2b3c4d:42",
	"session_id": "sess-1",
	"card_detail": {"card_number": "6623"},
	"accounting_date": "0312",
	"transaction_date": "2021-03-12T19:50:13.396Z",
	"authorization_code": "1213",
	"payment_type_code": "VN",
	"response_code": 0,
	"installments_number": 0
}`

func TestOptions_Host(t *testing.T) {
	assert.Equal(t, IntegrationHost, Options{Environment: EnvironmentIntegration}.Host())
	assert.Equal(t, IntegrationHost, Options{}.Host())
	assert.Equal(t, ProductionHost, Options{Environment: EnvironmentProduction}.Host())
}

func TestWebpayPlus_Create(t *testing.T) {
	tx := NewWebpayPlus(DefaultWebpayPlusOptions())
	req := CreateRequest{
		BuyOrder:  "wc:1a2b3c4d:42",
		SessionID: "sess-1",
		Amount:    10000,
		ReturnURL: "https://shop.example.cl/webpay/return",
	}

	t.Run("Success", func(t *testing.T) {
		tx.httpClient.Transport = MockRoundTripper(func(r *http.Request) *http.Response {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, IntegrationHost+"/rswebpaytransaction/api/webpay/v1.2/transactions", r.URL.String())
			assert.Equal(t, IntegrationWebpayPlusCommerceCode, r.Header.Get("Tbk-Api-Key-Id"))
			assert.Equal(t, IntegrationAPIKey, r.Header.Get("Tbk-Api-Key-Secret"))

			var sent CreateRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&sent))
			assert.Equal(t, req, sent)

			return jsonResponse(http.StatusOK, `{"token":"tok-1","url":"https://webpay3gint.transbank.cl/webpayserver/initTransaction"}`)
		})

		res, err := tx.Create(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, "tok-1", res.Token)
		assert.Equal(t, "https://webpay3gint.transbank.cl/webpayserver/initTransaction", res.URL)
	})

	t.Run("APIError", func(t *testing.T) {
		tx.httpClient.Transport = MockRoundTripper(func(r *http.Request) *http.Response {
			return jsonResponse(http.StatusUnprocessableEntity, `{"error_message":"amount is invalid"}`)
		})

		_, err := tx.Create(context.Background(), req)
		require.Error(t, err)

		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, OpCreate, apiErr.Op)
		assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
		assert.Equal(t, "amount is invalid", apiErr.Message)
	})

	t.Run("APIErrorWithoutMessage", func(t *testing.T) {
		tx.httpClient.Transport = MockRoundTripper(func(r *http.Request) *http.Response {
			return jsonResponse(http.StatusInternalServerError, `<html>oops</html>`)
		})

		_, err := tx.Create(context.Background(), req)
		require.Error(t, err)
		assert.Contains(t, err.Error(), defaultErrorMessage)
	})

	t.Run("NetworkError", func(t *testing.T) {
		tx.httpClient.Transport = MockRoundTripperWithError(func(r *http.Request) (*http.Response, error) {
			return nil, errors.New("connection refused")
		})

		_, err := tx.Create(context.Background(), req)
		require.Error(t, err)
		assert.True(t, IsOp(err, OpCreate))
		assert.Contains(t, err.Error(), "connection refused")
	})

	t.Run("InvalidJSONResponse", func(t *testing.T) {
		tx.httpClient.Transport = MockRoundTripper(func(r *http.Request) *http.Response {
			return jsonResponse(http.StatusOK, `{invalid-json`)
		})

		_, err := tx.Create(context.Background(), req)
		assert.Error(t, err)
	})

	t.Run("BuyOrderTooLong", func(t *testing.T) {
		tx.httpClient.Transport = MockRoundTripper(func(r *http.Request) *http.Response {
			t.Fatal("request must not be sent")
			return nil
		})

		bad := req
		bad.BuyOrder = "123456789012345678901234567"
		_, err := tx.Create(context.Background(), bad)
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})
}

func TestWebpayPlus_Commit(t *testing.T) {
	tx := NewWebpayPlus(Options{CommerceCode: "597012345678", APIKey: "live", Environment: EnvironmentProduction})

	t.Run("Success", func(t *testing.T) {
		tx.httpClient.Transport = MockRoundTripper(func(r *http.Request) *http.Response {
			assert.Equal(t, http.MethodPut, r.Method)
			assert.Equal(t, ProductionHost+"/rswebpaytransaction/api/webpay/v1.2/transactions/tok-1", r.URL.String())
			assert.Equal(t, "597012345678", r.Header.Get("Tbk-Api-Key-Id"))
			return jsonResponse(http.StatusOK, commitBody)
		})

		res, err := tx.Commit(context.Background(), "tok-1")
		require.NoError(t, err)
		assert.True(t, res.IsApproved())
		assert.Equal(t, int64(10000), res.Amount)
		assert.Equal(t, "6623", res.CardDetail.CardNumber)
		assert.Equal(t, "VN", res.PaymentTypeCode)
		assert.Nil(t, res.InstallmentsAmount)
		assert.JSONEq(t, commitBody, string(res.Raw))
		assert.Equal(t, 2021, res.TransactionTime().Year())
	})

	t.Run("Rejected", func(t *testing.T) {
		tx.httpClient.Transport = MockRoundTripper(func(r *http.Request) *http.Response {
			return jsonResponse(http.StatusOK, `{"status":"FAILED","response_code":-1,"amount":10000}`)
		})

		res, err := tx.Commit(context.Background(), "tok-1")
		require.NoError(t, err)
		assert.False(t, res.IsApproved())
	})

	t.Run("EmptyToken", func(t *testing.T) {
		_, err := tx.Commit(context.Background(), "")
		assert.ErrorIs(t, err, ErrInvalidArgument)
		assert.True(t, IsOp(err, OpCommit))
	})

	t.Run("AlreadyCommitted", func(t *testing.T) {
		tx.httpClient.Transport = MockRoundTripper(func(r *http.Request) *http.Response {
			return jsonResponse(http.StatusUnprocessableEntity, `{"error_message":"Transaction already locked by another process"}`)
		})

		_, err := tx.Commit(context.Background(), "tok-1")
		assert.True(t, IsOp(err, OpCommit))
		assert.False(t, IsOp(err, OpCreate))
	})
}

func TestWebpayPlus_StatusAndRefund(t *testing.T) {
	tx := NewWebpayPlus(DefaultWebpayPlusOptions())

	t.Run("Status", func(t *testing.T) {
		tx.httpClient.Transport = MockRoundTripper(func(r *http.Request) *http.Response {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/rswebpaytransaction/api/webpay/v1.2/transactions/tok-9", r.URL.Path)
			return jsonResponse(http.StatusOK, commitBody)
		})

		res, err := tx.Status(context.Background(), "tok-9")
		require.NoError(t, err)
		assert.Equal(t, StatusAuthorized, res.Status)
	})

	t.Run("Refund", func(t *testing.T) {
		tx.httpClient.Transport = MockRoundTripper(func(r *http.Request) *http.Response {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/rswebpaytransaction/api/webpay/v1.2/transactions/tok-9/refunds", r.URL.Path)

			var body map[string]int64
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, int64(500), body["amount"])

			return jsonResponse(http.StatusOK, `{"type":"NULLIFIED","authorization_code":"123456","nullified_amount":500,"balance":9500,"response_code":0}`)
		})

		res, err := tx.Refund(context.Background(), "tok-9", 500)
		require.NoError(t, err)
		assert.Equal(t, StatusNullified, res.Type)
		require.NotNil(t, res.Balance)
		assert.Equal(t, 9500.0, *res.Balance)
	})

	t.Run("RefundInvalidAmount", func(t *testing.T) {
		_, err := tx.Refund(context.Background(), "tok-9", 0)
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})
}

func TestParseDate(t *testing.T) {
	assert.True(t, ParseDate("").IsZero())
	assert.True(t, ParseDate("not a date").IsZero())
	assert.Equal(t, 12, ParseDate("2021-03-12T19:50:13.396Z").Day())
}
