package webpay

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"transbank-webpay/internal/config"
	"transbank-webpay/internal/logger"
	"transbank-webpay/internal/transbank"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type MockTransactionAPI struct {
	mock.Mock
}

func (m *MockTransactionAPI) Create(ctx context.Context, req transbank.CreateRequest) (*transbank.CreateResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transbank.CreateResponse), args.Error(1)
}

func (m *MockTransactionAPI) Commit(ctx context.Context, token string) (*transbank.CommitResponse, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transbank.CommitResponse), args.Error(1)
}

func (m *MockTransactionAPI) Refund(ctx context.Context, token string, amount int64) (*transbank.RefundResponse, error) {
	args := m.Called(ctx, token, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transbank.RefundResponse), args.Error(1)
}

func (m *MockTransactionAPI) Status(ctx context.Context, token string) (*transbank.CommitResponse, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transbank.CommitResponse), args.Error(1)
}

func observeLogs(t *testing.T) *observer.ObservedLogs {
	core, observed := observer.New(zapcore.InfoLevel)
	t.Cleanup(logger.Set(zap.New(core)))
	return observed
}

func fixedClient(api TransactionAPI) *Client {
	c := newClient(config.Webpay{}, api)
	c.now = func() time.Time { return time.Date(2024, 5, 17, 13, 4, 5, 0, time.UTC) }
	return c
}

func TestNewClient_Options(t *testing.T) {
	t.Run("EmptyEnvironmentUsesIntegrationDefaults", func(t *testing.T) {
		c := NewClient(config.Webpay{CommerceCode: "597012345678", APIKey: "ignored"})
		assert.Equal(t, transbank.DefaultWebpayPlusOptions(), c.Options)
	})

	t.Run("TestEnvironmentIgnoresCredentials", func(t *testing.T) {
		c := NewClient(config.Webpay{Environment: "TEST", CommerceCode: "597012345678", APIKey: "ignored"})
		assert.Equal(t, transbank.IntegrationWebpayPlusCommerceCode, c.Options.CommerceCode)
		assert.Equal(t, transbank.IntegrationAPIKey, c.Options.APIKey)
	})

	t.Run("LiveEnvironmentUsesCredentials", func(t *testing.T) {
		c := NewClient(config.Webpay{Environment: "LIVE", CommerceCode: "597012345678", APIKey: "live-key"})
		assert.Equal(t, transbank.Options{
			CommerceCode: "597012345678",
			APIKey:       "live-key",
			Environment:  transbank.EnvironmentProduction,
		}, c.Options)
		assert.Equal(t, transbank.ProductionHost, c.Options.Host())
	})
}

func TestClient_CreateTransaction(t *testing.T) {
	ctx := context.Background()
	req := transbank.CreateRequest{
		BuyOrder:  "wc:abc:42",
		SessionID: "sess-1",
		Amount:    10000,
		ReturnURL: "https://shop.example.cl/webpay/return",
	}

	t.Run("Success", func(t *testing.T) {
		observed := observeLogs(t)
		api := new(MockTransactionAPI)
		api.On("Create", mock.Anything, req).
			Return(&transbank.CreateResponse{URL: "https://webpay/init", Token: "tok-1"}, nil)

		res, err := fixedClient(api).CreateTransaction(ctx, 10000, "sess-1", "wc:abc:42", req.ReturnURL)
		require.NoError(t, err)
		assert.Equal(t, &CreateResult{URL: "https://webpay/init", Token: "tok-1"}, res)

		entries := observed.FilterMessage("initTransaction").All()
		require.Len(t, entries, 1)
		assert.Equal(t, "17-05-2024", entries[0].ContextMap()["tx_date"])
		assert.Equal(t, "13:04:05", entries[0].ContextMap()["tx_time"])
		api.AssertExpectations(t)
	})

	t.Run("MissingURLAndToken", func(t *testing.T) {
		observed := observeLogs(t)
		api := new(MockTransactionAPI)
		api.On("Create", mock.Anything, req).Return(&transbank.CreateResponse{}, nil)

		res, err := fixedClient(api).CreateTransaction(ctx, 10000, "sess-1", "wc:abc:42", req.ReturnURL)
		assert.Nil(t, res)

		var wErr *Error
		require.True(t, errors.As(err, &wErr))
		assert.Equal(t, "Error al crear la transacción", wErr.Message)
		assert.Equal(t, "No se ha creado la transacción para, amount: 10000, sessionId: sess-1, buyOrder: wc:abc:42", wErr.Detail)
		assert.Equal(t, 1, observed.FilterLevelExact(zapcore.ErrorLevel).Len())
	})

	t.Run("MissingTokenOnly", func(t *testing.T) {
		api := new(MockTransactionAPI)
		api.On("Create", mock.Anything, req).Return(&transbank.CreateResponse{URL: "https://webpay/init"}, nil)

		res, err := fixedClient(api).CreateTransaction(ctx, 10000, "sess-1", "wc:abc:42", req.ReturnURL)
		assert.Nil(t, res)
		assert.IsType(t, &Error{}, err)
	})

	t.Run("NilResult", func(t *testing.T) {
		api := new(MockTransactionAPI)
		api.On("Create", mock.Anything, req).Return(nil, nil)

		res, err := fixedClient(api).CreateTransaction(ctx, 10000, "sess-1", "wc:abc:42", req.ReturnURL)
		assert.Nil(t, res)
		assert.IsType(t, &Error{}, err)
	})

	t.Run("RemoteFailure", func(t *testing.T) {
		observeLogs(t)
		api := new(MockTransactionAPI)
		apiErr := &transbank.APIError{Op: transbank.OpCreate, StatusCode: http.StatusUnauthorized, Message: "Not Authorized"}
		api.On("Create", mock.Anything, req).Return(nil, apiErr)

		_, err := fixedClient(api).CreateTransaction(ctx, 10000, "sess-1", "wc:abc:42", req.ReturnURL)

		var wErr *Error
		require.True(t, errors.As(err, &wErr))
		assert.Equal(t, "Not Authorized", wErr.Detail)
		assert.ErrorIs(t, err, apiErr)
	})
}

func TestClient_CommitTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("EmptyTokenSkipsRemote", func(t *testing.T) {
		observeLogs(t)
		api := new(MockTransactionAPI)

		res, err := fixedClient(api).CommitTransaction(ctx, "")
		assert.Nil(t, res)
		assert.ErrorIs(t, err, ErrTokenRequired)

		var wErr *Error
		require.True(t, errors.As(err, &wErr))
		assert.Equal(t, "Error al confirmar la transacción", wErr.Message)
		api.AssertNotCalled(t, "Commit", mock.Anything, mock.Anything)
	})

	t.Run("Success", func(t *testing.T) {
		code := 0
		api := new(MockTransactionAPI)
		api.On("Commit", mock.Anything, "tok-1").
			Return(&transbank.CommitResponse{Status: transbank.StatusAuthorized, ResponseCode: &code}, nil)

		res, err := fixedClient(api).CommitTransaction(ctx, "tok-1")
		require.NoError(t, err)
		assert.True(t, res.IsApproved())
	})

	t.Run("CommitFailureIsConverted", func(t *testing.T) {
		api := new(MockTransactionAPI)
		api.On("Commit", mock.Anything, "tok-1").
			Return(nil, &transbank.APIError{Op: transbank.OpCommit, StatusCode: 422, Message: "Invalid status '6' for transaction while authorizing"})

		_, err := fixedClient(api).CommitTransaction(ctx, "tok-1")

		var wErr *Error
		require.True(t, errors.As(err, &wErr))
		assert.Equal(t, "Invalid status '6' for transaction while authorizing", wErr.Detail)
		assert.True(t, transbank.IsOp(err, transbank.OpCommit))
	})

	t.Run("TransportFailureIsConverted", func(t *testing.T) {
		api := new(MockTransactionAPI)
		api.On("Commit", mock.Anything, "tok-1").Return(nil, context.DeadlineExceeded)

		_, err := fixedClient(api).CommitTransaction(ctx, "tok-1")

		var wErr *Error
		require.True(t, errors.As(err, &wErr))
		assert.Equal(t, context.DeadlineExceeded.Error(), wErr.Detail)
	})
}

func TestClient_PassThrough(t *testing.T) {
	ctx := context.Background()
	remoteErr := errors.New("remote down")

	t.Run("Refund", func(t *testing.T) {
		api := new(MockTransactionAPI)
		api.On("Refund", mock.Anything, "tok-1", int64(500)).Return(&transbank.RefundResponse{Type: transbank.StatusNullified}, nil).Once()
		api.On("Refund", mock.Anything, "tok-2", int64(500)).Return(nil, remoteErr).Once()

		res, err := fixedClient(api).Refund(ctx, "tok-1", 500)
		require.NoError(t, err)
		assert.Equal(t, transbank.StatusNullified, res.Type)

		_, err = fixedClient(api).Refund(ctx, "tok-2", 500)
		assert.Same(t, remoteErr, err)
	})

	t.Run("Status", func(t *testing.T) {
		api := new(MockTransactionAPI)
		api.On("Status", mock.Anything, "tok-1").Return(nil, remoteErr)

		_, err := fixedClient(api).Status(ctx, "tok-1")
		assert.Same(t, remoteErr, err)
	})
}

func TestError(t *testing.T) {
	err := &Error{Message: msgCreateFailed, Detail: "boom", Err: ErrTokenRequired}
	assert.Equal(t, "Error al crear la transacción: boom", err.Error())
	assert.ErrorIs(t, err, ErrTokenRequired)
}
