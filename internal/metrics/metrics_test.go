package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveGatewayCall(t *testing.T) {
	okBefore := testutil.ToFloat64(GatewayCalls.WithLabelValues("create", OutcomeSuccess))
	errBefore := testutil.ToFloat64(GatewayCalls.WithLabelValues("create", OutcomeError))

	ObserveGatewayCall("create", nil)
	ObserveGatewayCall("create", errors.New("boom"))
	ObserveGatewayCall("create", errors.New("boom"))

	assert.Equal(t, okBefore+1, testutil.ToFloat64(GatewayCalls.WithLabelValues("create", OutcomeSuccess)))
	assert.Equal(t, errBefore+2, testutil.ToFloat64(GatewayCalls.WithLabelValues("create", OutcomeError)))
}
