package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestModuleMetricsObserve(t *testing.T) {
	m := ModuleMetrics()
	before := testutil.ToFloat64(m.errors.WithLabelValues("auction", "auction_bid", "409"))
	m.Observe("auction", "auction_bid", 409, 5*time.Millisecond)
	m.Observe("auction", "auction_bid", 200, time.Millisecond)
	require.Equal(t, before+1, testutil.ToFloat64(m.errors.WithLabelValues("auction", "auction_bid", "409")))
	require.GreaterOrEqual(t, testutil.ToFloat64(m.requests.WithLabelValues("auction", "auction_bid", "success")), 1.0)

	m.RecordThrottle("", "")
	require.GreaterOrEqual(t, testutil.ToFloat64(m.throttles.WithLabelValues("unknown", "unspecified")), 1.0)
}

func TestProgramMetrics(t *testing.T) {
	m := Programs()
	m.RecordOperation("crowdfund", "deposit", "ok", time.Millisecond)
	require.GreaterOrEqual(t, testutil.ToFloat64(m.operations.WithLabelValues("crowdfund", "deposit", "ok")), 1.0)
}

func TestEventMetrics(t *testing.T) {
	m := Events()
	before := testutil.ToFloat64(m.emitted.WithLabelValues("auction.bid"))
	m.RecordEmitted(" Auction.Bid ")
	require.Equal(t, before+1, testutil.ToFloat64(m.emitted.WithLabelValues("auction.bid")))
	m.RecordSinkFailure("")
	require.GreaterOrEqual(t, testutil.ToFloat64(m.sinkFailures.WithLabelValues("unknown")), 1.0)
}
