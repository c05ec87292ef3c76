package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	m := &dto.Metric{}
	require.NoError(t, g.Write(m))
	return m.GetGauge().GetValue()
}

func TestRecordReload(t *testing.T) {
	okBefore := CounterValue(ConfigReloadsTotal, "success")
	failBefore := CounterValue(ConfigReloadsTotal, "failure")

	RecordReload(true, 1700000000)
	RecordReload(false, 0)

	assert.Equal(t, okBefore+1, CounterValue(ConfigReloadsTotal, "success"))
	assert.Equal(t, failBefore+1, CounterValue(ConfigReloadsTotal, "failure"))
	assert.Equal(t, float64(1700000000), gaugeValue(t, ConfigLastReloadTimestamp))
}

func TestRecordHelpers(t *testing.T) {
	before := CounterValue(HTTPRejectedTotal, "csrf")
	RecordRejected("csrf")
	assert.Equal(t, before+1, CounterValue(HTTPRejectedTotal, "csrf"))

	before = CounterValue(StaticRequestsTotal, "served")
	RecordStatic("served")
	assert.Equal(t, before+1, CounterValue(StaticRequestsTotal, "served"))

	before = CounterValue(StaticCollectFilesTotal, "copied")
	RecordCollect("copied")
	assert.Equal(t, before+1, CounterValue(StaticCollectFilesTotal, "copied"))
}

func TestSetBuildInfo_SingleSeries(t *testing.T) {
	SetBuildInfo("v1", "abc")
	SetBuildInfo("v2", "def")
	assert.Equal(t, 1.0, gaugeValue(t, BuildInfo.WithLabelValues("v2", "def")))

	ch := make(chan prometheus.Metric, 4)
	BuildInfo.Collect(ch)
	close(ch)
	assert.Len(t, ch, 1)
}
