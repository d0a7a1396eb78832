package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestTilesLoadedIncrements(t *testing.T) {
	before := testutil.ToFloat64(TilesLoaded)
	TilesLoaded.Inc()
	after := testutil.ToFloat64(TilesLoaded)
	if after != before+1 {
		t.Errorf("TilesLoaded went from %v to %v, want +1", before, after)
	}
}

func TestQueueDepthSetsByLabel(t *testing.T) {
	QueueDepth.WithLabelValues("loadData").Set(7)
	if got := testutil.ToFloat64(QueueDepth.WithLabelValues("loadData")); got != 7 {
		t.Errorf("QueueDepth[loadData] = %v, want 7", got)
	}
}
