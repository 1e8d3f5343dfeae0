package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.ObserveExtrinsic("pas_asset_hub", "Utility.batch_all", "finalized", 12*time.Second)
	c.ObserveExtrinsic("pas_asset_hub", "Utility.batch_all", "finalized", 14*time.Second)
	c.ObserveExtrinsic("educhain", "News.record_article", "failed", time.Second)
	c.AddStorageReads("pas_asset_hub", 3)
	c.SetConnected("educhain", true)
	c.ObserveFlow("direct", "success")

	assert.Equal(t, 2.0, testutil.ToFloat64(c.extrinsics.WithLabelValues("pas_asset_hub", "Utility.batch_all", "finalized")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.extrinsics.WithLabelValues("educhain", "News.record_article", "failed")))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.storageReads.WithLabelValues("pas_asset_hub")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.connections.WithLabelValues("educhain")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.flows.WithLabelValues("direct", "success")))
	assert.Equal(t, 2, testutil.CollectAndCount(c.extrinsicLatency))
}

func TestNilCollectors(t *testing.T) {
	var c *Collectors
	assert.NotPanics(t, func() {
		c.ObserveExtrinsic("educhain", "News.record_article", "finalized", time.Second)
		c.AddStorageReads("educhain", 1)
		c.SetConnected("educhain", false)
		c.ObserveFlow("legacy", "failed")
	})
}
