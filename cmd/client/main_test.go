package main

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nextcloud-notes/internal/metrics"
)

func TestLogStats(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := metrics.NewClient(registry)
	m.ObserveRequest("list_notes", 200, time.Millisecond)
	m.ObserveRequest("list_notes", 304, time.Millisecond)
	m.ObserveCache(false)
	m.ObserveCache(true)

	log, hook := test.NewNullLogger()
	logStats(log, registry)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, "notes client stats", entry.Message)
	assert.Equal(t, float64(2), entry.Data["notes_client_requests_total"])
	assert.Equal(t, float64(2), entry.Data["notes_client_cache_total"])
}
