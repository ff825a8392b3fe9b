package metrics

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIsRepeatable(t *testing.T) {
	a := New(nil)
	b := New(nil)
	a.DocsIndexedTotal.Add(3)
	assert.Equal(t, 3.0, testutil.ToFloat64(a.DocsIndexedTotal))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.DocsIndexedTotal))
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New(nil)
	m.TopicsRankedTotal.WithLabelValues("bm25").Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `topics_ranked_total{model="bm25"} 1`))
}

func TestStartServer(t *testing.T) {
	m := New(nil)
	shutdown, err := StartServer(0, m)
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}
