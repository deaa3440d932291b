package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/ajitpratap0/textreader/pkg/errors"
)

func TestObserveRead(t *testing.T) {
	rows := testutil.ToFloat64(RowsRead.WithLabelValues("iterator", "success"))
	bytes := testutil.ToFloat64(BytesRead.WithLabelValues("iterator"))

	ObserveRead(Read{SourceKind: "iterator", Mode: "two_pass", Rows: 10, Bytes: 80, Duration: time.Second})

	assert.Equal(t, rows+10, testutil.ToFloat64(RowsRead.WithLabelValues("iterator", "success")))
	assert.Equal(t, bytes+80, testutil.ToFloat64(BytesRead.WithLabelValues("iterator")))
	assert.Equal(t, 10.0, testutil.ToFloat64(Throughput.WithLabelValues("iterator")))
}

func TestObserveFailedRead(t *testing.T) {
	before := testutil.ToFloat64(Errors.WithLabelValues("conversion"))
	bytes := testutil.ToFloat64(BytesRead.WithLabelValues("stream"))

	err := errors.New(errors.ErrorTypeConversion, "bad int8 value")
	ObserveRead(Read{SourceKind: "stream", Mode: "deferred", Rows: 3, Bytes: 24, Err: err})

	assert.Equal(t, before+1, testutil.ToFloat64(Errors.WithLabelValues("conversion")))
	assert.Equal(t, bytes, testutil.ToFloat64(BytesRead.WithLabelValues("stream")))
}

func TestTimer(t *testing.T) {
	timer := NewTimer("read")
	time.Sleep(time.Millisecond)
	first := timer.Stop()
	assert.GreaterOrEqual(t, first, time.Millisecond)
	assert.GreaterOrEqual(t, timer.Stop(), first)
	assert.Equal(t, "read", timer.Name())
}
