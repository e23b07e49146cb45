package monitor

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alexanderramin/vigil/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestNotifier_CoalescesWakeUps(t *testing.T) {
	n := NewNotifier()
	ch, cancel := n.Subscribe()
	defer cancel()

	n.Notify()
	n.Notify()
	n.Notify()

	<-ch
	select {
	case <-ch:
		t.Fatal("expected a single pending wake-up")
	default:
	}
}

func TestNotifier_CancelClosesChannel(t *testing.T) {
	n := NewNotifier()
	ch, cancel := n.Subscribe()
	other, cancelOther := n.Subscribe()
	defer cancelOther()

	cancel()
	cancel()
	_, open := <-ch
	assert.False(t, open)

	n.Notify()
	select {
	case <-other:
	case <-time.After(time.Second):
		t.Fatal("remaining subscriber was not notified")
	}
}

func TestLogTickObserver(t *testing.T) {
	var buf bytes.Buffer
	obs := NewLogTickObserver(zerolog.New(&buf).Level(zerolog.DebugLevel))

	obs.ObserveTick(context.Background(), TickEvent{
		Outcome:   TickOutcome{At: clock(9, 0, 0), State: domain.StateWorking, IdleSeconds: 3},
		Persisted: true,
	})
	assert.Contains(t, buf.String(), `"event":"tick"`)
	assert.Contains(t, buf.String(), `"state":"working"`)
	assert.Contains(t, buf.String(), `"level":"debug"`)

	buf.Reset()
	obs.ObserveTick(context.Background(), TickEvent{Err: errors.New("disk full")})
	assert.Contains(t, buf.String(), `"level":"error"`)
}

func TestTickObserverOrNoop(t *testing.T) {
	assert.IsType(t, NoopTickObserver{}, tickObserverOrNoop(nil))
	assert.IsType(t, NoopTickObserver{}, tickObserverOrNoop([]TickObserver{nil}))

	one := NewLogTickObserver(zerolog.Nop())
	assert.Equal(t, one, tickObserverOrNoop([]TickObserver{nil, one}))
	assert.Len(t, tickObserverOrNoop([]TickObserver{one, one}), 2)
}

func TestMetricsObserver(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	obs, err := NewMetricsObserver(provider.Meter("vigil-test"))
	require.NoError(t, err)
	ctx := context.Background()

	obs.ObserveTick(ctx, TickEvent{
		Outcome:   TickOutcome{State: domain.StateWorking, SuspiciousApplied: 31, Mutated: true},
		Persisted: true,
		Duration:  time.Millisecond,
	})
	obs.ObserveTick(ctx, TickEvent{
		Outcome: TickOutcome{State: domain.StateIdle, SensorErr: errors.New("x"), Mutated: true},
	})
	obs.ObserveTick(ctx, TickEvent{Outcome: TickOutcome{Skipped: true}})

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	sums := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if s, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range s.DataPoints {
					sums[m.Name] += dp.Value
				}
			}
		}
	}
	assert.Equal(t, int64(2), sums["vigil_ticks_total"])
	assert.Equal(t, int64(31), sums["vigil_suspicious_seconds_total"])
	assert.Equal(t, int64(1), sums["vigil_sensor_unavailable_total"])
	assert.Equal(t, int64(1), sums["vigil_persist_failures_total"])
}
