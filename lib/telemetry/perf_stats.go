package telemetry

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
	"go.opentelemetry.io/otel"
)

var meter = otel.Meter("jobstreet.perf_stats")
var cpuGauge, _ = meter.Float64Gauge("cpu_usage")
var systemMemoryGauge, _ = meter.Float64Gauge("system_memory_used_percent")
var heapGauge, _ = meter.Int64Gauge("heap_allocated_mb")
var goroutineGauge, _ = meter.Int64Gauge("goroutine_count")

// InstrumentPerfStats samples host and process stats every interval until
// ctx is done. The browser runs as a child process so host wide cpu and
// memory are recorded alongside the go heap.
func InstrumentPerfStats(ctx context.Context, interval time.Duration) {
	go func() {
		var memStats runtime.MemStats
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				runtime.ReadMemStats(&memStats)

				cpuUsage, err := cpu.PercentWithContext(ctx, 0, false)
				if err == nil && len(cpuUsage) > 0 {
					cpuGauge.Record(ctx, cpuUsage[0])
				} else if err != nil {
					slog.Debug("failed to read cpu usage", "err", err)
				}

				vmem, err := mem.VirtualMemoryWithContext(ctx)
				if err == nil {
					systemMemoryGauge.Record(ctx, vmem.UsedPercent)
				} else {
					slog.Debug("failed to read memory usage", "err", err)
				}

				heapGauge.Record(ctx, int64(memStats.Alloc/1_000_000))
				goroutineGauge.Record(ctx, int64(runtime.NumGoroutine()))
			case <-ctx.Done():
				return
			}
		}
	}()
}
