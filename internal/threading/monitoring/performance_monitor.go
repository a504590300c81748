package monitoring

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// Stage names a timed part of a frame.
type Stage int

const (
	StageSimulation Stage = iota // motion and layer tracking
	StageOcclusion               // bucket recompute
	StagePick                    // click resolution and routing
	StageDraw
	stageCount
)

var stageNames = [stageCount]string{"simulation", "occlusion", "pick", "draw"}

func (s Stage) String() string {
	if s < 0 || s >= stageCount {
		return "unknown"
	}
	return stageNames[s]
}

// smoothing is the weight of the newest sample in the running averages.
const smoothing = 0.1

// PerformanceMonitor tracks frame and stage timings. All methods are safe
// for concurrent use and a nil monitor ignores every call.
type PerformanceMonitor struct {
	frameCount atomic.Uint64
	frameTime  atomic.Int64 // nanoseconds of the last frame
	stageTime  [stageCount]atomic.Int64

	recomputes  atomic.Uint64
	routes      atomic.Uint64
	unreachable atomic.Uint64

	mutex     sync.RWMutex
	avgFrame  float64
	avgStage  [stageCount]float64
	startTime time.Time
}

// NewPerformanceMonitor creates a new performance monitor
func NewPerformanceMonitor() *PerformanceMonitor {
	return &PerformanceMonitor{startTime: time.Now()}
}

// FrameTimer measures one frame.
type FrameTimer struct {
	monitor   *PerformanceMonitor
	startTime time.Time
}

// StartFrame begins frame timing
func (pm *PerformanceMonitor) StartFrame() *FrameTimer {
	return &FrameTimer{monitor: pm, startTime: time.Now()}
}

// EndFrame completes frame timing
func (ft *FrameTimer) EndFrame() {
	if ft == nil || ft.monitor == nil {
		return
	}
	pm := ft.monitor
	d := time.Since(ft.startTime).Nanoseconds()
	pm.frameTime.Store(d)
	n := pm.frameCount.Add(1)

	pm.mutex.Lock()
	pm.avgFrame = average(pm.avgFrame, float64(d), n)
	pm.mutex.Unlock()
}

// Profile runs fn and records its duration under stage.
func (pm *PerformanceMonitor) Profile(stage Stage, fn func()) time.Duration {
	start := time.Now()
	fn()
	d := time.Since(start)
	if pm == nil || stage < 0 || stage >= stageCount {
		return d
	}
	pm.stageTime[stage].Store(d.Nanoseconds())

	pm.mutex.Lock()
	pm.avgStage[stage] = average(pm.avgStage[stage], float64(d.Nanoseconds()), pm.frameCount.Load()+1)
	pm.mutex.Unlock()
	return d
}

func average(prev, sample float64, n uint64) float64 {
	if n <= 1 || prev == 0 {
		return sample
	}
	return prev + smoothing*(sample-prev)
}

// RecordRecompute counts an occlusion recompute.
func (pm *PerformanceMonitor) RecordRecompute() {
	if pm != nil {
		pm.recomputes.Add(1)
	}
}

// RecordRoute counts a route request and whether it failed.
func (pm *PerformanceMonitor) RecordRoute(reached bool) {
	if pm == nil {
		return
	}
	pm.routes.Add(1)
	if !reached {
		pm.unreachable.Add(1)
	}
}

// Metrics is a point-in-time view of the monitor.
type Metrics struct {
	Frames          uint64
	FramesPerSecond float64
	AvgFrameTime    time.Duration
	AvgStageTime    map[string]time.Duration
	Recomputes      uint64
	Routes          uint64
	Unreachable     uint64
	MemoryUsageMB   uint64
	Uptime          time.Duration
}

// GetCurrentMetrics returns current performance metrics
func (pm *PerformanceMonitor) GetCurrentMetrics() Metrics {
	if pm == nil {
		return Metrics{}
	}
	pm.mutex.RLock()
	defer pm.mutex.RUnlock()

	fps := 0.0
	if ft := pm.frameTime.Load(); ft > 0 {
		fps = float64(time.Second) / float64(ft)
	}

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	stages := make(map[string]time.Duration, stageCount)
	for i, avg := range pm.avgStage {
		stages[Stage(i).String()] = time.Duration(avg)
	}

	return Metrics{
		Frames:          pm.frameCount.Load(),
		FramesPerSecond: fps,
		AvgFrameTime:    time.Duration(pm.avgFrame),
		AvgStageTime:    stages,
		Recomputes:      pm.recomputes.Load(),
		Routes:          pm.routes.Load(),
		Unreachable:     pm.unreachable.Load(),
		MemoryUsageMB:   memStats.Alloc / 1024 / 1024,
		Uptime:          time.Since(pm.startTime),
	}
}

// Fields renders the metrics for a structured log line.
func (m Metrics) Fields() logrus.Fields {
	fields := logrus.Fields{
		"frames":         m.Frames,
		"fps":            int(m.FramesPerSecond),
		"avg_frame_ms":   float64(m.AvgFrameTime.Microseconds()) / 1000,
		"recomputes":     m.Recomputes,
		"routes":         m.Routes,
		"unreachable":    m.Unreachable,
		"memory_mb":      m.MemoryUsageMB,
		"uptime_seconds": int(m.Uptime.Seconds()),
	}
	for name, d := range m.AvgStageTime {
		fields[name+"_ms"] = float64(d.Microseconds()) / 1000
	}
	return fields
}

// PerformanceAlert represents a performance warning
type PerformanceAlert struct {
	Type      string
	Message   string
	Value     float64
	Threshold float64
}

// CheckPerformanceAlerts reports a frame rate under minFPS and an
// occlusion recompute that takes more than budget.
func (pm *PerformanceMonitor) CheckPerformanceAlerts(minFPS float64, budget time.Duration) []PerformanceAlert {
	if pm == nil {
		return nil
	}
	var alerts []PerformanceAlert

	if ft := pm.frameTime.Load(); ft > 0 {
		if fps := float64(time.Second) / float64(ft); fps < minFPS {
			alerts = append(alerts, PerformanceAlert{
				Type:      "low_fps",
				Message:   "Frame rate below target",
				Value:     fps,
				Threshold: minFPS,
			})
		}
	}

	if d := time.Duration(pm.stageTime[StageOcclusion].Load()); budget > 0 && d > budget {
		alerts = append(alerts, PerformanceAlert{
			Type:      "slow_occlusion",
			Message:   "Occlusion recompute over budget",
			Value:     float64(d.Microseconds()) / 1000,
			Threshold: float64(budget.Microseconds()) / 1000,
		})
	}
	return alerts
}

// Reset resets all performance counters
func (pm *PerformanceMonitor) Reset() {
	if pm == nil {
		return
	}
	pm.frameCount.Store(0)
	pm.frameTime.Store(0)
	for i := range pm.stageTime {
		pm.stageTime[i].Store(0)
	}
	pm.recomputes.Store(0)
	pm.routes.Store(0)
	pm.unreachable.Store(0)

	pm.mutex.Lock()
	pm.avgFrame = 0
	pm.avgStage = [stageCount]float64{}
	pm.startTime = time.Now()
	pm.mutex.Unlock()
}
