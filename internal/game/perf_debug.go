package game

import (
	"time"

	"github.com/hajimehoshi/ebiten/v2"
)

const (
	perfLowFpsThreshold = 50.0
	perfLowFpsDuration  = 3 * time.Second
	perfLogInterval     = 3 * time.Second
	perfOcclusionBudget = 4 * time.Millisecond
)

// maybeLogPerfDrop logs a snapshot once the frame rate has stayed low for
// perfLowFpsDuration, then at most every perfLogInterval.
func (g *Game) maybeLogPerfDrop(now time.Time) {
	fps := ebiten.ActualFPS()
	if fps == 0 || fps >= perfLowFpsThreshold {
		g.perfLowFpsSince = time.Time{}
		g.perfLastPerfLog = time.Time{}
		return
	}

	if g.perfLowFpsSince.IsZero() {
		g.perfLowFpsSince = now
		return
	}
	if now.Sub(g.perfLowFpsSince) < perfLowFpsDuration {
		return
	}
	if !g.perfLastPerfLog.IsZero() && now.Sub(g.perfLastPerfLog) < perfLogInterval {
		return
	}

	g.perfLastPerfLog = now
	g.logPerfSnapshot(fps)
}

func (g *Game) logPerfSnapshot(fps float64) {
	entry := g.log.WithFields(g.monitor.GetCurrentMetrics().Fields()).WithField("actual_fps", int(fps))
	for _, alert := range g.monitor.CheckPerformanceAlerts(perfLowFpsThreshold, perfOcclusionBudget) {
		entry = entry.WithField(alert.Type, alert.Value)
	}
	entry.Warn("Performance drop")
}
