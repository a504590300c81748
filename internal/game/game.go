// Package game adapts an engine session to ebiten: it feeds clicks and
// server messages in and paints the result.
package game

import (
	"fmt"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/sirupsen/logrus"

	"isoclient/internal/config"
	"isoclient/internal/engine"
	"isoclient/internal/game/keytracker"
	"isoclient/internal/graphics"
	"isoclient/internal/logger"
	"isoclient/internal/mathutil"
	"isoclient/internal/netsync"
	"isoclient/internal/threading/monitoring"
)

// maxFrameDelta caps the simulated time of one frame, so a stalled window
// does not teleport entities along their path.
const maxFrameDelta = 0.25

// Options wires a game.
type Options struct {
	Session *engine.Session
	Sheet   *graphics.SpriteSheet
	Client  *netsync.Client // nil runs offline
	Monitor *monitoring.PerformanceMonitor
}

// Game implements ebiten.Game.
type Game struct {
	config   *config.Config
	session  *engine.Session
	client   *netsync.Client
	monitor  *monitoring.PerformanceMonitor
	renderer *Renderer
	camera   *Camera
	clicks   clickQueue
	keys     keytracker.Tracker

	lastUpdate time.Time
	showDebug  bool
	showGrid   bool

	perfLowFpsSince time.Time
	perfLastPerfLog time.Time

	log *logrus.Entry
}

// NewGame creates the ebiten adapter.
func NewGame(cfg *config.Config, opts Options) *Game {
	camera := &Camera{}
	return &Game{
		config:   cfg,
		session:  opts.Session,
		client:   opts.Client,
		monitor:  opts.Monitor,
		renderer: NewRenderer(opts.Session, opts.Sheet, camera, cfg.Occlusion.AboveAlpha),
		camera:   camera,
		log:      logger.WithComponent("game"),
	}
}

// Update runs one simulation step.
func (g *Game) Update() error {
	frameTimer := g.monitor.StartFrame()
	defer frameTimer.EndFrame()

	now := time.Now()
	dt := g.frameDelta(now)

	g.handleInput(now)
	if g.client != nil {
		for _, u := range g.client.Drain() {
			g.session.Apply(u)
		}
	}
	g.session.Tick(now, dt)

	if local := g.session.Local(); local != nil {
		g.camera.Follow(local.Position, g.config.GetScreenWidth(), g.config.GetScreenHeight())
	}

	g.maybeLogPerfDrop(now)
	return nil
}

// frameDelta returns the seconds elapsed since the previous update.
func (g *Game) frameDelta(now time.Time) float64 {
	last := g.lastUpdate
	g.lastUpdate = now
	if last.IsZero() {
		return 1 / float64(ebiten.TPS())
	}
	return mathutil.Clamp(now.Sub(last).Seconds(), 0, maxFrameDelta)
}

func (g *Game) handleInput(now time.Time) {
	if g.keys.JustPressed(ebiten.KeyF3) {
		g.showDebug = !g.showDebug
	}
	if g.keys.JustPressed(ebiten.KeyG) {
		g.showGrid = !g.showGrid
	}

	ms := now.UnixMilli()
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		x, y := ebiten.CursorPosition()
		g.clicks.push(x, y, ms)
	}
	g.clicks.prune(ms)
	g.clicks.latest()

	x, y, ok := g.clicks.peek()
	if !ok || g.session.Local() == nil {
		return
	}
	g.clicks.pop()
	g.session.Click(g.camera.ScreenToWorld(x, y))
}

// Draw renders the frame.
func (g *Game) Draw(screen *ebiten.Image) {
	g.monitor.Profile(monitoring.StageDraw, func() {
		g.renderer.Draw(screen)
	})

	local := g.session.Local()
	if g.showGrid && local != nil {
		g.renderer.DrawGrid(screen, g.session.Grid(local.Layer), g.session.GridProjection())
	}
	if g.showDebug {
		ebitenutil.DebugPrint(screen, g.debugText())
	}
}

func (g *Game) debugText() string {
	m := g.monitor.GetCurrentMetrics()
	text := fmt.Sprintf("FPS: %.0f  TPS: %.0f\nEntities: %d  Routes: %d (%d unreachable)\nOcclusion recomputes: %d  Above: %d",
		ebiten.ActualFPS(), ebiten.ActualTPS(),
		len(g.session.Entities()), m.Routes, m.Unreachable,
		m.Recomputes, len(g.session.Occlusion().Above()))
	if local := g.session.Local(); local != nil {
		text += fmt.Sprintf("\nPosition: %v  Layer: %d  Heading: %v", local.Position, local.Layer, local.Heading)
	}
	return text
}

// Layout keeps a fixed logical resolution.
func (g *Game) Layout(outsideWidth, outsideHeight int) (screenWidth, screenHeight int) {
	return g.config.GetScreenWidth(), g.config.GetScreenHeight()
}
