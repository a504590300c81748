// Package engine runs one client session. Clicks become routes, server
// snapshots update remote entities, and every tick advances motion before
// refreshing the occlusion sets.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"isoclient/internal/geometry"
	"isoclient/internal/logger"
	"isoclient/internal/motion"
	"isoclient/internal/netsync"
	"isoclient/internal/occlusion"
	"isoclient/internal/pathfind"
	"isoclient/internal/threading/core"
	"isoclient/internal/threading/monitoring"
	"isoclient/internal/tileindex"
	"isoclient/internal/walkgrid"
	"isoclient/internal/world"
)

// Transport forwards the local entity's intended destinations.
type Transport interface {
	SendMove(p geometry.Point) error
}

// Options wires a session.
type Options struct {
	Motion    motion.Controller
	Occlusion occlusion.Config
	GridScale int
	Pool      *core.WorkerPool // walk grids are built on it when set
	Transport Transport        // nil keeps the session offline
	Monitor   *monitoring.PerformanceMonitor
}

// Session owns all mutable simulation state. It is driven from a single
// goroutine.
type Session struct {
	world     *world.World
	index     *tileindex.Index
	occlusion *occlusion.Layer
	planner   *pathfind.Planner
	grids     map[int]*walkgrid.Grid
	motion    motion.Controller
	transport Transport
	monitor   *monitoring.PerformanceMonitor

	entities map[string]*motion.Entity
	localID  string

	gridScale int
	quarterH  float64
	log       *logrus.Entry
}

// New builds the walk grid of every layer and returns an idle session.
func New(ctx context.Context, w *world.World, idx *tileindex.Index, opts Options) (*Session, error) {
	scale := opts.GridScale
	if scale < 1 {
		scale = 1
	}

	grids := make(map[int]*walkgrid.Grid, w.Layers)
	for layer := 0; layer < max(w.Layers, 1); layer++ {
		g, err := walkgrid.Build(ctx, opts.Pool, idx, w.Projection, walkgrid.Params{
			Width:  w.Width,
			Height: w.Height,
			Scale:  scale,
			Layer:  layer,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to build walk grid for layer %d: %w", layer, err)
		}
		grids[layer] = g
	}

	// The anchor offset must match the sprites the tiles were placed with.
	occCfg := opts.Occlusion
	occCfg.TileWidth, occCfg.TileHeight = w.TileSize()

	s := &Session{
		world:     w,
		index:     idx,
		occlusion: occlusion.New(idx.Tiles(), occCfg),
		planner:   pathfind.NewPlanner(grids[0], w.Projection, scale),
		grids:     grids,
		motion:    opts.Motion,
		transport: opts.Transport,
		monitor:   opts.Monitor,
		entities:  make(map[string]*motion.Entity),
		gridScale: scale,
		quarterH:  w.Projection.QuarterHeight(),
		log:       logger.WithComponent("engine"),
	}

	for layer, g := range grids {
		s.log.WithFields(logrus.Fields{
			"layer":    layer,
			"size":     fmt.Sprintf("%dx%d", g.Width, g.Height),
			"walkable": g.Count(),
		}).Debug("Built walk grid")
	}
	return s, nil
}

// Index returns the tile index.
func (s *Session) Index() *tileindex.Index {
	return s.index
}

// Occlusion returns the current render sets.
func (s *Session) Occlusion() *occlusion.Layer {
	return s.occlusion
}

// Grid returns the walk grid of a layer.
func (s *Session) Grid(layer int) *walkgrid.Grid {
	return s.grids[layer]
}

// GridProjection maps walk grid cells to world points.
func (s *Session) GridProjection() geometry.Projection {
	return walkgrid.Projection(s.world.Projection, s.gridScale)
}

// Local returns the entity controlled by this client.
func (s *Session) Local() *motion.Entity {
	return s.entities[s.localID]
}

// Entity looks up an entity by id.
func (s *Session) Entity(id string) (*motion.Entity, bool) {
	e, ok := s.entities[id]
	return e, ok
}

// Entities returns every entity in draw order: by depth layer, then id.
func (s *Session) Entities() []*motion.Entity {
	out := make([]*motion.Entity, 0, len(s.entities))
	for _, e := range s.entities {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		di, dj := out[i].DepthLayer(s.quarterH), out[j].DepthLayer(s.quarterH)
		if di != dj {
			return di < dj
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// DepthLayer returns an entity's draw-order key on this map.
func (s *Session) DepthLayer(e *motion.Entity) int {
	return e.DepthLayer(s.quarterH)
}

// Spawn adds an entity, or returns the existing one with that id.
func (s *Session) Spawn(id string, pos geometry.Point, layer int, local bool) *motion.Entity {
	if e, ok := s.entities[id]; ok {
		return e
	}
	e := motion.NewEntity(id, pos, layer)
	s.entities[id] = e
	if local {
		s.setLocal(e)
	}
	s.log.WithFields(logrus.Fields{"id": id, "position": pos, "layer": layer, "local": local}).Info("Spawned entity")
	return e
}

// Despawn removes an entity. Removing the local entity leaves the session
// without an occupant, so every tile draws opaque.
func (s *Session) Despawn(id string) {
	if _, ok := s.entities[id]; !ok {
		return
	}
	delete(s.entities, id)
	if id == s.localID {
		s.localID = ""
		s.occlusion.Invalidate()
	}
	s.log.WithField("id", id).Info("Despawned entity")
}

// Click handles a primary click at a world point. The point is floored to
// whole pixels; when a walkable tile is under it and a route exists, the
// local entity starts walking and the destination is sent to the server.
// It reports whether a move was issued.
func (s *Session) Click(p geometry.Point) bool {
	local := s.Local()
	if local == nil {
		return false
	}
	dest := p.Floor()

	issued := false
	s.monitor.Profile(monitoring.StagePick, func() {
		if _, ok := s.index.WalkableTileAt(dest, local.Layer, tileindex.WalkOptions{Skip: s.occlusion.IsAbove}); !ok {
			s.log.WithField("point", dest).Debug("No walkable tile under click")
			return
		}

		route, err := s.planner.Route(local.Position, dest)
		s.monitor.RecordRoute(err == nil)
		if err != nil {
			if errors.Is(err, pathfind.ErrUnreachable) {
				s.log.WithField("point", dest).Debug("Click target unreachable")
			} else {
				s.log.WithError(err).Warn("Route failed")
			}
			return
		}

		s.motion.SetPath(local, route)
		issued = true
	})
	if !issued {
		return false
	}

	if s.transport != nil {
		if err := s.transport.SendMove(dest); err != nil {
			s.log.WithError(err).Warn("Failed to send move request")
		}
	}
	return true
}

// Apply folds a server message into the session.
func (s *Session) Apply(u netsync.Update) {
	switch {
	case u.Welcome != nil:
		w := u.Welcome
		if e, ok := s.entities[w.ID]; ok {
			s.setLocal(e)
			return
		}
		s.Spawn(w.ID, w.Position, w.Layer, true)
	case u.Sync != nil:
		for _, snap := range u.Sync.Entities {
			s.applySnapshot(snap)
		}
	}
}

func (s *Session) applySnapshot(snap netsync.Snapshot) {
	if snap.Disconnected() {
		s.Despawn(snap.ID)
		return
	}

	e, ok := s.entities[snap.ID]
	if !ok {
		e = s.Spawn(snap.ID, snap.Position, snap.Layer, snap.ID == s.localID && s.localID != "")
	}
	if e.Local {
		return
	}

	e.Layer = snap.Layer
	if s.motion.Reconcile(e, motion.Authoritative{Position: snap.Position, Destination: snap.Destination}) {
		s.log.WithFields(logrus.Fields{"id": e.ID, "position": snap.Position}).Debug("Snapped to server position")
	}
}

// Tick advances the simulation by dt seconds of real time at now.
func (s *Session) Tick(now time.Time, dt float64) {
	s.monitor.Profile(monitoring.StageSimulation, func() {
		for _, e := range s.entities {
			if s.motion.Tick(e, dt) && e.Local {
				s.trackLayer(e)
			}
		}
	})

	s.monitor.Profile(monitoring.StageOcclusion, func() {
		if s.occlusion.Update(now, s.occupant()) {
			s.monitor.RecordRecompute()
		}
	})
}

// setLocal hands local control to e. The previous local entity becomes a
// remote one again.
func (s *Session) setLocal(e *motion.Entity) {
	if prev, ok := s.entities[s.localID]; ok && prev != e {
		prev.Local = false
	}
	e.Local = true
	s.localID = e.ID
	s.useLayer(e.Layer)
}

// trackLayer moves the local entity onto the layer of the tile under its
// feet when nothing is stacked on that tile.
func (s *Session) trackLayer(e *motion.Entity) {
	tile, ok := s.index.TileUnder(e.Position, e.Layer)
	if !ok || s.index.HasTileAbove(tile) || tile.Layer == e.Layer {
		return
	}
	s.log.WithFields(logrus.Fields{"from": e.Layer, "to": tile.Layer}).Debug("Local entity changed layer")
	e.Layer = tile.Layer
	s.useLayer(tile.Layer)
}

// useLayer points path planning at the grid of layer and forces an
// occlusion recompute on the next tick.
func (s *Session) useLayer(layer int) {
	if g, ok := s.grids[layer]; ok {
		s.planner.SetGrid(g)
	} else {
		s.planner.SetGrid(walkgrid.New(0, 0))
	}
	s.occlusion.Invalidate()
}

func (s *Session) occupant() *occlusion.Occupant {
	local := s.Local()
	if local == nil {
		return nil
	}
	return &occlusion.Occupant{
		Position:   local.Position,
		Layer:      local.Layer,
		DepthLayer: s.DepthLayer(local),
	}
}
