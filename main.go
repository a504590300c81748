package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/sirupsen/logrus"

	"isoclient/internal/config"
	"isoclient/internal/engine"
	"isoclient/internal/game"
	"isoclient/internal/geometry"
	"isoclient/internal/graphics"
	"isoclient/internal/hitmap"
	"isoclient/internal/logger"
	"isoclient/internal/motion"
	"isoclient/internal/netsync"
	"isoclient/internal/occlusion"
	"isoclient/internal/threading/core"
	"isoclient/internal/threading/monitoring"
	"isoclient/internal/tileindex"
	"isoclient/internal/world"
)

const offlineID = "local"

func main() {
	// Load configuration
	cfg := config.MustLoadConfig("config.yaml")
	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.WithComponent("main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Tile types override walkable flags from the tileset
	types, err := world.LoadTileTypes(cfg.Assets.TileTypes)
	if err != nil {
		log.WithError(err).Warn("Failed to load tile types, using tileset properties only")
		types = world.NewTileTypes()
	}

	w, err := world.Load(cfg.Assets.MapFile, cfg.Assets.TilesetFile, types)
	if err != nil {
		log.WithError(err).Fatal("Failed to load map")
	}
	if err := w.CheckTileSize(cfg.GetTileWidth(), cfg.GetTileHeight()); err != nil {
		log.WithError(err).Fatal("Tileset does not match config")
	}

	pool := core.CreateDefaultWorkerPool()
	defer pool.Stop()

	opaque, walkable := loadHitSheets(ctx, cfg, w, pool)
	opts := tileindex.Options{Radius: cfg.Picking.SearchRadius, Opaque: opaque}
	if walkable != nil {
		opts.Walkable = walkable
	}
	idx := tileindex.New(w.Tiles, w.Projection, opts)

	monitor := monitoring.NewPerformanceMonitor()
	sessionOpts := engine.Options{
		Motion: motion.Controller{
			Speed:              cfg.GetMoveSpeed(),
			ReconcileThreshold: cfg.Movement.ReconcileThreshold,
			SnapPrecision:      cfg.Movement.SnapPrecision,
		},
		Occlusion: occlusion.Config{
			Interval: cfg.GetOcclusionInterval(),
			Window:   cfg.Occlusion.WindowRadius,
		},
		GridScale: cfg.World.PathGridScale,
		Pool:      pool,
		Monitor:   monitor,
	}

	var client *netsync.Client
	if cfg.Network.ServerURL != "" {
		client, err = netsync.Dial(ctx, cfg.Network.ServerURL, netsync.Options{
			Buffer:       cfg.Network.SnapshotBuf,
			WriteTimeout: cfg.GetWriteTimeout(),
		})
		if err != nil {
			log.WithError(err).Fatal("Failed to connect to server")
		}
		defer client.Close()
		sessionOpts.Transport = client

		go func() {
			if err := client.Run(ctx); err != nil {
				log.WithError(err).Error("Connection lost")
			}
		}()
	}

	session, err := engine.New(ctx, w, idx, sessionOpts)
	if err != nil {
		log.WithError(err).Fatal("Failed to start session")
	}
	if client == nil {
		spawnOffline(session, w)
	}

	sheet, err := graphics.LoadSpriteSheet(cfg.Assets.TilesetImage, *opaque)
	if err != nil {
		log.WithError(err).Warn("Failed to load tileset image, drawing placeholders")
		sheet = graphics.NewSpriteSheet(nil, *opaque)
	}

	// Set window properties from config
	ebiten.SetWindowSize(cfg.GetScreenWidth(), cfg.GetScreenHeight())
	ebiten.SetWindowTitle(cfg.Display.WindowTitle)
	if cfg.Display.Resizable {
		ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	}

	g := game.NewGame(cfg, game.Options{
		Session: session,
		Sheet:   sheet,
		Client:  client,
		Monitor: monitor,
	})
	if err := ebiten.RunGame(g); err != nil {
		log.WithError(err).Fatal("Game exited with error")
	}
	log.WithFields(monitor.GetCurrentMetrics().Fields()).Info("Shutting down")
}

// loadHitSheets builds the pick masks of the tileset and of its optional
// walkable overlay ahead of the first frame.
func loadHitSheets(ctx context.Context, cfg *config.Config, w *world.World, pool *core.WorkerPool) (opaque, walkable *hitmap.Sheet) {
	cache := hitmap.NewCache(cfg.GetAlphaThreshold())
	sources := map[string]any{"tileset": cfg.Assets.TilesetImage}
	if cfg.Assets.WalkableImage != "" {
		sources["walkable"] = cfg.Assets.WalkableImage
	}
	if err := cache.Preload(ctx, pool, sources); err != nil {
		logger.Log.WithError(err).Warn("Hit map preload interrupted")
	}

	dpr := cfg.GetDevicePixelRatio()
	opaque = w.Tileset.Sheet(cache.Get("tileset", sources["tileset"]), dpr)
	if _, ok := sources["walkable"]; ok {
		// The overlay may be cut differently from the diffuse tileset.
		layout := w.Tileset
		if cfg.Assets.WalkableTileset != "" {
			ts, err := world.LoadTileset(cfg.Assets.WalkableTileset)
			if err != nil {
				logger.Log.WithError(err).Warn("Failed to load walkable tileset, using the tileset layout")
			} else {
				layout = ts
			}
		}
		walkable = layout.Sheet(cache.Get("walkable", sources["walkable"]), dpr)
	}
	logger.Log.WithFields(logrus.Fields{
		"sources": cache.Len(),
		"columns": w.Tileset.Columns,
	}).Info("Hit maps ready")
	return opaque, walkable
}

// spawnOffline puts the local entity on the first walkable ground tile so
// the client can be used without a server.
func spawnOffline(session *engine.Session, w *world.World) {
	tw, th := w.TileSize()
	for _, t := range w.Tiles {
		if t.Layer != 0 || !t.Walkable || session.Index().HasTileAbove(t) {
			continue
		}
		session.Spawn(offlineID, t.Position.Add(geometry.Pt(tw/2, th/4)), 0, true)
		return
	}
	logger.Log.Warn("No walkable ground tile, running without a local entity")
}
