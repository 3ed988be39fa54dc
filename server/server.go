package server

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/jvetere1999/passion-os-sub009/cache"
	"github.com/jvetere1999/passion-os-sub009/config"
	"github.com/jvetere1999/passion-os-sub009/core/analysis"
	"github.com/jvetere1999/passion-os-sub009/core/auth"
	"github.com/jvetere1999/passion-os-sub009/core/codec"
	"github.com/jvetere1999/passion-os-sub009/core/importer"
	"github.com/jvetere1999/passion-os-sub009/core/player"
	"github.com/jvetere1999/passion-os-sub009/core/waveform"
	"github.com/jvetere1999/passion-os-sub009/db"
	"github.com/jvetere1999/passion-os-sub009/logger"
	"github.com/jvetere1999/passion-os-sub009/model"
	"github.com/jvetere1999/passion-os-sub009/prefs"
	"github.com/jvetere1999/passion-os-sub009/repository"
	"github.com/jvetere1999/passion-os-sub009/storage"
)

// Start initializes and starts the HTTP server.
func Start() {
	cfg := config.Load()

	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogPath,
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     7,
		Compress:   true,
	})

	auth.Configure(cfg.AuthJWTSecret)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	if err := storage.InitMinio(cfg); err != nil {
		log.Fatalf("Failed to initialize MinIO: %v", err)
	}

	// Connect to the database
	if err := db.ConnectDB(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.DB.Close()

	// Connect to Redis
	if err := db.ConnectRedis(cfg); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer db.CloseRedis()
	log.Println("Successfully connected to Redis")

	if err := db.ConnectGormDB(cfg); err != nil {
		log.Fatalf("Failed to connect to database with GORM: %v", err)
	}
	defer db.CloseGormDB()

	// Initialize database schema
	if err := db.InitDB(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	if err := db.AutoMigrateModels(&model.ReferenceTrack{}, &model.TrackAnnotationsRecord{}); err != nil {
		log.Fatalf("Failed to migrate models: %v", err)
	}

	var decoder codec.Decoder
	if cfg.DecoderBackend == "ffmpeg" {
		decoder = codec.NewFFmpegDecoder(cfg.FFmpegPath)
	} else {
		decoder = codec.NewBeepDecoder()
	}

	generator := waveform.NewGenerator(decoder, waveform.Options{
		Bars:          cfg.WaveformBars,
		MaxFetchBytes: cfg.WaveformMaxBytes,
		HTTPTimeout:   time.Duration(cfg.WaveformHTTPLimit) * time.Second,
	})
	waveformStore := cache.NewRedisStore(db.RedisClient, cfg.WaveformCacheMax, time.Duration(cfg.WaveformCacheTTL)*time.Hour)
	waveforms := cache.NewWaveformCache(generator, waveformStore)

	analyzer := analysis.NewAnalyzer(decoder, analysis.Options{
		MaxBytes:   cfg.AnalysisMaxBytes,
		MaxSeconds: cfg.AnalysisMaxSeconds,
		MinBPM:     cfg.TempoMinBPM,
		MaxBPM:     cfg.TempoMaxBPM,
	})

	// The playback session belongs to the anonymous user; with auth enabled
	// clients still share it, only the library is per-user.
	textStore := prefs.NewRedisTextStore(db.RedisClient)
	settingsStore := prefs.NewSettingsStore(textStore, AnonymousUserID)
	if err := settingsStore.Migrate(); err != nil {
		log.Printf("Settings migration failed: %v", err)
	}
	settings := settingsStore.Load()

	p := player.NewPlayer(player.Options{
		RestartThreshold: cfg.PreviousRestartSeconds,
		Settings:         &settings,
	})
	defer p.Close()

	queueStore := prefs.NewQueueStore(textStore, AnonymousUserID)
	syncer := prefs.NewSyncer(p, settingsStore, queueStore, time.Duration(cfg.DebounceMillis)*time.Millisecond)
	syncer.Start()
	defer syncer.Stop()

	trackRepo := repository.NewGormTrackRepository(db.GormDB)
	annotRepo := repository.NewGormAnnotationRepository(db.GormDB)
	blobs := storage.NewBlobStore(storage.GetMinioClient(), cfg.MinioBucket)

	watchCtx, cancelWatch := context.WithCancel(context.Background())
	defer cancelWatch()
	watcher := importer.NewWatcher(cfg.ImportDir, time.Duration(cfg.ImportQuietMillis)*time.Millisecond, AnonymousUserID, blobs, trackRepo)
	if err := watcher.Start(watchCtx); err != nil {
		log.Fatalf("Failed to start import watcher: %v", err)
	}
	defer watcher.Stop()

	apiHandler := NewAPIHandler(cfg, p, waveforms, analyzer, blobs, trackRepo, annotRepo, queueStore)
	socketHandler := NewPlayerSocketHandler(p)

	router := mux.NewRouter()

	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, HEAD")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Range")
			w.Header().Set("Access-Control-Expose-Headers", "Content-Length, Content-Range")
			w.Header().Set("Access-Control-Max-Age", "86400") // 24 hours

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	})

	// Playback session endpoints
	router.HandleFunc("/api/player/state", apiHandler.AuthMiddleware(apiHandler.GetPlayerStateHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/player/queue", apiHandler.AuthMiddleware(apiHandler.SetQueueHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/player/queue", apiHandler.AuthMiddleware(apiHandler.ClearQueueHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/api/player/queue/restore", apiHandler.AuthMiddleware(apiHandler.RestoreQueueHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/player/play", apiHandler.AuthMiddleware(apiHandler.PlayHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/player/pause", apiHandler.AuthMiddleware(apiHandler.PauseHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/player/next", apiHandler.AuthMiddleware(apiHandler.NextHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/player/previous", apiHandler.AuthMiddleware(apiHandler.PreviousHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/player/seek", apiHandler.AuthMiddleware(apiHandler.SeekHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/player/time", apiHandler.AuthMiddleware(apiHandler.TimeUpdateHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/player/duration", apiHandler.AuthMiddleware(apiHandler.DurationHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/player/ended", apiHandler.AuthMiddleware(apiHandler.EndedHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/player/error", apiHandler.AuthMiddleware(apiHandler.PlaybackErrorHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/player/visibility", apiHandler.AuthMiddleware(apiHandler.VisibilityHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/player/settings", apiHandler.AuthMiddleware(apiHandler.UpdateSettingsHandler)).Methods(http.MethodPut)

	// Track library endpoints
	router.HandleFunc("/api/tracks", apiHandler.AuthMiddleware(apiHandler.GetTracksHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/tracks", apiHandler.AuthMiddleware(apiHandler.UploadTrackHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/tracks/{id}", apiHandler.AuthMiddleware(apiHandler.GetTrackHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/tracks/{id}", apiHandler.AuthMiddleware(apiHandler.DeleteTrackHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/api/tracks/{id}/url", apiHandler.AuthMiddleware(apiHandler.TrackURLHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/tracks/{id}/waveform", apiHandler.AuthMiddleware(apiHandler.TrackWaveformHandler)).Methods(http.MethodGet)

	// Analysis endpoints
	router.HandleFunc("/api/tracks/{id}/analyze", apiHandler.AuthMiddleware(apiHandler.AnalyzeTrackHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/analysis/batch", apiHandler.AuthMiddleware(apiHandler.BatchAnalyzeHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/waveform", apiHandler.AuthMiddleware(apiHandler.WaveformHandler)).Methods(http.MethodGet)

	// Annotation endpoints
	router.HandleFunc("/api/tracks/{id}/annotations", apiHandler.AuthMiddleware(apiHandler.GetAnnotationsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/tracks/{id}/annotations", apiHandler.AuthMiddleware(apiHandler.PutAnnotationsHandler)).Methods(http.MethodPut)
	router.HandleFunc("/api/tracks/{id}/annotations", apiHandler.AuthMiddleware(apiHandler.DeleteAnnotationsHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/api/tracks/{id}/annotations/markers", apiHandler.AuthMiddleware(apiHandler.AddMarkerHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/tracks/{id}/annotations/markers/{markerId}", apiHandler.AuthMiddleware(apiHandler.UpdateMarkerHandler)).Methods(http.MethodPut)
	router.HandleFunc("/api/tracks/{id}/annotations/markers/{markerId}", apiHandler.AuthMiddleware(apiHandler.RemoveMarkerHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/api/tracks/{id}/annotations/regions", apiHandler.AuthMiddleware(apiHandler.AddRegionHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/tracks/{id}/annotations/regions/{regionId}", apiHandler.AuthMiddleware(apiHandler.UpdateRegionHandler)).Methods(http.MethodPut)
	router.HandleFunc("/api/tracks/{id}/annotations/regions/{regionId}", apiHandler.AuthMiddleware(apiHandler.RemoveRegionHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/api/tracks/{id}/annotations/notes", apiHandler.AuthMiddleware(apiHandler.AddNoteHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/tracks/{id}/annotations/notes/{noteId}", apiHandler.AuthMiddleware(apiHandler.RemoveNoteHandler)).Methods(http.MethodDelete)

	// Storage endpoints
	router.HandleFunc("/api/storage/stats", apiHandler.AuthMiddleware(apiHandler.StorageStatsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/storage", apiHandler.AuthMiddleware(apiHandler.ClearStorageHandler)).Methods(http.MethodDelete)

	// Player state push
	router.HandleFunc("/ws/player", socketHandler.ServeWS)

	server.Handler = router

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on :%s...", cfg.ServerPort)
		log.Println("Control playback via /api/player endpoints")
		log.Println("Upload tracks via POST to /api/tracks")
		log.Println("Analyze tracks via POST to /api/tracks/{id}/analyze")
		log.Println("Subscribe to player state via /ws/player")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
