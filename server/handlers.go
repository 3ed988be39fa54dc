package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/jvetere1999/passion-os-sub009/cache"
	"github.com/jvetere1999/passion-os-sub009/config"
	"github.com/jvetere1999/passion-os-sub009/core/analysis"
	"github.com/jvetere1999/passion-os-sub009/core/auth"
	"github.com/jvetere1999/passion-os-sub009/core/player"
	"github.com/jvetere1999/passion-os-sub009/prefs"
	"github.com/jvetere1999/passion-os-sub009/repository"
	"github.com/jvetere1999/passion-os-sub009/storage"
)

// AnonymousUserID owns everything when token auth is not configured.
const AnonymousUserID int64 = 1

// APIHandler carries the engine services behind the HTTP surface.
type APIHandler struct {
	cfg        *config.Config
	player     *player.Player
	waveforms  *cache.WaveformCache
	analyzer   *analysis.Analyzer
	blobs      *storage.BlobStore
	trackRepo  repository.TrackRepository
	annotRepo  repository.AnnotationRepository
	queueStore *prefs.QueueStore
}

// NewAPIHandler wires the engine services into one handler set.
func NewAPIHandler(
	cfg *config.Config,
	p *player.Player,
	waveforms *cache.WaveformCache,
	analyzer *analysis.Analyzer,
	blobs *storage.BlobStore,
	trackRepo repository.TrackRepository,
	annotRepo repository.AnnotationRepository,
	queueStore *prefs.QueueStore,
) *APIHandler {
	return &APIHandler{
		cfg:        cfg,
		player:     p,
		waveforms:  waveforms,
		analyzer:   analyzer,
		blobs:      blobs,
		trackRepo:  trackRepo,
		annotRepo:  annotRepo,
		queueStore: queueStore,
	}
}

// AuthMiddleware validates the bearer token when token auth is
// configured. Without a configured secret every request runs as the
// anonymous user.
func (h *APIHandler) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !auth.Enabled() {
			ctx := context.WithValue(r.Context(), "userID", AnonymousUserID)
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header is required", http.StatusUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			http.Error(w, "Invalid authorization header format", http.StatusUnauthorized)
			return
		}

		claims, err := auth.ParseToken(parts[1])
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), "userID", claims.UserID)
		ctx = context.WithValue(ctx, "username", claims.Username)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// GetUserIDFromContext extracts the user ID from the request context.
func GetUserIDFromContext(ctx context.Context) (int64, error) {
	userID, ok := ctx.Value("userID").(int64)
	if !ok {
		return 0, fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}
