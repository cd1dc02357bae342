package deps

import (
	"database/sql"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/marque-app/marque/internal/blob"
	"github.com/marque-app/marque/internal/fetch"
	"github.com/marque-app/marque/internal/logger"
	"github.com/marque-app/marque/internal/store"
)

type Deps struct {
	Logger    logger.Logger
	StartTime time.Time
	Version   string
	Commit    string
	BuildDate string
	GoVersion string
	TimeNow   func() time.Time // for testing, defaults to time.Now

	JWTSecret []byte // HMAC secret the auth middleware verifies bearer tokens with

	Bookmarks store.BookmarkStore // owner-scoped bookmark persistence
	Tags      store.TagStore      // tag resolution (idempotent upsert)
	Blobs     blob.Storage        // attachment blob storage
	Resolver  *blob.URLResolver   // stored key -> access URL resolution
	Fetcher   fetch.Fetcher       // remote attachment ingestion

	DB          *sql.DB       // readiness ping only
	RedisClient *redis.Client // readiness ping only

	AllowedHosts    []string // Host headers allowed to access the server
	AllowedCIDRS    []string // IPs allowed to access healthz/readyz endpoints
	TrustProxy      bool     // true if running behind a trusted reverse proxy (e.g., cloudflared)
	RateLimitBurst  int      // token bucket capacity per client IP
	RateLimitPerMin int      // refill rate per client IP per minute
}
