package deps

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/pocket2drive/internal/domain"
	"github.com/MrSnakeDoc/pocket2drive/internal/kv"
	"github.com/MrSnakeDoc/pocket2drive/internal/logger"
)

// PocketAuth is the slice of the Pocket token manager the handlers use.
type PocketAuth interface {
	Login(ctx context.Context, secret string) (string, error)
	Callback(ctx context.Context, secret string) (domain.PocketAuthorization, error)
	AccessToken(ctx context.Context) (string, bool, error)
}

// OneDriveAuth is the slice of the OneDrive token manager the handlers use.
type OneDriveAuth interface {
	Exchange(ctx context.Context, code string) (domain.TokenSummary, error)
	AccessToken(ctx context.Context) (string, bool, error)
}

type Deps struct {
	Logger         logger.Logger
	StartTime      time.Time
	Version        string
	Commit         string
	BuildDate      string
	GoVersion      string
	TimeNow        func() time.Time // for testing, defaults to time.Now
	RequestTimeout time.Duration    // per-request timeout, covers upstream OAuth calls
	AllowedHosts   []string         // Host headers allowed on operational endpoints
	AllowedCIDRS   []string         // IPs allowed on operational endpoints
	TrustProxy     bool             // true if running behind a trusted reverse proxy (e.g., cloudflared)
	AuthRateBurst  int              // token bucket size on the OAuth endpoints
	AuthRatePerMin int              // token bucket refill on the OAuth endpoints
	KVBackend      string           // "redis" | "sqlite" | "memory", reported by /status
	Store          kv.Store         // token and ledger storage
	Pocket         PocketAuth
	OneDrive       OneDriveAuth
	SyncTrigger    chan struct{} // manual sync trigger (nil when no runner is attached)
}
