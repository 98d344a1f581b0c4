package remote

import (
	"fmt"
	"time"

	"conia-sync/internal/conia"
	"conia-sync/internal/config"
)

// NewRemoteFromConfig creates a RemoteStore implementation based on the
// remote config type.
func NewRemoteFromConfig(cfg config.RemoteConfig, logger conia.Logger) (conia.RemoteStore, error) {
	switch cfg.Type {
	case "http":
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("http remote requires base_url to be set")
		}
		return NewHTTPRemote(cfg.BaseURL, cfg.APIKey, time.Duration(cfg.TimeoutSeconds)*time.Second, logger), nil
	case "memory":
		return NewMemoryRemote(), nil
	default:
		return nil, fmt.Errorf("unknown remote type: %s", cfg.Type)
	}
}
