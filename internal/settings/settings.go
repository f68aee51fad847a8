package settings

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"yacontest/internal/components/telemetry"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

const FileName = "yacontest.json5"

type Settings struct {
	// StatePath is the sqlite file holding the persisted record, relative
	// paths are resolved against the settings directory.
	StatePath          string `json:"state_path"`
	UserAgent          string `json:"user_agent"`
	HttpTimeoutSeconds int    `json:"http_timeout_seconds"`
	// RequestsPerSecond <= 0 falls back to the default, use
	// DisableRateLimit to send requests unthrottled.
	RequestsPerSecond float64 `json:"requests_per_second"`
	DisableRateLimit  bool    `json:"disable_rate_limit"`
	CloudflareBypass  bool    `json:"cloudflare_bypass"`
	// PollTimeoutSeconds bounds `check`, 0 waits until interrupted.
	PollTimeoutSeconds int `json:"poll_timeout_seconds"`
	// PageCachePath is where fetched problem statements are cached, an
	// empty path falls back to the default.
	PageCachePath    string               `json:"page_cache_path"`
	PageCacheHours   int                  `json:"page_cache_hours"`
	DisablePageCache bool                 `json:"disable_page_cache"`
	Telemetry        telemetry.OtlpConfig `json:"telemetry"`
}

// RateLimit is the request rate the session is limited to, 0 when disabled.
func (s Settings) RateLimit() float64 {
	if s.DisableRateLimit {
		return 0
	}
	return s.RequestsPerSecond
}

// PageCacheDir is the page cache directory, empty when the cache is disabled.
func (s Settings) PageCacheDir() string {
	if s.DisablePageCache {
		return ""
	}
	return s.PageCachePath
}

func (s Settings) HttpTimeout() time.Duration {
	return time.Duration(s.HttpTimeoutSeconds) * time.Second
}

func (s Settings) PollTimeout() time.Duration {
	return time.Duration(s.PollTimeoutSeconds) * time.Second
}

func (s Settings) PageCacheLifetime() time.Duration {
	return time.Duration(s.PageCacheHours) * time.Hour
}

func Defaults() Settings {
	return Settings{
		StatePath:          "state.db",
		UserAgent:          "yacontest (+https://github.com/vvd170501/yacontest)",
		HttpTimeoutSeconds: 30,
		RequestsPerSecond:  4,
		PageCachePath:      "page_cache",
		PageCacheHours:     24,
	}
}

// DefaultDir is the per-user directory settings and state live in.
func DefaultDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "yacontest"), nil
}

// Read loads <dir>/yacontest.json5 merged with its local override. Missing
// files are not an error, unset fields fall back to Defaults.
func Read(dir string) (Settings, error) {
	out, err := ReadConfig[Settings](filepath.Join(dir, FileName))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}
	err = mergo.Merge(&out, Defaults())
	if err != nil {
		return Settings{}, err
	}

	out.StatePath = resolve(dir, out.StatePath)
	if out.PageCachePath != "" {
		out.PageCachePath = resolve(dir, out.PageCachePath)
	}
	return out, nil
}

func resolve(dir, path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

// ReadConfig reads a json5 file `name` and merges `<name>.local.<ext>` over
// it, the local file wins on every field it sets. It returns os.ErrNotExist
// when neither file exists.
func ReadConfig[T any](name string) (T, error) {
	var out T
	found := false

	ext := filepath.Ext(name)
	localName := strings.TrimSuffix(name, ext) + ".local" + ext

	base, err := os.ReadFile(name)
	if err != nil && !os.IsNotExist(err) {
		return out, err
	}
	if len(base) > 0 {
		err = json5.Unmarshal(base, &out)
		if err != nil {
			return out, fmt.Errorf("%s: %w", name, err)
		}
		found = true
	}

	local, err := os.ReadFile(localName)
	if err != nil && !os.IsNotExist(err) {
		return out, err
	}
	if len(local) > 0 {
		var override T
		err = json5.Unmarshal(local, &override)
		if err != nil {
			return out, fmt.Errorf("%s: %w", localName, err)
		}
		err = mergo.Merge(&out, override, mergo.WithOverride)
		if err != nil {
			return out, err
		}
		slog.Debug("merging settings with local overrides", "local", localName)
		found = true
	}

	if !found {
		return out, os.ErrNotExist
	}
	return out, nil
}
