package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Client はCLI（1タブ分のクライアント）の設定。TOMLで書く。
type Client struct {
	APIURL            string   `toml:"api_url"`
	LocalDB           string   `toml:"local_db"`
	TokenFile         string   `toml:"token_file"`
	WatchInterval     Duration `toml:"watch_interval"`
	RefreshInterval   Duration `toml:"refresh_interval"`
	MergePolicy       string   `toml:"merge_policy"`
	LowStockThreshold int64    `toml:"low_stock_threshold"`
}

// Duration は "500ms" のような文字列で書ける time.Duration
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(b), err)
	}
	d.Duration = v
	return nil
}

// DefaultClientPath は ~/.config/storefront/client.toml
func DefaultClientPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "client.toml"
	}
	return filepath.Join(dir, "storefront", "client.toml")
}

// DefaultClient はファイルが無いときの設定
func DefaultClient() Client {
	data := dataDir()
	return Client{
		APIURL:            "http://127.0.0.1:8080",
		LocalDB:           filepath.Join(data, "local.db"),
		TokenFile:         filepath.Join(data, "token"),
		WatchInterval:     Duration{500 * time.Millisecond},
		RefreshInterval:   Duration{30 * time.Second},
		MergePolicy:       "local-wins",
		LowStockThreshold: 5,
	}
}

// LoadClient はpathを読んで既定値に重ねる。ファイルが無ければ既定値のまま。
func LoadClient(path string) (Client, error) {
	cfg := DefaultClient()
	if path == "" {
		return cfg, nil
	}

	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return Client{}, fmt.Errorf("read %s: %w", path, err)
	}

	if err := toml.Unmarshal(b, &cfg); err != nil {
		return Client{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.WatchInterval.Duration <= 0 {
		return Client{}, fmt.Errorf("watch_interval must be positive")
	}
	return cfg, nil
}

func dataDir() string {
	if v := os.Getenv("XDG_DATA_HOME"); v != "" {
		return filepath.Join(v, "storefront")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".local", "share", "storefront")
}
