package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

type Config struct {
	App struct {
		Env      string
		Timezone string
	} `mapstructure:"app"`

	HTTP struct {
		Addr string
	} `mapstructure:"http"`

	Storage struct {
		Driver string
	} `mapstructure:"storage"`

	Postgres struct {
		DSN string
	} `mapstructure:"postgres"`

	SQLite struct {
		Path string
	} `mapstructure:"sqlite"`

	Migrations struct {
		Dir string
	} `mapstructure:"migrations"`

	Metrics struct {
		Enabled bool
	} `mapstructure:"metrics"`

	Report struct {
		Title       string
		RowsPerPage int `mapstructure:"rows_per_page"`
	} `mapstructure:"report"`

	Pricing struct {
		DefaultLaborPercent       float64 `mapstructure:"default_labor_percent"`
		DefaultUtilitiesPercent   float64 `mapstructure:"default_utilities_percent"`
		DefaultDisposablesPercent float64 `mapstructure:"default_disposables_percent"`
	} `mapstructure:"pricing"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "prod")
	v.SetDefault("app.timezone", "America/Argentina/Buenos_Aires")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("storage.driver", StorageSQLite)
	v.SetDefault("postgres.dsn", "")
	v.SetDefault("sqlite.path", "./esencia.db")
	v.SetDefault("migrations.dir", "migrations")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("report.title", "Reporte de ventas")
	v.SetDefault("report.rows_per_page", 25)
	v.SetDefault("pricing.default_labor_percent", 10)
	v.SetDefault("pricing.default_utilities_percent", 5)
	v.SetDefault("pricing.default_disposables_percent", 3)
}

// Load reads the YAML file at path (optional when empty) and applies
// APP_* environment overrides, e.g. APP_STORAGE_DRIVER. A .env file in the
// working directory is loaded first without overriding the environment.
func Load(path string) (Config, error) {
	if err := gotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var c Config
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return c, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, c.Validate()
}

func (c Config) Validate() error {
	switch c.Storage.Driver {
	case StorageMemory, StorageSQLite:
	case StoragePostgres:
		if c.Postgres.DSN == "" {
			return errors.New("postgres.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown storage.driver %q", c.Storage.Driver)
	}
	if c.Report.RowsPerPage <= 0 {
		return errors.New("report.rows_per_page must be > 0")
	}
	if c.Pricing.DefaultLaborPercent < 0 || c.Pricing.DefaultUtilitiesPercent < 0 || c.Pricing.DefaultDisposablesPercent < 0 {
		return errors.New("pricing defaults must be >= 0")
	}
	return nil
}
