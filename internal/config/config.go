package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	envPrefix       = "QUINTRY"
	appDirName      = "quintry"
	defaultFileName = "quintry.db"
)

type Config struct {
	Storage StorageConfig `mapstructure:"storage"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// StorageConfig locates the history database. DataDir is owned by the desktop
// shell; the store only ever sees the resolved path.
type StorageConfig struct {
	DataDir     string        `mapstructure:"data_dir"`
	FileName    string        `mapstructure:"file_name"`
	BusyTimeout time.Duration `mapstructure:"busy_timeout"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Directory  string `mapstructure:"directory"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

func (c StorageConfig) DatabasePath() string {
	return filepath.Join(c.DataDir, c.FileName)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("storage.data_dir", defaultDataDir())
	v.SetDefault("storage.file_name", defaultFileName)
	v.SetDefault("storage.busy_timeout", 5*time.Second)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.directory", "")
	v.SetDefault("logging.max_size", 10)   // 10 MB
	v.SetDefault("logging.max_backups", 3) // Keep 3 backups
	v.SetDefault("logging.max_age", 7)     // 7 days
	v.SetDefault("logging.compress", true)
}

// Load reads, lowest precedence first: defaults, <configDir>/config.yaml,
// variables from envFile, and QUINTRY_* environment variables. Missing files
// are not an error.
func Load(configDir, envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("error loading %s: %w", envFile, err)
		}
	}

	v := viper.New()
	setDefaults(v)

	if configDir != "" {
		v.AddConfigPath(configDir)
	}
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configDir != "" {
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	if strings.TrimSpace(cfg.Storage.FileName) == "" {
		cfg.Storage.FileName = defaultFileName
	}
	return cfg, nil
}

func defaultDataDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return appDirName
	}
	return filepath.Join(base, appDirName)
}
