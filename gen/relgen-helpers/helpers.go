package helpers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"runtime/debug"
	"sort"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/stephenafamo/relgen/gen"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const DefaultConfigPath = "./relgen.yaml"

// Config is the part of every driver's config shared by all drivers
type Config struct {
	// The database connection string
	Dsn string `yaml:"dsn"`
	// The database/sql driver to read the schema with
	Driver string `yaml:"driver"`
	// List of tables that will be included. Others are ignored
	Only map[string][]string `yaml:"only"`
	// List of tables that will be should be ignored. Others are included
	Except map[string][]string `yaml:"except"`
	// How many tables to fetch in parallel
	Concurrency int `yaml:"concurrency"`
}

func Version() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		return info.Main.Version
	}

	return ""
}

// GetConfigFromFile loads the generation config from the top level of the
// file and the driver config from the driverConfigKey section.
// A missing file is not an error so a config can come from the environment,
// e.g. PSQL_DSN sets psql.dsn.
func GetConfigFromFile[DriverConfig any](configPath, driverConfigKey string) (gen.Config, DriverConfig, error) {
	var config gen.Config
	var driverConfig DriverConfig

	k := koanf.New(".")

	if err := k.Load(confmap.Provider(gen.Defaults(), "."), nil); err != nil {
		return config, driverConfig, fmt.Errorf("loading defaults: %w", err)
	}

	_, err := os.Stat(configPath)
	switch {
	case err == nil:
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return config, driverConfig, fmt.Errorf("loading config file %s: %w", configPath, err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return config, driverConfig, err
	}

	prefix := strings.ToUpper(driverConfigKey) + "_"
	if err := k.Load(env.Provider(prefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(s), "_", ".", 1)
	}), nil); err != nil {
		return config, driverConfig, fmt.Errorf("loading env: %w", err)
	}

	if err := k.UnmarshalWithConf("", &config, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
		return config, driverConfig, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := k.UnmarshalWithConf(driverConfigKey, &driverConfig, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
		return config, driverConfig, fmt.Errorf("unmarshaling %s config: %w", driverConfigKey, err)
	}

	return config, driverConfig, nil
}

// NewLogger builds the CLI logger. Logs go to stderr, debug logs only when verbose.
func NewLogger(verbose bool) (*zap.Logger, error) {
	config := zap.NewDevelopmentConfig()
	config.OutputPaths = []string{"stderr"}
	config.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)

	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	return config.Build()
}

// GetFreePort asks the kernel for a free open port that is ready to use.
func GetFreePort() (int, error) {
	addr, err := net.ResolveTCPAddr("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}

	l, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return 0, err
	}
	defer l.Close()

	return l.Addr().(*net.TCPAddr).Port, nil
}

// Migrate executes every file matching the pattern in lexical order
func Migrate(ctx context.Context, db *sql.DB, dir fs.FS, pattern string) error {
	matches, err := fs.Glob(dir, pattern)
	if err != nil {
		return fmt.Errorf("failed to glob: %w", err)
	}

	sort.Strings(matches)

	for _, filePath := range matches {
		content, err := fs.ReadFile(dir, filePath)
		if err != nil {
			return fmt.Errorf("failed to read file %s: %w", filePath, err)
		}

		if _, err := db.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("failed to execute %s: %w", filePath, err)
		}
	}

	return nil
}
