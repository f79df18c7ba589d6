package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

const (
	KeyReleaseOwner     = "release.owner"
	KeyReleaseRepo      = "release.repo"
	KeyReleaseAPIURL    = "release.api-url"
	KeyReleaseUserAgent = "release.user-agent"
	KeyReleaseToken     = "release.token"
	KeyReleaseTimeout   = "release.timeout"

	KeyPollStartupDelay = "poll.startup-delay"
	KeyPollInterval     = "poll.interval"

	KeyStatePath   = "state.path"
	KeyHistoryPath = "history.path"

	KeyLogLevel = "log.level"
	KeyLogJSON  = "log.json"
	KeyLogFile  = "log.file"
)

const (
	// Dir is the per-user and per-project configuration directory name.
	Dir        = ".relwatch"
	configName = "config.yaml"
	envPrefix  = "RW"

	DefaultAPIURL       = "https://api.github.com"
	DefaultUserAgent    = "relwatch-update-checker"
	DefaultTimeout      = 2 * time.Second
	DefaultStartupDelay = 5 * time.Minute
	DefaultInterval     = 24 * time.Hour
	defaultStateFile    = "latest-version"
)

type initSettings struct {
	workingDir        string
	projectConfigPath string
	userConfigPath    string
	homeDir           string
}

// Option configures Initialize behaviour. Useful for tests to override paths.
type Option func(*initSettings)

// WithWorkingDir overrides the directory used for project config and .env discovery.
func WithWorkingDir(dir string) Option {
	return func(cfg *initSettings) {
		cfg.workingDir = dir
	}
}

// WithProjectConfig explicitly sets the project config path instead of discovery.
func WithProjectConfig(path string) Option {
	return func(cfg *initSettings) {
		cfg.projectConfigPath = path
	}
}

// WithUserConfig overrides the default user config path.
func WithUserConfig(path string) Option {
	return func(cfg *initSettings) {
		cfg.userConfigPath = path
	}
}

// WithHomeDir overrides the home directory used for defaults and "~" expansion.
func WithHomeDir(dir string) Option {
	return func(cfg *initSettings) {
		cfg.homeDir = dir
	}
}

var (
	configOnce sync.Once
	configMu   sync.RWMutex
	configInst *viper.Viper
	configHome string
	initErr    error
)

// Initialize loads configuration using the precedence:
// defaults < user config < project config < .env < environment variables < overrides.
func Initialize(opts ...Option) error {
	configOnce.Do(func() {
		settings := initSettings{}
		for _, opt := range opts {
			opt(&settings)
		}
		initErr = configure(&settings)
	})
	return initErr
}

// ApplyOverrides injects values typically coming from CLI flags.
func ApplyOverrides(overrides map[string]any) error {
	if len(overrides) == 0 {
		return nil
	}
	if err := Initialize(); err != nil {
		return err
	}
	configMu.Lock()
	defer configMu.Unlock()
	if configInst == nil {
		return fmt.Errorf("configuration not initialized")
	}
	for k, v := range overrides {
		configInst.Set(k, v)
	}
	return nil
}

func configure(settings *initSettings) error {
	workingDir := strings.TrimSpace(settings.workingDir)
	if workingDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("determine working directory: %w", err)
		}
		workingDir = wd
	}

	home := strings.TrimSpace(settings.homeDir)
	if home == "" {
		h, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("determine user home: %w", err)
		}
		home = h
	}

	userConfigPath := strings.TrimSpace(settings.userConfigPath)
	if userConfigPath == "" {
		userConfigPath = filepath.Join(home, Dir, configName)
	}

	projectConfigPath := strings.TrimSpace(settings.projectConfigPath)
	if projectConfigPath == "" {
		path, err := findProjectConfig(workingDir)
		if err != nil {
			return err
		}
		projectConfigPath = path
	}

	// .env sits next to the project config; without one, look in the working dir.
	envBase := workingDir
	if projectConfigPath != "" && filepath.Base(filepath.Dir(projectConfigPath)) == Dir {
		envBase = filepath.Dir(filepath.Dir(projectConfigPath))
	}
	if err := LoadDotEnv(envBase); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v, home)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := mergeConfigFile(v, userConfigPath); err != nil {
		return fmt.Errorf("load user config: %w", err)
	}
	if err := mergeConfigFile(v, projectConfigPath); err != nil {
		return fmt.Errorf("load project config: %w", err)
	}

	configMu.Lock()
	defer configMu.Unlock()
	configInst = v
	configHome = home
	return nil
}

func mergeConfigFile(v *viper.Viper, path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("config path %s is a directory", path)
	}
	//nolint:gosec // G304: Config loader intentionally reads user and project config files
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := v.MergeConfig(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func findProjectConfig(startDir string) (string, error) {
	if strings.TrimSpace(startDir) == "" {
		return "", nil
	}
	dir := startDir
	for {
		candidate := filepath.Join(dir, Dir, configName)
		info, err := os.Stat(candidate)
		if err == nil {
			if info.IsDir() {
				return "", fmt.Errorf("config path %s is a directory", candidate)
			}
			return candidate, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("stat %s: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

func setDefaults(v *viper.Viper, home string) {
	v.SetDefault(KeyReleaseOwner, "")
	v.SetDefault(KeyReleaseRepo, "")
	v.SetDefault(KeyReleaseAPIURL, DefaultAPIURL)
	v.SetDefault(KeyReleaseUserAgent, DefaultUserAgent)
	v.SetDefault(KeyReleaseToken, "")
	v.SetDefault(KeyReleaseTimeout, DefaultTimeout)
	v.SetDefault(KeyPollStartupDelay, DefaultStartupDelay)
	v.SetDefault(KeyPollInterval, DefaultInterval)
	v.SetDefault(KeyStatePath, filepath.Join(home, Dir, defaultStateFile))
	v.SetDefault(KeyHistoryPath, "")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogJSON, false)
	v.SetDefault(KeyLogFile, "")
}

func getViper() (*viper.Viper, error) {
	if err := Initialize(); err != nil {
		return nil, err
	}
	configMu.RLock()
	defer configMu.RUnlock()
	if configInst == nil {
		return nil, fmt.Errorf("configuration not initialized")
	}
	return configInst, nil
}

// reset clears package state for tests.
//
//nolint:unused // Used in config_test.go
func reset() {
	configMu.Lock()
	defer configMu.Unlock()
	configInst = nil
	configHome = ""
	initErr = nil
	configOnce = sync.Once{}
}

// ResetForTesting clears package state for tests in other packages and
// initializes against an empty temp directory that doubles as home.
// Returns a cleanup function that should be deferred.
func ResetForTesting(t interface{ TempDir() string }) func() {
	reset()
	tmp := t.TempDir()
	_ = Initialize(WithWorkingDir(tmp), WithHomeDir(tmp))
	return reset
}
