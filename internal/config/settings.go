package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	apperrors "relwatch/internal/errors"
)

// Settings is the validated, typed view of the configuration.
type Settings struct {
	Owner     string
	Repo      string
	APIURL    string
	UserAgent string
	Token     string
	Timeout   time.Duration

	StartupDelay time.Duration
	Interval     time.Duration

	StatePath   string
	HistoryPath string

	LogLevel string
	LogJSON  bool
	LogFile  string
}

// Load reads the current configuration into Settings and validates it.
// Every failure carries CodeConfigurationError.
func Load() (Settings, error) {
	v, err := getViper()
	if err != nil {
		return Settings{}, apperrors.New(apperrors.CodeConfigurationError, "load configuration", err)
	}

	configMu.RLock()
	home := configHome
	configMu.RUnlock()

	s := Settings{
		Owner:        strings.TrimSpace(v.GetString(KeyReleaseOwner)),
		Repo:         strings.TrimSpace(v.GetString(KeyReleaseRepo)),
		APIURL:       strings.TrimRight(strings.TrimSpace(v.GetString(KeyReleaseAPIURL)), "/"),
		UserAgent:    strings.TrimSpace(v.GetString(KeyReleaseUserAgent)),
		Token:        strings.TrimSpace(v.GetString(KeyReleaseToken)),
		Timeout:      v.GetDuration(KeyReleaseTimeout),
		StartupDelay: v.GetDuration(KeyPollStartupDelay),
		Interval:     v.GetDuration(KeyPollInterval),
		StatePath:    expandHome(v.GetString(KeyStatePath), home),
		HistoryPath:  expandHome(v.GetString(KeyHistoryPath), home),
		LogLevel:     strings.TrimSpace(v.GetString(KeyLogLevel)),
		LogJSON:      v.GetBool(KeyLogJSON),
		LogFile:      expandHome(v.GetString(KeyLogFile), home),
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate reports every invalid field at once.
func (s Settings) Validate() error {
	var problems []error
	if s.Owner == "" {
		problems = append(problems, fmt.Errorf("%s is required", KeyReleaseOwner))
	}
	if s.Repo == "" {
		problems = append(problems, fmt.Errorf("%s is required", KeyReleaseRepo))
	}
	if s.APIURL == "" {
		problems = append(problems, fmt.Errorf("%s is required", KeyReleaseAPIURL))
	}
	if s.Timeout <= 0 {
		problems = append(problems, fmt.Errorf("%s must be positive, got %s", KeyReleaseTimeout, s.Timeout))
	}
	if s.StartupDelay < 0 {
		problems = append(problems, fmt.Errorf("%s must not be negative, got %s", KeyPollStartupDelay, s.StartupDelay))
	}
	if s.Interval <= 0 {
		problems = append(problems, fmt.Errorf("%s must be positive, got %s", KeyPollInterval, s.Interval))
	}
	if s.StatePath == "" {
		problems = append(problems, fmt.Errorf("%s is required", KeyStatePath))
	}
	if len(problems) == 0 {
		return nil
	}
	return apperrors.New(apperrors.CodeConfigurationError, "invalid configuration", errors.Join(problems...))
}

// Repository returns "owner/repo".
func (s Settings) Repository() string {
	return s.Owner + "/" + s.Repo
}

func expandHome(path, home string) string {
	path = strings.TrimSpace(path)
	if home == "" {
		return path
	}
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}
