package settings

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/andrescamacho/shippingmanager-go/internal/application/common"
	domainSettings "github.com/andrescamacho/shippingmanager-go/internal/domain/settings"
)

// Compile-time interface check
var _ domainSettings.Provider = (*Store)(nil)

// ErrUnknownSetting is returned by Apply for keys the settings file does not have
var ErrUnknownSetting = errors.New("unknown setting")

// Store owns the operator settings file. Reads are lock-free: Current
// returns a copy of the last configuration that passed validation.
type Store struct {
	path     string
	v        *viper.Viper
	validate *validator.Validate
	logger   common.Logger

	// mu serializes viper access; viper itself is not safe for concurrent use
	mu      sync.Mutex
	current atomic.Pointer[domainSettings.Configuration]

	listenersMu sync.RWMutex
	listeners   []func(domainSettings.Configuration)
}

// Open loads the settings file at path, creating it with defaults when it
// does not exist. JSON or YAML is chosen by the file extension.
func Open(path string, logger common.Logger) (*Store, error) {
	if logger == nil {
		logger = common.LoggerFromContext(context.Background())
	}

	v := fileViper(path)
	s := &Store{
		path:     path,
		v:        v,
		validate: validator.New(),
		logger:   logger,
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create settings directory: %w", err)
		}
		if err := v.WriteConfigAs(path); err != nil {
			return nil, fmt.Errorf("failed to write default settings: %w", err)
		}
		logger.Log(common.LevelInfo, fmt.Sprintf("Created settings file %s with defaults", path), nil)
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	cfg, err := s.decode()
	if err != nil {
		return nil, err
	}
	s.current.Store(&cfg)

	return s, nil
}

// Current returns a copy of the active settings
func (s *Store) Current() domainSettings.Configuration {
	return *s.current.Load()
}

// Path returns the settings file location
func (s *Store) Path() string {
	return s.path
}

// OnChange registers fn to run after every successful reload or Apply
func (s *Store) OnChange(fn func(domainSettings.Configuration)) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Watch reloads the file whenever it changes on disk. A file that fails
// validation is reported and the previous settings stay active.
func (s *Store) Watch() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.v.OnConfigChange(func(e fsnotify.Event) {
		if err := s.Reload(); err != nil {
			s.logger.Log(common.LevelWarn, fmt.Sprintf("Ignoring settings change: %v", err), map[string]interface{}{
				"path": e.Name,
			})
			return
		}
		s.logger.Log(common.LevelInfo, "Settings reloaded", map[string]interface{}{"path": e.Name})
	})
	s.v.WatchConfig()
}

// Reload re-reads the file and swaps in the result if it is valid. The file
// is read on a scratch viper, so an invalid edit leaves no trace in the store.
func (s *Store) Reload() error {
	next := fileViper(s.path)
	if err := next.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read settings file: %w", err)
	}
	cfg, err := s.decodeFrom(next)
	if err != nil {
		return err
	}

	s.swap(cfg)
	return nil
}

// Apply sets the given keys, validates the result and persists it.
// Nothing is written unless every key is known and the result is valid.
func (s *Store) Apply(updates map[string]string) (domainSettings.Configuration, error) {
	known := defaultValues()
	for key := range updates {
		if _, ok := known[strings.ToLower(key)]; !ok {
			return s.Current(), fmt.Errorf("%w %q (known: %s)", ErrUnknownSetting, key, strings.Join(Keys(), ", "))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Edits start from the last valid settings, never from whatever is on disk
	next := viper.New()
	for key, value := range valuesOf(s.Current()) {
		next.Set(key, value)
	}
	for key, value := range updates {
		next.Set(strings.ToLower(key), value)
	}

	cfg, err := s.decodeFrom(next)
	if err != nil {
		return s.Current(), err
	}

	// Write typed values, not the raw strings from the command line
	out := viper.New()
	for key, value := range valuesOf(cfg) {
		out.Set(key, value)
	}
	if err := out.WriteConfigAs(s.path); err != nil {
		return s.Current(), fmt.Errorf("failed to save settings: %w", err)
	}

	s.swap(cfg)
	return cfg, nil
}

// decode unmarshals and validates the store's own viper; callers hold mu
func (s *Store) decode() (domainSettings.Configuration, error) {
	return s.decodeFrom(s.v)
}

// fileViper reads path with every missing key falling back to its default
func fileViper(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(path)
	for key, value := range defaultValues() {
		v.SetDefault(key, value)
	}
	return v
}

func (s *Store) decodeFrom(v *viper.Viper) (domainSettings.Configuration, error) {
	var cfg domainSettings.Configuration
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse settings: %w", err)
	}
	if err := s.validate.Struct(cfg); err != nil {
		return cfg, fmt.Errorf("invalid settings: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid settings: %w", err)
	}
	return cfg, nil
}

func (s *Store) swap(cfg domainSettings.Configuration) {
	s.current.Store(&cfg)

	s.listenersMu.RLock()
	listeners := append([]func(domainSettings.Configuration){}, s.listeners...)
	s.listenersMu.RUnlock()

	for _, fn := range listeners {
		fn(cfg)
	}
}

// Keys lists the setting names accepted by Apply, sorted
func Keys() []string {
	keys := make([]string, 0, 8)
	for key := range defaultValues() {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func defaultValues() map[string]interface{} {
	return valuesOf(domainSettings.Default())
}

func valuesOf(d domainSettings.Configuration) map[string]interface{} {
	return map[string]interface{}{
		"fuel_mode":      string(d.FuelMode),
		"fuel_threshold": d.FuelThresholdPrice,
		"fuel_min_cash":  d.FuelMinCashReserve,
		"co2_mode":       string(d.CO2Mode),
		"co2_threshold":  d.CO2ThresholdPrice,
		"co2_min_cash":   d.CO2MinCashReserve,
		"auto_depart":    d.AutoDepart,
		"check_interval": d.CheckIntervalSeconds,
	}
}
