package config

import (
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/spf13/viper"
)

const (
	EnvDev     = "dev"
	EnvStaging = "staging"
	EnvProd    = "prod"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

const (
	KindCommand = "command"
	KindProxy   = "proxy"
	KindStatic  = "static"
)

// EnvPrefix prefixes environment overrides, e.g. WIDGETS_SERVER_ADDRESS.
const EnvPrefix = "WIDGETS"

type ServerConfig struct {
	Address         string `mapstructure:"address" yaml:"address"`
	Environment     string `mapstructure:"environment" yaml:"environment"`
	MetricsAddress  string `mapstructure:"metrics_address" yaml:"metrics_address"`
	MaxConnections  int    `mapstructure:"max_connections" yaml:"max_connections"`
	ShutdownTimeout string `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

type WorkersConfig struct {
	PoolSize   int `mapstructure:"pool_size" yaml:"pool_size"`
	MaxPending int `mapstructure:"max_pending" yaml:"max_pending"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

type MainPageConfig struct {
	Path               string `mapstructure:"path" yaml:"path"`
	Title              string `mapstructure:"title" yaml:"title"`
	CacheMaxAgeSeconds int    `mapstructure:"cache_max_age_seconds" yaml:"cache_max_age_seconds"`
}

type ProxyConfig struct {
	Timeout          string `mapstructure:"timeout" yaml:"timeout"`
	FailureThreshold int    `mapstructure:"failure_threshold" yaml:"failure_threshold"`
	ResetTimeout     string `mapstructure:"reset_timeout" yaml:"reset_timeout"`
}

type DebugConfig struct {
	Enabled    bool   `mapstructure:"enabled" yaml:"enabled"`
	PathPrefix string `mapstructure:"path_prefix" yaml:"path_prefix"`
}

// RouteConfig is one configured widget. Which fields apply depends on Kind.
type RouteConfig struct {
	Path        string `mapstructure:"path" yaml:"path"`
	Kind        string `mapstructure:"kind" yaml:"kind"`
	APIPath     string `mapstructure:"api_path" yaml:"api_path,omitempty"`
	Description string `mapstructure:"description" yaml:"description,omitempty"`

	// command
	Command string   `mapstructure:"command" yaml:"command,omitempty"`
	Args    []string `mapstructure:"args" yaml:"args,omitempty"`
	Timeout string   `mapstructure:"timeout" yaml:"timeout,omitempty"`

	// proxy
	URL string `mapstructure:"url" yaml:"url,omitempty"`

	// static
	FSPath             string `mapstructure:"fs_path" yaml:"fs_path,omitempty"`
	ContentType        string `mapstructure:"content_type" yaml:"content_type,omitempty"`
	CacheMaxAgeSeconds int    `mapstructure:"cache_max_age_seconds" yaml:"cache_max_age_seconds,omitempty"`
	IncludeInMainPage  bool   `mapstructure:"include_in_main_page" yaml:"include_in_main_page,omitempty"`
}

type Config struct {
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Workers  WorkersConfig  `mapstructure:"workers" yaml:"workers"`
	Logging  LoggingConfig  `mapstructure:"logging" yaml:"logging"`
	MainPage MainPageConfig `mapstructure:"main_page" yaml:"main_page"`
	Proxy    ProxyConfig    `mapstructure:"proxy" yaml:"proxy"`
	Debug    DebugConfig    `mapstructure:"debug" yaml:"debug"`
	Routes   []RouteConfig  `mapstructure:"routes" yaml:"routes"`
}

func init() {
	// report validation errors under the configuration key names
	validation.ErrorTag = "mapstructure"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.environment", EnvDev)
	v.SetDefault("server.metrics_address", "")
	v.SetDefault("server.max_connections", 0)
	v.SetDefault("server.shutdown_timeout", "5s")
	v.SetDefault("workers.pool_size", 4)
	v.SetDefault("workers.max_pending", 64)
	v.SetDefault("logging.level", LogLevelInfo)
	v.SetDefault("main_page.path", "/")
	v.SetDefault("main_page.title", "Widget Server")
	v.SetDefault("main_page.cache_max_age_seconds", 60)
	v.SetDefault("proxy.timeout", "10s")
	v.SetDefault("proxy.failure_threshold", 5)
	v.SetDefault("proxy.reset_timeout", "30s")
	v.SetDefault("debug.enabled", true)
	v.SetDefault("debug.path_prefix", "/debug")
}

// Load reads the configuration from path, or from config.yaml in ./config
// or the working directory when path is empty. Environment variables
// prefixed with WIDGETS_ override file values.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Error("failed to read config file", slog.Any("err", err))
			return nil, fmt.Errorf("read config: %w", err)
		}
		slog.Warn("config file not found, using defaults and environment variables")
	} else {
		slog.Info("loaded config file", slog.String("file", v.ConfigFileUsed()))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		slog.Error("failed to unmarshal config", slog.Any("err", err))
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("err", err))
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.Server,
			validation.By(func(value interface{}) error {
				sc, ok := value.(ServerConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a ServerConfig")
				}
				return validation.ValidateStruct(&sc,
					validation.Field(&sc.Environment,
						validation.Required,
						validation.In(EnvDev, EnvStaging, EnvProd),
					),
					validation.Field(&sc.Address,
						validation.Required,
						validation.By(validateHostPort),
					),
					validation.Field(&sc.MetricsAddress,
						validation.By(validateHostPort),
					),
					validation.Field(&sc.MaxConnections,
						validation.Min(0),
					),
					validation.Field(&sc.ShutdownTimeout,
						validation.Required,
						validation.By(validateDuration),
					),
				)
			}),
		),
		validation.Field(&c.Workers,
			validation.By(func(value interface{}) error {
				wc, ok := value.(WorkersConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a WorkersConfig")
				}
				return validation.ValidateStruct(&wc,
					validation.Field(&wc.PoolSize,
						validation.Required,
						validation.Min(1),
					),
					validation.Field(&wc.MaxPending,
						validation.Required,
						validation.Min(wc.PoolSize).Error("must be no less than pool_size"),
					),
				)
			}),
		),
		validation.Field(&c.Logging,
			validation.By(func(value interface{}) error {
				lc, ok := value.(LoggingConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a LoggingConfig")
				}
				return validation.ValidateStruct(&lc,
					validation.Field(&lc.Level,
						validation.Required,
						validation.In(LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError),
					),
				)
			}),
		),
		validation.Field(&c.MainPage,
			validation.By(func(value interface{}) error {
				mc, ok := value.(MainPageConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a MainPageConfig")
				}
				return validation.ValidateStruct(&mc,
					validation.Field(&mc.Path,
						validation.Required,
						validation.By(validateRoutePath),
					),
					validation.Field(&mc.Title,
						validation.Required,
					),
					validation.Field(&mc.CacheMaxAgeSeconds,
						validation.Min(0),
					),
				)
			}),
		),
		validation.Field(&c.Proxy,
			validation.By(func(value interface{}) error {
				pc, ok := value.(ProxyConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a ProxyConfig")
				}
				return validation.ValidateStruct(&pc,
					validation.Field(&pc.Timeout,
						validation.By(validateDuration),
					),
					validation.Field(&pc.FailureThreshold,
						validation.Required,
						validation.Min(1),
					),
					validation.Field(&pc.ResetTimeout,
						validation.Required,
						validation.By(validateDuration),
					),
				)
			}),
		),
		validation.Field(&c.Debug,
			validation.By(func(value interface{}) error {
				dc, ok := value.(DebugConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a DebugConfig")
				}
				return validation.ValidateStruct(&dc,
					validation.Field(&dc.PathPrefix,
						validation.When(dc.Enabled, validation.Required, validation.By(validateRoutePath)),
					),
				)
			}),
		),
		validation.Field(&c.Routes,
			validation.Each(validation.By(validateRouteConfig)),
		),
	)
	if err != nil {
		return err
	}

	return c.validateUniquePaths()
}

// validateUniquePaths rejects any HTTP path claimed twice.
func (c *Config) validateUniquePaths() error {
	seen := make(map[string]string)
	errs := validation.Errors{}

	claim := func(path, owner string) {
		if prev, ok := seen[path]; ok {
			errs[owner] = validation.NewError("validation_duplicate_path",
				fmt.Sprintf("path %q already used by %s", path, prev))
			return
		}
		seen[path] = owner
	}

	claim(c.MainPage.Path, "main_page.path")
	for _, path := range c.DebugPaths() {
		claim(path, "debug.path_prefix")
	}
	for i, r := range c.Routes {
		claim(r.Path, fmt.Sprintf("routes[%d].path", i))
		if r.APIPath != "" {
			claim(r.APIPath, fmt.Sprintf("routes[%d].api_path", i))
		}
	}

	return errs.Filter()
}

// DebugPaths returns the diagnostic paths served when debug is enabled.
func (c *Config) DebugPaths() []string {
	if !c.Debug.Enabled {
		return nil
	}

	prefix := strings.TrimSuffix(c.Debug.PathPrefix, "/")
	return []string{
		prefix + "/config",
		prefix + "/environment",
		prefix + "/metrics",
	}
}

// RoutesOfKind returns the configured routes of the given kind in file order.
func (c *Config) RoutesOfKind(kind string) []RouteConfig {
	var routes []RouteConfig
	for _, r := range c.Routes {
		if r.Kind == kind {
			routes = append(routes, r)
		}
	}
	return routes
}

// ShutdownTimeoutDuration returns the parsed shutdown timeout.
func (s ServerConfig) ShutdownTimeoutDuration() time.Duration {
	return parseDuration(s.ShutdownTimeout)
}

func (p ProxyConfig) TimeoutDuration() time.Duration {
	return parseDuration(p.Timeout)
}

func (p ProxyConfig) ResetTimeoutDuration() time.Duration {
	return parseDuration(p.ResetTimeout)
}

// TimeoutDuration returns the command timeout, 0 when unset.
func (r RouteConfig) TimeoutDuration() time.Duration {
	return parseDuration(r.Timeout)
}

// parseDuration expects a value that passed validateDuration.
func parseDuration(s string) time.Duration {
	if s == "" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}

func validateRouteConfig(value interface{}) error {
	rc, ok := value.(RouteConfig)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a RouteConfig")
	}

	return validation.ValidateStruct(&rc,
		validation.Field(&rc.Path,
			validation.Required,
			validation.By(validateRoutePath),
		),
		validation.Field(&rc.Kind,
			validation.Required,
			validation.In(KindCommand, KindProxy, KindStatic),
		),
		validation.Field(&rc.APIPath,
			validation.When(rc.Kind == KindStatic, validation.Empty.Error("is not supported for static routes")),
			validation.By(validateRoutePath),
		),
		validation.Field(&rc.Command,
			validation.When(rc.Kind == KindCommand, validation.Required),
		),
		validation.Field(&rc.Timeout,
			validation.By(validateDuration),
		),
		validation.Field(&rc.URL,
			validation.When(rc.Kind == KindProxy, validation.Required, validation.By(validateServerURL)),
		),
		validation.Field(&rc.FSPath,
			validation.When(rc.Kind == KindStatic, validation.Required),
		),
		validation.Field(&rc.CacheMaxAgeSeconds,
			validation.Min(0),
		),
	)
}

func validateRoutePath(value interface{}) error {
	path, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	if path == "" {
		return nil
	}

	if !strings.HasPrefix(path, "/") {
		return validation.NewError("validation_invalid_path", "must start with /")
	}

	if strings.ContainsAny(path, "?# ") {
		return validation.NewError("validation_invalid_path", "must not contain a query, fragment or spaces")
	}

	return nil
}

func validateHostPort(value interface{}) error {
	addr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	if addr == "" {
		return nil
	}

	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return validation.NewError("validation_invalid_hostport", "must be in host:port format")
	}

	if port == "" {
		return validation.NewError("validation_invalid_port", "port cannot be empty")
	}

	if host != "" {
		if err := is.Host.Validate(host); err != nil {
			return validation.NewError("validation_invalid_host", "invalid host")
		}
	}

	return nil
}

func validateDuration(value interface{}) error {
	durationStr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	if durationStr == "" {
		return nil
	}

	d, err := time.ParseDuration(durationStr)
	if err != nil {
		return validation.NewError("validation_invalid_duration", "must be a valid duration (e.g., 2s, 5m, 1h)")
	}

	if d < 0 {
		return validation.NewError("validation_negative_duration", "must not be negative")
	}

	return nil
}

func validateServerURL(value interface{}) error {
	serverURL, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	if serverURL == "" {
		return nil
	}

	parsedURL, err := url.Parse(serverURL)
	if err != nil {
		return validation.NewError("validation_invalid_url", "must be a valid URL")
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return validation.NewError("validation_invalid_scheme", "URL must use http or https scheme")
	}

	if parsedURL.Host == "" {
		return validation.NewError("validation_missing_host", "URL must have a host")
	}

	return nil
}
