package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/viper"

	"github.com/angeloszaimis/region-probe/internal/domain"
	"github.com/angeloszaimis/region-probe/internal/egress"
	"github.com/angeloszaimis/region-probe/internal/probe"
	"github.com/angeloszaimis/region-probe/internal/reachability"
	"github.com/angeloszaimis/region-probe/internal/rules"
	"github.com/angeloszaimis/region-probe/internal/transport"
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

// DefaultExcludeDomains are infrastructure domains never worth probing.
var DefaultExcludeDomains = []string{
	"apple.com",
	"icloud.com",
	"google.com",
	"googleapis.com",
	"gstatic.com",
	"cloudflare.com",
	"akamai.net",
	"cdn.jsdelivr.net",
	"cdnjs.cloudflare.com",
	"github.com",
	"githubusercontent.com",
}

// DefaultFallbackDomains is probed when no domains are given.
var DefaultFallbackDomains = []string{
	"binance.com",
	"api.binance.com",
	"api1.binance.com",
	"api2.binance.com",
	"api3.binance.com",
	"stream.binance.com",
	"fstream.binance.com",
	"bnbstatic.com",
	"bin.bnbstatic.com",
	"coinbase.com",
	"pro.coinbase.com",
	"kraken.com",
	"bitfinex.com",
	"huobi.com",
	"okx.com",
	"bybit.com",
	"gate.io",
	"kucoin.com",
	"crypto.com",
	"gemini.com",
	"bittrex.com",
	"poloniex.com",
	"uniswap.org",
	"app.uniswap.org",
	"pancakeswap.finance",
	"sushi.com",
	"opensea.io",
	"rarible.com",
	"blur.io",
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

type NodeConfig struct {
	Name string `mapstructure:"name"`
	URL  string `mapstructure:"url"`
}

type EgressConfig struct {
	Primary   string       `mapstructure:"primary"`
	Secondary string       `mapstructure:"secondary"`
	Direct    string       `mapstructure:"direct"`
	Nodes     []NodeConfig `mapstructure:"nodes"`
}

type ProbeConfig struct {
	Timeout        string   `mapstructure:"timeout"`
	Interval       string   `mapstructure:"interval"`
	SurveyInterval string   `mapstructure:"survey_interval"`
	MaxDomains     int      `mapstructure:"max_domains"`
	ProgressEvery  int      `mapstructure:"progress_every"`
	MinBodyBytes   int      `mapstructure:"min_body_bytes"`
	MaxBodyBytes   int64    `mapstructure:"max_body_bytes"`
	BlockKeywords  []string `mapstructure:"block_keywords"`
	ExcludeDomains []string `mapstructure:"exclude_domains"`
}

type DomainsConfig struct {
	UseFallback bool     `mapstructure:"use_fallback"`
	Fallback    []string `mapstructure:"fallback"`
}

type RulesConfig struct {
	Verb   string `mapstructure:"verb"`
	Target string `mapstructure:"target"`
}

type Config struct {
	Environment string        `mapstructure:"environment"`
	Logging     LoggingConfig `mapstructure:"logging"`
	Egress      EgressConfig  `mapstructure:"egress"`
	Probe       ProbeConfig   `mapstructure:"probe"`
	Domains     DomainsConfig `mapstructure:"domains"`
	Rules       RulesConfig   `mapstructure:"rules"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", EnvDev)
	v.SetDefault("logging.level", LogLevelInfo)

	v.SetDefault("egress.primary", "US")
	v.SetDefault("egress.secondary", "Japan")
	v.SetDefault("egress.direct", egress.Direct.String())
	v.SetDefault("egress.nodes", []map[string]any{
		{"name": "US", "url": "socks5://127.0.0.1:1080"},
		{"name": "Japan", "url": "socks5://127.0.0.1:1081"},
	})

	v.SetDefault("probe.timeout", probe.DefaultTimeout.String())
	v.SetDefault("probe.interval", probe.DefaultInterval.String())
	v.SetDefault("probe.survey_interval", probe.DefaultSurveyInterval.String())
	v.SetDefault("probe.max_domains", 50)
	v.SetDefault("probe.progress_every", probe.DefaultProgressEvery)
	v.SetDefault("probe.min_body_bytes", reachability.DefaultMinBodySize)
	v.SetDefault("probe.max_body_bytes", transport.DefaultMaxBodyBytes)
	v.SetDefault("probe.block_keywords", reachability.DefaultKeywords)
	v.SetDefault("probe.exclude_domains", DefaultExcludeDomains)

	v.SetDefault("domains.use_fallback", true)
	v.SetDefault("domains.fallback", DefaultFallbackDomains)

	v.SetDefault("rules.verb", rules.DefaultVerb)
	v.SetDefault("rules.target", "")
}

// Load reads configuration from path, or from config.yaml in ./config or the
// working directory when path is empty. Environment variables override file
// values, with dots replaced by underscores (PROBE_TIMEOUT, EGRESS_PRIMARY).
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

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			slog.Error("failed to read config file", slog.String("error", err.Error()))
			return nil, err
		}
		slog.Debug("config file not found, using defaults and environment variables")
	} else {
		slog.Debug("loaded config file", slog.String("file", v.ConfigFileUsed()))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		slog.Error("failed to unmarshal config", slog.String("error", err.Error()))
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Environment,
			validation.Required,
			validation.In(EnvDev, EnvStaging, EnvProd),
		),
		validation.Field(&c.Logging,
			validation.Required,
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
		validation.Field(&c.Egress,
			validation.Required,
			validation.By(validateEgressConfig),
		),
		validation.Field(&c.Probe,
			validation.Required,
			validation.By(func(value interface{}) error {
				pc, ok := value.(ProbeConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a ProbeConfig")
				}
				return validation.ValidateStruct(&pc,
					validation.Field(&pc.Timeout, validation.Required, validation.By(validatePositiveDuration)),
					validation.Field(&pc.Interval, validation.Required, validation.By(validateDuration)),
					validation.Field(&pc.SurveyInterval, validation.Required, validation.By(validateDuration)),
					validation.Field(&pc.MaxDomains, validation.Required, validation.Min(1)),
					validation.Field(&pc.ProgressEvery, validation.Required, validation.Min(1)),
					validation.Field(&pc.MinBodyBytes, validation.Required, validation.Min(1)),
					validation.Field(&pc.MaxBodyBytes, validation.Required, validation.Min(int64(1))),
					validation.Field(&pc.BlockKeywords, validation.Each(validation.Required)),
				)
			}),
		),
		validation.Field(&c.Rules,
			validation.By(func(value interface{}) error {
				rc, ok := value.(RulesConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a RulesConfig")
				}
				return validation.ValidateStruct(&rc,
					validation.Field(&rc.Verb, validation.Required, validation.By(validateNoComma)),
					validation.Field(&rc.Target, validation.By(validateNoComma)),
				)
			}),
		),
	)
}

func validateEgressConfig(value interface{}) error {
	ec, ok := value.(EgressConfig)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be an EgressConfig")
	}

	known := map[string]bool{ec.Direct: true}
	for _, n := range ec.Nodes {
		known[n.Name] = true
	}
	isKnown := validation.By(func(value interface{}) error {
		name, _ := value.(string)
		if !known[name] {
			return validation.NewError("validation_unknown_egress", "must be the direct egress or a configured node")
		}
		return nil
	})

	return validation.ValidateStruct(&ec,
		validation.Field(&ec.Direct, validation.Required, validation.By(validateNoComma)),
		validation.Field(&ec.Primary, validation.Required, isKnown),
		validation.Field(&ec.Secondary,
			validation.Required,
			isKnown,
			validation.NotIn(ec.Primary).Error("must differ from the primary egress"),
		),
		validation.Field(&ec.Nodes,
			validation.Each(validation.By(validateNodeConfig)),
			validation.By(uniqueNodeNames(ec.Direct)),
		),
	)
}

// uniqueNodeNames rejects node names that repeat or shadow the direct egress.
func uniqueNodeNames(direct string) validation.RuleFunc {
	return func(value interface{}) error {
		nodes, _ := value.([]NodeConfig)
		seen := map[string]bool{direct: true}
		for _, n := range nodes {
			if seen[n.Name] {
				return validation.NewError("validation_duplicate_egress", fmt.Sprintf("egress name %q is used more than once", n.Name))
			}
			seen[n.Name] = true
		}
		return nil
	}
}

func validateNodeConfig(value interface{}) error {
	node, ok := value.(NodeConfig)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a NodeConfig")
	}

	if node.Name == "" {
		return validation.NewError("validation_empty_name", "node name cannot be empty")
	}

	if _, err := egress.ParseProxyURL(node.URL); err != nil {
		return validation.NewError("validation_invalid_proxy", fmt.Sprintf("node %s: %v", node.Name, err))
	}

	return nil
}

func validateDuration(value interface{}) error {
	durationStr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
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

func validatePositiveDuration(value interface{}) error {
	if err := validateDuration(value); err != nil {
		return err
	}
	if d, _ := time.ParseDuration(value.(string)); d == 0 {
		return validation.NewError("validation_zero_duration", "must be greater than zero")
	}
	return nil
}

func validateNoComma(value interface{}) error {
	s, _ := value.(string)
	if strings.Contains(s, ",") {
		return validation.NewError("validation_comma", "must not contain a comma")
	}
	return nil
}

// Registry builds the egress registry from the configured nodes.
func (c *Config) Registry() (*egress.Registry, error) {
	r := egress.NewRegistry(egress.Egress(c.Egress.Direct))
	for _, n := range c.Egress.Nodes {
		if err := r.Add(egress.Egress(n.Name), n.URL); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// ProbeSettings converts the probe section into the coordinator's settings.
func (c *Config) ProbeSettings() (probe.Config, error) {
	timeout, err := time.ParseDuration(c.Probe.Timeout)
	if err != nil {
		return probe.Config{}, fmt.Errorf("probe.timeout: %w", err)
	}
	interval, err := time.ParseDuration(c.Probe.Interval)
	if err != nil {
		return probe.Config{}, fmt.Errorf("probe.interval: %w", err)
	}
	survey, err := time.ParseDuration(c.Probe.SurveyInterval)
	if err != nil {
		return probe.Config{}, fmt.Errorf("probe.survey_interval: %w", err)
	}

	return probe.Config{
		Primary:        egress.Egress(c.Egress.Primary),
		Secondary:      egress.Egress(c.Egress.Secondary),
		Timeout:        timeout,
		Interval:       interval,
		SurveyInterval: survey,
		ProgressEvery:  c.Probe.ProgressEvery,
	}, nil
}

func (c *Config) Classifier() *reachability.Classifier {
	return reachability.New(c.Probe.BlockKeywords, c.Probe.MinBodyBytes)
}

// DomainSource combines manually supplied domains with the configured
// fallback list and cap.
func (c *Config) DomainSource(manual []string) domain.Source {
	return domain.Source{
		Manual:      manual,
		Fallback:    c.Domains.Fallback,
		UseFallback: c.Domains.UseFallback,
		Max:         c.Probe.MaxDomains,
	}
}

// RuleTarget is the policy name written into rules, defaulting to the
// secondary egress.
func (c *Config) RuleTarget() string {
	if c.Rules.Target != "" {
		return c.Rules.Target
	}
	return c.Egress.Secondary
}
