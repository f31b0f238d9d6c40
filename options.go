package classkema

import (
	"errors"
	"fmt"

	"github.com/joeshaw/envdecode"

	"github.com/reoring/classkema/i18n"
	"github.com/reoring/classkema/rule"
)

// CallOption overrides one validation option for a single call. Options a
// call does not set keep the validator's defaults.
type CallOption func(*rule.Options)

// WithPresence sets the presence applied to properties that do not declare
// their own; rule.PresenceRequired forces every such property.
func WithPresence(p rule.Presence) CallOption {
	return func(o *rule.Options) { o.Presence = p }
}

// WithConvert toggles type coercion.
func WithConvert(enabled bool) CallOption {
	return func(o *rule.Options) { o.Convert = enabled }
}

// WithAbortEarly toggles stopping at the first issue.
func WithAbortEarly(enabled bool) CallOption {
	return func(o *rule.Options) { o.AbortEarly = enabled }
}

// WithAllowUnknown toggles accepting undeclared keys.
func WithAllowUnknown(enabled bool) CallOption {
	return func(o *rule.Options) { o.AllowUnknown = enabled }
}

// WithStripUnknown toggles removing undeclared keys from the result value.
func WithStripUnknown(enabled bool) CallOption {
	return func(o *rule.Options) { o.StripUnknown = enabled }
}

// WithRuleOptions replaces every option at once.
func WithRuleOptions(opts rule.Options) CallOption {
	return func(o *rule.Options) { *o = opts }
}

func applyCallOptions(base rule.Options, opts []CallOption) rule.Options {
	for _, fn := range opts {
		if fn != nil {
			fn(&base)
		}
	}
	return base
}

// Config holds the default validation options read from the environment.
//
//	CLASSKEMA_PRESENCE       optional | required | forbidden (default optional)
//	CLASSKEMA_CONVERT        default true
//	CLASSKEMA_ABORT_EARLY    default true
//	CLASSKEMA_ALLOW_UNKNOWN  default false
//	CLASSKEMA_STRIP_UNKNOWN  default false
//	CLASSKEMA_LANG           message language, en or ja (default en)
type Config struct {
	Presence     string `env:"CLASSKEMA_PRESENCE,default=optional"`
	Convert      bool   `env:"CLASSKEMA_CONVERT,default=true,strict"`
	AbortEarly   bool   `env:"CLASSKEMA_ABORT_EARLY,default=true,strict"`
	AllowUnknown bool   `env:"CLASSKEMA_ALLOW_UNKNOWN,strict"`
	StripUnknown bool   `env:"CLASSKEMA_STRIP_UNKNOWN,strict"`
	Language     string `env:"CLASSKEMA_LANG,default=en"`
}

// LoadConfig reads Config from CLASSKEMA_* variables.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Config{}, fmt.Errorf("classkema: load config: %w", err)
	}
	return cfg, nil
}

// Options converts the configuration into rule options.
func (c Config) Options() (rule.Options, error) {
	p, err := rule.ParsePresence(c.Presence)
	if err != nil {
		return rule.Options{}, fmt.Errorf("classkema: CLASSKEMA_PRESENCE: %w", err)
	}
	return rule.Options{
		Presence:     p,
		Convert:      c.Convert,
		AbortEarly:   c.AbortEarly,
		AllowUnknown: c.AllowUnknown,
		StripUnknown: c.StripUnknown,
	}, nil
}

// OptionsFromEnv loads Config, selects its message language and returns its
// options, ready for WithDefaults.
func OptionsFromEnv() (rule.Options, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return rule.Options{}, err
	}
	opts, err := cfg.Options()
	if err != nil {
		return rule.Options{}, err
	}
	if cfg.Language != "" {
		i18n.SetLanguage(cfg.Language)
	}
	return opts, nil
}
