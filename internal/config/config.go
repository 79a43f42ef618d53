// Package config defines the necessary types to configure the application.
// An example config file config.yaml is provided in the repository.
package config

import (
	"strings"
	"time"

	"github.com/openkcm/common-sdk/pkg/commoncfg"
)

// CallbackPath is the fixed path the provider redirects back to. The full
// redirect URI is always derived from the configured base URL.
const CallbackPath = "/lucid/auth/callback"

type Config struct {
	commoncfg.BaseConfig `mapstructure:",squash" yaml:",inline"`

	HTTP HTTPServer `yaml:"http"`

	ValKey   ValKey   `yaml:"valkey"`
	OAuth    OAuth    `yaml:"oauth"`
	Session  Session  `yaml:"session"`
	Routes   Routes   `yaml:"routes"`
	Upstream Upstream `yaml:"upstream"`
}

type HTTPServer struct {
	Address         string        `yaml:"address" default:":8080"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" default:"5s"`
}

type ValKey struct {
	Host     commoncfg.SourceRef `yaml:"host"`
	User     commoncfg.SourceRef `yaml:"user"`
	Password commoncfg.SourceRef `yaml:"password"`
	Prefix   string              `yaml:"prefix"`

	// DialTimeout bounds the startup connect+ping before the gateway
	// falls back to the ephemeral store.
	DialTimeout time.Duration `yaml:"dialTimeout" default:"5s"`
}

type OAuth struct {
	ClientID     commoncfg.SourceRef `yaml:"clientID"`
	ClientSecret commoncfg.SourceRef `yaml:"clientSecret"`

	// BaseURL is the externally visible base of this gateway, used to
	// derive the OAuth redirect URI.
	BaseURL string `yaml:"baseURL"`
}

// RedirectURI derives the callback URI from the base URL with the
// trailing slash stripped.
func (o OAuth) RedirectURI() string {
	return strings.TrimRight(o.BaseURL, "/") + CallbackPath
}

type Session struct {
	Duration      time.Duration `yaml:"duration" default:"24h"`
	StateDuration time.Duration `yaml:"stateDuration" default:"15m"`

	// AllowUnverifiedState switches the callback to the forgiving state
	// policy; sessions created without a verified state are flagged as
	// low assurance.
	AllowUnverifiedState bool `yaml:"allowUnverifiedState"`

	Cookie CookieTemplate `yaml:"cookie"`
}

type Routes struct {
	// File optionally replaces the built-in protection rule table with a
	// YAML rules file.
	File string `yaml:"file"`
}

type Upstream struct {
	// URL of the fronted site everything outside the auth surface is
	// proxied to. When empty the gateway serves an auth-context echo
	// instead.
	URL string `yaml:"url"`
}
