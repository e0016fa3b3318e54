package internal

import "github.com/starford/babilon/internal/gateway"

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config  *Config
	gateway gateway.Gateway
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithGateway replaces the content gateway the config would build.
func WithGateway(gw gateway.Gateway) Option {
	return func(a *application) {
		a.gateway = gw
	}
}
