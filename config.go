package webmetrics

import (
	"path"
	"strings"
)

// Config holds the switches of the HTTP instrumentation. It is decoded from
// the environment with envdecode and consumed once, when the instrumentation
// points are built.
type Config struct {
	// Enabled turns all HTTP instrumentation on or off.
	Enabled bool `env:"METRICS_HTTP_ENABLED,default=true"`

	ServerEnabled bool `env:"METRICS_HTTP_SERVER_ENABLED,default=true"`
	ClientEnabled bool `env:"METRICS_HTTP_CLIENT_ENABLED,default=true"`

	// ReportClientErrorURIs keeps the route template as uri tag of 4xx
	// server responses. When false they are bucketed into UNAUTHORIZED and
	// BAD_REQUEST. Client exchanges always keep their template.
	ReportClientErrorURIs bool `env:"METRICS_HTTP_CLIENT_ERRORS_URIS_ENABLED,default=true"`

	// ServerPaths and ClientPaths restrict instrumentation to request paths
	// matching one of the patterns. See PathPatterns.
	ServerPaths []string `env:"METRICS_HTTP_SERVER_PATH,default=/**"`
	ClientPaths []string `env:"METRICS_HTTP_CLIENT_PATH,default=/**"`

	// TagKeys, when set, is the allow-list of tag keys reported to the
	// metrics backend.
	TagKeys []string `env:"METRICS_HTTP_TAG_KEYS"`
}

// DefaultConfig returns the configuration used when the environment sets
// nothing.
func DefaultConfig() Config {
	return Config{
		Enabled:               true,
		ServerEnabled:         true,
		ClientEnabled:         true,
		ReportClientErrorURIs: true,
		ServerPaths:           []string{"/**"},
		ClientPaths:           []string{"/**"},
	}
}

// ServerActive reports whether server requests are instrumented.
func (c Config) ServerActive() bool { return c.Enabled && c.ServerEnabled }

// ClientActive reports whether client requests are instrumented.
func (c Config) ClientActive() bool { return c.Enabled && c.ClientEnabled }

// PathPatterns matches request paths against a list of patterns. A pattern
// ending in "/**" matches its prefix and everything below it; any other
// pattern is matched with path.Match. An empty list matches every path.
type PathPatterns []string

// Match reports whether p matches one of the patterns.
func (pp PathPatterns) Match(p string) bool {
	if len(pp) == 0 {
		return true
	}
	for _, pattern := range pp {
		if matchPattern(pattern, p) {
			return true
		}
	}
	return false
}

func matchPattern(pattern, p string) bool {
	if pattern == "/**" || pattern == "**" {
		return true
	}
	if prefix := strings.TrimSuffix(pattern, "/**"); prefix != pattern {
		return p == prefix || strings.HasPrefix(p, prefix+"/")
	}
	ok, err := path.Match(pattern, p)
	return err == nil && ok
}
