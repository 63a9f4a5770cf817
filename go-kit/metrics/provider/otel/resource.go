package otel

import (
	"encoding/base64"
	"net/url"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
)

// Service level resource attributes.
const (
	// ServiceKey is the attribute key for the `_service` convention.
	ServiceKey = attribute.Key("_service")

	// ComponentKey is the attribute key for the `component` convention.
	ComponentKey = attribute.Key("component")

	// StageKey is the attribute key for the `stage` convention.
	StageKey = attribute.Key("stage")

	serviceNameKey = attribute.Key("service.name")
)

// ServiceSemConv returns the attributes naming a service.
func ServiceSemConv(name string) []attribute.KeyValue {
	return []attribute.KeyValue{
		serviceNameKey.String(name),
		ServiceKey.String(name),
		ComponentKey.String(name),
	}
}

// WithEnvironmentStandard tags every metric with the stage it runs in.
func WithEnvironmentStandard(stage string) Option {
	return WithResource(resource.NewSchemaless(StageKey.String(stage)))
}

// WithResource merges res into the service resource. Attributes of res
// win over duplicates.
func WithResource(res *resource.Resource) Option {
	return func(cfg *config) error {
		merged, err := resource.Merge(cfg.serviceResource, res)
		if err != nil {
			return errors.Wrap(err, "failed to merge resources")
		}
		cfg.serviceResource = merged
		return nil
	}
}

func basicAuth(u *url.Userinfo) string {
	return base64.StdEncoding.EncodeToString([]byte(u.String()))
}
