package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func TestNewResource(t *testing.T) {
	t.Run("will override any service.name already present in attrs", func(t *testing.T) {
		t.Run("with the explicit ServiceName argument", func(t *testing.T) {
			r := NewResource("my-service", attribute.String("service.name", "ignored"), attribute.String("env", "prod"))

			v, ok := r.Attributes().Value("service.name")
			if !assert.True(t, ok) {
				return
			}
			assert.Equal(t, "my-service", v.AsString())
			assert.Equal(t, "my-service", r.ServiceName)
		})
	})

	t.Run("will retain other attributes", func(t *testing.T) {
		r := NewResource("my-service", attribute.String("env", "prod"))

		v, ok := r.Attributes().Value("env")
		if !assert.True(t, ok) {
			return
		}
		assert.Equal(t, "prod", v.AsString())
	})
}

func TestResource_Equivalent(t *testing.T) {
	t.Run("will report equivalent resources as equal", func(t *testing.T) {
		t.Run("regardless of attribute insertion order", func(t *testing.T) {
			a := NewResource("svc", attribute.String("env", "prod"), attribute.Int("shard", 1))
			b := NewResource("svc", attribute.Int("shard", 1), attribute.String("env", "prod"))

			assert.True(t, a.Equivalent(b))
		})
	})
}
