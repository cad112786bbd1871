package config

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEnv(t *testing.T) {
	t.Run("will resolve an unset value", func(t *testing.T) {
		t.Run("if the environment variable is not set", func(t *testing.T) {
			v, err := Env("OTELPIPE_TEST_UNSET_VAR").Read(context.Background())
			if !assert.Nil(t, err) {
				return
			}
			if !assert.False(t, v.Set) {
				return
			}
		})
	})

	t.Run("will resolve the variable value", func(t *testing.T) {
		t.Run("if the environment variable is set", func(t *testing.T) {
			t.Setenv("OTELPIPE_TEST_SET_VAR", "hello")

			v, err := Env("OTELPIPE_TEST_SET_VAR").Read(context.Background())
			if !assert.Nil(t, err) {
				return
			}
			if !assert.True(t, v.Set) {
				return
			}
			if !assert.Equal(t, "hello", v.V) {
				return
			}
		})
	})
}

func TestOr(t *testing.T) {
	t.Run("will fall back to secondary", func(t *testing.T) {
		t.Run("if primary resolves nothing", func(t *testing.T) {
			r := Or(EmptyReader[string](), ReaderOf("fallback"))

			v, err := r.Read(context.Background())
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, "fallback", v.V) {
				return
			}
		})
	})

	t.Run("will not consult secondary", func(t *testing.T) {
		t.Run("if primary resolves a value", func(t *testing.T) {
			r := Or(ReaderOf("primary"), ReaderOf("fallback"))

			v, err := r.Read(context.Background())
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, "primary", v.V) {
				return
			}
		})
	})

	t.Run("will propagate an error", func(t *testing.T) {
		t.Run("from primary without consulting secondary", func(t *testing.T) {
			primaryErr := errors.New("primary failed")
			primary := ReaderFunc[string](func(ctx context.Context) (Value[string], error) {
				return Value[string]{}, primaryErr
			})

			r := Or(primary, ReaderOf("fallback"))

			_, err := r.Read(context.Background())
			assert.ErrorIs(t, err, primaryErr)
		})
	})
}

func TestDefault(t *testing.T) {
	t.Run("will substitute the default", func(t *testing.T) {
		t.Run("if the reader resolves nothing", func(t *testing.T) {
			r := Default(42, EmptyReader[int]())

			v, err := r.Read(context.Background())
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, 42, v.V) {
				return
			}
		})
	})
}

func TestBind(t *testing.T) {
	t.Run("will select the next reader", func(t *testing.T) {
		t.Run("using the resolved value", func(t *testing.T) {
			r := Bind(ReaderOf(true), func(ctx context.Context, enabled bool) Reader[string] {
				if enabled {
					return ReaderOf("on")
				}
				return ReaderOf("off")
			})

			v, err := r.Read(context.Background())
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, "on", v.V) {
				return
			}
		})
	})
}

func TestMust(t *testing.T) {
	t.Run("will panic", func(t *testing.T) {
		t.Run("if the reader resolves nothing", func(t *testing.T) {
			assert.Panics(t, func() {
				Must(context.Background(), EmptyReader[string]())
			})
		})
	})

	t.Run("will return the resolved value", func(t *testing.T) {
		t.Run("if the reader resolves successfully", func(t *testing.T) {
			v := Must(context.Background(), ReaderOf("ok"))
			assert.Equal(t, "ok", v)
		})
	})
}

func TestDurationFromString(t *testing.T) {
	t.Run("will parse the duration", func(t *testing.T) {
		t.Run("if the string is a valid duration", func(t *testing.T) {
			v, err := DurationFromString(ReaderOf("5s")).Read(context.Background())
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, 5*time.Second, v.V) {
				return
			}
		})
	})

	t.Run("will return an error", func(t *testing.T) {
		t.Run("if the string is not a valid duration", func(t *testing.T) {
			_, err := DurationFromString(ReaderOf("not-a-duration")).Read(context.Background())
			assert.NotNil(t, err)
		})
	})
}

func TestStringSliceFromString(t *testing.T) {
	t.Run("will split on commas and trim whitespace", func(t *testing.T) {
		v, err := StringSliceFromString(ReaderOf("a=1, b=2 ,c=3")).Read(context.Background())
		if !assert.Nil(t, err) {
			return
		}
		assert.Equal(t, []string{"a=1", "b=2", "c=3"}, v.V)
	})
}
