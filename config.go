package restdb

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// Config defines the configuration for the client.
type Config struct {
	// Name identifies the database. Required.
	Name string `json:"name" mapstructure:"name" validate:"required"`
	// Endpoint is the base URL of the REST server. Required.
	Endpoint string `json:"endpoint" mapstructure:"endpoint" validate:"required,url"`
	// Token is the initial credential sent with each request. It can be
	// replaced later with Client.SetToken.
	Token string `json:"token,omitempty" mapstructure:"token"`
	// Timeout bounds each request of the default transport. Zero means no
	// timeout; cancellation is then left to the caller's context.
	Timeout time.Duration `json:"timeout,omitempty" mapstructure:"timeout" validate:"gte=0"`

	// HTTP overrides the transport. Nil uses a net/http based one.
	HTTP HTTPClient `json:"-" mapstructure:"-" validate:"-"`
	// Logger receives one debug event per request. Nil disables logging.
	Logger *zerolog.Logger `json:"-" mapstructure:"-" validate:"-"`
	// Registerer enables Prometheus request metrics when set.
	Registerer prometheus.Registerer `json:"-" mapstructure:"-" validate:"-"`
	// TracerProvider creates request spans. Nil uses the global provider.
	TracerProvider trace.TracerProvider `json:"-" mapstructure:"-" validate:"-"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks that the required fields are set.
// Failures are reported as *ConfigError.
func (c *Config) Validate() error {
	if c == nil {
		return &ConfigError{Field: "config", Reason: "missing"}
	}
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return &ConfigError{Field: fe.Field(), Reason: "missing"}
	default:
		return &ConfigError{Field: fe.Field(), Reason: "invalid (" + fe.Tag() + ")"}
	}
}
