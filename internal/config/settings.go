package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/michaelgrohs/ccviz/internal/common"
)

// DefaultBackendURL is the hosted analysis backend.
const DefaultBackendURL = "https://ccviz-backend.onrender.com"

// DefaultPalette is the nine step red scale used by every chart, darkest for
// the lowest conformance.
var DefaultPalette = []string{
	"#67000d", "#a50f15", "#cb181d", "#ef3b2c", "#fb6a4a",
	"#fc9272", "#fcbba1", "#fee0d2", "#fff5f0",
}

// Settings holds the resolved application configuration.
type Settings struct {
	Backend BackendSettings `mapstructure:"backend"`
	Logging LoggingSettings `mapstructure:"logging"`
	Outcome OutcomeSettings `mapstructure:"outcome"`
	UI      UISettings      `mapstructure:"ui"`
	Colors  ColorSettings   `mapstructure:"colors"`
	Buckets BucketSettings  `mapstructure:"buckets"`
}

// BackendSettings configures the analysis backend client.
type BackendSettings struct {
	URL     string        `mapstructure:"url" validate:"required,url"`
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`
	Retries int           `mapstructure:"retries" validate:"gte=1,lte=10"`
}

// BucketSettings configures the conformance binning.
type BucketSettings struct {
	Count int `mapstructure:"count" validate:"gte=1,lte=1000"`
}

// OutcomeSettings configures outcome classification and bubble sizing.
type OutcomeSettings struct {
	MatchingMode string   `mapstructure:"matching_mode" validate:"oneof=end contains"`
	Desired      []string `mapstructure:"desired"`
	RadiusMin    float64  `mapstructure:"radius_min" validate:"gte=0"`
	RadiusMax    float64  `mapstructure:"radius_max" validate:"gtefield=RadiusMin"`
}

// ColorSettings configures the conformance color scale.
type ColorSettings struct {
	Palette []string `mapstructure:"palette" validate:"min=1,dive,hexcolor"`
}

// UISettings configures the terminal UI.
type UISettings struct {
	Theme         string  `mapstructure:"theme"`
	ThresholdStep float64 `mapstructure:"threshold_step" validate:"gt=0,lte=1"`
}

// LoggingSettings configures slog output.
type LoggingSettings struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=console json"`
}

var validate = validator.New()

// SetDefaults registers the default value of every setting on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("backend.url", DefaultBackendURL)
	v.SetDefault("backend.timeout", 60*time.Second)
	v.SetDefault("backend.retries", 3)
	v.SetDefault("buckets.count", 10)
	v.SetDefault("outcome.matching_mode", "end")
	v.SetDefault("outcome.desired", []string{})
	v.SetDefault("outcome.radius_min", 5.0)
	v.SetDefault("outcome.radius_max", 35.0)
	v.SetDefault("colors.palette", DefaultPalette)
	v.SetDefault("ui.theme", "default")
	v.SetDefault("ui.threshold_step", 0.01)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// Load unmarshals and validates the settings held by v.
func Load(v *viper.Viper) (Settings, error) {
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}

	return s, nil
}

// Validate checks every setting against its constraints.
func (s Settings) Validate() error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", common.ErrInvalidConfig, strings.Join(msgs, "; "))
}
