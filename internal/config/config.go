// Package config loads the cordon capability configuration from cordon.config.json, exposing the typed permission document the grant compiler consumes.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"

	"github.com/go-viper/mapstructure/v2"
	"github.com/neoclaw-ai/cordon/internal/store"
	"github.com/spf13/viper"
	"github.com/tidwall/jsonc"
)

var (
	// ErrConfigMissing reports that no configuration document exists at the looked-up path.
	ErrConfigMissing = errors.New("config not found")
	// ErrConfigInvalid reports a document that failed to parse, decode, or validate.
	ErrConfigInvalid = errors.New("config invalid")
)

// Config is the capability configuration document.
type Config struct {
	// Path is where the document was loaded from and is not read from config.
	Path        string      `mapstructure:"-"`
	Permissions Permissions `mapstructure:"permissions"`
}

// Permissions declares the capabilities a cordoned script may use.
// Every field is optional; absent lists are empty and absent toggles are false.
type Permissions struct {
	FS           FSPermissions `mapstructure:"fs"`
	Net          []string      `mapstructure:"net" validate:"omitempty,dive,notblank,excludesall=/"`
	Worker       bool          `mapstructure:"worker"`
	ChildProcess bool          `mapstructure:"child-process"`
	WASI         bool          `mapstructure:"wasi"`
	Inspector    bool          `mapstructure:"inspector"`
}

// FSPermissions lists filesystem paths, absolute or relative to the working directory.
type FSPermissions struct {
	Read  []string `mapstructure:"read" validate:"omitempty,dive,notblank"`
	Write []string `mapstructure:"write" validate:"omitempty,dive,notblank"`
}

// Load reads, decodes, and validates the document at path.
// Comments are tolerated and unknown keys are ignored.
func Load(path string) (*Config, error) {
	raw, err := store.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigMissing, path)
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	v := viper.New()
	v.SetConfigType("json")
	if err := v.ReadConfig(bytes.NewReader(jsonc.ToJSON([]byte(raw)))); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", ErrConfigInvalid, path, err)
	}

	var cfg Config
	decodeHook := mapstructure.ComposeDecodeHookFunc(
		expandFSPathsHook(),
	)
	if err := v.Unmarshal(&cfg, func(c *mapstructure.DecoderConfig) {
		c.DecodeHook = decodeHook
	}); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", ErrConfigInvalid, path, err)
	}
	cfg.Path = path

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrConfigInvalid, path, err)
	}
	return &cfg, nil
}

var fsPermissionsType = reflect.TypeOf(FSPermissions{})

// expandFSPathsHook expands $VAR references in fs.read and fs.write so paths
// like "$HOME/data" resolve. Other strings, net hosts included, are kept as written.
func expandFSPathsHook() mapstructure.DecodeHookFuncType {
	return func(_ reflect.Type, to reflect.Type, data any) (any, error) {
		if to != fsPermissionsType {
			return data, nil
		}
		section, ok := data.(map[string]any)
		if !ok {
			return data, nil
		}
		out := make(map[string]any, len(section))
		for key, value := range section {
			out[key] = expandEnvList(value)
		}
		return out, nil
	}
}

func expandEnvList(value any) any {
	switch items := value.(type) {
	case []any:
		out := make([]any, len(items))
		for i, item := range items {
			if s, ok := item.(string); ok {
				out[i] = os.ExpandEnv(s)
			} else {
				out[i] = item
			}
		}
		return out
	case []string:
		out := make([]string, len(items))
		for i, item := range items {
			out[i] = os.ExpandEnv(item)
		}
		return out
	default:
		return value
	}
}

// Write renders the decoded document as JSON with every field present, so
// defaults and expanded environment references are visible.
func (c *Config) Write(w io.Writer) error {
	if w == nil {
		return errors.New("writer is required")
	}

	v := viper.New()
	v.SetConfigType("json")
	v.Set("permissions.fs.read", orEmpty(c.Permissions.FS.Read))
	v.Set("permissions.fs.write", orEmpty(c.Permissions.FS.Write))
	v.Set("permissions.net", orEmpty(c.Permissions.Net))
	v.Set("permissions.worker", c.Permissions.Worker)
	v.Set("permissions.child-process", c.Permissions.ChildProcess)
	v.Set("permissions.wasi", c.Permissions.WASI)
	v.Set("permissions.inspector", c.Permissions.Inspector)

	if err := v.WriteConfigTo(w); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func orEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
