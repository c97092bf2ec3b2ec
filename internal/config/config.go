package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/tusharlock10/hostid"
	"github.com/tusharlock10/hostid/internal/ipc"
	"github.com/tusharlock10/hostid/internal/log"
)

// EnvPrefix prefixes environment variables overriding configuration keys,
// e.g. HOSTID_LOG_LEVEL.
const EnvPrefix = "HOSTID"

// Format selects how the host identifier is printed.
type Format int

const (
	FormatHex Format = iota
	FormatUUID
	FormatJSON
)

var formats = []string{"hex", "uuid", "json"}

func (f Format) String() string {
	if f < FormatHex || f > FormatJSON {
		return ""
	}
	return formats[f]
}

func (f *Format) UnmarshalText(text []byte) error {
	s := string(bytes.ToLower(text))
	for i, name := range formats {
		if name == s {
			*f = Format(i)
			return nil
		}
	}
	return fmt.Errorf("unknown output format %q", text)
}

type Config struct {
	Root     string `mapstructure:"root"`
	Padded   bool   `mapstructure:"padded"`
	Loopback string `mapstructure:"loopback"`
	Format   Format `mapstructure:"format"`
	Socket   string `mapstructure:"socket"`

	Log struct {
		Level log.Level `mapstructure:"level"`
	} `mapstructure:"log"`
}

// RegisterFlags declares the flags Load reads on f.
func RegisterFlags(f *pflag.FlagSet) {
	f.String("root", "", "resolve against a system tree mounted at `dir`")
	f.Bool("padded", false, "zero-pad every byte read from the identifier file")
	f.String("loopback", hostid.DefaultLoopback, "`name` of the loopback interface")
	f.String("format", FormatHex.String(), "output `format`: hex, uuid or json")
	f.String("socket", ipc.DefaultSocketPath(), "IPC socket or named pipe `path`")
	f.String("log-level", log.Error.String(), "`level` of log messages: silent, fatal, error, info or verbose")
	f.String("config", "", "configuration `file`")
}

// Load builds the configuration from the flags registered with RegisterFlags,
// HOSTID_* environment variables and the optional configuration file, in
// decreasing order of precedence.
func Load(f *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// Bind command-line flags to their corresponding values from config file
	configNames := []string{"root", "padded", "loopback", "format", "socket", "log.level"}
	for _, name := range configNames {
		kebabCasedName := strings.ReplaceAll(name, ".", "-")
		if err := v.BindPFlag(name, f.Lookup(kebabCasedName)); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", kebabCasedName, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path, _ := f.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("load configuration: %w", err)
		}
	}

	options := []viper.DecoderConfigOption{
		viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
			mapstructure.TextUnmarshallerHookFunc(),
		)),

		func(c *mapstructure.DecoderConfig) {
			c.IgnoreUntaggedFields = true
		},
	}

	var config Config
	if err := v.UnmarshalExact(&config, options...); err != nil {
		return nil, fmt.Errorf("parse configuration: %w", err)
	}
	return &config, nil
}

// Validate checks the configuration before anything is resolved.
// Fails fast on the first error.
func (c *Config) Validate() error {
	if c.Root != "" {
		info, err := os.Stat(c.Root)
		if err != nil {
			return fmt.Errorf("root directory not found: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("root %s is not a directory", c.Root)
		}
	}

	if c.Loopback == "" {
		return errors.New("loopback interface name is required")
	}

	if c.Socket == "" {
		return errors.New("socket path is required")
	}

	return nil
}

// Fs returns the filesystem host files are read from: the real one, or the
// tree under Root when set.
func (c *Config) Fs() afero.Fs {
	fs := afero.NewOsFs()
	if c.Root == "" || c.Root == "/" {
		return fs
	}
	return afero.NewBasePathFs(fs, c.Root)
}

// ResolverOptions translates the configuration into resolver options reading fs.
func (c *Config) ResolverOptions(fs afero.Fs) []hostid.Option {
	return []hostid.Option{
		hostid.WithFs(fs),
		hostid.WithPadded(c.Padded),
		hostid.WithLoopback(c.Loopback),
	}
}
