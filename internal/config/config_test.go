package config_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/suite"

	"github.com/tusharlock10/hostid/internal/config"
	"github.com/tusharlock10/hostid/internal/log"
)

func TestConfig(t *testing.T) {
	suite.Run(t, new(ConfigTest))
}

type ConfigTest struct {
	suite.Suite
}

func (t *ConfigTest) load(args ...string) (*config.Config, error) {
	flags := pflag.NewFlagSet("hostid", pflag.ContinueOnError)
	config.RegisterFlags(flags)
	t.Require().NoError(flags.Parse(args))
	return config.Load(flags)
}

func (t *ConfigTest) TestDefaults() {
	cfg, err := t.load()
	t.Require().NoError(err)

	t.Equal("", cfg.Root)
	t.False(cfg.Padded)
	t.Equal("lo", cfg.Loopback)
	t.Equal(config.FormatHex, cfg.Format)
	t.NotEmpty(cfg.Socket)
	t.Equal(log.Error, cfg.Log.Level)
	t.NoError(cfg.Validate())
}

func (t *ConfigTest) TestFlags() {
	root := t.T().TempDir()

	flagTests := map[string]struct {
		arg  string
		want func(*config.Config)
	}{
		"root": {
			arg: root,
			want: func(c *config.Config) {
				t.Equal(root, c.Root)
			},
		},

		"padded": {
			arg: "true",
			want: func(c *config.Config) {
				t.True(c.Padded)
			},
		},

		"loopback": {
			arg: "lo0",
			want: func(c *config.Config) {
				t.Equal("lo0", c.Loopback)
			},
		},

		"format": {
			arg: "json",
			want: func(c *config.Config) {
				t.Equal(config.FormatJSON, c.Format)
			},
		},

		"socket": {
			arg: "/run/hostid.sock",
			want: func(c *config.Config) {
				t.Equal("/run/hostid.sock", c.Socket)
			},
		},

		"log-level": {
			arg: "verbose",
			want: func(c *config.Config) {
				t.Equal(log.Verbose, c.Log.Level)
			},
		},
	}

	for flagName, test := range flagTests {
		t.Run(fmt.Sprintf("supports %s flag", flagName), func() {
			cfg, err := t.load(fmt.Sprintf("--%s=%s", flagName, test.arg))
			t.Require().NoError(err)
			test.want(cfg)
		})
	}
}

func (t *ConfigTest) TestInvalidValues() {
	t.Run("unknown format", func() {
		_, err := t.load("--format=xml")
		t.ErrorContains(err, "parse configuration")
	})

	t.Run("unknown log level", func() {
		_, err := t.load("--log-level=loud")
		t.Error(err)
	})
}

func (t *ConfigTest) TestEnvironment() {
	t.T().Setenv("HOSTID_LOOPBACK", "lo1")
	t.T().Setenv("HOSTID_LOG_LEVEL", "info")

	cfg, err := t.load()
	t.Require().NoError(err)
	t.Equal("lo1", cfg.Loopback)
	t.Equal(log.Info, cfg.Log.Level)

	t.Run("flags take precedence", func() {
		cfg, err := t.load("--loopback=lo2")
		t.Require().NoError(err)
		t.Equal("lo2", cfg.Loopback)
	})
}

func (t *ConfigTest) TestConfigFile() {
	dir := t.T().TempDir()

	t.Run("is read", func() {
		path := filepath.Join(dir, "hostid.yaml")
		t.Require().NoError(os.WriteFile(path, []byte("padded: true\nformat: uuid\nlog:\n  level: silent\n"), 0600))

		cfg, err := t.load("--config", path)
		t.Require().NoError(err)
		t.True(cfg.Padded)
		t.Equal(config.FormatUUID, cfg.Format)
		t.Equal(log.Silent, cfg.Log.Level)
	})

	t.Run("rejects unknown keys", func() {
		path := filepath.Join(dir, "unknown.yaml")
		t.Require().NoError(os.WriteFile(path, []byte("hostid_file: /tmp/id\n"), 0600))

		_, err := t.load("--config", path)
		t.Error(err)
	})

	t.Run("must exist when given", func() {
		_, err := t.load("--config", filepath.Join(dir, "missing.yaml"))
		t.ErrorContains(err, "load configuration")
	})
}

func (t *ConfigTest) TestValidate() {
	t.Run("root must exist", func() {
		cfg, err := t.load("--root", filepath.Join(t.T().TempDir(), "missing"))
		t.Require().NoError(err)
		t.ErrorContains(cfg.Validate(), "root directory not found")
	})

	t.Run("root must be a directory", func() {
		file := filepath.Join(t.T().TempDir(), "file")
		t.Require().NoError(os.WriteFile(file, nil, 0600))

		cfg, err := t.load("--root", file)
		t.Require().NoError(err)
		t.ErrorContains(cfg.Validate(), "not a directory")
	})

	t.Run("loopback must be named", func() {
		cfg, err := t.load("--loopback=")
		t.Require().NoError(err)
		t.ErrorContains(cfg.Validate(), "loopback")
	})
}

func (t *ConfigTest) TestFs() {
	root := t.T().TempDir()
	t.Require().NoError(os.MkdirAll(filepath.Join(root, "etc"), 0755))
	t.Require().NoError(os.WriteFile(filepath.Join(root, "etc", "hostname"), []byte("imaged\n"), 0644))

	cfg, err := t.load("--root", root)
	t.Require().NoError(err)

	data, err := afero.ReadFile(cfg.Fs(), "/etc/hostname")
	t.Require().NoError(err)
	t.Equal("imaged\n", string(data))
}

func TestFormat_String(t *testing.T) {
	for _, f := range []config.Format{config.FormatHex, config.FormatUUID, config.FormatJSON} {
		var got config.Format
		if err := got.UnmarshalText([]byte(f.String())); err != nil {
			t.Fatalf("UnmarshalText(%q): %v", f.String(), err)
		}
		if got != f {
			t.Errorf("roundtrip of %v gave %v", f, got)
		}
	}
	if s := config.Format(42).String(); s != "" {
		t.Errorf("unknown format should have empty name, got %q", s)
	}
}
