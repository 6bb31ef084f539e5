// Package config loads the resolver's runtime configuration: environment
// variables under the NBTRESOLVE_ prefix, a YAML file (optional), and
// hardcoded defaults, in that priority order — the same layering the
// pack's other DNS-adjacent services use.
package config

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/netbios-go/nbtresolve/internal/nberrors"
)

// Config is the resolver's full runtime configuration.
type Config struct {
	NBT struct {
		// Enabled administratively gates the broadcast resolver (§4.G)
		// off entirely. The WINS self-loop filter (§4.H.2) follows
		// IsDaemon, not Enabled.
		Enabled    bool
		SourceAddr string
		IsDaemon   bool
	}
	ResolveOrder []string
	Lmhosts      struct {
		Path string
	}
	WINS struct {
		// Tags maps a WINS tag (commonly "*") to its server list, each
		// entry a "host:port" string.
		Tags map[string][]string
	}
	Cache struct {
		// Backend is "mem" or "badger".
		Backend   string
		BadgerDir string
	}
	Logging struct {
		Level string
	}
	Metrics struct {
		Enabled    bool
		ListenAddr string
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("nbt.enabled", true)
	v.SetDefault("nbt.source_addr", "")
	v.SetDefault("nbt.is_daemon", false)

	v.SetDefault("resolve_order", []string{"lmhosts", "hosts", "wins", "bcast"})

	v.SetDefault("lmhosts.path", "/etc/nbtresolve/lmhosts")

	v.SetDefault("wins.tags", map[string][]string{})

	v.SetDefault("cache.backend", "mem")
	v.SetDefault("cache.badger_dir", "/var/lib/nbtresolve/cache")

	v.SetDefault("logging.level", "info")

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.listen_addr", "127.0.0.1:9137")
}

// Load merges defaults, the file at path (if non-empty), and environment
// variables, and validates the merged result. An environment variable
// overrides the same key in the file; the file overrides a default.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("NBTRESOLVE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, nberrors.Wrap(nberrors.Io, "config.Load", err)
		}
	}

	cfg := &Config{}
	cfg.NBT.Enabled = v.GetBool("nbt.enabled")
	cfg.NBT.SourceAddr = v.GetString("nbt.source_addr")
	cfg.NBT.IsDaemon = v.GetBool("nbt.is_daemon")
	cfg.ResolveOrder = v.GetStringSlice("resolve_order")
	cfg.Lmhosts.Path = v.GetString("lmhosts.path")
	cfg.WINS.Tags = stringSliceMap(v.GetStringMap("wins.tags"))
	cfg.Cache.Backend = v.GetString("cache.backend")
	cfg.Cache.BadgerDir = v.GetString("cache.badger_dir")
	cfg.Logging.Level = v.GetString("logging.level")
	cfg.Metrics.Enabled = v.GetBool("metrics.enabled")
	cfg.Metrics.ListenAddr = v.GetString("metrics.listen_addr")

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if len(cfg.ResolveOrder) == 0 {
		return nberrors.New(nberrors.InvalidParameter, "config.Load")
	}
	switch cfg.Cache.Backend {
	case "mem", "badger":
	default:
		return nberrors.New(nberrors.InvalidParameter, "config.Load")
	}
	return nil
}

// stringSliceMap coerces viper's generic map[string]interface{} (from
// GetStringMap) into the map[string][]string shape WINS tags need.
func stringSliceMap(raw map[string]interface{}) map[string][]string {
	out := make(map[string][]string, len(raw))
	for tag, v := range raw {
		switch servers := v.(type) {
		case []string:
			out[tag] = servers
		case []interface{}:
			list := make([]string, 0, len(servers))
			for _, s := range servers {
				if str, ok := s.(string); ok {
					list = append(list, str)
				}
			}
			out[tag] = list
		}
	}
	return out
}
