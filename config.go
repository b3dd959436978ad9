package rum

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration decodes the humane "15s" / "300ms" spelling from YAML, which the
// yaml package does not do for time.Duration itself.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		v, err := time.ParseDuration(s)
		if err != nil {
			return err
		}
		*d = Duration(v)
		return nil
	}
	var n int64
	if err := value.Decode(&n); err != nil {
		return err
	}
	*d = Duration(time.Duration(n))
	return nil
}

// Config is the file form of the agent's embed-time settings. It mirrors
// the attribute names a hosting page would use.
type Config struct {
	EndpointID        string   `yaml:"endpoint-id"`
	APIURL            string   `yaml:"api-url"`
	ErrorsURL         string   `yaml:"errors-url"`
	Location          string   `yaml:"location"`
	HeartbeatInterval Duration `yaml:"heartbeat-interval"`
	LoadSettleDelay   Duration `yaml:"load-settle-delay"`
	NavSettleDelay    Duration `yaml:"nav-settle-delay"`
}

func LoadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("rum config %s: %w", path, err)
	}
	return cfg, nil
}

// Options converts the config into agent options. Zero values produce no
// option, so file settings layer over the defaults exactly like attributes
// absent from a hosting tag would.
func (c Config) Options() []Option {
	var opts []Option
	if c.EndpointID != "" {
		opts = append(opts, WithEndpointID(c.EndpointID))
	}
	if c.APIURL != "" {
		opts = append(opts, WithCollectorURL(c.APIURL))
	}
	if c.ErrorsURL != "" {
		opts = append(opts, WithErrorsURL(c.ErrorsURL))
	}
	if c.Location != "" {
		opts = append(opts, WithLocation(c.Location))
	}
	if c.HeartbeatInterval > 0 {
		opts = append(opts, WithHeartbeatInterval(time.Duration(c.HeartbeatInterval)))
	}
	if c.LoadSettleDelay > 0 || c.NavSettleDelay > 0 {
		load := time.Duration(c.LoadSettleDelay)
		nav := time.Duration(c.NavSettleDelay)
		if load <= 0 {
			load = DefaultLoadSettleDelay
		}
		if nav <= 0 {
			nav = DefaultNavSettleDelay
		}
		opts = append(opts, WithSettleDelays(load, nav))
	}
	return opts
}
