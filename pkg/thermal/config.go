// Package thermal implements the thermal sensor node: it polls a module
// instance and serves its reads over the node messaging layer.
package thermal

import (
	"flag"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/robotalks/thermo.go/pkg/d6t"
	"github.com/robotalks/thermo.go/pkg/module"
	"github.com/robotalks/thermo.go/pkg/node/env/sensor"
)

// Config defines the configurations for the sensor node.
type Config struct {
	Module   string        `yaml:"module"`
	Edge     string        `yaml:"edge"`
	Interval time.Duration `yaml:"interval"`
	Params   module.Params `yaml:"params"`
}

var (
	defaultConfig = Config{
		Module:   d6t.ModuleName,
		Edge:     "i2c:///0x0a",
		Interval: time.Second,
		Params:   module.Params{},
	}
	configFile string
)

func init() {
	if val := os.Getenv("THERMO_MODULE"); val != "" {
		defaultConfig.Module = val
	}
	if val := os.Getenv("THERMO_EDGE"); val != "" {
		defaultConfig.Edge = val
	}
}

type paramsFlag module.Params

func (p paramsFlag) String() string {
	pairs := make([]string, 0, len(p))
	for k, v := range p {
		pairs = append(pairs, k+"="+v)
	}
	return strings.Join(pairs, ",")
}

func (p paramsFlag) Set(val string) error {
	pos := strings.Index(val, "=")
	if pos <= 0 {
		return fmt.Errorf("invalid param %q, expect KEY=VALUE", val)
	}
	p[val[:pos]] = val[pos+1:]
	return nil
}

type policyFlag struct{}

func (policyFlag) String() string { return defaultConfig.Params[d6t.ParamPolicy] }

func (policyFlag) Set(val string) error {
	if _, err := d6t.ParsePolicy(val); err != nil {
		return err
	}
	defaultConfig.Params[d6t.ParamPolicy] = val
	return nil
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Module, "module", defaultConfig.Module, "Module name")
	flag.StringVar(&defaultConfig.Edge, "edge", defaultConfig.Edge, "Edge URL: i2c://BUS/ADDR, tcp://HOST:PORT or file:///dev/DEVICE")
	flag.DurationVar(&defaultConfig.Interval, "interval", defaultConfig.Interval, "Polling interval")
	flag.Var(policyFlag{}, "policy", "Short response policy: stale or fail")
	flag.Var(paramsFlag(defaultConfig.Params), "param", "Module param KEY=VALUE, repeatable")
	flag.StringVar(&configFile, "config", configFile, "YAML config file, explicit flags take precedence")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a config with defaults.
func NewConfig() *Config {
	conf := defaultConfig
	conf.Params = make(module.Params, len(defaultConfig.Params))
	for k, v := range defaultConfig.Params {
		conf.Params[k] = v
	}
	return &conf
}

// Load creates a config with defaults and applies the file given by
// -config. Flags set on the command line are not overridden.
func Load() (*Config, error) {
	conf := NewConfig()
	if configFile == "" {
		return conf, nil
	}
	fileConf, err := LoadFile(configFile)
	if err != nil {
		return nil, err
	}
	explicit := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) {
		explicit[f.Name] = true
	})
	conf.Merge(fileConf, explicit)
	return conf, nil
}

// LoadFile parses a YAML config file.
func LoadFile(fn string) (*Config, error) {
	data, err := ioutil.ReadFile(fn)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", fn, err)
	}
	conf, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", fn, err)
	}
	return conf, nil
}

// ParseConfig parses YAML content. Absent keys are left zero.
func ParseConfig(data []byte) (*Config, error) {
	var conf Config
	if err := yaml.Unmarshal(data, &conf); err != nil {
		return nil, err
	}
	return &conf, nil
}

// Merge copies the non-zero fields of o, skipping fields whose flag names
// are in skip.
func (c *Config) Merge(o *Config, skip map[string]bool) {
	if o.Module != "" && !skip["module"] {
		c.Module = o.Module
	}
	if o.Edge != "" && !skip["edge"] {
		c.Edge = o.Edge
	}
	if o.Interval != 0 && !skip["interval"] {
		c.Interval = o.Interval
	}
	if c.Params == nil {
		c.Params = make(module.Params)
	}
	for k, v := range o.Params {
		if k == d6t.ParamPolicy && skip["policy"] {
			continue
		}
		if _, ok := c.Params[k]; ok && skip["param"] {
			continue
		}
		c.Params[k] = v
	}
}

// Validate checks the config.
func (c *Config) Validate() error {
	if c.Module == "" {
		return fmt.Errorf("module not specified")
	}
	if _, ok := module.Lookup(c.Module); !ok {
		return &module.UnknownModuleError{Name: c.Module}
	}
	if c.Edge == "" {
		return fmt.Errorf("edge not specified")
	}
	if c.Interval <= 0 {
		return fmt.Errorf("invalid interval %v", c.Interval)
	}
	return nil
}

// LoadInstance opens the edge and loads the module on it.
func (c *Config) LoadInstance() (*module.Instance, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	e, err := OpenEdge(c.Edge)
	if err != nil {
		return nil, err
	}
	inst, err := module.Load(c.Module, c.Params, e)
	if err != nil {
		if closer, ok := e.(io.Closer); ok {
			closer.Close()
		}
		return nil, err
	}
	return inst, nil
}

// NewController creates a controller using the config.
func (c *Config) NewController(e *sensor.Env, inst *module.Instance) *Controller {
	ctl := NewController(e, inst)
	ctl.Interval = c.Interval
	ctl.EdgeURL = c.Edge
	return ctl
}
