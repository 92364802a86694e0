package config

import (
	"io/ioutil"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

const (
	listenNetflowDefault = ":2055"
	listenHTTPDefault    = ":9992"
)

// Config represents a config file
type Config struct {
	ListenNetflow      string `yaml:"listen_netflow"`
	ListenHTTP         string `yaml:"listen_http"`
	StoreSamplingRates bool   `yaml:"store_sampling_rates"`
	MaxMemoryUsage     uint64 `yaml:"max_memory_usage"`
	TemplateExpireTime uint32 `yaml:"template_expire_time"`
	OptionExpireTime   uint32 `yaml:"option_expire_time"`
}

func (c *Config) load() {
	if c.ListenNetflow == "" {
		c.ListenNetflow = listenNetflowDefault
	}

	if c.ListenHTTP == "" {
		c.ListenHTTP = listenHTTPDefault
	}
}

// GetConfig gets the configuration
func GetConfig(fp string) (*Config, error) {
	fc, err := ioutil.ReadFile(fp)
	if err != nil {
		return nil, errors.Wrap(err, "Unable to read file")
	}

	c := &Config{}
	err = yaml.Unmarshal(fc, c)
	if err != nil {
		return nil, errors.Wrap(err, "Unable to unmarshal")
	}

	c.load()

	return c, nil
}
