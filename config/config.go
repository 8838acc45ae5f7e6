/*
Package config reads the settings of a mining run from YAML documents
such as:

	input: baskets.txt
	output: patterns.txt
	minSupport: 0.05
	partitions: 8
	separator: ","
	workers: 4
	queue: redis://localhost:6379/0
	taskMaxRun: 10m

Settings not present in the document keep the values of Default.
*/
package config

import (
	"fmt"
	"io/ioutil"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pbanos/pfpgrowth"
	"github.com/pbanos/pfpgrowth/support"
	"github.com/pbanos/pfpgrowth/transaction/text"
	redis "gopkg.in/redis.v5"
	yaml "gopkg.in/yaml.v2"
)

// MemoryQueue is the queue setting for a run kept in process memory.
const MemoryQueue = "memory"

/*
Config holds the settings of a mining run.
*/
type Config struct {
	Input      string        `yaml:"input"`
	Output     string        `yaml:"output"`
	MinSupport MinSupport    `yaml:"minSupport"`
	Partitions int           `yaml:"partitions"`
	Separator  string        `yaml:"separator"`
	Workers    int           `yaml:"workers"`
	Queue      string        `yaml:"queue"`
	RunID      string        `yaml:"runID"`
	TaskMaxRun time.Duration `yaml:"taskMaxRun"`
	LockTTL    time.Duration `yaml:"lockTTL"`
}

/*
MinSupport is a support.MinSupport that can be given in YAML as an integer
(an absolute count), a float (a fraction of the transactions) or a string
accepted by support.Parse.
*/
type MinSupport struct {
	support.MinSupport
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (ms *MinSupport) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw interface{}
	if err := unmarshal(&raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case int:
		ms.MinSupport = support.AbsoluteCount(v)
	case float64:
		ms.MinSupport = support.FractionOfTotal(v)
	case string:
		parsed, err := support.Parse(v)
		if err != nil {
			return err
		}
		ms.MinSupport = parsed
	default:
		return support.NewConfigurationError("minimum support", fmt.Sprintf("%v", raw), fmt.Sprintf("unexpected %T value", raw))
	}
	return ms.Validate()
}

// Default returns the settings of a run with a partition and a worker
// per available CPU, tab separated items and an in-memory queue.
func Default() *Config {
	opts := pfpgrowth.DefaultOptions(support.MinSupport{})
	return &Config{
		Partitions: opts.Partitions,
		Separator:  text.DefaultSeparator,
		Workers:    opts.Workers,
		Queue:      MemoryQueue,
		LockTTL:    time.Second,
	}
}

/*
Parse takes a YAML document and returns the Config it describes on top of
Default, or an error if the document cannot be parsed or has unknown keys.
*/
func Parse(data []byte) (*Config, error) {
	c := Default()
	err := yaml.UnmarshalStrict(data, c)
	if err != nil {
		return nil, fmt.Errorf("parsing yml config: %v", err)
	}
	return c, nil
}

/*
ReadFile takes a filepath string, reads its contents and uses Parse
to return the Config in it or an error.
*/
func ReadFile(filepath string) (*Config, error) {
	data, err := ioutil.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("reading config yml file %s: %v", filepath, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing config yml file %s: %v", filepath, err)
	}
	return c, nil
}

/*
Validate returns an error matching support.ErrInvalidConfiguration if the
settings cannot drive a run.
*/
func (c *Config) Validate() error {
	if err := c.MinSupport.Validate(); err != nil {
		return err
	}
	if err := support.ValidatePartitions(c.Partitions); err != nil {
		return err
	}
	if _, err := text.ParseSeparator(c.Separator); err != nil {
		return err
	}
	if c.Workers < 0 {
		return support.NewConfigurationError("workers", strconv.Itoa(c.Workers), "must not be negative")
	}
	if c.TaskMaxRun < 0 {
		return support.NewConfigurationError("taskMaxRun", c.TaskMaxRun.String(), "must not be negative")
	}
	if c.LockTTL < 0 {
		return support.NewConfigurationError("lockTTL", c.LockTTL.String(), "must not be negative")
	}
	if c.IsDistributed() {
		if _, err := c.RedisOptions(); err != nil {
			return err
		}
	} else {
		if c.Queue != "" && c.Queue != MemoryQueue {
			return support.NewConfigurationError("queue", c.Queue, "must be memory or a redis:// URL")
		}
		if c.Workers == 0 {
			return support.NewConfigurationError("workers", "0", "a run on an in-memory queue needs workers")
		}
	}
	return nil
}

// IsDistributed returns whether the run shares its queue on redis.
func (c *Config) IsDistributed() bool {
	return strings.HasPrefix(c.Queue, "redis://")
}

/*
RedisOptions returns the options to connect to the redis server in the
queue URL, such as redis://:password@host:6379/2, or an error matching
support.ErrInvalidConfiguration if the URL is not valid.
*/
func (c *Config) RedisOptions() (*redis.Options, error) {
	u, err := url.Parse(c.Queue)
	if err != nil || u.Scheme != "redis" || u.Host == "" {
		return nil, support.NewConfigurationError("queue", c.Queue, "not a valid redis URL")
	}
	opts := &redis.Options{Addr: u.Host}
	if u.Port() == "" {
		opts.Addr = u.Host + ":6379"
	}
	if u.User != nil {
		opts.Password, _ = u.User.Password()
	}
	if db := strings.Trim(u.Path, "/"); db != "" {
		opts.DB, err = strconv.Atoi(db)
		if err != nil || opts.DB < 0 {
			return nil, support.NewConfigurationError("queue", c.Queue, "not a valid redis database number")
		}
	}
	return opts, nil
}
