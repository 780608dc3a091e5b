// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package daemon assembles the aaacfgd server process: its
// configuration schema and the wiring of store, domain service and
// HTTP front end.
package daemon

import (
	"net"
	"os"
	"time"

	"github.com/juju/errors"
	"github.com/juju/loggo"
	"github.com/juju/schema"
	"gopkg.in/juju/environschema.v1"
	"gopkg.in/yaml.v3"
)

var logger = loggo.GetLogger("aaacfg.daemon")

// Attribute names of the daemon configuration.
const (
	HTTPAddr        = "http-addr"
	DBPath          = "db-path"
	LoggingConfig   = "logging-config"
	ShutdownTimeout = "shutdown-timeout"
	MetricsEnabled  = "metrics-enabled"
)

// ConfigSchema describes every attribute of the daemon configuration.
var ConfigSchema = environschema.Fields{
	HTTPAddr: {
		Description: "host:port the HTTP API listens on",
		Type:        environschema.Tstring,
	},
	DBPath: {
		Description: "path of the SQLite database holding the AAA table",
		Type:        environschema.Tstring,
	},
	LoggingConfig: {
		Description: "log levels for modules, as a loggo configuration string",
		Type:        environschema.Tstring,
	},
	ShutdownTimeout: {
		Description: "grace period for in-flight requests on shutdown",
		Type:        environschema.Tstring,
	},
	MetricsEnabled: {
		Description: "whether the Prometheus endpoint is served",
		Type:        environschema.Tbool,
	},
}

var configDefaults = schema.Defaults{
	HTTPAddr:        "localhost:17940",
	DBPath:          "/var/lib/aaacfg/aaa.db",
	LoggingConfig:   "<root>=INFO",
	ShutdownTimeout: "5s",
	MetricsEnabled:  true,
}

// Config holds the validated configuration of the daemon.
type Config map[string]interface{}

// ReadConfig loads the configuration from a YAML file, layered over
// the defaults.
func ReadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	cfg, err := ParseConfig(data)
	return cfg, errors.Annotatef(err, "configuration file %q", path)
}

// ParseConfig builds the configuration from YAML content.
func ParseConfig(data []byte) (Config, error) {
	var attrs map[string]interface{}
	if err := yaml.Unmarshal(data, &attrs); err != nil {
		return nil, errors.Annotate(err, "parsing configuration")
	}
	return NewConfig(attrs)
}

// NewConfig validates the given attributes against the schema and
// fills in defaults. Unknown attribute names are rejected.
func NewConfig(attrs map[string]interface{}) (Config, error) {
	checker, err := schemaChecker()
	if err != nil {
		return nil, errors.Trace(err)
	}
	coerced, err := checker.Coerce(attrs, nil)
	if err != nil {
		return nil, errors.Trace(err)
	}
	cfg := Config(coerced.(map[string]interface{}))
	return cfg, errors.Trace(cfg.Validate())
}

func schemaChecker() (schema.Checker, error) {
	schemaFields, schemaDefaults, err := ConfigSchema.ValidationSchema()
	if err != nil {
		return nil, errors.Trace(err)
	}
	for key, value := range configDefaults {
		schemaDefaults[key] = value
	}
	return schema.StrictFieldMap(schemaFields, schemaDefaults), nil
}

// Validate checks the constraints the schema alone cannot express.
func (c Config) Validate() error {
	if _, _, err := net.SplitHostPort(c.HTTPAddr()); err != nil {
		return errors.NotValidf("http-addr %q", c.HTTPAddr())
	}
	if c.DBPath() == "" {
		return errors.NotValidf("empty db-path")
	}
	if _, err := loggo.ParseConfigString(c.LoggingConfig()); err != nil {
		return errors.Annotate(err, "logging-config")
	}
	timeout, err := time.ParseDuration(c.asString(ShutdownTimeout))
	if err != nil {
		return errors.Annotate(err, "shutdown-timeout")
	}
	if timeout <= 0 {
		return errors.NotValidf("non-positive shutdown-timeout")
	}
	return nil
}

// Apply layers the given attributes over the configuration, returning
// the revalidated result. Used for command line overrides.
func (c Config) Apply(attrs map[string]interface{}) (Config, error) {
	merged := make(map[string]interface{}, len(c)+len(attrs))
	for key, value := range c {
		merged[key] = value
	}
	for key, value := range attrs {
		merged[key] = value
	}
	cfg, err := NewConfig(merged)
	return cfg, errors.Trace(err)
}

func (c Config) asString(name string) string {
	value, _ := c[name].(string)
	return value
}

// HTTPAddr returns the address the HTTP API listens on.
func (c Config) HTTPAddr() string {
	return c.asString(HTTPAddr)
}

// DBPath returns the path of the SQLite database file.
func (c Config) DBPath() string {
	return c.asString(DBPath)
}

// LoggingConfig returns the loggo configuration string applied at
// startup.
func (c Config) LoggingConfig() string {
	return c.asString(LoggingConfig)
}

// ShutdownTimeout returns the grace period for in-flight requests.
func (c Config) ShutdownTimeout() time.Duration {
	// Validate established the attribute parses.
	d, _ := time.ParseDuration(c.asString(ShutdownTimeout))
	return d
}

// MetricsEnabled reports whether the Prometheus endpoint is served.
func (c Config) MetricsEnabled() bool {
	value, _ := c[MetricsEnabled].(bool)
	return value
}
