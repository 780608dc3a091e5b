// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// aaacfgd stores the device AAA method configuration in SQLite and
// serves it as a typed REST API with a websocket change stream.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/juju/cmd/v3"
	"github.com/juju/errors"
	"github.com/juju/gnuflag"
	"github.com/juju/loggo"

	"github.com/canonical/aaacfg/daemon"
	"github.com/canonical/aaacfg/version"
)

var logger = loggo.GetLogger("aaacfg.cmd.aaacfgd")

const serverDoc = `
aaacfgd stores the AAA method configuration (authentication,
authorization and accounting) in SQLite and serves it as a typed REST
API with a websocket change stream.

Configuration is read from an optional YAML file and individual
attributes can be overridden with command line flags.
`

func main() {
	ctx, err := cmd.DefaultContext()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}
	os.Exit(cmd.Main(newServerCommand(), ctx, os.Args[1:]))
}

func newServerCommand() *serverCommand {
	return &serverCommand{}
}

type serverCommand struct {
	cmd.CommandBase

	configPath    string
	httpAddr      string
	dbPath        string
	loggingConfig string
}

// Info implements cmd.Command.
func (c *serverCommand) Info() *cmd.Info {
	return &cmd.Info{
		Name:    "aaacfgd",
		Purpose: "run the AAA configuration daemon",
		Doc:     serverDoc,
	}
}

// SetFlags implements cmd.Command.
func (c *serverCommand) SetFlags(f *gnuflag.FlagSet) {
	c.CommandBase.SetFlags(f)
	f.StringVar(&c.configPath, "config", "", "path to the daemon configuration file")
	f.StringVar(&c.httpAddr, "http-addr", "", "host:port the HTTP API listens on")
	f.StringVar(&c.dbPath, "db-path", "", "path of the SQLite database")
	f.StringVar(&c.loggingConfig, "logging-config", "", "specify log levels for modules")
}

// Init implements cmd.Command.
func (c *serverCommand) Init(args []string) error {
	return cmd.CheckEmpty(args)
}

// Run implements cmd.Command.
func (c *serverCommand) Run(ctx *cmd.Context) error {
	cfg, err := c.buildConfig()
	if err != nil {
		return errors.Trace(err)
	}
	if err := loggo.ConfigureLoggers(cfg.LoggingConfig()); err != nil {
		return errors.Annotate(err, "configuring loggers")
	}
	logger.Infof("aaacfgd %s starting", version.Current)

	srv, err := daemon.NewServer(context.Background(), cfg)
	if err != nil {
		return errors.Trace(err)
	}
	logger.Infof("AAA configuration API on %q, database at %q",
		srv.Addr(), cfg.DBPath())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Infof("received %v, shutting down", sig)
		srv.Kill()
	}()
	return errors.Trace(srv.Wait())
}

// buildConfig layers the command line flags over the configuration
// file, or over the defaults when no file is given.
func (c *serverCommand) buildConfig() (daemon.Config, error) {
	var cfg daemon.Config
	var err error
	if c.configPath != "" {
		cfg, err = daemon.ReadConfig(c.configPath)
	} else {
		cfg, err = daemon.NewConfig(nil)
	}
	if err != nil {
		return nil, errors.Trace(err)
	}

	overrides := make(map[string]interface{})
	if c.httpAddr != "" {
		overrides[daemon.HTTPAddr] = c.httpAddr
	}
	if c.dbPath != "" {
		overrides[daemon.DBPath] = c.dbPath
	}
	if c.loggingConfig != "" {
		overrides[daemon.LoggingConfig] = c.loggingConfig
	}
	if len(overrides) == 0 {
		return cfg, nil
	}
	cfg, err = cfg.Apply(overrides)
	return cfg, errors.Trace(err)
}
