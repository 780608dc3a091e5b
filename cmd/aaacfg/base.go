// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"context"
	"net"
	"os"

	"github.com/juju/cmd/v3"
	"github.com/juju/errors"
	"github.com/juju/gnuflag"

	"github.com/canonical/aaacfg/api"
	"github.com/canonical/aaacfg/apiserver/params"
)

// envAddr names the environment variable consulted for the daemon
// address when --addr is not given.
const envAddr = "AAACFG_ADDR"

// defaultAddr is where aaacfgd listens out of the box.
const defaultAddr = "localhost:17940"

// ClientAPI is the slice of the api.Client surface the subcommands
// consume. Tests substitute their own implementation.
type ClientAPI interface {
	Config(ctx context.Context) ([]params.SectionConfig, error)
	SectionConfig(ctx context.Context, section string) (params.SectionConfig, error)
	UpdateSection(ctx context.Context, section string, args params.SectionUpdateArgs) error
	ResetSection(ctx context.Context, section string) error
	WatchChanges(ctx context.Context) (<-chan params.ChangeNotification, func(), error)
}

// apiCommand supplies the --addr flag shared by every subcommand and
// builds the client pointed at the resolved address.
type apiCommand struct {
	cmd.CommandBase

	addr string

	// newClient is swapped out by tests.
	newClient func(addr string) (ClientAPI, error)
}

func (c *apiCommand) SetFlags(f *gnuflag.FlagSet) {
	c.CommandBase.SetFlags(f)
	f.StringVar(&c.addr, "addr", "", "host:port of the aaacfg daemon")
}

// client dials the daemon. The flag wins over the AAACFG_ADDR
// environment variable, which wins over the default.
func (c *apiCommand) client() (ClientAPI, error) {
	addr := c.addr
	if addr == "" {
		addr = os.Getenv(envAddr)
	}
	if addr == "" {
		addr = defaultAddr
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return nil, errors.NotValidf("address %q", addr)
	}
	if c.newClient != nil {
		return c.newClient(addr)
	}
	return api.NewClient(api.Config{BaseURL: "http://" + addr})
}
