package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli"
	"github.com/warpdl/warptube/common"
	"github.com/warpdl/warptube/pkg/tubecli"
	"github.com/warpdl/warptube/pkg/tubelib"
)

var (
	clientHost    string
	clientPort    int
	clientSecret  string
	clientNoSpawn bool

	globalFlags = []cli.Flag{
		cli.StringFlag{
			Name:        "host",
			Usage:       "daemon host",
			EnvVar:      common.HostEnv,
			Value:       common.DefaultHost,
			Destination: &clientHost,
		},
		cli.IntFlag{
			Name:        "port",
			Usage:       "daemon port",
			EnvVar:      common.PortEnv,
			Value:       common.DefaultPort,
			Destination: &clientPort,
		},
		cli.StringFlag{
			Name:        "secret",
			Usage:       "RPC secret (default: keyring or config dir)",
			EnvVar:      common.SecretEnv,
			Destination: &clientSecret,
		},
		cli.BoolFlag{
			Name:        "no-spawn",
			Usage:       "do not start a daemon when none is running",
			Destination: &clientNoSpawn,
		},
	}
)

// cliVersion is compared against the daemon's version on connect.
var cliVersion string

var newClient = func(ctx context.Context) (*tubecli.Client, error) {
	c, err := tubecli.Dial(ctx, &tubecli.Options{
		Addr:   common.Addr(clientHost, clientPort),
		Secret: clientSecret,
		Spawn:  !clientNoSpawn,
	})
	if err != nil {
		return nil, err
	}
	c.CheckVersionMismatch(ctx, os.Stderr, cliVersion)
	return c, nil
}

// resolveID expands a unique id prefix against the queue. A ref matching
// nothing is passed through unchanged.
func resolveID(ctx context.Context, c *tubecli.Client, ref string) (string, error) {
	l, err := c.List(ctx, "")
	if err != nil {
		return "", err
	}
	var match []tubelib.Job
	for _, j := range l.Jobs {
		if j.ID == ref {
			return ref, nil
		}
		if strings.HasPrefix(j.ID, ref) {
			match = append(match, j)
		}
	}
	switch len(match) {
	case 0:
		return ref, nil
	case 1:
		return match[0].ID, nil
	}
	return "", fmt.Errorf("%q matches %d jobs; use a longer prefix", ref, len(match))
}
