// Command btsec drives the BR/EDR security manager, either against a
// simulated controller from an interactive console or headless against a
// real one, and handles OOB blocks and stored bonds.
package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/rigado/btsec"
	"github.com/rigado/btsec/config"
	"github.com/rigado/btsec/linux/hci/bond"
	"github.com/urfave/cli"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "btsec"
	app.Usage = "bluetooth classic security manager"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   "config, c",
			Usage:  "settings file, watched for pairing policy changes",
			EnvVar: "BTSEC_CONFIG",
		},
		cli.StringFlag{
			Name:  "log-level",
			Usage: "overrides log_level of the settings",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:   "console",
			Usage:  "pair with simulated peers interactively",
			Action: consoleCommand,
		},
		{
			Name:  "run",
			Usage: "run against the configured controller",
			Flags: []cli.Flag{
				cli.BoolFlag{
					Name:  "accept",
					Usage: "accept numeric comparisons and just works pairing",
				},
			},
			Action: runCommand,
		},
		{
			Name:  "oob",
			Usage: "out of band data blocks",
			Subcommands: []cli.Command{
				{
					Name:  "build",
					Usage: "build a block, generating C and R unless given",
					Flags: []cli.Flag{
						cli.StringFlag{Name: "addr", Usage: "device address"},
						cli.StringFlag{Name: "name", Usage: "local name"},
						cli.IntFlag{Name: "name-len", Value: 32, Usage: "longest name to include, 0 for none"},
						cli.StringFlag{Name: "class", Usage: "class of device, six hex digits"},
						cli.StringFlag{Name: "hash", Usage: "hash C, hex"},
						cli.StringFlag{Name: "rand", Usage: "randomizer R, hex"},
						cli.IntFlag{Name: "max", Value: 0xff, Usage: "block size limit"},
					},
					Action: oobBuildCommand,
				},
				{
					Name:      "parse",
					Usage:     "decode a hex block",
					ArgsUsage: "<hex>",
					Action:    oobParseCommand,
				},
			},
		},
		{
			Name:  "keys",
			Usage: "stored link keys",
			Subcommands: []cli.Command{
				{
					Name:   "list",
					Usage:  "list bonded devices",
					Action: keysListCommand,
				},
				{
					Name:      "delete",
					Usage:     "forget a bonded device",
					ArgsUsage: "<addr>",
					Action:    keysDeleteCommand,
				},
			},
		},
	}
	return app
}

// loadConfig reads the settings named by the global flags and sets up
// logging from them.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.GlobalString("config"))
	if err != nil {
		return nil, err
	}
	level := cfg.LogLevel
	if l := c.GlobalString("log-level"); l != "" {
		level = l
	}
	if err := btsec.SetLogLevel(level); err != nil {
		return nil, err
	}
	return cfg, nil
}

// managerOptions adds the bond store to the options of cfg.
func managerOptions(cfg *config.Config) ([]btsec.Option, error) {
	opts, err := cfg.Options()
	if err != nil {
		return nil, errors.Wrap(err, "invalid settings")
	}
	return append(opts, btsec.OptEnableBonding(bond.NewBondManager(cfg.BondFile))), nil
}
