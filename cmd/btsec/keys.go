package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/rigado/btsec"
	"github.com/rigado/btsec/linux/hci/bond"
	"github.com/urfave/cli"
)

func keysListCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	bm := bond.NewBondManager(cfg.BondFile)
	keys, err := bm.List()
	if err != nil {
		return err
	}
	for _, k := range keys {
		a, err := btsec.ParseAddr(k)
		if err != nil {
			return err
		}
		bi, err := bm.Find(k)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "%v %v\n", a, btsec.KeyType(bi.KeyType()))
	}
	return nil
}

func keysDeleteCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("expected an address")
	}
	a, err := btsec.ParseAddr(c.Args().First())
	if err != nil {
		return err
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	bm := bond.NewBondManager(cfg.BondFile)
	if !bm.Exists(a.Key()) {
		return errors.Errorf("%v is not bonded", a)
	}
	return bm.Delete(a.Key())
}
