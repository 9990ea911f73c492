package main

import (
	"encoding/hex"
	"fmt"

	"github.com/pkg/errors"
	"github.com/rigado/btsec"
	"github.com/rigado/btsec/oob"
	"github.com/urfave/cli"
)

func parseHash(s string) ([16]byte, error) {
	var h [16]byte
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != len(h) {
		return h, errors.Errorf("invalid 16 byte hex value %q", s)
	}
	copy(h[:], b)
	return h, nil
}

func parseClass(s string) (btsec.DevClass, error) {
	var d btsec.DevClass
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != len(d) {
		return d, errors.Errorf("invalid class of device %q", s)
	}
	copy(d[:], b)
	return d, nil
}

func oobBuildCommand(c *cli.Context) error {
	addr, err := btsec.ParseAddr(c.String("addr"))
	if err != nil {
		return err
	}

	var hc, hr [16]byte
	switch {
	case c.String("hash") != "" || c.String("rand") != "":
		if hc, err = parseHash(c.String("hash")); err != nil {
			return err
		}
		if hr, err = parseHash(c.String("rand")); err != nil {
			return err
		}
	default:
		l, err := oob.Generate(nil)
		if err != nil {
			return err
		}
		hc, hr = l.C, l.R
	}

	fields := []oob.Field{oob.HashC(hc), oob.RandR(hr)}
	if s := c.String("class"); s != "" {
		d, err := parseClass(s)
		if err != nil {
			return err
		}
		fields = append(fields, oob.Class(d))
	}
	if n := c.String("name"); n != "" {
		fields = append(fields, oob.Name(n, c.Int("name-len")))
	}

	b, err := oob.Build(c.Int("max"), addr, fields...)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, hex.EncodeToString(b))
	return nil
}

func oobParseCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("expected one hex block")
	}
	b, err := hex.DecodeString(c.Args().First())
	if err != nil {
		return errors.Wrap(err, "invalid hex")
	}
	d, err := oob.Parse(b)
	if err != nil {
		return err
	}

	w := c.App.Writer
	fmt.Fprintf(w, "addr:  %v\n", d.Addr)
	if d.HasC {
		fmt.Fprintf(w, "hash:  %x\n", d.C)
	}
	if d.HasR {
		fmt.Fprintf(w, "rand:  %x\n", d.R)
	}
	if d.HasClass {
		fmt.Fprintf(w, "class: %v\n", d.Class)
	}
	if d.Name != "" {
		kind := "short"
		if d.NameComplete {
			kind = "complete"
		}
		fmt.Fprintf(w, "name:  %s (%s)\n", d.Name, kind)
	}
	return nil
}
