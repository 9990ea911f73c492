package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/pkg/errors"
	"github.com/rigado/btsec"
	"github.com/rigado/btsec/config"
	"github.com/rigado/btsec/linux/hci"
	"github.com/rigado/btsec/linux/hci/sec"
	"github.com/rigado/btsec/linux/hci/sim"
	"github.com/urfave/cli"
)

const consoleHelp = `commands:
  peer <addr> [name=..] [io=DisplayYesNo] [legacy] [sc] [pin=..] [passkey=..] [mitm] [reject] [away]
  peers                       list simulated peers
  connect <addr>              the peer pages us
  pair <addr>                 the peer authenticates the link
  drop <addr>                 the peer disconnects
  bond <addr> [pin]           dedicated bonding
  cancel <addr>               cancel bonding
  confirm <addr> yes|no       answer a numeric comparison
  passkey <addr> <digits>     answer a passkey request
  pin <addr> <pin>            answer a PIN request, empty rejects
  oob local                   read our OOB data
  oob peer <addr>             take the peer's OOB data for the next pairing
  flags <addr>                security flags of a device
  unbond <addr>               delete the stored link key
  pairable on|off [paired]    allow pairing, optionally only from bonded peers
  state                       pairing state
  help
  exit`

// console pairs a manager with a simulated controller from a readline
// prompt.
type console struct {
	ctx context.Context
	rl  *readline.Instance
	m   *sec.Manager
	sim *sim.Controller
}

func consoleCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	opts, err := managerOptions(cfg)
	if err != nil {
		return err
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "btsec> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return errors.Wrap(err, "can't create readline")
	}
	defer rl.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	con := &console{ctx: ctx, rl: rl, sim: sim.New()}
	con.m, err = sec.New(con.sim, con.callbacks(), opts...)
	if err != nil {
		return err
	}
	con.sim.Attach(con.m)
	go con.m.Run(ctx)
	if err := con.m.Do(ctx, con.m.Reset); err != nil {
		return err
	}

	if path := c.GlobalString("config"); path != "" {
		go func() {
			if err := config.WatchAndApply(ctx, path, con.m); err != nil && err != context.Canceled {
				fmt.Fprintf(rl.Stderr(), "config watch: %v\n", err)
			}
		}()
	}

	fmt.Fprintln(rl.Stdout(), consoleHelp)
	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err != nil {
			return nil
		}
		args := strings.Fields(line)
		if len(args) == 0 {
			continue
		}
		if args[0] == "exit" || args[0] == "quit" {
			return nil
		}
		if err := con.exec(args); err != nil {
			fmt.Fprintf(rl.Stdout(), "error: %v\n", err)
		}
	}
}

func (con *console) out() io.Writer {
	return con.rl.Stdout()
}

func (con *console) callbacks() sec.Callbacks {
	return sec.Callbacks{
		PIN: func(a btsec.Addr, class btsec.DevClass, name string, min16 bool) {
			fmt.Fprintf(con.out(), "%v (%s) wants a PIN, answer with: pin %v <pin>\n", a, name, a)
		},
		LinkKey: func(a btsec.Addr, _ btsec.DevClass, name string, _ btsec.LinkKey, kt btsec.KeyType) {
			fmt.Fprintf(con.out(), "%v (%s): new %v key\n", a, name, kt)
		},
		AuthComplete: func(a btsec.Addr, _ btsec.DevClass, name string, status hci.ErrCommand) {
			fmt.Fprintf(con.out(), "%v (%s): authentication complete: %v\n", a, name, status)
		},
		BondCancelComplete: func(status btsec.Status) {
			fmt.Fprintf(con.out(), "bond cancel complete: %v\n", status)
		},
		Authorize: func(a btsec.Addr, _ btsec.DevClass, name, service string, _ uint8, _ bool) btsec.Status {
			fmt.Fprintf(con.out(), "%v (%s): authorized for %s\n", a, name, service)
			return btsec.StatusSuccess
		},
		SP: con.sp,
		Abort: func(a btsec.Addr, _ btsec.DevClass, name string) {
			fmt.Fprintf(con.out(), "%v (%s): access aborted\n", a, name)
		},
	}
}

func (con *console) sp(e *sec.SPEvent) btsec.Status {
	w := con.out()
	switch e.Kind {
	case sec.SPConfirmRequest:
		if e.JustWorks {
			fmt.Fprintf(w, "%v (%s): just works, answer with: confirm %v yes|no\n", e.Addr, e.Name, e.Addr)
		} else {
			fmt.Fprintf(w, "%v (%s): does %06d match? answer with: confirm %v yes|no\n",
				e.Addr, e.Name, e.NumericValue, e.Addr)
		}
	case sec.SPKeyRequest:
		fmt.Fprintf(w, "%v (%s): enter the passkey shown on the peer: passkey %v <digits>\n", e.Addr, e.Name, e.Addr)
	case sec.SPKeyNotification:
		fmt.Fprintf(w, "%v (%s): type %06d on the peer\n", e.Addr, e.Name, e.Passkey)
	case sec.SPKeypress:
		fmt.Fprintf(w, "%v: keypress %d\n", e.Addr, e.Keypress)
	case sec.SPComplete:
		fmt.Fprintf(w, "%v (%s): simple pairing complete: %v\n", e.Addr, e.Name, e.Status)
	case sec.SPLocalOOB:
		if e.Status != hci.Success {
			fmt.Fprintf(w, "local oob failed: %v\n", e.Status)
			break
		}
		fmt.Fprintf(w, "local oob: hash %x rand %x\n", e.C, e.R)
	case sec.SPRemoteOOBRequest:
		fmt.Fprintf(w, "%v: no oob data, run: oob peer %v\n", e.Addr, e.Addr)
		return btsec.StatusNotAuthorized
	case sec.SPIOResponse:
		fmt.Fprintf(w, "%v: peer io %v auth 0x%02x\n", e.Addr, e.IOCap, uint8(e.AuthReq))
	case sec.SPUpgrade:
		e.Upgrade = true
	}
	return btsec.StatusSuccess
}

// do runs fn on the manager goroutine.
func (con *console) do(fn func()) error {
	return con.m.Do(con.ctx, fn)
}

func (con *console) exec(args []string) error {
	cmd, args := args[0], args[1:]
	if cmd == "help" {
		fmt.Fprintln(con.out(), consoleHelp)
		return nil
	}
	if cmd == "peers" {
		for _, p := range con.sim.Peers() {
			fmt.Fprintf(con.out(), "%v %-16s io=%v ssp=%v connected=%v encrypted=%v\n",
				p.Addr, p.Name, p.IOCap, p.SSP, p.Connected(), p.Encrypted())
		}
		return nil
	}
	if cmd == "state" {
		var st sec.PairingState
		var a btsec.Addr
		if err := con.do(func() { st, a = con.m.PairingState() }); err != nil {
			return err
		}
		fmt.Fprintf(con.out(), "%v %v\n", st, a)
		return nil
	}
	if cmd == "oob" && len(args) == 1 && args[0] == "local" {
		return con.status(func() btsec.Status { return con.m.ReadLocalOOB() })
	}
	if cmd == "pairable" {
		return con.pairable(args)
	}

	if len(args) == 0 {
		return errors.Errorf("%s: missing address", cmd)
	}
	if cmd == "oob" {
		if args[0] != "peer" || len(args) != 2 {
			return errors.New("usage: oob local | oob peer <addr>")
		}
		args = args[1:]
	}
	a, err := btsec.ParseAddr(args[0])
	if err != nil {
		return err
	}
	args = args[1:]

	switch cmd {
	case "peer":
		p, err := parsePeer(a, args)
		if err != nil {
			return err
		}
		con.sim.AddPeer(p)
		return nil
	case "connect":
		return con.sim.Connect(a)
	case "pair":
		return con.sim.Pair(a)
	case "drop":
		return con.sim.Disconnect(a)
	case "bond":
		var pin []byte
		if len(args) > 0 {
			pin = []byte(args[0])
		}
		return con.status(func() btsec.Status { return con.m.Bond(a, pin, nil) })
	case "cancel":
		return con.status(func() btsec.Status { return con.m.BondCancel(a) })
	case "confirm":
		if len(args) != 1 {
			return errors.New("usage: confirm <addr> yes|no")
		}
		res := btsec.StatusSuccess
		if args[0] != "yes" {
			res = btsec.StatusNotAuthorized
		}
		return con.do(func() { con.m.ConfirmReqReply(res, a) })
	case "passkey":
		if len(args) != 1 {
			return errors.New("usage: passkey <addr> <digits>")
		}
		v, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil || v > btsec.MaxPasskey {
			return errors.Errorf("invalid passkey %q", args[0])
		}
		return con.status(func() btsec.Status { return con.m.PasskeyReqReply(btsec.StatusSuccess, a, uint32(v)) })
	case "pin":
		res, pin := btsec.StatusNotAuthorized, []byte(nil)
		if len(args) > 0 {
			res, pin = btsec.StatusSuccess, []byte(args[0])
		}
		return con.do(func() { con.m.PINCodeReply(a, res, pin, nil) })
	case "oob":
		l, err := con.sim.PeerOOB(a)
		if err != nil {
			return err
		}
		return con.do(func() { con.m.SetRemoteOOB(a, l.C, l.R) })
	case "flags":
		var f sec.Flags
		var ok bool
		if err := con.do(func() { f, ok = con.m.SecurityFlags(a, btsec.TransportBREDR) }); err != nil {
			return err
		}
		if !ok {
			return errors.Errorf("%v unknown", a)
		}
		fmt.Fprintln(con.out(), f)
		return nil
	case "unbond":
		return con.status(func() btsec.Status { return con.m.DeleteStoredLinkKey(a) })
	}
	return errors.Errorf("unknown command %q, try help", cmd)
}

// status runs fn on the manager goroutine and reports a failed status.
func (con *console) status(fn func() btsec.Status) error {
	var st btsec.Status
	if err := con.do(func() { st = fn() }); err != nil {
		return err
	}
	switch st {
	case btsec.StatusSuccess, btsec.StatusCmdStarted:
		return nil
	}
	return errors.New(st.String())
}

func (con *console) pairable(args []string) error {
	if len(args) == 0 || (args[0] != "on" && args[0] != "off") {
		return errors.New("usage: pairable on|off [paired]")
	}
	allow := args[0] == "on"
	onlyPaired := len(args) > 1 && args[1] == "paired"
	return con.do(func() { con.m.SetPairableMode(allow, onlyPaired) })
}

// parsePeer builds a simulated peer from key=value and flag words. Peers
// default to a secure simple pairing phone.
func parsePeer(a btsec.Addr, args []string) (*sim.Peer, error) {
	p := &sim.Peer{
		Addr:    a,
		Class:   btsec.DevClass{0x5a, 0x02, 0x0c},
		Name:    a.String(),
		SSP:     true,
		IOCap:   btsec.IOCapDisplayYesNo,
		AuthReq: btsec.AuthSPGBNo,
	}
	for _, arg := range args {
		kv := strings.SplitN(arg, "=", 2)
		key, val := kv[0], ""
		if len(kv) == 2 {
			val = kv[1]
		}
		switch key {
		case "name":
			p.Name = val
		case "io":
			c, err := btsec.ParseIOCap(val)
			if err != nil {
				return nil, err
			}
			p.IOCap = c
		case "class":
			d, err := parseClass(val)
			if err != nil {
				return nil, err
			}
			p.Class = d
		case "pin":
			p.PIN = val
		case "passkey":
			v, err := strconv.ParseUint(val, 10, 32)
			if err != nil || v > btsec.MaxPasskey {
				return nil, errors.Errorf("invalid passkey %q", val)
			}
			p.Passkey = uint32(v)
		case "legacy":
			p.SSP = false
		case "sc":
			p.SC = true
		case "mitm":
			p.AuthReq = btsec.AuthSPGBYes
		case "reject":
			p.Reject = true
		case "away":
			p.Unreachable = true
		default:
			return nil, errors.Errorf("unknown peer option %q", arg)
		}
	}
	return p, nil
}
