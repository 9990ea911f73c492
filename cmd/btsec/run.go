package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/rigado/btsec"
	"github.com/rigado/btsec/config"
	"github.com/rigado/btsec/linux/hci"
	"github.com/rigado/btsec/linux/hci/controller"
	"github.com/rigado/btsec/linux/hci/sec"
	"github.com/urfave/cli"
)

// hciSender lets the manager be built before the controller it sends to,
// which needs the manager as its event handler.
type hciSender struct {
	h *controller.HCI
}

func (s *hciSender) Send(c hci.Command) error {
	if s.h == nil {
		return errors.New("controller not open")
	}
	return s.h.Send(c)
}

// headless answers pairing requests without a user.
type headless struct {
	logger btsec.Logger
	accept bool
	pin    []byte
	m      *sec.Manager
}

func (hl *headless) callbacks() sec.Callbacks {
	return sec.Callbacks{
		PIN: func(a btsec.Addr, _ btsec.DevClass, name string, _ bool) {
			res := btsec.StatusSuccess
			if len(hl.pin) == 0 {
				hl.logger.Infof("%v (%s): no PIN configured, rejecting", a, name)
				res = btsec.StatusNotAuthorized
			}
			hl.m.PINCodeReply(a, res, hl.pin, nil)
		},
		LinkKey: func(a btsec.Addr, _ btsec.DevClass, name string, _ btsec.LinkKey, kt btsec.KeyType) {
			hl.logger.Infof("%v (%s): new %v key", a, name, kt)
		},
		AuthComplete: func(a btsec.Addr, _ btsec.DevClass, name string, status hci.ErrCommand) {
			hl.logger.Infof("%v (%s): authentication complete: %v", a, name, status)
		},
		Authorize: func(a btsec.Addr, _ btsec.DevClass, name, service string, _ uint8, _ bool) btsec.Status {
			hl.logger.Infof("%v (%s): authorized for %s", a, name, service)
			return btsec.StatusSuccess
		},
		SP: func(e *sec.SPEvent) btsec.Status {
			switch e.Kind {
			case sec.SPConfirmRequest:
				if !hl.accept {
					hl.logger.Infof("%v: rejecting comparison of %06d", e.Addr, e.NumericValue)
					return btsec.StatusNotAuthorized
				}
				hl.logger.Infof("%v: accepting comparison of %06d", e.Addr, e.NumericValue)
				hl.m.ConfirmReqReply(btsec.StatusSuccess, e.Addr)
			case sec.SPKeyRequest, sec.SPRemoteOOBRequest:
				return btsec.StatusNotAuthorized
			case sec.SPKeyNotification:
				hl.logger.Infof("%v: passkey %06d", e.Addr, e.Passkey)
			case sec.SPComplete:
				hl.logger.Infof("%v: simple pairing complete: %v", e.Addr, e.Status)
			}
			return btsec.StatusSuccess
		},
	}
}

func runCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	opts, err := managerOptions(cfg)
	if err != nil {
		return err
	}
	logger := btsec.GetLogger().ChildLogger(map[string]interface{}{"component": "run"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hl := &headless{logger: logger, accept: c.Bool("accept"), pin: []byte(cfg.PIN)}
	s := &hciSender{}
	m, err := sec.New(s, hl.callbacks(), opts...)
	if err != nil {
		return err
	}
	hl.m = m

	skt, err := hci.OpenTransport(cfg.HCITransport())
	if err != nil {
		return errors.Wrap(err, "can't open transport")
	}
	h, err := controller.NewHCI(skt,
		controller.OptEventHandler(m),
		controller.OptLogger(logger),
		controller.OptErrorHandler(func(err error) {
			logger.Errorf("controller: %v", err)
			cancel()
		}),
	)
	if err != nil {
		skt.Close()
		return err
	}
	defer h.Close()
	if err := h.Init(); err != nil {
		return errors.Wrap(err, "can't init controller")
	}
	s.h = h
	if cfg.LocalAddr == "" {
		if err := m.SetLocalAddr(h.Addr()); err != nil {
			return err
		}
	}

	go m.Run(ctx)
	if err := m.Do(ctx, m.Reset); err != nil {
		return err
	}
	logger.Infof("running on %v, security mode %s", h.Addr(), cfg.SecurityMode)

	if path := c.GlobalString("config"); path != "" {
		go func() {
			if err := config.WatchAndApply(ctx, path, m); err != nil && err != context.Canceled {
				logger.Errorf("config watch: %v", err)
			}
		}()
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
		return h.Error()
	}
	return m.Do(context.Background(), m.DeviceDown)
}
