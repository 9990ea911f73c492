package controller

import (
	"github.com/pkg/errors"
	"github.com/rigado/btsec"
)

// Option configures an HCI.
type Option func(*HCI) error

// OptEventHandler sets where security events are delivered.
func OptEventHandler(eh EventHandler) Option {
	return func(h *HCI) error {
		if eh == nil {
			return errors.New("nil event handler")
		}
		h.handler = eh
		return nil
	}
}

// OptErrorHandler sets the handler for transport level errors.
func OptErrorHandler(f func(error)) Option {
	return func(h *HCI) error {
		h.errorHandler = f
		return nil
	}
}

// OptLogger ...
func OptLogger(l btsec.Logger) Option {
	return func(h *HCI) error {
		h.logger = l
		return nil
	}
}
