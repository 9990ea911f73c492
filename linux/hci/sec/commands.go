package sec

import (
	"github.com/rigado/btsec/linux/hci"
	"github.com/rigado/btsec/linux/hci/cmd"
)

// send issues c and reports whether the controller accepted it.
func (m *Manager) send(c hci.Command) bool {
	if err := m.sender.Send(c); err != nil {
		m.logger.Errorf("%v failed: %v", c, err)
		return false
	}
	return true
}

func writeAuthEnable(on bool) hci.Command {
	c := &cmd.WriteAuthenticationEnable{AuthenticationEnable: hci.AuthenticationOff}
	if on {
		c.AuthenticationEnable = hci.AuthenticationOn
	}
	return c
}

func writeSimplePairingMode() hci.Command {
	return &cmd.WriteSimplePairingMode{SimplePairingMode: hci.SimplePairingOn}
}

func writeSimplePairingDebugMode(on bool) hci.Command {
	c := &cmd.WriteSimplePairingDebugMode{}
	if on {
		c.SimplePairingDebugMode = 1
	}
	return c
}

func writeSecureConnectionsHostSupport() hci.Command {
	return &cmd.WriteSecureConnectionsHostSupport{SecureConnectionsHostSupport: hci.SecureConnectionsOn}
}
