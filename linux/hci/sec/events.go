package sec

import (
	"github.com/pkg/errors"
	"github.com/rigado/btsec"
	"github.com/rigado/btsec/linux/hci"
	"github.com/rigado/btsec/linux/hci/cmd"
	"github.com/rigado/btsec/linux/hci/evt"
)

func (m *Manager) initEventHandlers() {
	m.evth = map[int]handlerFn{
		evt.ConnectionCompleteCode:                      m.handleConnectionComplete,
		evt.ConnectionRequestCode:                       m.handleConnectionRequest,
		evt.DisconnectionCompleteCode:                   m.handleDisconnectionComplete,
		evt.AuthenticationCompleteCode:                  m.handleAuthenticationComplete,
		evt.RemoteNameRequestCompleteCode:               m.handleRemoteNameRequestComplete,
		evt.EncryptionChangeCode:                        m.handleEncryptionChange,
		evt.CommandCompleteCode:                         m.handleCommandComplete,
		evt.RoleChangeCode:                              m.handleRoleChange,
		evt.PINCodeRequestCode:                          m.handlePINCodeRequest,
		evt.LinkKeyRequestCode:                          m.handleLinkKeyRequest,
		evt.LinkKeyNotificationCode:                     m.handleLinkKeyNotification,
		evt.IOCapabilityRequestCode:                     m.handleIOCapabilityRequest,
		evt.IOCapabilityResponseCode:                    m.handleIOCapabilityResponse,
		evt.UserConfirmationRequestCode:                 m.handleUserConfirmationRequest,
		evt.UserPasskeyRequestCode:                      m.handleUserPasskeyRequest,
		evt.RemoteOOBDataRequestCode:                    m.handleRemoteOOBDataRequest,
		evt.SimplePairingCompleteCode:                   m.handleSimplePairingComplete,
		evt.UserPasskeyNotificationCode:                 m.handleUserPasskeyNotification,
		evt.KeypressNotificationCode:                    m.handleKeypressNotification,
		evt.RemoteHostSupportedFeaturesNotificationCode: m.handleRemoteHostSupportedFeatures,
	}
}

// Opcodes of the command completes the controller forwards.
var (
	opReadLocalOOBData        = (&cmd.ReadLocalOOBData{}).OpCode()
	opCreateConnectionCancel  = (&cmd.CreateConnectionCancel{}).OpCode()
	opRemoteNameRequestCancel = (&cmd.RemoteNameRequestCancel{}).OpCode()
)

func (m *Manager) handleConnectionComplete(b []byte) error {
	e := evt.ConnectionComplete(b)
	status, err := e.StatusWErr()
	if err != nil {
		return errors.Wrap(err, "connection complete")
	}
	h, err := e.ConnectionHandleWErr()
	if err != nil {
		return errors.Wrap(err, "connection complete")
	}
	a, err := e.BDADDRWErr()
	if err != nil {
		return errors.Wrap(err, "connection complete")
	}
	lt, err := e.LinkTypeWErr()
	if err != nil {
		return errors.Wrap(err, "connection complete")
	}
	enc, err := e.EncryptionEnabledWErr()
	if err != nil {
		return errors.Wrap(err, "connection complete")
	}
	if lt != hci.LinkTypeACL {
		return nil
	}
	m.connected(btsec.AddrFromWire(a), h, hci.ErrCommand(status), enc == hci.EncryptionOn)
	return nil
}

func (m *Manager) handleConnectionRequest(b []byte) error {
	e := evt.ConnectionRequest(b)
	a, err := e.BDADDRWErr()
	if err != nil {
		return errors.Wrap(err, "connection request")
	}
	cod, err := e.ClassOfDeviceWErr()
	if err != nil {
		return errors.Wrap(err, "connection request")
	}
	lt, err := e.LinkTypeWErr()
	if err != nil {
		return errors.Wrap(err, "connection request")
	}
	m.connReq(btsec.AddrFromWire(a), btsec.DevClassFromWire(cod), lt)
	return nil
}

func (m *Manager) handleDisconnectionComplete(b []byte) error {
	e := evt.DisconnectionComplete(b)
	status, err := e.StatusWErr()
	if err != nil {
		return errors.Wrap(err, "disconnection complete")
	}
	h, err := e.ConnectionHandleWErr()
	if err != nil {
		return errors.Wrap(err, "disconnection complete")
	}
	reason, err := e.ReasonWErr()
	if err != nil {
		return errors.Wrap(err, "disconnection complete")
	}
	if hci.ErrCommand(status) != hci.Success {
		m.logger.Warnf("disconnect of 0x%04x failed: %v", h, hci.ErrCommand(status))
		if r := m.devs.findByHandle(h); r != nil && r.state == stateDisconnecting {
			r.state = stateIdle
		}
		return nil
	}
	m.disconnected(h, hci.ErrCommand(reason))
	return nil
}

func (m *Manager) handleAuthenticationComplete(b []byte) error {
	e := evt.AuthenticationComplete(b)
	status, err := e.StatusWErr()
	if err != nil {
		return errors.Wrap(err, "authentication complete")
	}
	h, err := e.ConnectionHandleWErr()
	if err != nil {
		return errors.Wrap(err, "authentication complete")
	}
	m.authComplete(h, hci.ErrCommand(status))
	return nil
}

func (m *Manager) handleRemoteNameRequestComplete(b []byte) error {
	e := evt.RemoteNameRequestComplete(b)
	status, err := e.StatusWErr()
	if err != nil {
		return errors.Wrap(err, "remote name complete")
	}
	a, err := e.BDADDRWErr()
	if err != nil {
		return errors.Wrap(err, "remote name complete")
	}
	var name string
	if hci.ErrCommand(status) == hci.Success {
		if _, err := e.RemoteNameWErr(); err != nil {
			return errors.Wrap(err, "remote name complete")
		}
		name = e.Name()
	}
	m.remoteNameComplete(btsec.AddrFromWire(a), name, hci.ErrCommand(status))
	return nil
}

func (m *Manager) handleEncryptionChange(b []byte) error {
	e := evt.EncryptionChange(b)
	status, err := e.StatusWErr()
	if err != nil {
		return errors.Wrap(err, "encryption change")
	}
	h, err := e.ConnectionHandleWErr()
	if err != nil {
		return errors.Wrap(err, "encryption change")
	}
	enc, err := e.EncryptionEnabledWErr()
	if err != nil {
		return errors.Wrap(err, "encryption change")
	}
	m.encryptChange(h, hci.ErrCommand(status), enc != hci.EncryptionOff)
	return nil
}

func (m *Manager) handleCommandComplete(b []byte) error {
	e := evt.CommandComplete(b)
	op, err := e.CommandOpcodeWErr()
	if err != nil {
		return errors.Wrap(err, "command complete")
	}
	rp, err := e.ReturnParametersWErr()
	if err != nil {
		return errors.Wrap(err, "command complete")
	}

	switch int(op) {
	case opReadLocalOOBData:
		var oob cmd.ReadLocalOOBDataRP
		if err := oob.Unmarshal(rp); err != nil {
			return err
		}
		m.readLocalOOBComplete(&oob)
	case opCreateConnectionCancel:
		if len(rp) < 1 {
			return errors.New("create connection cancel: short return parameters")
		}
		m.createConnCancelComplete(hci.ErrCommand(rp[0]))
	case opRemoteNameRequestCancel:
		// the name request completes on its own, only failures matter here
		if len(rp) > 0 && hci.ErrCommand(rp[0]) != hci.Success {
			m.logger.Debugf("remote name cancel: %v", hci.ErrCommand(rp[0]))
		}
	default:
		return errors.Errorf("unexpected command complete 0x%04x", op)
	}
	return nil
}

func (m *Manager) handleRoleChange(b []byte) error {
	e := evt.RoleChange(b)
	status, err := e.StatusWErr()
	if err != nil {
		return errors.Wrap(err, "role change")
	}
	a, err := e.BDADDRWErr()
	if err != nil {
		return errors.Wrap(err, "role change")
	}
	role, err := e.NewRoleWErr()
	if err != nil {
		return errors.Wrap(err, "role change")
	}
	m.roleChange(btsec.AddrFromWire(a), hci.ErrCommand(status), role)
	return nil
}

func (m *Manager) handlePINCodeRequest(b []byte) error {
	a, err := evt.PINCodeRequest(b).BDADDRWErr()
	if err != nil {
		return errors.Wrap(err, "pin code request")
	}
	m.pinCodeRequest(btsec.AddrFromWire(a))
	return nil
}

func (m *Manager) handleLinkKeyRequest(b []byte) error {
	a, err := evt.LinkKeyRequest(b).BDADDRWErr()
	if err != nil {
		return errors.Wrap(err, "link key request")
	}
	m.linkKeyRequest(btsec.AddrFromWire(a))
	return nil
}

func (m *Manager) handleLinkKeyNotification(b []byte) error {
	e := evt.LinkKeyNotification(b)
	a, err := e.BDADDRWErr()
	if err != nil {
		return errors.Wrap(err, "link key notification")
	}
	key, err := e.LinkKeyWErr()
	if err != nil {
		return errors.Wrap(err, "link key notification")
	}
	kt, err := e.KeyTypeWErr()
	if err != nil {
		return errors.Wrap(err, "link key notification")
	}
	m.linkKeyNotification(btsec.AddrFromWire(a), btsec.LinkKey(key), btsec.KeyType(kt))
	return nil
}

func (m *Manager) handleIOCapabilityRequest(b []byte) error {
	a, err := evt.IOCapabilityRequest(b).BDADDRWErr()
	if err != nil {
		return errors.Wrap(err, "io capability request")
	}
	m.ioCapRequest(btsec.AddrFromWire(a))
	return nil
}

func (m *Manager) handleIOCapabilityResponse(b []byte) error {
	e := evt.IOCapabilityResponse(b)
	a, err := e.BDADDRWErr()
	if err != nil {
		return errors.Wrap(err, "io capability response")
	}
	io, err := e.IOCapabilityWErr()
	if err != nil {
		return errors.Wrap(err, "io capability response")
	}
	oob, err := e.OOBDataPresentWErr()
	if err != nil {
		return errors.Wrap(err, "io capability response")
	}
	auth, err := e.AuthenticationRequirementsWErr()
	if err != nil {
		return errors.Wrap(err, "io capability response")
	}
	m.ioCapResponse(btsec.AddrFromWire(a), btsec.IOCap(io), btsec.OOBPresent(oob), btsec.AuthReq(auth))
	return nil
}

func (m *Manager) handleUserConfirmationRequest(b []byte) error {
	e := evt.UserConfirmationRequest(b)
	a, err := e.BDADDRWErr()
	if err != nil {
		return errors.Wrap(err, "user confirmation request")
	}
	v, err := e.NumericValueWErr()
	if err != nil {
		return errors.Wrap(err, "user confirmation request")
	}
	m.spRequest(SPConfirmRequest, btsec.AddrFromWire(a), v)
	return nil
}

func (m *Manager) handleUserPasskeyRequest(b []byte) error {
	a, err := evt.UserPasskeyRequest(b).BDADDRWErr()
	if err != nil {
		return errors.Wrap(err, "user passkey request")
	}
	m.spRequest(SPKeyRequest, btsec.AddrFromWire(a), 0)
	return nil
}

func (m *Manager) handleRemoteOOBDataRequest(b []byte) error {
	a, err := evt.RemoteOOBDataRequest(b).BDADDRWErr()
	if err != nil {
		return errors.Wrap(err, "remote oob data request")
	}
	m.remoteOOBRequest(btsec.AddrFromWire(a))
	return nil
}

func (m *Manager) handleSimplePairingComplete(b []byte) error {
	e := evt.SimplePairingComplete(b)
	status, err := e.StatusWErr()
	if err != nil {
		return errors.Wrap(err, "simple pairing complete")
	}
	a, err := e.BDADDRWErr()
	if err != nil {
		return errors.Wrap(err, "simple pairing complete")
	}
	m.simplePairingComplete(hci.ErrCommand(status), btsec.AddrFromWire(a))
	return nil
}

func (m *Manager) handleUserPasskeyNotification(b []byte) error {
	e := evt.UserPasskeyNotification(b)
	a, err := e.BDADDRWErr()
	if err != nil {
		return errors.Wrap(err, "user passkey notification")
	}
	pk, err := e.PasskeyWErr()
	if err != nil {
		return errors.Wrap(err, "user passkey notification")
	}
	m.spRequest(SPKeyNotification, btsec.AddrFromWire(a), pk)
	return nil
}

func (m *Manager) handleKeypressNotification(b []byte) error {
	e := evt.KeypressNotification(b)
	a, err := e.BDADDRWErr()
	if err != nil {
		return errors.Wrap(err, "keypress notification")
	}
	k, err := e.NotificationTypeWErr()
	if err != nil {
		return errors.Wrap(err, "keypress notification")
	}
	m.keypress(btsec.AddrFromWire(a), btsec.Keypress(k))
	return nil
}

func (m *Manager) handleRemoteHostSupportedFeatures(b []byte) error {
	e := evt.RemoteHostSupportedFeaturesNotification(b)
	a, err := e.BDADDRWErr()
	if err != nil {
		return errors.Wrap(err, "remote host features")
	}
	feat, err := e.HostSupportedFeaturesWErr()
	if err != nil {
		return errors.Wrap(err, "remote host features")
	}
	m.hostFeatures(btsec.AddrFromWire(a), feat)
	return nil
}
