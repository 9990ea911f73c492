package evt

func (e ConnectionComplete) Status() uint8 {
	v, _ := e.StatusWErr()
	return v
}

func (e ConnectionComplete) ConnectionHandle() uint16 {
	v, _ := e.ConnectionHandleWErr()
	return v
}

func (e ConnectionComplete) BDADDR() [6]byte {
	v, _ := e.BDADDRWErr()
	return v
}

func (e ConnectionComplete) LinkType() uint8 {
	v, _ := e.LinkTypeWErr()
	return v
}

func (e ConnectionComplete) EncryptionEnabled() uint8 {
	v, _ := e.EncryptionEnabledWErr()
	return v
}

func (e ConnectionRequest) BDADDR() [6]byte {
	v, _ := e.BDADDRWErr()
	return v
}

func (e ConnectionRequest) ClassOfDevice() [3]byte {
	v, _ := e.ClassOfDeviceWErr()
	return v
}

func (e ConnectionRequest) LinkType() uint8 {
	v, _ := e.LinkTypeWErr()
	return v
}

func (e DisconnectionComplete) Status() uint8 {
	v, _ := e.StatusWErr()
	return v
}

func (e DisconnectionComplete) ConnectionHandle() uint16 {
	v, _ := e.ConnectionHandleWErr()
	return v
}

func (e DisconnectionComplete) Reason() uint8 {
	v, _ := e.ReasonWErr()
	return v
}

func (e AuthenticationComplete) Status() uint8 {
	v, _ := e.StatusWErr()
	return v
}

func (e AuthenticationComplete) ConnectionHandle() uint16 {
	v, _ := e.ConnectionHandleWErr()
	return v
}

func (e RemoteNameRequestComplete) Status() uint8 {
	v, _ := e.StatusWErr()
	return v
}

func (e RemoteNameRequestComplete) BDADDR() [6]byte {
	v, _ := e.BDADDRWErr()
	return v
}

func (e RemoteNameRequestComplete) RemoteName() []byte {
	v, _ := e.RemoteNameWErr()
	return v
}

func (e EncryptionChange) Status() uint8 {
	v, _ := e.StatusWErr()
	return v
}

func (e EncryptionChange) ConnectionHandle() uint16 {
	v, _ := e.ConnectionHandleWErr()
	return v
}

func (e EncryptionChange) EncryptionEnabled() uint8 {
	v, _ := e.EncryptionEnabledWErr()
	return v
}

func (e CommandComplete) NumHCICommandPackets() uint8 {
	v, _ := e.NumHCICommandPacketsWErr()
	return v
}

func (e CommandComplete) CommandOpcode() uint16 {
	v, _ := e.CommandOpcodeWErr()
	return v
}

func (e CommandComplete) ReturnParameters() []byte {
	v, _ := e.ReturnParametersWErr()
	return v
}

func (e CommandStatus) Status() uint8 {
	v, _ := e.StatusWErr()
	return v
}

func (e CommandStatus) NumHCICommandPackets() uint8 {
	v, _ := e.NumHCICommandPacketsWErr()
	return v
}

func (e CommandStatus) CommandOpcode() uint16 {
	v, _ := e.CommandOpcodeWErr()
	return v
}

func (e RoleChange) Status() uint8 {
	v, _ := e.StatusWErr()
	return v
}

func (e RoleChange) BDADDR() [6]byte {
	v, _ := e.BDADDRWErr()
	return v
}

func (e RoleChange) NewRole() uint8 {
	v, _ := e.NewRoleWErr()
	return v
}

func (e PINCodeRequest) BDADDR() [6]byte {
	v, _ := e.BDADDRWErr()
	return v
}

func (e LinkKeyRequest) BDADDR() [6]byte {
	v, _ := e.BDADDRWErr()
	return v
}

func (e LinkKeyNotification) BDADDR() [6]byte {
	v, _ := e.BDADDRWErr()
	return v
}

func (e LinkKeyNotification) LinkKey() [16]byte {
	v, _ := e.LinkKeyWErr()
	return v
}

func (e LinkKeyNotification) KeyType() uint8 {
	v, _ := e.KeyTypeWErr()
	return v
}

func (e IOCapabilityRequest) BDADDR() [6]byte {
	v, _ := e.BDADDRWErr()
	return v
}

func (e IOCapabilityResponse) BDADDR() [6]byte {
	v, _ := e.BDADDRWErr()
	return v
}

func (e IOCapabilityResponse) IOCapability() uint8 {
	v, _ := e.IOCapabilityWErr()
	return v
}

func (e IOCapabilityResponse) OOBDataPresent() uint8 {
	v, _ := e.OOBDataPresentWErr()
	return v
}

func (e IOCapabilityResponse) AuthenticationRequirements() uint8 {
	v, _ := e.AuthenticationRequirementsWErr()
	return v
}

func (e UserConfirmationRequest) BDADDR() [6]byte {
	v, _ := e.BDADDRWErr()
	return v
}

func (e UserConfirmationRequest) NumericValue() uint32 {
	v, _ := e.NumericValueWErr()
	return v
}

func (e UserPasskeyRequest) BDADDR() [6]byte {
	v, _ := e.BDADDRWErr()
	return v
}

func (e RemoteOOBDataRequest) BDADDR() [6]byte {
	v, _ := e.BDADDRWErr()
	return v
}

func (e SimplePairingComplete) Status() uint8 {
	v, _ := e.StatusWErr()
	return v
}

func (e SimplePairingComplete) BDADDR() [6]byte {
	v, _ := e.BDADDRWErr()
	return v
}

func (e UserPasskeyNotification) BDADDR() [6]byte {
	v, _ := e.BDADDRWErr()
	return v
}

func (e UserPasskeyNotification) Passkey() uint32 {
	v, _ := e.PasskeyWErr()
	return v
}

func (e KeypressNotification) BDADDR() [6]byte {
	v, _ := e.BDADDRWErr()
	return v
}

func (e KeypressNotification) NotificationType() uint8 {
	v, _ := e.NotificationTypeWErr()
	return v
}

func (e RemoteHostSupportedFeaturesNotification) BDADDR() [6]byte {
	v, _ := e.BDADDRWErr()
	return v
}

func (e RemoteHostSupportedFeaturesNotification) HostSupportedFeatures() [8]byte {
	v, _ := e.HostSupportedFeaturesWErr()
	return v
}
// Name returns the remote name up to the first NUL.
func (e RemoteNameRequestComplete) Name() string {
	n := e.RemoteName()
	for i, c := range n {
		if c == 0 {
			return string(n[:i])
		}
	}
	return string(n)
}

// Valid reports whether the event carries all of its fields.
func (e CommandStatus) Valid() bool {
	return len(e) >= 4
}
