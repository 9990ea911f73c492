package cmd

// Link Control commands

// CreateConnection implements CreateConnection (0x01|0x0005) [Vol 2, Part E, 7.1.5]
type CreateConnection struct {
	BDADDR                 [6]byte
	PacketType             uint16
	PageScanRepetitionMode uint8
	Reserved               uint8
	ClockOffset            uint16
	AllowRoleSwitch        uint8
}

func (c *CreateConnection) String() string {
	return "CreateConnection (0x01|0x0005)"
}

// OpCode returns the opcode of the command.
func (c *CreateConnection) OpCode() int { return 0x01<<10 | 0x0005 }

// Len returns the length of the command.
func (c *CreateConnection) Len() int { return 13 }

// Marshal serializes the command parameters into binary form.
func (c *CreateConnection) Marshal(b []byte) error {
	return marshal(c, b)
}

// Disconnect implements Disconnect (0x01|0x0006) [Vol 2, Part E, 7.1.6]
type Disconnect struct {
	ConnectionHandle uint16
	Reason           uint8
}

func (c *Disconnect) String() string {
	return "Disconnect (0x01|0x0006)"
}

// OpCode returns the opcode of the command.
func (c *Disconnect) OpCode() int { return 0x01<<10 | 0x0006 }

// Len returns the length of the command.
func (c *Disconnect) Len() int { return 3 }

// Marshal serializes the command parameters into binary form.
func (c *Disconnect) Marshal(b []byte) error {
	return marshal(c, b)
}

// CreateConnectionCancel implements CreateConnectionCancel (0x01|0x0008) [Vol 2, Part E, 7.1.7]
type CreateConnectionCancel struct {
	BDADDR [6]byte
}

func (c *CreateConnectionCancel) String() string {
	return "CreateConnectionCancel (0x01|0x0008)"
}

// OpCode returns the opcode of the command.
func (c *CreateConnectionCancel) OpCode() int { return 0x01<<10 | 0x0008 }

// Len returns the length of the command.
func (c *CreateConnectionCancel) Len() int { return 6 }

// Marshal serializes the command parameters into binary form.
func (c *CreateConnectionCancel) Marshal(b []byte) error {
	return marshal(c, b)
}

// AcceptConnectionRequest implements AcceptConnectionRequest (0x01|0x0009) [Vol 2, Part E, 7.1.8]
type AcceptConnectionRequest struct {
	BDADDR [6]byte
	Role   uint8
}

func (c *AcceptConnectionRequest) String() string {
	return "AcceptConnectionRequest (0x01|0x0009)"
}

// OpCode returns the opcode of the command.
func (c *AcceptConnectionRequest) OpCode() int { return 0x01<<10 | 0x0009 }

// Len returns the length of the command.
func (c *AcceptConnectionRequest) Len() int { return 7 }

// Marshal serializes the command parameters into binary form.
func (c *AcceptConnectionRequest) Marshal(b []byte) error {
	return marshal(c, b)
}

// RejectConnectionRequest implements RejectConnectionRequest (0x01|0x000A) [Vol 2, Part E, 7.1.9]
type RejectConnectionRequest struct {
	BDADDR [6]byte
	Reason uint8
}

func (c *RejectConnectionRequest) String() string {
	return "RejectConnectionRequest (0x01|0x000A)"
}

// OpCode returns the opcode of the command.
func (c *RejectConnectionRequest) OpCode() int { return 0x01<<10 | 0x000A }

// Len returns the length of the command.
func (c *RejectConnectionRequest) Len() int { return 7 }

// Marshal serializes the command parameters into binary form.
func (c *RejectConnectionRequest) Marshal(b []byte) error {
	return marshal(c, b)
}

// LinkKeyRequestReply implements LinkKeyRequestReply (0x01|0x000B) [Vol 2, Part E, 7.1.10]
type LinkKeyRequestReply struct {
	BDADDR  [6]byte
	LinkKey [16]byte
}

func (c *LinkKeyRequestReply) String() string {
	return "LinkKeyRequestReply (0x01|0x000B)"
}

// OpCode returns the opcode of the command.
func (c *LinkKeyRequestReply) OpCode() int { return 0x01<<10 | 0x000B }

// Len returns the length of the command.
func (c *LinkKeyRequestReply) Len() int { return 22 }

// Marshal serializes the command parameters into binary form.
func (c *LinkKeyRequestReply) Marshal(b []byte) error {
	return marshal(c, b)
}

// LinkKeyRequestNegativeReply implements LinkKeyRequestNegativeReply (0x01|0x000C) [Vol 2, Part E, 7.1.11]
type LinkKeyRequestNegativeReply struct {
	BDADDR [6]byte
}

func (c *LinkKeyRequestNegativeReply) String() string {
	return "LinkKeyRequestNegativeReply (0x01|0x000C)"
}

// OpCode returns the opcode of the command.
func (c *LinkKeyRequestNegativeReply) OpCode() int { return 0x01<<10 | 0x000C }

// Len returns the length of the command.
func (c *LinkKeyRequestNegativeReply) Len() int { return 6 }

// Marshal serializes the command parameters into binary form.
func (c *LinkKeyRequestNegativeReply) Marshal(b []byte) error {
	return marshal(c, b)
}

// PINCodeRequestReply implements PINCodeRequestReply (0x01|0x000D) [Vol 2, Part E, 7.1.12]
type PINCodeRequestReply struct {
	BDADDR        [6]byte
	PINCodeLength uint8
	PINCode       [16]byte
}

func (c *PINCodeRequestReply) String() string {
	return "PINCodeRequestReply (0x01|0x000D)"
}

// OpCode returns the opcode of the command.
func (c *PINCodeRequestReply) OpCode() int { return 0x01<<10 | 0x000D }

// Len returns the length of the command.
func (c *PINCodeRequestReply) Len() int { return 23 }

// Marshal serializes the command parameters into binary form.
func (c *PINCodeRequestReply) Marshal(b []byte) error {
	return marshal(c, b)
}

// PINCodeRequestNegativeReply implements PINCodeRequestNegativeReply (0x01|0x000E) [Vol 2, Part E, 7.1.13]
type PINCodeRequestNegativeReply struct {
	BDADDR [6]byte
}

func (c *PINCodeRequestNegativeReply) String() string {
	return "PINCodeRequestNegativeReply (0x01|0x000E)"
}

// OpCode returns the opcode of the command.
func (c *PINCodeRequestNegativeReply) OpCode() int { return 0x01<<10 | 0x000E }

// Len returns the length of the command.
func (c *PINCodeRequestNegativeReply) Len() int { return 6 }

// Marshal serializes the command parameters into binary form.
func (c *PINCodeRequestNegativeReply) Marshal(b []byte) error {
	return marshal(c, b)
}

// AuthenticationRequested implements AuthenticationRequested (0x01|0x0011) [Vol 2, Part E, 7.1.15]
type AuthenticationRequested struct {
	ConnectionHandle uint16
}

func (c *AuthenticationRequested) String() string {
	return "AuthenticationRequested (0x01|0x0011)"
}

// OpCode returns the opcode of the command.
func (c *AuthenticationRequested) OpCode() int { return 0x01<<10 | 0x0011 }

// Len returns the length of the command.
func (c *AuthenticationRequested) Len() int { return 2 }

// Marshal serializes the command parameters into binary form.
func (c *AuthenticationRequested) Marshal(b []byte) error {
	return marshal(c, b)
}

// SetConnectionEncryption implements SetConnectionEncryption (0x01|0x0013) [Vol 2, Part E, 7.1.16]
type SetConnectionEncryption struct {
	ConnectionHandle uint16
	EncryptionEnable uint8
}

func (c *SetConnectionEncryption) String() string {
	return "SetConnectionEncryption (0x01|0x0013)"
}

// OpCode returns the opcode of the command.
func (c *SetConnectionEncryption) OpCode() int { return 0x01<<10 | 0x0013 }

// Len returns the length of the command.
func (c *SetConnectionEncryption) Len() int { return 3 }

// Marshal serializes the command parameters into binary form.
func (c *SetConnectionEncryption) Marshal(b []byte) error {
	return marshal(c, b)
}

// RemoteNameRequest implements RemoteNameRequest (0x01|0x0019) [Vol 2, Part E, 7.1.19]
type RemoteNameRequest struct {
	BDADDR                 [6]byte
	PageScanRepetitionMode uint8
	Reserved               uint8
	ClockOffset            uint16
}

func (c *RemoteNameRequest) String() string {
	return "RemoteNameRequest (0x01|0x0019)"
}

// OpCode returns the opcode of the command.
func (c *RemoteNameRequest) OpCode() int { return 0x01<<10 | 0x0019 }

// Len returns the length of the command.
func (c *RemoteNameRequest) Len() int { return 10 }

// Marshal serializes the command parameters into binary form.
func (c *RemoteNameRequest) Marshal(b []byte) error {
	return marshal(c, b)
}

// RemoteNameRequestCancel implements RemoteNameRequestCancel (0x01|0x001A) [Vol 2, Part E, 7.1.20]
type RemoteNameRequestCancel struct {
	BDADDR [6]byte
}

func (c *RemoteNameRequestCancel) String() string {
	return "RemoteNameRequestCancel (0x01|0x001A)"
}

// OpCode returns the opcode of the command.
func (c *RemoteNameRequestCancel) OpCode() int { return 0x01<<10 | 0x001A }

// Len returns the length of the command.
func (c *RemoteNameRequestCancel) Len() int { return 6 }

// Marshal serializes the command parameters into binary form.
func (c *RemoteNameRequestCancel) Marshal(b []byte) error {
	return marshal(c, b)
}

// IOCapabilityRequestReply implements IOCapabilityRequestReply (0x01|0x002B) [Vol 2, Part E, 7.1.29]
type IOCapabilityRequestReply struct {
	BDADDR                     [6]byte
	IOCapability               uint8
	OOBDataPresent             uint8
	AuthenticationRequirements uint8
}

func (c *IOCapabilityRequestReply) String() string {
	return "IOCapabilityRequestReply (0x01|0x002B)"
}

// OpCode returns the opcode of the command.
func (c *IOCapabilityRequestReply) OpCode() int { return 0x01<<10 | 0x002B }

// Len returns the length of the command.
func (c *IOCapabilityRequestReply) Len() int { return 9 }

// Marshal serializes the command parameters into binary form.
func (c *IOCapabilityRequestReply) Marshal(b []byte) error {
	return marshal(c, b)
}

// UserConfirmationRequestReply implements UserConfirmationRequestReply (0x01|0x002C) [Vol 2, Part E, 7.1.30]
type UserConfirmationRequestReply struct {
	BDADDR [6]byte
}

func (c *UserConfirmationRequestReply) String() string {
	return "UserConfirmationRequestReply (0x01|0x002C)"
}

// OpCode returns the opcode of the command.
func (c *UserConfirmationRequestReply) OpCode() int { return 0x01<<10 | 0x002C }

// Len returns the length of the command.
func (c *UserConfirmationRequestReply) Len() int { return 6 }

// Marshal serializes the command parameters into binary form.
func (c *UserConfirmationRequestReply) Marshal(b []byte) error {
	return marshal(c, b)
}

// UserConfirmationRequestNegativeReply implements UserConfirmationRequestNegativeReply (0x01|0x002D) [Vol 2, Part E, 7.1.31]
type UserConfirmationRequestNegativeReply struct {
	BDADDR [6]byte
}

func (c *UserConfirmationRequestNegativeReply) String() string {
	return "UserConfirmationRequestNegativeReply (0x01|0x002D)"
}

// OpCode returns the opcode of the command.
func (c *UserConfirmationRequestNegativeReply) OpCode() int { return 0x01<<10 | 0x002D }

// Len returns the length of the command.
func (c *UserConfirmationRequestNegativeReply) Len() int { return 6 }

// Marshal serializes the command parameters into binary form.
func (c *UserConfirmationRequestNegativeReply) Marshal(b []byte) error {
	return marshal(c, b)
}

// UserPasskeyRequestReply implements UserPasskeyRequestReply (0x01|0x002E) [Vol 2, Part E, 7.1.32]
type UserPasskeyRequestReply struct {
	BDADDR       [6]byte
	NumericValue uint32
}

func (c *UserPasskeyRequestReply) String() string {
	return "UserPasskeyRequestReply (0x01|0x002E)"
}

// OpCode returns the opcode of the command.
func (c *UserPasskeyRequestReply) OpCode() int { return 0x01<<10 | 0x002E }

// Len returns the length of the command.
func (c *UserPasskeyRequestReply) Len() int { return 10 }

// Marshal serializes the command parameters into binary form.
func (c *UserPasskeyRequestReply) Marshal(b []byte) error {
	return marshal(c, b)
}

// UserPasskeyRequestNegativeReply implements UserPasskeyRequestNegativeReply (0x01|0x002F) [Vol 2, Part E, 7.1.33]
type UserPasskeyRequestNegativeReply struct {
	BDADDR [6]byte
}

func (c *UserPasskeyRequestNegativeReply) String() string {
	return "UserPasskeyRequestNegativeReply (0x01|0x002F)"
}

// OpCode returns the opcode of the command.
func (c *UserPasskeyRequestNegativeReply) OpCode() int { return 0x01<<10 | 0x002F }

// Len returns the length of the command.
func (c *UserPasskeyRequestNegativeReply) Len() int { return 6 }

// Marshal serializes the command parameters into binary form.
func (c *UserPasskeyRequestNegativeReply) Marshal(b []byte) error {
	return marshal(c, b)
}

// RemoteOOBDataRequestReply implements RemoteOOBDataRequestReply (0x01|0x0030) [Vol 2, Part E, 7.1.34]
type RemoteOOBDataRequestReply struct {
	BDADDR [6]byte
	C      [16]byte
	R      [16]byte
}

func (c *RemoteOOBDataRequestReply) String() string {
	return "RemoteOOBDataRequestReply (0x01|0x0030)"
}

// OpCode returns the opcode of the command.
func (c *RemoteOOBDataRequestReply) OpCode() int { return 0x01<<10 | 0x0030 }

// Len returns the length of the command.
func (c *RemoteOOBDataRequestReply) Len() int { return 38 }

// Marshal serializes the command parameters into binary form.
func (c *RemoteOOBDataRequestReply) Marshal(b []byte) error {
	return marshal(c, b)
}

// RemoteOOBDataRequestNegativeReply implements RemoteOOBDataRequestNegativeReply (0x01|0x0033) [Vol 2, Part E, 7.1.35]
type RemoteOOBDataRequestNegativeReply struct {
	BDADDR [6]byte
}

func (c *RemoteOOBDataRequestNegativeReply) String() string {
	return "RemoteOOBDataRequestNegativeReply (0x01|0x0033)"
}

// OpCode returns the opcode of the command.
func (c *RemoteOOBDataRequestNegativeReply) OpCode() int { return 0x01<<10 | 0x0033 }

// Len returns the length of the command.
func (c *RemoteOOBDataRequestNegativeReply) Len() int { return 6 }

// Marshal serializes the command parameters into binary form.
func (c *RemoteOOBDataRequestNegativeReply) Marshal(b []byte) error {
	return marshal(c, b)
}

// IOCapabilityRequestNegativeReply implements IOCapabilityRequestNegativeReply (0x01|0x0034) [Vol 2, Part E, 7.1.36]
type IOCapabilityRequestNegativeReply struct {
	BDADDR [6]byte
	Reason uint8
}

func (c *IOCapabilityRequestNegativeReply) String() string {
	return "IOCapabilityRequestNegativeReply (0x01|0x0034)"
}

// OpCode returns the opcode of the command.
func (c *IOCapabilityRequestNegativeReply) OpCode() int { return 0x01<<10 | 0x0034 }

// Len returns the length of the command.
func (c *IOCapabilityRequestNegativeReply) Len() int { return 7 }

// Marshal serializes the command parameters into binary form.
func (c *IOCapabilityRequestNegativeReply) Marshal(b []byte) error {
	return marshal(c, b)
}

// Controller & Baseband commands

// SetEventMask implements SetEventMask (0x03|0x0001) [Vol 2, Part E, 7.3.1]
type SetEventMask struct {
	EventMask uint64
}

func (c *SetEventMask) String() string {
	return "SetEventMask (0x03|0x0001)"
}

// OpCode returns the opcode of the command.
func (c *SetEventMask) OpCode() int { return 0x03<<10 | 0x0001 }

// Len returns the length of the command.
func (c *SetEventMask) Len() int { return 8 }

// Marshal serializes the command parameters into binary form.
func (c *SetEventMask) Marshal(b []byte) error {
	return marshal(c, b)
}

// Reset implements Reset (0x03|0x0003) [Vol 2, Part E, 7.3.2]
type Reset struct{}

func (c *Reset) String() string {
	return "Reset (0x03|0x0003)"
}

// OpCode returns the opcode of the command.
func (c *Reset) OpCode() int { return 0x03<<10 | 0x0003 }

// Len returns the length of the command.
func (c *Reset) Len() int { return 0 }

// Marshal serializes the command parameters into binary form.
func (c *Reset) Marshal(b []byte) error {
	return marshal(c, b)
}

// WritePINType implements WritePINType (0x03|0x000A) [Vol 2, Part E, 7.3.6]
type WritePINType struct {
	PINType uint8
}

func (c *WritePINType) String() string {
	return "WritePINType (0x03|0x000A)"
}

// OpCode returns the opcode of the command.
func (c *WritePINType) OpCode() int { return 0x03<<10 | 0x000A }

// Len returns the length of the command.
func (c *WritePINType) Len() int { return 1 }

// Marshal serializes the command parameters into binary form.
func (c *WritePINType) Marshal(b []byte) error {
	return marshal(c, b)
}

// WriteAuthenticationEnable implements WriteAuthenticationEnable (0x03|0x0020) [Vol 2, Part E, 7.3.24]
type WriteAuthenticationEnable struct {
	AuthenticationEnable uint8
}

func (c *WriteAuthenticationEnable) String() string {
	return "WriteAuthenticationEnable (0x03|0x0020)"
}

// OpCode returns the opcode of the command.
func (c *WriteAuthenticationEnable) OpCode() int { return 0x03<<10 | 0x0020 }

// Len returns the length of the command.
func (c *WriteAuthenticationEnable) Len() int { return 1 }

// Marshal serializes the command parameters into binary form.
func (c *WriteAuthenticationEnable) Marshal(b []byte) error {
	return marshal(c, b)
}

// WriteSimplePairingMode implements WriteSimplePairingMode (0x03|0x0056) [Vol 2, Part E, 7.3.59]
type WriteSimplePairingMode struct {
	SimplePairingMode uint8
}

func (c *WriteSimplePairingMode) String() string {
	return "WriteSimplePairingMode (0x03|0x0056)"
}

// OpCode returns the opcode of the command.
func (c *WriteSimplePairingMode) OpCode() int { return 0x03<<10 | 0x0056 }

// Len returns the length of the command.
func (c *WriteSimplePairingMode) Len() int { return 1 }

// Marshal serializes the command parameters into binary form.
func (c *WriteSimplePairingMode) Marshal(b []byte) error {
	return marshal(c, b)
}

// ReadLocalOOBData implements ReadLocalOOBData (0x03|0x0057) [Vol 2, Part E, 7.3.60]
type ReadLocalOOBData struct{}

func (c *ReadLocalOOBData) String() string {
	return "ReadLocalOOBData (0x03|0x0057)"
}

// OpCode returns the opcode of the command.
func (c *ReadLocalOOBData) OpCode() int { return 0x03<<10 | 0x0057 }

// Len returns the length of the command.
func (c *ReadLocalOOBData) Len() int { return 0 }

// Marshal serializes the command parameters into binary form.
func (c *ReadLocalOOBData) Marshal(b []byte) error {
	return marshal(c, b)
}

// SendKeypressNotification implements SendKeypressNotification (0x03|0x0060) [Vol 2, Part E, 7.3.63]
type SendKeypressNotification struct {
	BDADDR           [6]byte
	NotificationType uint8
}

func (c *SendKeypressNotification) String() string {
	return "SendKeypressNotification (0x03|0x0060)"
}

// OpCode returns the opcode of the command.
func (c *SendKeypressNotification) OpCode() int { return 0x03<<10 | 0x0060 }

// Len returns the length of the command.
func (c *SendKeypressNotification) Len() int { return 7 }

// Marshal serializes the command parameters into binary form.
func (c *SendKeypressNotification) Marshal(b []byte) error {
	return marshal(c, b)
}

// WriteSecureConnectionsHostSupport implements WriteSecureConnectionsHostSupport (0x03|0x007A) [Vol 2, Part E, 7.3.92]
type WriteSecureConnectionsHostSupport struct {
	SecureConnectionsHostSupport uint8
}

func (c *WriteSecureConnectionsHostSupport) String() string {
	return "WriteSecureConnectionsHostSupport (0x03|0x007A)"
}

// OpCode returns the opcode of the command.
func (c *WriteSecureConnectionsHostSupport) OpCode() int { return 0x03<<10 | 0x007A }

// Len returns the length of the command.
func (c *WriteSecureConnectionsHostSupport) Len() int { return 1 }

// Marshal serializes the command parameters into binary form.
func (c *WriteSecureConnectionsHostSupport) Marshal(b []byte) error {
	return marshal(c, b)
}

// ReadLocalOOBExtendedData implements ReadLocalOOBExtendedData (0x03|0x007D) [Vol 2, Part E, 7.3.95]
type ReadLocalOOBExtendedData struct{}

func (c *ReadLocalOOBExtendedData) String() string {
	return "ReadLocalOOBExtendedData (0x03|0x007D)"
}

// OpCode returns the opcode of the command.
func (c *ReadLocalOOBExtendedData) OpCode() int { return 0x03<<10 | 0x007D }

// Len returns the length of the command.
func (c *ReadLocalOOBExtendedData) Len() int { return 0 }

// Marshal serializes the command parameters into binary form.
func (c *ReadLocalOOBExtendedData) Marshal(b []byte) error {
	return marshal(c, b)
}

// Informational Parameters commands

// ReadBDADDR implements ReadBDADDR (0x04|0x0009) [Vol 2, Part E, 7.4.6]
type ReadBDADDR struct{}

func (c *ReadBDADDR) String() string {
	return "ReadBDADDR (0x04|0x0009)"
}

// OpCode returns the opcode of the command.
func (c *ReadBDADDR) OpCode() int { return 0x04<<10 | 0x0009 }

// Len returns the length of the command.
func (c *ReadBDADDR) Len() int { return 0 }

// Marshal serializes the command parameters into binary form.
func (c *ReadBDADDR) Marshal(b []byte) error {
	return marshal(c, b)
}

// Testing commands

// WriteSimplePairingDebugMode implements WriteSimplePairingDebugMode (0x06|0x0004) [Vol 2, Part E, 7.6.4]
type WriteSimplePairingDebugMode struct {
	SimplePairingDebugMode uint8
}

func (c *WriteSimplePairingDebugMode) String() string {
	return "WriteSimplePairingDebugMode (0x06|0x0004)"
}

// OpCode returns the opcode of the command.
func (c *WriteSimplePairingDebugMode) OpCode() int { return 0x06<<10 | 0x0004 }

// Len returns the length of the command.
func (c *WriteSimplePairingDebugMode) Len() int { return 1 }

// Marshal serializes the command parameters into binary form.
func (c *WriteSimplePairingDebugMode) Marshal(b []byte) error {
	return marshal(c, b)
}
