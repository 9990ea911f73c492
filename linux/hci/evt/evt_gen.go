package evt

// Event codes [Vol 2, Part E, 7.7]
const (
	ConnectionCompleteCode                      = 0x03
	ConnectionRequestCode                       = 0x04
	DisconnectionCompleteCode                   = 0x05
	AuthenticationCompleteCode                  = 0x06
	RemoteNameRequestCompleteCode               = 0x07
	EncryptionChangeCode                        = 0x08
	CommandCompleteCode                         = 0x0E
	CommandStatusCode                           = 0x0F
	RoleChangeCode                              = 0x12
	PINCodeRequestCode                          = 0x16
	LinkKeyRequestCode                          = 0x17
	LinkKeyNotificationCode                     = 0x18
	IOCapabilityRequestCode                     = 0x31
	IOCapabilityResponseCode                    = 0x32
	UserConfirmationRequestCode                 = 0x33
	UserPasskeyRequestCode                      = 0x34
	RemoteOOBDataRequestCode                    = 0x35
	SimplePairingCompleteCode                   = 0x36
	UserPasskeyNotificationCode                 = 0x3B
	KeypressNotificationCode                    = 0x3C
	RemoteHostSupportedFeaturesNotificationCode = 0x3D
)

// ConnectionComplete implements ConnectionComplete (0x03) [Vol 2, Part E, 7.7.3].
type ConnectionComplete []byte

// ConnectionRequest implements ConnectionRequest (0x04) [Vol 2, Part E, 7.7.4].
type ConnectionRequest []byte

// DisconnectionComplete implements DisconnectionComplete (0x05) [Vol 2, Part E, 7.7.5].
type DisconnectionComplete []byte

// AuthenticationComplete implements AuthenticationComplete (0x06) [Vol 2, Part E, 7.7.6].
type AuthenticationComplete []byte

// RemoteNameRequestComplete implements RemoteNameRequestComplete (0x07) [Vol 2, Part E, 7.7.7].
type RemoteNameRequestComplete []byte

// EncryptionChange implements EncryptionChange (0x08) [Vol 2, Part E, 7.7.8].
type EncryptionChange []byte

// CommandComplete implements CommandComplete (0x0E) [Vol 2, Part E, 7.7.14].
type CommandComplete []byte

// CommandStatus implements CommandStatus (0x0F) [Vol 2, Part E, 7.7.15].
type CommandStatus []byte

// RoleChange implements RoleChange (0x12) [Vol 2, Part E, 7.7.18].
type RoleChange []byte

// PINCodeRequest implements PINCodeRequest (0x16) [Vol 2, Part E, 7.7.22].
type PINCodeRequest []byte

// LinkKeyRequest implements LinkKeyRequest (0x17) [Vol 2, Part E, 7.7.23].
type LinkKeyRequest []byte

// LinkKeyNotification implements LinkKeyNotification (0x18) [Vol 2, Part E, 7.7.24].
type LinkKeyNotification []byte

// IOCapabilityRequest implements IOCapabilityRequest (0x31) [Vol 2, Part E, 7.7.40].
type IOCapabilityRequest []byte

// IOCapabilityResponse implements IOCapabilityResponse (0x32) [Vol 2, Part E, 7.7.41].
type IOCapabilityResponse []byte

// UserConfirmationRequest implements UserConfirmationRequest (0x33) [Vol 2, Part E, 7.7.42].
type UserConfirmationRequest []byte

// UserPasskeyRequest implements UserPasskeyRequest (0x34) [Vol 2, Part E, 7.7.43].
type UserPasskeyRequest []byte

// RemoteOOBDataRequest implements RemoteOOBDataRequest (0x35) [Vol 2, Part E, 7.7.44].
type RemoteOOBDataRequest []byte

// SimplePairingComplete implements SimplePairingComplete (0x36) [Vol 2, Part E, 7.7.45].
type SimplePairingComplete []byte

// UserPasskeyNotification implements UserPasskeyNotification (0x3B) [Vol 2, Part E, 7.7.48].
type UserPasskeyNotification []byte

// KeypressNotification implements KeypressNotification (0x3C) [Vol 2, Part E, 7.7.49].
type KeypressNotification []byte

// RemoteHostSupportedFeaturesNotification implements RemoteHostSupportedFeaturesNotification (0x3D) [Vol 2, Part E, 7.7.50].
type RemoteHostSupportedFeaturesNotification []byte
