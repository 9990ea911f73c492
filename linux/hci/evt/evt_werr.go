package evt

import (
	"encoding/binary"
	"fmt"
)

func (e ConnectionComplete) StatusWErr() (uint8, error) {
	return getByte(e, 0, 0xff)
}

func (e ConnectionComplete) ConnectionHandleWErr() (uint16, error) {
	h, err := getUint16LE(e, 1, 0xffff)
	if err != nil {
		return h, err
	}
	return h & 0x0fff, nil
}

func (e ConnectionComplete) BDADDRWErr() ([6]byte, error) {
	out := [6]byte{}
	bb, err := getBytes(e, 3, 6)
	if err != nil {
		return out, err
	}
	copy(out[:], bb)
	return out, nil
}

func (e ConnectionComplete) LinkTypeWErr() (uint8, error) {
	return getByte(e, 9, 0)
}

func (e ConnectionComplete) EncryptionEnabledWErr() (uint8, error) {
	return getByte(e, 10, 0)
}

func (e ConnectionRequest) BDADDRWErr() ([6]byte, error) {
	out := [6]byte{}
	bb, err := getBytes(e, 0, 6)
	if err != nil {
		return out, err
	}
	copy(out[:], bb)
	return out, nil
}

func (e ConnectionRequest) ClassOfDeviceWErr() ([3]byte, error) {
	out := [3]byte{}
	bb, err := getBytes(e, 6, 3)
	if err != nil {
		return out, err
	}
	copy(out[:], bb)
	return out, nil
}

func (e ConnectionRequest) LinkTypeWErr() (uint8, error) {
	return getByte(e, 9, 0)
}

func (e DisconnectionComplete) StatusWErr() (uint8, error) {
	return getByte(e, 0, 0xff)
}

func (e DisconnectionComplete) ConnectionHandleWErr() (uint16, error) {
	h, err := getUint16LE(e, 1, 0xffff)
	if err != nil {
		return h, err
	}
	return h & 0x0fff, nil
}

func (e DisconnectionComplete) ReasonWErr() (uint8, error) {
	return getByte(e, 3, 0)
}

func (e AuthenticationComplete) StatusWErr() (uint8, error) {
	return getByte(e, 0, 0xff)
}

func (e AuthenticationComplete) ConnectionHandleWErr() (uint16, error) {
	h, err := getUint16LE(e, 1, 0xffff)
	if err != nil {
		return h, err
	}
	return h & 0x0fff, nil
}

func (e RemoteNameRequestComplete) StatusWErr() (uint8, error) {
	return getByte(e, 0, 0xff)
}

func (e RemoteNameRequestComplete) BDADDRWErr() ([6]byte, error) {
	out := [6]byte{}
	bb, err := getBytes(e, 1, 6)
	if err != nil {
		return out, err
	}
	copy(out[:], bb)
	return out, nil
}

func (e RemoteNameRequestComplete) RemoteNameWErr() ([]byte, error) {
	return getBytes(e, 7, -1)
}

func (e EncryptionChange) StatusWErr() (uint8, error) {
	return getByte(e, 0, 0xff)
}

func (e EncryptionChange) ConnectionHandleWErr() (uint16, error) {
	h, err := getUint16LE(e, 1, 0xffff)
	if err != nil {
		return h, err
	}
	return h & 0x0fff, nil
}

func (e EncryptionChange) EncryptionEnabledWErr() (uint8, error) {
	return getByte(e, 3, 0)
}

func (e CommandComplete) NumHCICommandPacketsWErr() (uint8, error) {
	return getByte(e, 0, 0)
}

func (e CommandComplete) CommandOpcodeWErr() (uint16, error) {
	return getUint16LE(e, 1, 0xffff)
}

func (e CommandComplete) ReturnParametersWErr() ([]byte, error) {
	return getBytes(e, 3, -1)
}

func (e CommandStatus) StatusWErr() (uint8, error) {
	return getByte(e, 0, 0xff)
}

func (e CommandStatus) NumHCICommandPacketsWErr() (uint8, error) {
	return getByte(e, 1, 0)
}

func (e CommandStatus) CommandOpcodeWErr() (uint16, error) {
	return getUint16LE(e, 2, 0xffff)
}

func (e RoleChange) StatusWErr() (uint8, error) {
	return getByte(e, 0, 0xff)
}

func (e RoleChange) BDADDRWErr() ([6]byte, error) {
	out := [6]byte{}
	bb, err := getBytes(e, 1, 6)
	if err != nil {
		return out, err
	}
	copy(out[:], bb)
	return out, nil
}

func (e RoleChange) NewRoleWErr() (uint8, error) {
	return getByte(e, 7, 0)
}

func (e PINCodeRequest) BDADDRWErr() ([6]byte, error) {
	out := [6]byte{}
	bb, err := getBytes(e, 0, 6)
	if err != nil {
		return out, err
	}
	copy(out[:], bb)
	return out, nil
}

func (e LinkKeyRequest) BDADDRWErr() ([6]byte, error) {
	out := [6]byte{}
	bb, err := getBytes(e, 0, 6)
	if err != nil {
		return out, err
	}
	copy(out[:], bb)
	return out, nil
}

func (e LinkKeyNotification) BDADDRWErr() ([6]byte, error) {
	out := [6]byte{}
	bb, err := getBytes(e, 0, 6)
	if err != nil {
		return out, err
	}
	copy(out[:], bb)
	return out, nil
}

func (e LinkKeyNotification) LinkKeyWErr() ([16]byte, error) {
	out := [16]byte{}
	bb, err := getBytes(e, 6, 16)
	if err != nil {
		return out, err
	}
	copy(out[:], bb)
	return out, nil
}

func (e LinkKeyNotification) KeyTypeWErr() (uint8, error) {
	return getByte(e, 22, 0xff)
}

func (e IOCapabilityRequest) BDADDRWErr() ([6]byte, error) {
	out := [6]byte{}
	bb, err := getBytes(e, 0, 6)
	if err != nil {
		return out, err
	}
	copy(out[:], bb)
	return out, nil
}

func (e IOCapabilityResponse) BDADDRWErr() ([6]byte, error) {
	out := [6]byte{}
	bb, err := getBytes(e, 0, 6)
	if err != nil {
		return out, err
	}
	copy(out[:], bb)
	return out, nil
}

func (e IOCapabilityResponse) IOCapabilityWErr() (uint8, error) {
	return getByte(e, 6, 0)
}

func (e IOCapabilityResponse) OOBDataPresentWErr() (uint8, error) {
	return getByte(e, 7, 0)
}

func (e IOCapabilityResponse) AuthenticationRequirementsWErr() (uint8, error) {
	return getByte(e, 8, 0)
}

func (e UserConfirmationRequest) BDADDRWErr() ([6]byte, error) {
	out := [6]byte{}
	bb, err := getBytes(e, 0, 6)
	if err != nil {
		return out, err
	}
	copy(out[:], bb)
	return out, nil
}

func (e UserConfirmationRequest) NumericValueWErr() (uint32, error) {
	return getUint32LE(e, 6, 0)
}

func (e UserPasskeyRequest) BDADDRWErr() ([6]byte, error) {
	out := [6]byte{}
	bb, err := getBytes(e, 0, 6)
	if err != nil {
		return out, err
	}
	copy(out[:], bb)
	return out, nil
}

func (e RemoteOOBDataRequest) BDADDRWErr() ([6]byte, error) {
	out := [6]byte{}
	bb, err := getBytes(e, 0, 6)
	if err != nil {
		return out, err
	}
	copy(out[:], bb)
	return out, nil
}

func (e SimplePairingComplete) StatusWErr() (uint8, error) {
	return getByte(e, 0, 0xff)
}

func (e SimplePairingComplete) BDADDRWErr() ([6]byte, error) {
	out := [6]byte{}
	bb, err := getBytes(e, 1, 6)
	if err != nil {
		return out, err
	}
	copy(out[:], bb)
	return out, nil
}

func (e UserPasskeyNotification) BDADDRWErr() ([6]byte, error) {
	out := [6]byte{}
	bb, err := getBytes(e, 0, 6)
	if err != nil {
		return out, err
	}
	copy(out[:], bb)
	return out, nil
}

func (e UserPasskeyNotification) PasskeyWErr() (uint32, error) {
	return getUint32LE(e, 6, 0)
}

func (e KeypressNotification) BDADDRWErr() ([6]byte, error) {
	out := [6]byte{}
	bb, err := getBytes(e, 0, 6)
	if err != nil {
		return out, err
	}
	copy(out[:], bb)
	return out, nil
}

func (e KeypressNotification) NotificationTypeWErr() (uint8, error) {
	return getByte(e, 6, 0)
}

func (e RemoteHostSupportedFeaturesNotification) BDADDRWErr() ([6]byte, error) {
	out := [6]byte{}
	bb, err := getBytes(e, 0, 6)
	if err != nil {
		return out, err
	}
	copy(out[:], bb)
	return out, nil
}

func (e RemoteHostSupportedFeaturesNotification) HostSupportedFeaturesWErr() ([8]byte, error) {
	out := [8]byte{}
	bb, err := getBytes(e, 6, 8)
	if err != nil {
		return out, err
	}
	copy(out[:], bb)
	return out, nil
}

//get or default
func getByte(b []byte, i int, def byte) (byte, error) {
	bb, err := getBytes(b, i, 1)
	if err != nil {
		return def, err
	}
	return bb[0], nil
}

//get or default
func getUint16LE(b []byte, i int, def uint16) (uint16, error) {
	bb, err := getBytes(b, i, 2)
	if err != nil {
		return def, err
	}
	return binary.LittleEndian.Uint16(bb), nil
}

//get or default
func getUint32LE(b []byte, i int, def uint32) (uint32, error) {
	bb, err := getBytes(b, i, 4)
	if err != nil {
		return def, err
	}
	return binary.LittleEndian.Uint32(bb), nil
}

func getBytes(bytes []byte, start int, count int) ([]byte, error) {
	if bytes == nil || start >= len(bytes) {
		return nil, fmt.Errorf("index error")
	}

	if count < 0 {
		return bytes[start:], nil
	}

	end := start + count
	//end is non-inclusive
	if end > len(bytes) {
		return nil, fmt.Errorf("index error")
	}

	return bytes[start:end], nil
}
