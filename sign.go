package lockwatch

import (
	"crypto/aes"
	"encoding/binary"
	"encoding/hex"
	"time"

	"github.com/chmike/cmac-go"
	"github.com/pkg/errors"
)

// secretKeyLen is the raw byte length of a device signing key.
const secretKeyLen = 16

// SignCommand produces the one-time signature the vendor API expects on a
// device command: the AES-CMAC of the current UNIX time, truncated to a
// three-byte message, keyed by the device secret. The signature is only
// valid within the surrounding time window, so no nonce or counter needs to
// be tracked between commands.
func SignCommand(secretHex string) (string, error) {
	return signCommandAt(secretHex, uint32(time.Now().Unix()))
}

func signCommandAt(secretHex string, ts uint32) (string, error) {
	key, err := hex.DecodeString(secretHex)
	if err != nil {
		return "", errors.Wrap(err, "decode device secret")
	}
	if len(key) != secretKeyLen {
		return "", errors.Errorf("device secret must be %d bytes, got %d", secretKeyLen, len(key))
	}

	// The vendor signs bytes 1..3 of the little-endian timestamp: the low
	// byte is dropped so the tag stays stable across a ~256 second window.
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], ts)
	msg := buf[1:4]

	mac, err := cmac.New(aes.NewCipher, key)
	if err != nil {
		return "", errors.Wrap(err, "init cmac")
	}
	if _, err := mac.Write(msg); err != nil {
		return "", errors.Wrap(err, "write cmac message")
	}
	return hex.EncodeToString(mac.Sum(nil)), nil
}
