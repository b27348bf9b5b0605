// Package keysigner signs messages with a local secp256k1 key in the same
// format lnd's SignMessage RPC uses, so the service can verify either.
package keysigner

import (
	"context"
	"encoding/hex"
	"errors"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/tv42/zbase32"
)

var signedMsgPrefix = []byte("Lightning Signed Message:")

type Signer struct {
	key *btcec.PrivateKey
}

func New(key *btcec.PrivateKey) *Signer {
	return &Signer{key: key}
}

// FromHex builds a signer from a hex encoded 32-byte private key.
func FromHex(keyHex string) (*Signer, error) {
	b, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, err
	}
	if len(b) != btcec.PrivKeyBytesLen {
		return nil, errors.New("private key must be 32 bytes")
	}

	key, _ := btcec.PrivKeyFromBytes(b)
	return New(key), nil
}

// IdentityPubkey returns the compressed public key, hex encoded.
func (s *Signer) IdentityPubkey(_ context.Context) (string, error) {
	return hex.EncodeToString(s.key.PubKey().SerializeCompressed()), nil
}

func (s *Signer) SignMessage(_ context.Context, msg []byte) (string, error) {
	digest := messageDigest(msg)

	sig, err := ecdsa.SignCompact(s.key, digest, true)
	if err != nil {
		return "", err
	}

	return zbase32.EncodeToString(sig), nil
}

// Recover returns the public key that produced sig over msg.
func Recover(msg []byte, sig string) (*btcec.PublicKey, error) {
	raw, err := zbase32.DecodeString(sig)
	if err != nil {
		return nil, err
	}

	digest := messageDigest(msg)
	pubkey, _, err := ecdsa.RecoverCompact(raw, digest)
	if err != nil {
		return nil, err
	}

	return pubkey, nil
}

// SignedMessage returns msg behind the "Lightning Signed Message:" prefix.
// Signatures are made over the double sha256 of this.
func SignedMessage(msg []byte) []byte {
	buf := make([]byte, 0, len(signedMsgPrefix)+len(msg))
	buf = append(buf, signedMsgPrefix...)
	buf = append(buf, msg...)

	return buf
}

func messageDigest(msg []byte) []byte {
	return chainhash.DoubleHashB(SignedMessage(msg))
}
