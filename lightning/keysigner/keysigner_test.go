package keysigner

import (
	"context"
	"encoding/hex"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/stretchr/testify/require"
)

func TestSignMessageRecoversIdentity(t *testing.T) {
	key, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	signer := New(key)
	ctx := context.Background()

	sig, err := signer.SignMessage(ctx, []byte("REGISTER"))
	require.NoError(t, err)

	pubkey, err := Recover([]byte("REGISTER"), sig)
	require.NoError(t, err)
	require.True(t, pubkey.IsEqual(key.PubKey()))

	identity, err := signer.IdentityPubkey(ctx)
	require.NoError(t, err)
	require.Equal(t, hex.EncodeToString(pubkey.SerializeCompressed()), identity)

	// A signature over a different challenge recovers a different key.
	other, err := Recover([]byte("CHECKSTATUS"), sig)
	require.NoError(t, err)
	require.False(t, other.IsEqual(key.PubKey()))
}

func TestFromHex(t *testing.T) {
	_, err := FromHex("zz")
	require.Error(t, err)

	_, err = FromHex("abcd")
	require.Error(t, err)

	signer, err := FromHex(
		"a19ad601202f0ef2ebc344a041676314ad812fbac1ff8410ede3163662847527",
	)
	require.NoError(t, err)

	identity, err := signer.IdentityPubkey(context.Background())
	require.NoError(t, err)
	require.Len(t, identity, 66)
}
