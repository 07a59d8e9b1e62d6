package txcodec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleTransaction() *Transaction {
	return &Transaction{
		Creator: PubKey("creator-key"),
		Command: AssetTransfer{
			Sender:   PubKey("sender-key"),
			Receiver: PubKey("receiver-key"),
			Asset:    AssetID{Ledger: "l1", Domain: "d1", Name: "coin"},
			Value: AssetValue{
				Kind:     AssetValueCurrency,
				Currency: &Currency{Amount: 100, Precision: 2},
			},
		},
		Signatures: []Signature{{PublicKey: PubKey("creator-key"), Bytes: []byte("sig")}},
	}
}

func TestEncodeParseRoundTrip(t *testing.T) {
	tx := sampleTransaction()
	blob, err := EncodeTransaction(tx)
	require.NoError(t, err)

	got, err := ParseTransaction(blob)
	require.NoError(t, err)
	require.Equal(t, tx.Creator, got.Creator)
	require.Equal(t, tx.Command, got.Command)
	require.Equal(t, TagAssetTransfer, got.Command.Tag())
}

func TestParseTransactionRejectsUnknownTag(t *testing.T) {
	_, err := ParseTransaction([]byte(`{"command_tag":"bogus","command":{}}`))
	require.ErrorIs(t, err, ErrUnknownCommand)
}

func TestParseTransactionRejectsMalformedJSON(t *testing.T) {
	_, err := ParseTransaction([]byte(`not json`))
	require.ErrorIs(t, err, ErrMalformed)
}

func TestEncodeIsDeterministic(t *testing.T) {
	tx := sampleTransaction()
	a, err := EncodeTransaction(tx)
	require.NoError(t, err)
	b, err := EncodeTransaction(tx)
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestVerifyHashDetectsMismatch(t *testing.T) {
	tx := sampleTransaction()
	tx.Hash = Hash32{0xff}
	err := VerifyHash(SHA3Hasher{}, tx)
	require.ErrorIs(t, err, ErrHashMismatch)
}

func TestVerifyHashAcceptsComputedHash(t *testing.T) {
	tx := sampleTransaction()
	clone := *tx
	clone.Hash = Hash32{}
	blob, err := EncodeTransaction(&clone)
	require.NoError(t, err)
	tx.Hash = SHA3Hasher{}.Hash(blob)

	require.NoError(t, VerifyHash(SHA3Hasher{}, tx))
}

func TestPermissionCommandsRoundTrip(t *testing.T) {
	for _, cmd := range []Command{
		PermissionGrant{PubKey: PubKey("pk"), Scope: PermissionDomain, Name: "can_transfer"},
		PermissionRevoke{PubKey: PubKey("pk"), Scope: PermissionLedger, Name: "can_create_asset"},
	} {
		tx := &Transaction{Creator: PubKey("creator"), Command: cmd}
		blob, err := EncodeTransaction(tx)
		require.NoError(t, err)
		got, err := ParseTransaction(blob)
		require.NoError(t, err)
		require.Equal(t, cmd, got.Command)
	}
}
