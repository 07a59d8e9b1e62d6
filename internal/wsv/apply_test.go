package wsv

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/ametsuchi/internal/kv"
	"github.com/cuemby/ametsuchi/internal/txcodec"
)

// newPubKey returns a fresh, collision-free pubkey fixture so tests that
// don't care about a specific key value never accidentally share state.
func newPubKey(t *testing.T) txcodec.PubKey {
	t.Helper()
	return txcodec.PubKey(uuid.New().String())
}

func openTestWTxn(t *testing.T) *kv.WTxn {
	t.Helper()
	env, err := kv.Open(t.TempDir(), kv.Options{MaxSize: 4 << 20, MaxNamedMaps: 16})
	require.NoError(t, err)
	t.Cleanup(func() { env.Close() })

	wtxn, err := env.WriteTxn()
	require.NoError(t, err)
	t.Cleanup(func() { wtxn.Abort() })
	return wtxn
}

func apply(t *testing.T, w *WSV, wtxn *kv.WTxn, cmd txcodec.Command) error {
	t.Helper()
	return w.Apply(wtxn, &txcodec.Transaction{Creator: txcodec.PubKey("creator"), Command: cmd})
}

func currencyValue(amount uint64, precision uint8) txcodec.AssetValue {
	return txcodec.AssetValue{
		Kind:     txcodec.AssetValueCurrency,
		Currency: &txcodec.Currency{Amount: amount, Precision: precision},
	}
}

var coin = txcodec.AssetID{Ledger: "l1", Domain: "d1", Name: "coin"}

func TestAccountAddAndGet(t *testing.T) {
	wtxn := openTestWTxn(t)
	w := New(1.0)

	pub := txcodec.PubKey("alice")
	require.NoError(t, apply(t, w, wtxn, txcodec.AccountAdd{Account: txcodec.Account{PubKey: pub, Alias: "alice"}}))

	acc, err := GetAccount(wtxn, pub)
	require.NoError(t, err)
	require.Equal(t, "alice", acc.Alias)
}

func TestAccountAddRejectsDuplicate(t *testing.T) {
	wtxn := openTestWTxn(t)
	w := New(1.0)
	pub := txcodec.PubKey("alice")
	require.NoError(t, apply(t, w, wtxn, txcodec.AccountAdd{Account: txcodec.Account{PubKey: pub}}))
	err := apply(t, w, wtxn, txcodec.AccountAdd{Account: txcodec.Account{PubKey: pub}})
	require.ErrorIs(t, err, ErrAccountExists)
}

func TestAccountRemoveUnknownFails(t *testing.T) {
	wtxn := openTestWTxn(t)
	w := New(1.0)
	err := apply(t, w, wtxn, txcodec.AccountRemove{PubKey: txcodec.PubKey("ghost")})
	require.ErrorIs(t, err, ErrAccountNotFound)
}

func TestAccountSignatoryAddRemove(t *testing.T) {
	wtxn := openTestWTxn(t)
	w := New(1.0)
	pub := txcodec.PubKey("alice")
	key := txcodec.PubKey("key-1")
	require.NoError(t, apply(t, w, wtxn, txcodec.AccountAdd{Account: txcodec.Account{PubKey: pub}}))

	require.NoError(t, apply(t, w, wtxn, txcodec.AccountAddSignatory{Account: pub, Key: key}))
	acc, err := GetAccount(wtxn, pub)
	require.NoError(t, err)
	require.Len(t, acc.Signatories, 1)

	err = apply(t, w, wtxn, txcodec.AccountAddSignatory{Account: pub, Key: key})
	require.ErrorIs(t, err, ErrSignatoryExists)

	require.NoError(t, apply(t, w, wtxn, txcodec.AccountRemoveSignatory{Account: pub, Key: key}))
	acc, err = GetAccount(wtxn, pub)
	require.NoError(t, err)
	require.Len(t, acc.Signatories, 0)
}

func TestAssetCreateRejectsDuplicate(t *testing.T) {
	wtxn := openTestWTxn(t)
	w := New(1.0)
	cmd := txcodec.AssetCreate{Asset: coin, Precision: 2}
	require.NoError(t, apply(t, w, wtxn, cmd))
	err := apply(t, w, wtxn, cmd)
	require.ErrorIs(t, err, ErrAssetExists)
}

func TestAssetAddAccumulatesBalance(t *testing.T) {
	wtxn := openTestWTxn(t)
	w := New(1.0)
	pub := txcodec.PubKey("alice")

	require.NoError(t, apply(t, w, wtxn, txcodec.AssetAdd{PubKey: pub, Asset: coin, Value: currencyValue(100, 2)}))
	require.NoError(t, apply(t, w, wtxn, txcodec.AssetAdd{PubKey: pub, Asset: coin, Value: currencyValue(50, 2)}))

	row, err := AccountGetAsset(wtxn, pub, coin)
	require.NoError(t, err)
	require.Equal(t, uint64(150), row.Value.Currency.Amount)
}

func TestAssetAddRejectsPrecisionMismatch(t *testing.T) {
	wtxn := openTestWTxn(t)
	w := New(1.0)
	pub := txcodec.PubKey("alice")
	require.NoError(t, apply(t, w, wtxn, txcodec.AssetAdd{PubKey: pub, Asset: coin, Value: currencyValue(100, 2)}))

	err := apply(t, w, wtxn, txcodec.AssetAdd{PubKey: pub, Asset: coin, Value: currencyValue(1, 3)})
	require.ErrorIs(t, err, ErrPrecisionMismatch)
}

func TestAssetAddRejectsOverflow(t *testing.T) {
	wtxn := openTestWTxn(t)
	w := New(1.0)
	pub := txcodec.PubKey("alice")
	require.NoError(t, apply(t, w, wtxn, txcodec.AssetAdd{PubKey: pub, Asset: coin, Value: currencyValue(^uint64(0), 2)}))

	err := apply(t, w, wtxn, txcodec.AssetAdd{PubKey: pub, Asset: coin, Value: currencyValue(1, 2)})
	require.ErrorIs(t, err, ErrAmountOverflow)
}

func TestAssetRemoveRejectsInsufficientFunds(t *testing.T) {
	wtxn := openTestWTxn(t)
	w := New(1.0)
	pub := txcodec.PubKey("alice")
	require.NoError(t, apply(t, w, wtxn, txcodec.AssetAdd{PubKey: pub, Asset: coin, Value: currencyValue(10, 2)}))

	err := apply(t, w, wtxn, txcodec.AssetRemove{PubKey: pub, Asset: coin, Value: currencyValue(20, 2)})
	require.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestAssetRemoveUnknownAssetFails(t *testing.T) {
	wtxn := openTestWTxn(t)
	w := New(1.0)
	pub := txcodec.PubKey("alice")

	err := apply(t, w, wtxn, txcodec.AssetRemove{PubKey: pub, Asset: coin, Value: currencyValue(1, 2)})
	require.ErrorIs(t, err, ErrAssetNotFound)
}

func TestAssetRemoveToZeroDeletesRow(t *testing.T) {
	wtxn := openTestWTxn(t)
	w := New(1.0)
	pub := txcodec.PubKey("alice")
	require.NoError(t, apply(t, w, wtxn, txcodec.AssetAdd{PubKey: pub, Asset: coin, Value: currencyValue(10, 2)}))
	require.NoError(t, apply(t, w, wtxn, txcodec.AssetRemove{PubKey: pub, Asset: coin, Value: currencyValue(10, 2)}))

	_, err := AccountGetAsset(wtxn, pub, coin)
	require.ErrorIs(t, err, kv.ErrNotFound)
}

func TestAssetTransferMovesBalanceBetweenAccounts(t *testing.T) {
	wtxn := openTestWTxn(t)
	w := New(1.0)
	sender := txcodec.PubKey("alice")
	receiver := txcodec.PubKey("bob")
	require.NoError(t, apply(t, w, wtxn, txcodec.AssetAdd{PubKey: sender, Asset: coin, Value: currencyValue(100, 2)}))

	require.NoError(t, apply(t, w, wtxn, txcodec.AssetTransfer{
		Sender: sender, Receiver: receiver, Asset: coin, Value: currencyValue(40, 2),
	}))

	senderRow, err := AccountGetAsset(wtxn, sender, coin)
	require.NoError(t, err)
	require.Equal(t, uint64(60), senderRow.Value.Currency.Amount)

	receiverRow, err := AccountGetAsset(wtxn, receiver, coin)
	require.NoError(t, err)
	require.Equal(t, uint64(40), receiverRow.Value.Currency.Amount)
}

func TestAssetTransferInsufficientFundsLeavesNoPartialCredit(t *testing.T) {
	wtxn := openTestWTxn(t)
	w := New(1.0)
	sender := txcodec.PubKey("alice")
	receiver := txcodec.PubKey("bob")
	require.NoError(t, apply(t, w, wtxn, txcodec.AssetAdd{PubKey: sender, Asset: coin, Value: currencyValue(10, 2)}))

	err := apply(t, w, wtxn, txcodec.AssetTransfer{
		Sender: sender, Receiver: receiver, Asset: coin, Value: currencyValue(40, 2),
	})
	require.ErrorIs(t, err, ErrInsufficientFunds)

	_, err = AccountGetAsset(wtxn, receiver, coin)
	require.ErrorIs(t, err, kv.ErrNotFound)
}

func TestAccountGetAllAssetsReturnsEveryHolding(t *testing.T) {
	wtxn := openTestWTxn(t)
	w := New(1.0)
	pub := newPubKey(t)
	other := txcodec.AssetID{Ledger: "l1", Domain: "d1", Name: "gold"}
	require.NoError(t, apply(t, w, wtxn, txcodec.AssetAdd{PubKey: pub, Asset: coin, Value: currencyValue(10, 2)}))
	require.NoError(t, apply(t, w, wtxn, txcodec.AssetAdd{PubKey: pub, Asset: other, Value: currencyValue(5, 0)}))

	rows, err := AccountGetAllAssets(wtxn, pub)
	require.NoError(t, err)
	require.Len(t, rows, 2)
}

func TestPeerAddRejectsDuplicate(t *testing.T) {
	wtxn := openTestWTxn(t)
	w := New(1.0)
	pub := txcodec.PubKey("peer-1")
	cmd := txcodec.PeerAdd{Peer: txcodec.Peer{Ledger: "l1", PubKey: pub, Address: "10.0.0.1:7000"}}
	require.NoError(t, apply(t, w, wtxn, cmd))
	err := apply(t, w, wtxn, cmd)
	require.ErrorIs(t, err, ErrPeerExists)
}

func TestPeerRemoveUnknownFails(t *testing.T) {
	wtxn := openTestWTxn(t)
	w := New(1.0)
	err := apply(t, w, wtxn, txcodec.PeerRemove{PubKey: txcodec.PubKey("ghost")})
	require.ErrorIs(t, err, ErrPeerNotFound)
}

func TestPeerSetActiveToggles(t *testing.T) {
	wtxn := openTestWTxn(t)
	w := New(1.0)
	pub := txcodec.PubKey("peer-1")
	require.NoError(t, apply(t, w, wtxn, txcodec.PeerAdd{Peer: txcodec.Peer{PubKey: pub, Active: false}}))

	require.NoError(t, apply(t, w, wtxn, txcodec.PeerSetActive{PubKey: pub, Active: true}))
	p, err := PubkeyGetPeer(wtxn, pub)
	require.NoError(t, err)
	require.True(t, p.Active)
}

func TestPeerSetTrustClampsToMax(t *testing.T) {
	wtxn := openTestWTxn(t)
	w := New(1.0)
	pub := txcodec.PubKey("peer-1")
	require.NoError(t, apply(t, w, wtxn, txcodec.PeerAdd{Peer: txcodec.Peer{PubKey: pub}}))

	require.NoError(t, apply(t, w, wtxn, txcodec.PeerSetTrust{PubKey: pub, Trust: 5.0}))
	p, err := PubkeyGetPeer(wtxn, pub)
	require.NoError(t, err)
	require.Equal(t, 1.0, p.Trust)

	require.NoError(t, apply(t, w, wtxn, txcodec.PeerSetTrust{PubKey: pub, Trust: -5.0}))
	p, err = PubkeyGetPeer(wtxn, pub)
	require.NoError(t, err)
	require.Equal(t, -1.0, p.Trust)
}

func TestPeerChangeTrustClampsAccumulated(t *testing.T) {
	wtxn := openTestWTxn(t)
	w := New(1.0)
	pub := txcodec.PubKey("peer-1")
	require.NoError(t, apply(t, w, wtxn, txcodec.PeerAdd{Peer: txcodec.Peer{PubKey: pub, Trust: 0.9}}))

	require.NoError(t, apply(t, w, wtxn, txcodec.PeerChangeTrust{PubKey: pub, Delta: 0.5}))
	p, err := PubkeyGetPeer(wtxn, pub)
	require.NoError(t, err)
	require.Equal(t, 1.0, p.Trust)
}

func TestPermissionGrantAndRevokeEachScope(t *testing.T) {
	wtxn := openTestWTxn(t)
	w := New(1.0)
	pub := txcodec.PubKey("alice")

	require.NoError(t, apply(t, w, wtxn, txcodec.PermissionGrant{PubKey: pub, Scope: txcodec.PermissionLedger, Name: "can_create_asset"}))
	require.NoError(t, apply(t, w, wtxn, txcodec.PermissionGrant{PubKey: pub, Scope: txcodec.PermissionDomain, Name: "can_transfer"}))
	require.NoError(t, apply(t, w, wtxn, txcodec.PermissionGrant{PubKey: pub, Scope: txcodec.PermissionAsset, Name: "can_add"}))

	names, err := GetPermissionsLedger(wtxn, pub)
	require.NoError(t, err)
	require.Equal(t, []string{"can_create_asset"}, names)

	names, err = GetPermissionsDomain(wtxn, pub)
	require.NoError(t, err)
	require.Equal(t, []string{"can_transfer"}, names)

	names, err = GetPermissionsAsset(wtxn, pub)
	require.NoError(t, err)
	require.Equal(t, []string{"can_add"}, names)

	require.NoError(t, apply(t, w, wtxn, txcodec.PermissionRevoke{PubKey: pub, Scope: txcodec.PermissionDomain, Name: "can_transfer"}))
	names, err = GetPermissionsDomain(wtxn, pub)
	require.NoError(t, err)
	require.Empty(t, names)
}

func TestPermissionRevokeUnknownIsNoop(t *testing.T) {
	wtxn := openTestWTxn(t)
	w := New(1.0)
	pub := txcodec.PubKey("alice")
	err := apply(t, w, wtxn, txcodec.PermissionRevoke{PubKey: pub, Scope: txcodec.PermissionLedger, Name: "nothing"})
	require.NoError(t, err)
}

func TestReservedTagsAreNoops(t *testing.T) {
	wtxn := openTestWTxn(t)
	w := New(1.0)
	require.NoError(t, apply(t, w, wtxn, txcodec.AccountSetUseKeys{Accounts: []txcodec.PubKey{txcodec.PubKey("alice")}, UseKeys: 2}))
	require.NoError(t, apply(t, w, wtxn, txcodec.ChaincodeAdd{Name: "cc1", Code: []byte("x")}))
	require.NoError(t, apply(t, w, wtxn, txcodec.ChaincodeExecute{Name: "cc1"}))
}
