package ledger

import (
	"github.com/cuemby/ametsuchi/internal/kv"
	"github.com/cuemby/ametsuchi/internal/txcodec"
	"github.com/cuemby/ametsuchi/internal/txlog"
	"github.com/cuemby/ametsuchi/internal/wsv"
)

// reader picks the txn a query runs against: the current write txn
// (uncommitted == true, sees this batch's own pending writes) or a
// fresh read-only snapshot (uncommitted == false, committed data only),
// per §4.6's query contract.
func (e *Engine) reader(uncommitted bool) (opener, func(), error) {
	if uncommitted {
		return e.wtxn, func() {}, nil
	}
	rtxn, err := e.env.ReadTxn()
	if err != nil {
		return nil, nil, wrapErr("query.begin_read", err)
	}
	return rtxn, func() { rtxn.Close() }, nil
}

// opener is the minimal surface *kv.WTxn and *kv.RTxn share, matching
// txlog's and wsv's own opener interfaces so the same txn value can be
// passed to either package without adaptation.
type opener interface {
	OpenMap(name string, flags kv.Flags) (*kv.Map, error)
}

// AccountGetAllAssets returns every AccountAsset row held by pubkey.
func (e *Engine) AccountGetAllAssets(pubkey []byte, uncommitted bool) ([]*txcodec.AccountAsset, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	txn, done, err := e.reader(uncommitted)
	if err != nil {
		return nil, err
	}
	defer done()
	out, err := wsv.AccountGetAllAssets(txn, pubkey)
	return out, wrapErr("account_get_all_assets", err)
}

// AccountGetAsset returns the single AccountAsset row for (pubkey, asset).
func (e *Engine) AccountGetAsset(pubkey []byte, asset txcodec.AssetID, uncommitted bool) (*txcodec.AccountAsset, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	txn, done, err := e.reader(uncommitted)
	if err != nil {
		return nil, err
	}
	defer done()
	row, err := wsv.AccountGetAsset(txn, pubkey, asset)
	return row, wrapErr("account_get_asset", err)
}

// PubkeyGetPeer returns the peer row for pubkey.
func (e *Engine) PubkeyGetPeer(pubkey []byte, uncommitted bool) (*txcodec.Peer, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	txn, done, err := e.reader(uncommitted)
	if err != nil {
		return nil, err
	}
	defer done()
	peer, err := wsv.PubkeyGetPeer(txn, pubkey)
	return peer, wrapErr("pubkey_get_peer", err)
}

// GetAccount returns the account row for pubkey.
func (e *Engine) GetAccount(pubkey []byte, uncommitted bool) (*txcodec.Account, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	txn, done, err := e.reader(uncommitted)
	if err != nil {
		return nil, err
	}
	defer done()
	acct, err := wsv.GetAccount(txn, pubkey)
	return acct, wrapErr("get_account", err)
}

// GetPermissionsLedger, GetPermissionsDomain and GetPermissionsAsset
// return the permission names granted to pubkey within each scope.
func (e *Engine) GetPermissionsLedger(pubkey []byte, uncommitted bool) ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	txn, done, err := e.reader(uncommitted)
	if err != nil {
		return nil, err
	}
	defer done()
	names, err := wsv.GetPermissionsLedger(txn, pubkey)
	return names, wrapErr("get_permissions_ledger", err)
}

func (e *Engine) GetPermissionsDomain(pubkey []byte, uncommitted bool) ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	txn, done, err := e.reader(uncommitted)
	if err != nil {
		return nil, err
	}
	defer done()
	names, err := wsv.GetPermissionsDomain(txn, pubkey)
	return names, wrapErr("get_permissions_domain", err)
}

func (e *Engine) GetPermissionsAsset(pubkey []byte, uncommitted bool) ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	txn, done, err := e.reader(uncommitted)
	if err != nil {
		return nil, err
	}
	defer done()
	names, err := wsv.GetPermissionsAsset(txn, pubkey)
	return names, wrapErr("get_permissions_asset", err)
}

// GetByKey returns the transaction blobs referenced by index's ordered
// entries for pubkey, in ascending TxIndex order.
func (e *Engine) GetByKey(index string, pubkey []byte, uncommitted bool) ([][]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	txn, done, err := e.reader(uncommitted)
	if err != nil {
		return nil, err
	}
	defer done()
	blobs, err := e.log.GetByKey(txn, index, pubkey)
	return blobs, wrapErr("get_by_key", err)
}

// Indexes lists the named per-command/per-participant indices GetByKey
// accepts.
func Indexes() []string { return txlog.AllMaps[2:] }
