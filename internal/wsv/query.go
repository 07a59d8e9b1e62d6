package wsv

import (
	"github.com/cuemby/ametsuchi/internal/kv"
	"github.com/cuemby/ametsuchi/internal/txcodec"
)

// opener is satisfied by both *kv.WTxn and *kv.RTxn; queries may run
// against the current write txn (uncommitted visible) or a fresh
// read-only txn (committed only), matching the engine façade's
// "uncommitted" flag on each pass-through method.
type opener interface {
	OpenMap(name string, flags kv.Flags) (*kv.Map, error)
}

// AccountGetAllAssets returns every AccountAsset row held by pubkey.
func AccountGetAllAssets(txn opener, pubkey []byte) ([]*txcodec.AccountAsset, error) {
	m, err := txn.OpenMap(MapAccountAssets, kv.DupSort)
	if err != nil {
		if err == kv.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	cur := m.Cursor()
	k, _, err := cur.Seek(pubkey)
	if err != nil || string(k) != string(pubkey) {
		return nil, nil
	}
	var out []*txcodec.AccountAsset
	for {
		payload, perr := cur.Payload()
		if perr == nil {
			row, uerr := unmarshalAccountAsset(payload)
			if uerr != nil {
				return nil, uerr
			}
			out = append(out, row)
		}
		_, _, err = cur.NextDup()
		if err != nil {
			break
		}
	}
	return out, nil
}

// AccountGetAsset returns the single AccountAsset row for (pubkey, asset).
func AccountGetAsset(txn opener, pubkey []byte, asset txcodec.AssetID) (*txcodec.AccountAsset, error) {
	m, err := txn.OpenMap(MapAccountAssets, kv.DupSort)
	if err != nil {
		if err == kv.ErrNotFound {
			return nil, kv.ErrNotFound
		}
		return nil, err
	}
	payload, err := m.GetKeyed(pubkey, encodeAssetID(asset))
	if err != nil {
		return nil, err
	}
	return unmarshalAccountAsset(payload)
}

// PubkeyGetPeer returns the peer row for pubkey.
func PubkeyGetPeer(txn opener, pubkey []byte) (*txcodec.Peer, error) {
	m, err := txn.OpenMap(MapPeers, 0)
	if err != nil {
		if err == kv.ErrNotFound {
			return nil, kv.ErrNotFound
		}
		return nil, err
	}
	data, err := m.Get(pubkey)
	if err != nil {
		return nil, err
	}
	return unmarshalPeer(data)
}

// GetAccount returns the account row for pubkey.
func GetAccount(txn opener, pubkey []byte) (*txcodec.Account, error) {
	m, err := txn.OpenMap(MapAccounts, 0)
	if err != nil {
		if err == kv.ErrNotFound {
			return nil, kv.ErrNotFound
		}
		return nil, err
	}
	data, err := m.Get(pubkey)
	if err != nil {
		return nil, err
	}
	return unmarshalAccount(data)
}

// GetPermissionsLedger, GetPermissionsDomain and GetPermissionsAsset
// return the permission names granted to pubkey within each scope.
func GetPermissionsLedger(txn opener, pubkey []byte) ([]string, error) {
	return getPermissionNames(txn, MapPermissionLedger, pubkey)
}

func GetPermissionsDomain(txn opener, pubkey []byte) ([]string, error) {
	return getPermissionNames(txn, MapPermissionDomain, pubkey)
}

func GetPermissionsAsset(txn opener, pubkey []byte) ([]string, error) {
	return getPermissionNames(txn, MapPermissionAsset, pubkey)
}

func getPermissionNames(txn opener, mapName string, pubkey []byte) ([]string, error) {
	m, err := txn.OpenMap(mapName, kv.DupSort)
	if err != nil {
		if err == kv.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	cur := m.Cursor()
	k, v, err := cur.Seek(pubkey)
	if err != nil || string(k) != string(pubkey) {
		return nil, nil
	}
	var out []string
	for {
		out = append(out, string(v))
		_, v, err = cur.NextDup()
		if err != nil {
			break
		}
	}
	return out, nil
}
