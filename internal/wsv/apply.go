package wsv

import (
	"fmt"

	"github.com/cuemby/ametsuchi/internal/kv"
	"github.com/cuemby/ametsuchi/internal/txcodec"
)

// WSV applies committed commands to the derived aggregate maps. It
// holds no state of its own beyond configuration; all data lives in the
// KV substrate, scoped to whatever txn the caller supplies.
type WSV struct {
	maxTrust float64
}

// New creates a WSV. maxTrust bounds PeerSetTrust/PeerChangeTrust's
// clamp range to [-maxTrust, +maxTrust].
func New(maxTrust float64) *WSV {
	return &WSV{maxTrust: maxTrust}
}

func openAll(wtxn *kv.WTxn) (accounts, assets, accountAssets, peers, permLedger, permDomain, permAsset *kv.Map, err error) {
	accounts, err = wtxn.OpenMap(MapAccounts, kv.Create)
	if err != nil {
		return
	}
	assets, err = wtxn.OpenMap(MapAssets, kv.Create)
	if err != nil {
		return
	}
	accountAssets, err = wtxn.OpenMap(MapAccountAssets, kv.DupSort|kv.Create)
	if err != nil {
		return
	}
	peers, err = wtxn.OpenMap(MapPeers, kv.Create)
	if err != nil {
		return
	}
	permLedger, err = wtxn.OpenMap(MapPermissionLedger, kv.DupSort|kv.Create)
	if err != nil {
		return
	}
	permDomain, err = wtxn.OpenMap(MapPermissionDomain, kv.DupSort|kv.Create)
	if err != nil {
		return
	}
	permAsset, err = wtxn.OpenMap(MapPermissionAsset, kv.DupSort|kv.Create)
	return
}

// Apply dispatches tx.Command against the WSV maps within wtxn. The
// dispatch is purely on the command's concrete type, never on a
// secondary "as" cast — see §9's note on the source's AssetTransfer bug.
func (w *WSV) Apply(wtxn *kv.WTxn, tx *txcodec.Transaction) error {
	accounts, assets, accountAssets, peers, permLedger, permDomain, permAsset, err := openAll(wtxn)
	if err != nil {
		return err
	}

	switch cmd := tx.Command.(type) {
	case txcodec.AccountAdd:
		return applyAccountAdd(accounts, cmd)
	case txcodec.AccountRemove:
		return applyAccountRemove(accounts, cmd)
	case txcodec.AccountAddSignatory:
		return applyAccountAddSignatory(accounts, cmd)
	case txcodec.AccountRemoveSignatory:
		return applyAccountRemoveSignatory(accounts, cmd)
	case txcodec.AccountSetUseKeys:
		// Reserved tag: no log line is written, WSV left untouched (§9).
		return nil
	case txcodec.AssetCreate:
		return applyAssetCreate(assets, cmd)
	case txcodec.AssetAdd:
		return applyAssetAdd(accountAssets, cmd.PubKey, cmd.Asset, cmd.Value)
	case txcodec.AssetRemove:
		return applyAssetRemove(accountAssets, cmd.PubKey, cmd.Asset, cmd.Value)
	case txcodec.AssetTransfer:
		if err := applyAssetRemove(accountAssets, cmd.Sender, cmd.Asset, cmd.Value); err != nil {
			return err
		}
		return applyAssetAdd(accountAssets, cmd.Receiver, cmd.Asset, cmd.Value)
	case txcodec.PeerAdd:
		return applyPeerAdd(peers, cmd)
	case txcodec.PeerRemove:
		return applyPeerRemove(peers, cmd)
	case txcodec.PeerSetActive:
		return applyPeerSetActive(peers, cmd)
	case txcodec.PeerSetTrust:
		return w.applyPeerSetTrust(peers, cmd)
	case txcodec.PeerChangeTrust:
		return w.applyPeerChangeTrust(peers, cmd)
	case txcodec.ChaincodeAdd, txcodec.ChaincodeRemove, txcodec.ChaincodeExecute:
		// Reserved tags: no log line is written, WSV left untouched (§9).
		return nil
	case txcodec.PermissionGrant:
		return applyPermission(permLedger, permDomain, permAsset, cmd.Scope, cmd.PubKey, cmd.Name, true)
	case txcodec.PermissionRevoke:
		return applyPermission(permLedger, permDomain, permAsset, cmd.Scope, cmd.PubKey, cmd.Name, false)
	default:
		return fmt.Errorf("wsv: unhandled command type %T", cmd)
	}
}

func applyAccountAdd(accounts *kv.Map, cmd txcodec.AccountAdd) error {
	data, err := marshalAccount(&cmd.Account)
	if err != nil {
		return err
	}
	if err := accounts.Put(cmd.Account.PubKey, data, kv.NoOverwrite); err != nil {
		if err == kv.ErrKeyExists {
			return ErrAccountExists
		}
		return err
	}
	return nil
}

func applyAccountRemove(accounts *kv.Map, cmd txcodec.AccountRemove) error {
	if err := accounts.Delete(cmd.PubKey); err != nil {
		if err == kv.ErrNotFound {
			return ErrAccountNotFound
		}
		return err
	}
	return nil
}

func applyAccountAddSignatory(accounts *kv.Map, cmd txcodec.AccountAddSignatory) error {
	data, err := accounts.Get(cmd.Account)
	if err != nil {
		if err == kv.ErrNotFound {
			return ErrAccountNotFound
		}
		return err
	}
	acc, err := unmarshalAccount(data)
	if err != nil {
		return err
	}
	for _, k := range acc.Signatories {
		if string(k) == string(cmd.Key) {
			return ErrSignatoryExists
		}
	}
	acc.Signatories = append(acc.Signatories, cmd.Key)
	out, err := marshalAccount(acc)
	if err != nil {
		return err
	}
	return accounts.Put(cmd.Account, out, kv.Overwrite)
}

func applyAccountRemoveSignatory(accounts *kv.Map, cmd txcodec.AccountRemoveSignatory) error {
	data, err := accounts.Get(cmd.Account)
	if err != nil {
		if err == kv.ErrNotFound {
			return ErrAccountNotFound
		}
		return err
	}
	acc, err := unmarshalAccount(data)
	if err != nil {
		return err
	}
	filtered := acc.Signatories[:0]
	for _, k := range acc.Signatories {
		if string(k) != string(cmd.Key) {
			filtered = append(filtered, k)
		}
	}
	acc.Signatories = filtered
	out, err := marshalAccount(acc)
	if err != nil {
		return err
	}
	return accounts.Put(cmd.Account, out, kv.Overwrite)
}

func applyAssetCreate(assets *kv.Map, cmd txcodec.AssetCreate) error {
	key := encodeAssetID(cmd.Asset)
	schema := assetSchema{Asset: cmd.Asset, Precision: cmd.Precision, Description: cmd.Description}
	data, err := marshalAssetSchema(&schema)
	if err != nil {
		return err
	}
	if err := assets.Put(key, data, kv.NoOverwrite); err != nil {
		if err == kv.ErrKeyExists {
			return ErrAssetExists
		}
		return err
	}
	return nil
}

func applyAssetAdd(accountAssets *kv.Map, pubkey []byte, asset txcodec.AssetID, value txcodec.AssetValue) error {
	if value.Kind != txcodec.AssetValueCurrency || value.Currency == nil {
		return ErrWrongAssetKind
	}
	dupKey := encodeAssetID(asset)
	existing, err := accountAssets.GetKeyed(pubkey, dupKey)
	if err != nil && err != kv.ErrNotFound {
		return err
	}

	row := &txcodec.AccountAsset{
		PubKey: pubkey,
		Asset:  asset,
		Value:  txcodec.AssetValue{Kind: txcodec.AssetValueCurrency, Currency: value.Currency},
	}
	if existing != nil {
		prev, err := unmarshalAccountAsset(existing)
		if err != nil {
			return err
		}
		if prev.Value.Kind != txcodec.AssetValueCurrency || prev.Value.Currency == nil {
			return ErrWrongAssetKind
		}
		if prev.Value.Currency.Precision != value.Currency.Precision {
			return ErrPrecisionMismatch
		}
		sum := prev.Value.Currency.Amount + value.Currency.Amount
		if sum < prev.Value.Currency.Amount {
			return ErrAmountOverflow
		}
		row.Value.Currency = &txcodec.Currency{
			Amount:      sum,
			Precision:   value.Currency.Precision,
			Description: prev.Value.Currency.Description,
		}
	}

	data, err := marshalAccountAsset(row)
	if err != nil {
		return err
	}
	return accountAssets.PutKeyed(pubkey, dupKey, data, kv.Overwrite)
}

func applyAssetRemove(accountAssets *kv.Map, pubkey []byte, asset txcodec.AssetID, value txcodec.AssetValue) error {
	if value.Kind != txcodec.AssetValueCurrency || value.Currency == nil {
		return ErrWrongAssetKind
	}
	dupKey := encodeAssetID(asset)
	existing, err := accountAssets.GetKeyed(pubkey, dupKey)
	if err != nil {
		if err == kv.ErrNotFound {
			return ErrAssetNotFound
		}
		return err
	}
	prev, err := unmarshalAccountAsset(existing)
	if err != nil {
		return err
	}
	if prev.Value.Kind != txcodec.AssetValueCurrency || prev.Value.Currency == nil {
		return ErrWrongAssetKind
	}
	if prev.Value.Currency.Precision != value.Currency.Precision {
		return ErrPrecisionMismatch
	}
	if prev.Value.Currency.Amount < value.Currency.Amount {
		return ErrInsufficientFunds
	}
	remaining := prev.Value.Currency.Amount - value.Currency.Amount
	if remaining == 0 {
		return accountAssets.DeleteKeyed(pubkey, dupKey)
	}
	row := &txcodec.AccountAsset{
		PubKey: pubkey,
		Asset:  asset,
		Value: txcodec.AssetValue{Kind: txcodec.AssetValueCurrency, Currency: &txcodec.Currency{
			Amount:      remaining,
			Precision:   value.Currency.Precision,
			Description: prev.Value.Currency.Description,
		}},
	}
	data, err := marshalAccountAsset(row)
	if err != nil {
		return err
	}
	return accountAssets.PutKeyed(pubkey, dupKey, data, kv.Overwrite)
}

func applyPeerAdd(peers *kv.Map, cmd txcodec.PeerAdd) error {
	data, err := marshalPeer(&cmd.Peer)
	if err != nil {
		return err
	}
	if err := peers.Put(cmd.Peer.PubKey, data, kv.NoOverwrite); err != nil {
		if err == kv.ErrKeyExists {
			return ErrPeerExists
		}
		return err
	}
	return nil
}

func applyPeerRemove(peers *kv.Map, cmd txcodec.PeerRemove) error {
	if err := peers.Delete(cmd.PubKey); err != nil {
		if err == kv.ErrNotFound {
			return ErrPeerNotFound
		}
		return err
	}
	return nil
}

func applyPeerSetActive(peers *kv.Map, cmd txcodec.PeerSetActive) error {
	p, err := getPeer(peers, cmd.PubKey)
	if err != nil {
		return err
	}
	p.Active = cmd.Active
	return putPeer(peers, p)
}

func (w *WSV) applyPeerSetTrust(peers *kv.Map, cmd txcodec.PeerSetTrust) error {
	p, err := getPeer(peers, cmd.PubKey)
	if err != nil {
		return err
	}
	p.Trust = clamp(cmd.Trust, w.maxTrust)
	return putPeer(peers, p)
}

func (w *WSV) applyPeerChangeTrust(peers *kv.Map, cmd txcodec.PeerChangeTrust) error {
	p, err := getPeer(peers, cmd.PubKey)
	if err != nil {
		return err
	}
	p.Trust = clamp(p.Trust+cmd.Delta, w.maxTrust)
	return putPeer(peers, p)
}

func clamp(v, max float64) float64 {
	if v > max {
		return max
	}
	if v < -max {
		return -max
	}
	return v
}

func getPeer(peers *kv.Map, pubkey []byte) (*txcodec.Peer, error) {
	data, err := peers.Get(pubkey)
	if err != nil {
		if err == kv.ErrNotFound {
			return nil, ErrPeerNotFound
		}
		return nil, err
	}
	return unmarshalPeer(data)
}

func putPeer(peers *kv.Map, p *txcodec.Peer) error {
	data, err := marshalPeer(p)
	if err != nil {
		return err
	}
	return peers.Put(p.PubKey, data, kv.Overwrite)
}

func permissionMap(permLedger, permDomain, permAsset *kv.Map, scope txcodec.PermissionScope) (*kv.Map, error) {
	switch scope {
	case txcodec.PermissionLedger:
		return permLedger, nil
	case txcodec.PermissionDomain:
		return permDomain, nil
	case txcodec.PermissionAsset:
		return permAsset, nil
	default:
		return nil, fmt.Errorf("wsv: unknown permission scope %q", scope)
	}
}

func applyPermission(permLedger, permDomain, permAsset *kv.Map, scope txcodec.PermissionScope, pubkey []byte, name string, grant bool) error {
	m, err := permissionMap(permLedger, permDomain, permAsset, scope)
	if err != nil {
		return err
	}
	if grant {
		return m.Put(pubkey, []byte(name), kv.Overwrite)
	}
	err = m.DeleteDup(pubkey, []byte(name))
	if err == kv.ErrNotFound {
		return nil
	}
	return err
}
