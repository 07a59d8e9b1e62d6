package txlog

import "github.com/cuemby/ametsuchi/internal/txcodec"

// Named maps that make up the transaction log (§4.4). All are opened in
// the engine's current write txn; index maps are dup-sorted/dup-fixed
// pubkey -> {TxIndex}.
const (
	MapTxStore    = "tx_store"
	MapMerkleTree = "merkle_tree"

	IndexAssetCreate           = "index_asset_create"
	IndexAssetAdd              = "index_asset_add"
	IndexAssetRemove           = "index_asset_remove"
	IndexAssetTransfer         = "index_asset_transfer"
	IndexTransferSender        = "index_transfer_sender"
	IndexTransferReceiver      = "index_transfer_receiver"
	IndexAccountAdd            = "index_account_add"
	IndexAccountAddSign        = "index_account_add_sign"
	IndexAccountRemove         = "index_account_remove"
	IndexAccountRemoveSign     = "index_account_remove_sign"
	IndexAccountSetUseKeys     = "index_account_set_use_keys"
	IndexPeerAdd               = "index_peer_add"
	IndexPeerChangeTrust       = "index_peer_change_trust"
	IndexPeerRemove            = "index_peer_remove"
	IndexPeerSetActive         = "index_peer_set_active"
	IndexPeerSetTrust          = "index_peer_set_trust"
)

// AllMaps lists every map the transaction log owns, used to size
// max_named_maps and to open/create them all up front on engine startup.
var AllMaps = []string{
	MapTxStore, MapMerkleTree,
	IndexAssetCreate, IndexAssetAdd, IndexAssetRemove, IndexAssetTransfer,
	IndexTransferSender, IndexTransferReceiver,
	IndexAccountAdd, IndexAccountAddSign, IndexAccountRemove, IndexAccountRemoveSign,
	IndexAccountSetUseKeys,
	IndexPeerAdd, IndexPeerChangeTrust, IndexPeerRemove, IndexPeerSetActive, IndexPeerSetTrust,
}

// indexFor returns the category index map name(s) a command's creator
// (and, for transfers, sender/receiver) must be inserted into.
func indexFor(cmd txcodec.Command) []string {
	switch cmd.(type) {
	case txcodec.AssetCreate:
		return []string{IndexAssetCreate}
	case txcodec.AssetAdd:
		return []string{IndexAssetAdd}
	case txcodec.AssetRemove:
		return []string{IndexAssetRemove}
	case txcodec.AssetTransfer:
		return []string{IndexAssetTransfer}
	case txcodec.AccountAdd:
		return []string{IndexAccountAdd}
	case txcodec.AccountAddSignatory:
		return []string{IndexAccountAddSign}
	case txcodec.AccountRemove:
		return []string{IndexAccountRemove}
	case txcodec.AccountRemoveSignatory:
		return []string{IndexAccountRemoveSign}
	case txcodec.AccountSetUseKeys:
		return []string{IndexAccountSetUseKeys}
	case txcodec.PeerAdd:
		return []string{IndexPeerAdd}
	case txcodec.PeerChangeTrust:
		return []string{IndexPeerChangeTrust}
	case txcodec.PeerRemove:
		return []string{IndexPeerRemove}
	case txcodec.PeerSetActive:
		return []string{IndexPeerSetActive}
	case txcodec.PeerSetTrust:
		return []string{IndexPeerSetTrust}
	default:
		// Chaincode* tags are reserved: parsed and stored in tx_store,
		// but carry no category index (see §9's reserved-tag note).
		return nil
	}
}
