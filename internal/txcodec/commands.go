package txcodec

// CommandTag identifies the concrete type carried by a Command envelope.
// The set is closed: an unrecognized tag is always an invalid_transaction.
type CommandTag string

const (
	TagAssetCreate             CommandTag = "asset_create"
	TagAssetAdd                CommandTag = "asset_add"
	TagAssetRemove             CommandTag = "asset_remove"
	TagAssetTransfer           CommandTag = "asset_transfer"
	TagAccountAdd              CommandTag = "account_add"
	TagAccountRemove           CommandTag = "account_remove"
	TagAccountAddSignatory     CommandTag = "account_add_signatory"
	TagAccountRemoveSignatory  CommandTag = "account_remove_signatory"
	TagAccountSetUseKeys       CommandTag = "account_set_use_keys"
	TagPeerAdd                 CommandTag = "peer_add"
	TagPeerRemove              CommandTag = "peer_remove"
	TagPeerSetActive           CommandTag = "peer_set_active"
	TagPeerSetTrust            CommandTag = "peer_set_trust"
	TagPeerChangeTrust         CommandTag = "peer_change_trust"
	TagChaincodeAdd            CommandTag = "chaincode_add"
	TagChaincodeRemove         CommandTag = "chaincode_remove"
	TagChaincodeExecute        CommandTag = "chaincode_execute"

	// TagPermissionGrant and TagPermissionRevoke are not part of the
	// source's ~17-case command set and carry no transaction-log
	// secondary index, but the WSV's permission rows (§3) are otherwise
	// unreachable from any command; these two close that gap.
	TagPermissionGrant  CommandTag = "permission_grant"
	TagPermissionRevoke CommandTag = "permission_revoke"
)

// Command is implemented by every concrete command payload. Tag is used
// both to select the secondary index at append time and, via the
// envelope below, to round-trip through canonical encoding.
type Command interface {
	Tag() CommandTag
}

// AssetCreate registers a new asset schema under (Ledger, Domain, Name).
type AssetCreate struct {
	Asset       AssetID
	InitAmount  uint64
	Precision   uint8
	Description string
}

func (AssetCreate) Tag() CommandTag { return TagAssetCreate }

// AssetAdd credits an account's holding of an existing asset.
type AssetAdd struct {
	PubKey PubKey
	Asset  AssetID
	Value  AssetValue
}

func (AssetAdd) Tag() CommandTag { return TagAssetAdd }

// AssetRemove debits an account's holding of an asset.
type AssetRemove struct {
	PubKey PubKey
	Asset  AssetID
	Value  AssetValue
}

func (AssetRemove) Tag() CommandTag { return TagAssetRemove }

// AssetTransfer atomically moves a value from Sender to Receiver.
type AssetTransfer struct {
	Sender   PubKey
	Receiver PubKey
	Asset    AssetID
	Value    AssetValue
}

func (AssetTransfer) Tag() CommandTag { return TagAssetTransfer }

// AccountAdd creates a new account identity.
type AccountAdd struct {
	Account Account
}

func (AccountAdd) Tag() CommandTag { return TagAccountAdd }

// AccountRemove deletes an account identity.
type AccountRemove struct {
	PubKey PubKey
}

func (AccountRemove) Tag() CommandTag { return TagAccountRemove }

// AccountAddSignatory appends a signing key to an account's set.
type AccountAddSignatory struct {
	Account PubKey
	Key     PubKey
}

func (AccountAddSignatory) Tag() CommandTag { return TagAccountAddSignatory }

// AccountRemoveSignatory removes a signing key from an account's set.
type AccountRemoveSignatory struct {
	Account PubKey
	Key     PubKey
}

func (AccountRemoveSignatory) Tag() CommandTag { return TagAccountRemoveSignatory }

// AccountSetUseKeys is a reserved tag: the core parses it, stores it in
// tx_store and indexes it, but writes no log line for it and does not
// mutate WSV state (see §4.5's dispatcher table).
type AccountSetUseKeys struct {
	Accounts []PubKey
	UseKeys  uint16
}

func (AccountSetUseKeys) Tag() CommandTag { return TagAccountSetUseKeys }

// PeerAdd registers a new network peer.
type PeerAdd struct {
	Peer Peer
}

func (PeerAdd) Tag() CommandTag { return TagPeerAdd }

// PeerRemove removes a network peer.
type PeerRemove struct {
	PubKey PubKey
}

func (PeerRemove) Tag() CommandTag { return TagPeerRemove }

// PeerSetActive flips a peer's active flag.
type PeerSetActive struct {
	PubKey PubKey
	Active bool
}

func (PeerSetActive) Tag() CommandTag { return TagPeerSetActive }

// PeerSetTrust sets a peer's trust score outright.
type PeerSetTrust struct {
	PubKey PubKey
	Trust  float64
}

func (PeerSetTrust) Tag() CommandTag { return TagPeerSetTrust }

// PeerChangeTrust adjusts a peer's trust score by a delta.
type PeerChangeTrust struct {
	PubKey PubKey
	Delta  float64
}

func (PeerChangeTrust) Tag() CommandTag { return TagPeerChangeTrust }

// ChaincodeAdd, ChaincodeRemove and ChaincodeExecute are reserved tags:
// the core parses them and stores them in tx_store, but writes no log
// line for them and does not mutate WSV state. No chaincode sandbox
// exists in this subsystem's scope.
type ChaincodeAdd struct {
	Name string
	Code []byte
}

func (ChaincodeAdd) Tag() CommandTag { return TagChaincodeAdd }

type ChaincodeRemove struct {
	Name string
}

func (ChaincodeRemove) Tag() CommandTag { return TagChaincodeRemove }

type ChaincodeExecute struct {
	Name string
	Args [][]byte
}

func (ChaincodeExecute) Tag() CommandTag { return TagChaincodeExecute }

// PermissionGrant inserts a permission row for a pubkey within a scope.
type PermissionGrant struct {
	PubKey PubKey
	Scope  PermissionScope
	Name   string
}

func (PermissionGrant) Tag() CommandTag { return TagPermissionGrant }

// PermissionRevoke removes a permission row.
type PermissionRevoke struct {
	PubKey PubKey
	Scope  PermissionScope
	Name   string
}

func (PermissionRevoke) Tag() CommandTag { return TagPermissionRevoke }
