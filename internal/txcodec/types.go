// Package txcodec defines the typed view of a transaction record and the
// command variants it can carry, plus the canonical encode/decode and
// hashing/signature-verification adapters the core treats as external
// collaborators (see SYSTEM OVERVIEW, out of scope: crypto primitives).
//
// A transaction's blob is the source of truth; the types here are the
// parsed-on-demand view borrowed from that blob. Canonical encoding is
// Go's deterministic struct-field-order JSON: every payload type below is
// a plain struct with fixed field order and no map-typed fields, so two
// equal values always encode to the same bytes.
package txcodec

// PubKey is a raw public key, hex-free byte form.
type PubKey []byte

// Hash32 is a 32-byte digest, e.g. SHA3-256(canonical(T)).
type Hash32 [32]byte

// Signature pairs a signer's public key with its signature bytes.
type Signature struct {
	PublicKey PubKey
	Bytes     []byte
}

// Attachment is an optional opaque payload carried alongside a
// transaction (e.g. a chaincode execution's arguments).
type Attachment struct {
	MIME string
	Data []byte
}

// Account is the identity row keyed by its unique public key.
type Account struct {
	PubKey      PubKey
	Alias       string
	Signatories []PubKey
	UseKeys     uint16
}

// Currency is a fungible asset value.
type Currency struct {
	Amount      uint64
	Precision   uint8
	Description string
}

// ComplexAsset is a non-fungible or structured asset value; the core
// treats its payload opaquely beyond the fixed envelope.
type ComplexAsset struct {
	Schema string
	Data   []byte
}

// AssetValue is the tagged union of an asset's stored value. Exactly one
// of Currency or Complex is populated, selected by Kind.
type AssetValue struct {
	Kind     AssetValueKind
	Currency *Currency
	Complex  *ComplexAsset
}

// AssetValueKind tags which field of AssetValue is populated.
type AssetValueKind string

const (
	AssetValueCurrency AssetValueKind = "currency"
	AssetValueComplex  AssetValueKind = "complex"
)

// AssetID identifies an asset schema or balance row.
type AssetID struct {
	Ledger string
	Domain string
	Name   string
}

// AccountAsset is one balance row: a pubkey's holding of one asset.
type AccountAsset struct {
	PubKey PubKey
	Asset  AssetID
	Value  AssetValue
}

// Peer is one member of the permissioned network.
type Peer struct {
	Ledger  string
	PubKey  PubKey
	Address string
	Trust   float64
	Active  bool
}

// PermissionScope selects which of the three permission tables a row
// belongs to.
type PermissionScope string

const (
	PermissionLedger PermissionScope = "ledger"
	PermissionDomain  PermissionScope = "domain"
	PermissionAsset   PermissionScope = "asset"
)

// Permission is one grant row, multi-valued per pubkey.
type Permission struct {
	PubKey PubKey
	Scope  PermissionScope
	Name   string
}

// Transaction is the typed view T parsed from a transaction blob.
type Transaction struct {
	Creator    PubKey
	Command    Command
	Signatures []Signature
	Hash       Hash32
	Attachment *Attachment
}
