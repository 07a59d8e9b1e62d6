package wsv

import (
	"encoding/binary"
	"encoding/json"

	"github.com/cuemby/ametsuchi/internal/txcodec"
)

// encodeAssetID produces a length-prefixed byte key for (ledger, domain,
// name) so it sorts and compares unambiguously regardless of whether any
// component contains bytes that would collide under naive concatenation.
func encodeAssetID(id txcodec.AssetID) []byte {
	return encodeParts(id.Ledger, id.Domain, id.Name)
}

func encodeParts(parts ...string) []byte {
	var out []byte
	for _, p := range parts {
		var lenBuf [4]byte
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(p)))
		out = append(out, lenBuf[:]...)
		out = append(out, p...)
	}
	return out
}

func marshalAccount(a *txcodec.Account) ([]byte, error) {
	return json.Marshal(a)
}

func unmarshalAccount(b []byte) (*txcodec.Account, error) {
	var a txcodec.Account
	if err := json.Unmarshal(b, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func marshalPeer(p *txcodec.Peer) ([]byte, error) {
	return json.Marshal(p)
}

func unmarshalPeer(b []byte) (*txcodec.Peer, error) {
	var p txcodec.Peer
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func marshalAccountAsset(a *txcodec.AccountAsset) ([]byte, error) {
	return json.Marshal(a)
}

func unmarshalAccountAsset(b []byte) (*txcodec.AccountAsset, error) {
	var a txcodec.AccountAsset
	if err := json.Unmarshal(b, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// assetSchema is the row AssetCreate registers in MapAssets.
type assetSchema struct {
	Asset       txcodec.AssetID
	Precision   uint8
	Description string
}

func marshalAssetSchema(s *assetSchema) ([]byte, error) {
	return json.Marshal(s)
}

func unmarshalAssetSchema(b []byte) (*assetSchema, error) {
	var s assetSchema
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
