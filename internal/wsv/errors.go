package wsv

import "errors"

var (
	ErrAccountExists      = errors.New("wsv: account already exists")
	ErrAccountNotFound    = errors.New("wsv: account not found")
	ErrSignatoryExists    = errors.New("wsv: signatory already present")
	ErrAssetExists        = errors.New("wsv: asset already exists")
	ErrAssetNotFound      = errors.New("wsv: asset not found")
	ErrPrecisionMismatch  = errors.New("wsv: precision mismatch")
	ErrAmountOverflow     = errors.New("wsv: amount overflow")
	ErrInsufficientFunds  = errors.New("wsv: insufficient balance")
	ErrWrongAssetKind     = errors.New("wsv: asset value kind mismatch")
	ErrPeerExists         = errors.New("wsv: peer already exists")
	ErrPeerNotFound       = errors.New("wsv: peer not found")
)
