// Package wsv implements the World-State View (§4.5): the derived
// aggregates obtained by folding the committed transaction sequence —
// accounts, per-account asset balances, peers, and permission grants —
// plus the Apply dispatch that keeps them in sync with each appended
// transaction.
package wsv

const (
	MapAccounts         = "accounts"
	MapAccountAssets    = "account_assets"
	MapPeers            = "peers"
	MapPermissionLedger = "permission_ledger"
	MapPermissionDomain = "permission_domain"
	MapPermissionAsset  = "permission_asset"

	// MapAssets holds the registered (ledger,domain,name) -> schema
	// rows AssetCreate populates. §4.5 lists accounts/account_assets/
	// peers as the WSV's maps but AssetCreate's "fail on duplicate"
	// requirement needs somewhere to check for one; this map is that
	// somewhere, keyed by the same AssetID the balance rows use.
	MapAssets = "assets"
)

// AllMaps lists every map the WSV owns.
var AllMaps = []string{
	MapAccounts, MapAccountAssets, MapPeers, MapAssets,
	MapPermissionLedger, MapPermissionDomain, MapPermissionAsset,
}
