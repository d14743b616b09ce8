package types

// AssetType identifies the class of cloud resource an Asset mirrors.
type AssetType string

const (
	AssetComputeInstance    AssetType = "compute-instance"
	AssetNetwork            AssetType = "network"
	AssetSubnetwork         AssetType = "subnetwork"
	AssetSecurityGroup      AssetType = "security-group"
	AssetInternetGateway    AssetType = "internet-gateway"
	AssetNetworkInterface   AssetType = "network-interface"
	AssetObjectStoreBucket  AssetType = "object-store-bucket"
	AssetIdentityRole       AssetType = "identity-role"
	AssetIdentityUser       AssetType = "identity-user"
	AssetIdentityPolicy     AssetType = "identity-policy"
	AssetKeyManagementKey   AssetType = "key-management-key"
	AssetMetric             AssetType = "metric"
	AssetServerlessFunction AssetType = "serverless-function"
)

// AllAssetTypes returns every tracked asset type in sync order.
func AllAssetTypes() []AssetType {
	return []AssetType{
		AssetComputeInstance,
		AssetNetwork,
		AssetSubnetwork,
		AssetSecurityGroup,
		AssetInternetGateway,
		AssetNetworkInterface,
		AssetObjectStoreBucket,
		AssetIdentityRole,
		AssetIdentityUser,
		AssetIdentityPolicy,
		AssetKeyManagementKey,
		AssetMetric,
		AssetServerlessFunction,
	}
}

// Valid reports whether t is a known asset type.
func (t AssetType) Valid() bool {
	for _, known := range AllAssetTypes() {
		if t == known {
			return true
		}
	}
	return false
}

// Asset is the canonical record for one cloud resource, keyed by
// (AssetType, UniqueID). The JSON shape matches the inventory store API.
type Asset struct {
	AssetType   AssetType         `json:"asset_type,omitempty"`
	UniqueID    string            `json:"unique_id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Metadata    map[string]any    `json:"metadata"`
	Tags        map[string]string `json:"tags"`
	IsStale     bool              `json:"is_stale"`
}

// Key returns the natural key of the asset within its type.
func (a *Asset) Key() string {
	return a.UniqueID
}

// BuildAssetMap indexes assets by unique id for reconciliation lookups.
func BuildAssetMap(assets []Asset) map[string]Asset {
	m := make(map[string]Asset, len(assets))
	for _, a := range assets {
		m[a.UniqueID] = a
	}
	return m
}
