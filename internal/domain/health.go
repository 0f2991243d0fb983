package domain

// Cache states reported by the health endpoint
const (
	CacheConnected    = "Connected"
	CacheDisconnected = "Disconnected"
	CacheDisabled     = "Disabled"
)

// HealthStatus reports the reachability of backing services
type HealthStatus struct {
	DatabaseConnected bool
	Cache             string
}
