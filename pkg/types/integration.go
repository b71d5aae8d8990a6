package types

import "time"

// IntegrationID identifies a third-party inverter monitoring provider.
type IntegrationID string

const (
	IntegrationHuawei    IntegrationID = "huawei"
	IntegrationFronius   IntegrationID = "fronius"
	IntegrationSMA       IntegrationID = "sma"
	IntegrationSolarEdge IntegrationID = "solaredge"
)

// IntegrationStatus is the connection state of an integration.
type IntegrationStatus string

const (
	IntegrationConnected    IntegrationStatus = "connected"
	IntegrationFailed       IntegrationStatus = "failed"
	IntegrationExpired      IntegrationStatus = "expired"
	IntegrationDisconnected IntegrationStatus = "disconnected"
)

// IntegrationInfo provides metadata about an integration provider.
type IntegrationInfo struct {
	ID          IntegrationID           `json:"id"`
	Name        string                  `json:"name"`
	Description string                  `json:"description"`
	Credentials []IntegrationCredential `json:"credentials"`
}

// IntegrationCredential defines a single credential field a provider asks for.
type IntegrationCredential struct {
	Field       string `json:"field"`
	Name        string `json:"name"`
	Type        string `json:"type"` // e.g. "string" or "password"
	Required    bool   `json:"required"`
	Description string `json:"description,omitempty"`
}

// IntegrationState is the persisted state of one provider.
type IntegrationState struct {
	ID           IntegrationID     `json:"id"`
	Status       IntegrationStatus `json:"status"`
	ConnectionID string            `json:"connectionID,omitempty"`
	LastReading  time.Time         `json:"lastReading,omitzero"`
	NextUpdate   time.Time         `json:"nextUpdate,omitzero"`
	LastError    string            `json:"lastError,omitempty"`

	// EncryptedCredentials are the sealed credentials. They are never sent
	// to clients.
	EncryptedCredentials []byte `json:"-"`
}

// Credentials is a tagged union of per-provider credentials. Exactly one
// field is expected to be set for a given provider.
type Credentials struct {
	Huawei    *HuaweiCredentials    `json:"huawei,omitempty"`
	Fronius   *FroniusCredentials   `json:"fronius,omitempty"`
	SMA       *SMACredentials       `json:"sma,omitempty"`
	SolarEdge *SolarEdgeCredentials `json:"solaredge,omitempty"`

	// DataInterval is how often the provider should be polled, as a Go
	// duration string. Empty means the provider default.
	DataInterval string `json:"dataInterval,omitempty"`
	// APIURL overrides the provider's default API endpoint.
	APIURL string `json:"apiUrl,omitempty"`
}

// Credentials for the Huawei FusionSolar northbound API.
type HuaweiCredentials struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	Domain      string `json:"domain"`
	StationCode string `json:"stationCode"`
}

// Credentials for Fronius Solar.web.
type FroniusCredentials struct {
	APIKey  string `json:"apiKey"`
	PlantID string `json:"plantId"`
}

// Credentials for SMA Sunny Portal.
type SMACredentials struct {
	SystemID string `json:"systemId"`
	APIKey   string `json:"apiKey"`
}

// Credentials for SolarEdge monitoring.
type SolarEdgeCredentials struct {
	SiteID string `json:"siteId"`
	APIKey string `json:"apiKey"`
}
