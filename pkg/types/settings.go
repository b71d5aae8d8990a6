package types

import (
	"fmt"
)

// CurrentSettingsVersion is the current version of the settings struct.
// Increment this value when adding new fields that require default values.
const CurrentSettingsVersion = 3

// Settings are the per-user preferences stored in the database.
type Settings struct {
	// Profile
	Name  string `json:"name"`
	Email string `json:"email"`

	Notifications Notifications `json:"notifications"`

	// Currency is an ISO 4217 code used when formatting savings and costs.
	Currency string `json:"currency"`

	// DefaultResidenceID is the residence the dashboard opens with.
	DefaultResidenceID int `json:"defaultResidenceID"`
}

// Notifications toggles user alerts.
type Notifications struct {
	ConsumptionAlerts bool `json:"consumptionAlerts"`
	WeeklyReport      bool `json:"weeklyReport"`
}

// MigrateSettings migrates the settings to the current version.
// It returns the migrated settings, a boolean indicating if changes were made, and an error if migration failed.
func MigrateSettings(s Settings, currentVersion int) (Settings, bool, error) {
	if currentVersion >= CurrentSettingsVersion {
		return s, false, nil
	}

	migrated := false
	for version := currentVersion + 1; version <= CurrentSettingsVersion; version++ {
		switch version {
		case 1:
			// version 1: initial
			if s.Currency == "" {
				s.Currency = "BRL"
				migrated = true
			}
		case 2:
			// version 2: consumption alerts default on
			if !s.Notifications.ConsumptionAlerts {
				s.Notifications.ConsumptionAlerts = true
				migrated = true
			}
		case 3:
			// version 3: add default residence
			if s.DefaultResidenceID == 0 {
				s.DefaultResidenceID = 1
				migrated = true
			}
		default:
			return s, false, fmt.Errorf("unknown settings version: %d", version)
		}
	}

	return s, migrated, nil
}
