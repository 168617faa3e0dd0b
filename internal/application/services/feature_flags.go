package services

import (
	"os"
)

type FeatureFlags struct {
	caregiverAlertsEnabled bool
	alertShadowModeEnabled bool
}

func NewFeatureFlags() *FeatureFlags {
	enabled := os.Getenv("FEATURE_CAREGIVER_ALERTS") == "true"
	shadow := os.Getenv("FEATURE_CAREGIVER_ALERTS_SHADOW") == "true"

	return &FeatureFlags{
		caregiverAlertsEnabled: enabled,
		alertShadowModeEnabled: shadow,
	}
}

func (f *FeatureFlags) CaregiverAlertsEnabled() bool {
	return f.caregiverAlertsEnabled
}

func (f *FeatureFlags) AlertShadowModeEnabled() bool {
	return f.alertShadowModeEnabled
}
