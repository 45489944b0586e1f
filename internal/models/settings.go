package models

// Dexcom share regions.
const (
	RegionUS  = "us"
	RegionOUS = "ous"
)

// Settings are the saved connection parameters used for auto-connect.
// A nil field has never been saved.
type Settings struct {
	WidgetURL      *string `json:"widget_url"`
	DexcomUsername *string `json:"dexcom_username"`
	DexcomPassword *string `json:"-"`
	DexcomRegion   *string `json:"dexcom_region"`
}

// SettingsUpdate is a partial update; nil fields are left untouched.
type SettingsUpdate struct {
	WidgetURL      *string `json:"widget_url,omitempty"`
	DexcomUsername *string `json:"dexcom_username,omitempty"`
	DexcomPassword *string `json:"dexcom_password,omitempty"`
	DexcomRegion   *string `json:"dexcom_region,omitempty"`
}

// HasDexcom reports whether a complete set of glucose credentials is saved.
func (s Settings) HasDexcom() bool {
	return s.DexcomUsername != nil && *s.DexcomUsername != "" &&
		s.DexcomPassword != nil && *s.DexcomPassword != "" &&
		s.DexcomRegion != nil && *s.DexcomRegion != ""
}

// HasWidget reports whether a heart-rate widget URL is saved.
func (s Settings) HasWidget() bool {
	return s.WidgetURL != nil && *s.WidgetURL != ""
}

// DexcomCredentials are the glucose vendor login parameters.
type DexcomCredentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Region   string `json:"region"` // us | ous
}
