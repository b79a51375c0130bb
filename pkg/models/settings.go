package models

// Setting keys
const (
	SettingFileHostAPIKey = "file_host_api_key"
	SettingPlexURL        = "plex_url"
	SettingPlexToken      = "plex_token"
	SettingDefaultPath    = "default_path"

	// legacySettingFileHostAPIKey is the key older clients send.
	legacySettingFileHostAPIKey = "1fichier_api_key"
)

// SettingKeys lists every key of the settings bag, in display order.
var SettingKeys = []string{
	SettingFileHostAPIKey,
	SettingPlexURL,
	SettingPlexToken,
	SettingDefaultPath,
}

// Settings is the flat key/value bag. A nil value means the key is unset.
type Settings map[string]*string

// NewSettings returns a bag with every known key present and unset.
func NewSettings() Settings {
	s := make(Settings, len(SettingKeys))
	for _, k := range SettingKeys {
		s[k] = nil
	}
	return s
}

// Get returns the value of key, or "" when unset.
func (s Settings) Get(key string) string {
	if v := s[key]; v != nil {
		return *v
	}
	return ""
}

// WithLegacyAliases returns a copy of s that also carries each legacy key
// with the value of its canonical key, for clients that still read it.
func (s Settings) WithLegacyAliases() Settings {
	out := make(Settings, len(s)+1)
	for k, v := range s {
		out[k] = v
	}
	out[legacySettingFileHostAPIKey] = s[SettingFileHostAPIKey]
	return out
}

// CanonicalSettingKey maps accepted aliases to their canonical key. ok is false
// for unknown keys.
func CanonicalSettingKey(key string) (string, bool) {
	if key == legacySettingFileHostAPIKey {
		return SettingFileHostAPIKey, true
	}
	for _, k := range SettingKeys {
		if k == key {
			return k, true
		}
	}
	return "", false
}
