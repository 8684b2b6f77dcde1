package messages

// SettingsChange asks the server to change one throttling option. Key names
// the zone for zone-scoped options and is empty otherwise.
type SettingsChange struct {
	Option string
	Key    string
	Value  string
}

// SettingsResult answers a SettingsChange. Error is empty on success.
type SettingsResult struct {
	Option string
	Error  string
}
