package messages

// DirectoryStatus is the throttling summary a host reports to the master
// directory on registration and every heartbeat.
type DirectoryStatus struct {
	Zone      string `json:"zone"`
	Rate      string `json:"rate"`
	Observers int    `json:"observers"`
	Tracked   int    `json:"tracked"`
	Managed   int    `json:"managed"`
	Tiers     [4]int `json:"tiers"` // Near, Mid, Far, Dormant
}

// RegisterRequest is posted to the master's /servers/register.
type RegisterRequest struct {
	Name    string          `json:"name"`
	Address string          `json:"address"`
	Version string          `json:"version"`
	Status  DirectoryStatus `json:"status"`
}

type RegisterResponse struct {
	ID string `json:"id"`
}

// HeartbeatRequest is posted to the master's /servers/heartbeat.
type HeartbeatRequest struct {
	ID     string          `json:"id"`
	Status DirectoryStatus `json:"status"`
}

// ServerInfo describes a host visible to observers.
type ServerInfo struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Address string          `json:"address"`
	Version string          `json:"version"`
	Status  DirectoryStatus `json:"status"`
}

// UnregisterRequest is posted to the master's /servers/unregister when a
// host shuts down cleanly.
type UnregisterRequest struct {
	ID string `json:"id"`
}
