package gatesdk

// HealthResponse is returned by the /livez and /readyz endpoints.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports per-dependency readiness.
type HealthChecks struct {
	Store string `json:"store"`
}

// LoginStatus is the decoded response of the isloggedin endpoints.
// Besides the flag, the response carries one user document per session
// key the caller is logged in under.
type LoginStatus struct {
	IsLoggedIn bool
	Users      map[string]map[string]any
}
