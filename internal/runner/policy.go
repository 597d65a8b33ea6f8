package runner

// StatusPolicy decides which HTTP status codes count as successful requests.
type StatusPolicy string

const (
	StatusPolicy2xx      StatusPolicy = "2xx"   // 200-299
	StatusPolicyBelow400 StatusPolicy = "lt400" // 100-399
	StatusPolicyAny      StatusPolicy = "any"   // any response
)

// Accepts reports whether code is a success under p.
func (p StatusPolicy) Accepts(code int) bool {
	switch p {
	case StatusPolicyAny:
		return code > 0
	case StatusPolicyBelow400:
		return code >= 100 && code < 400
	default:
		return code >= 200 && code < 300
	}
}

func (p StatusPolicy) valid() bool {
	switch p {
	case StatusPolicy2xx, StatusPolicyBelow400, StatusPolicyAny:
		return true
	}
	return false
}
