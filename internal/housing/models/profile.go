package models

// PersonTypeStudent is the only person type eligible for a housing roster.
const PersonTypeStudent = "student"

// Profile is the identity record the identity directory resolves for a
// username. It is read-only from this service's perspective.
type Profile struct {
	Username   string `json:"username"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Gender     string `json:"gender"`
	PersonType string `json:"person_type"`
	Class      string `json:"class,omitempty"`
}

// IsZero reports whether the profile is missing.
func (p Profile) IsZero() bool { return p.Username == "" }

// DisplayName renders "First Last", falling back to the username.
func (p Profile) DisplayName() string {
	if p.FirstName == "" && p.LastName == "" {
		return p.Username
	}
	if p.FirstName == "" {
		return p.LastName
	}
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}
