package model

// Account is a user record held by the fake server.
type Account struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	PasswordHash string   `json:"passwordHash"`
	Status       string   `json:"status"`
	Roles        []string `json:"roles"`
	SignUpAt     int64    `json:"signUpAt"`
	UpdatedAt    int64    `json:"updatedAt"`
}

func (a Account) Active() bool {
	return a.Status == UserStatusActive
}

func (a Account) HasRole(name string) bool {
	for _, r := range a.Roles {
		if r == name {
			return true
		}
	}
	return false
}

// User renders the account the way login responses report it.
func (a Account) User() User {
	roles := make([]Role, 0, len(a.Roles))
	for _, r := range a.Roles {
		roles = append(roles, Role{Name: r})
	}
	return User{Name: a.Name, Status: a.Status, Roles: roles}
}
