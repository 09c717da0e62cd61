package model

import "encoding/json"

const (
	UserStatusActive    = "ACTIVE"
	UserStatusSuspended = "SUSPENDED"

	RoleAdministrator = "administrator"
	RoleRegistered    = "registered"
)

type Role struct {
	Name string `json:"name" yaml:"name"`
}

type User struct {
	Name   string `json:"name" yaml:"name"`
	Status string `json:"status" yaml:"status"`
	Roles  []Role `json:"roles" yaml:"roles"`
}

type LoginData struct {
	User       User   `json:"user" yaml:"user"`
	SignUpDate string `json:"signUpDate,omitempty" yaml:"signUpDate,omitempty"`
	Session    string `json:"X-BB-SESSION" yaml:"session"`
}

// LoginResult is the success body of sign-up and login.
type LoginResult struct {
	Result   string    `json:"result" yaml:"result"`
	Data     LoginData `json:"data" yaml:"data"`
	HTTPCode int       `json:"http_code" yaml:"httpCode"`
}

// UnmarshalJSON accepts the status code under either http_code or httpCode;
// servers in the wild emit both.
func (r *LoginResult) UnmarshalJSON(b []byte) error {
	type plain LoginResult
	var aux struct {
		plain
		CamelHTTPCode *int `json:"httpCode"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*r = LoginResult(aux.plain)
	if r.HTTPCode == 0 && aux.CamelHTTPCode != nil {
		r.HTTPCode = *aux.CamelHTTPCode
	}
	return nil
}

func (r *LoginResult) Token() string {
	if r == nil {
		return ""
	}
	return r.Data.Session
}

func (r *LoginResult) RoleNames() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.Data.User.Roles))
	for _, role := range r.Data.User.Roles {
		names = append(names, role.Name)
	}
	return names
}

func (r *LoginResult) HasRole(name string) bool {
	for _, n := range r.RoleNames() {
		if n == name {
			return true
		}
	}
	return false
}

// RequestHeader echoes selected request headers; each value is a list as the
// server reports it.
type RequestHeader struct {
	Accept    []string `json:"Accept,omitempty" yaml:"accept,omitempty"`
	Host      []string `json:"Host,omitempty" yaml:"host,omitempty"`
	UserAgent []string `json:"User-Agent,omitempty" yaml:"userAgent,omitempty"`
	Session   []string `json:"X-BB-SESSION,omitempty" yaml:"session,omitempty"`
}
