package model

// Session is the client-side session state. It is a value: operations take
// one and return the next, so nothing is shared between callers. The zero
// value is an anonymous session.
type Session struct {
	Token        string       `yaml:"token,omitempty"`
	LoggedOnUser *LoginResult `yaml:"loggedOnUser,omitempty"`
	LastError    *ErrorResult `yaml:"lastError,omitempty"`
}

func (s Session) Authenticated() bool {
	return s.Token != ""
}

func (s Session) Username() string {
	if s.LoggedOnUser == nil {
		return ""
	}
	return s.LoggedOnUser.Data.User.Name
}

// LoggedOn is the transition taken by a successful sign-up or login.
func LoggedOn(res *LoginResult) Session {
	return Session{Token: res.Token(), LoggedOnUser: res}
}

// Anonymous drops the token and user and clears any previous error.
func Anonymous() Session {
	return Session{}
}

// Failed is the transition taken by every failed operation: the token and
// user are dropped and err is recorded.
func Failed(err *ErrorResult) Session {
	return Session{LastError: err}
}

// Succeeded keeps the token and user and clears the previous error.
func (s Session) Succeeded() Session {
	s.LastError = nil
	return s
}

// WithUserStatus returns a copy whose cached user carries status.
func (s Session) WithUserStatus(status string) Session {
	if s.LoggedOnUser == nil {
		return s
	}
	u := *s.LoggedOnUser
	u.Data.User.Status = status
	s.LoggedOnUser = &u
	return s
}
