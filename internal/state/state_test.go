package state

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"baasbox-client/internal/model"
)

const base = "http://localhost:9000"

func TestLoad_MissingFileIsAnonymous(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), base)
	require.NoError(t, err)
	assert.False(t, s.Authenticated())
	assert.Nil(t, s.LastError)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.yaml")
	res := &model.LoginResult{
		Result: "ok",
		Data: model.LoginData{
			Session:    "tok",
			SignUpDate: "2014.05.01 10:00:00",
			User:       model.User{Name: "alice", Status: model.UserStatusActive, Roles: []model.Role{{Name: model.RoleRegistered}}},
		},
		HTTPCode: 200,
	}
	require.NoError(t, Save(path, base, model.LoggedOn(res)))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err := Load(path, base)
	require.NoError(t, err)
	assert.Equal(t, "tok", got.Token)
	assert.Equal(t, "alice", got.Username())
	assert.Equal(t, []string{model.RoleRegistered}, got.LoggedOnUser.RoleNames())
}

func TestSaveLoad_KeepsLastError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")
	failed := model.Failed(&model.ErrorResult{Result: "error", Message: "Invalid credentials", HTTPCode: 401, Kind: model.KindRemote})
	require.NoError(t, Save(path, base, failed))

	got, err := Load(path, base)
	require.NoError(t, err)
	require.NotNil(t, got.LastError)
	assert.Equal(t, "Invalid credentials", got.LastError.Message)
	assert.Equal(t, model.KindRemote, got.LastError.Kind)
	assert.False(t, got.Authenticated())
}

func TestLoad_OtherServerIsAnonymous(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")
	require.NoError(t, Save(path, base, model.Session{Token: "tok"}))

	got, err := Load(path, "http://elsewhere:9000")
	require.NoError(t, err)
	assert.False(t, got.Authenticated())
}

func TestLoad_RejectsUnknownVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: 9\n"), 0o600))
	_, err := Load(path, base)
	assert.Error(t, err)
}

func TestClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")
	require.NoError(t, Save(path, base, model.Session{Token: "tok"}))
	require.NoError(t, Clear(path))
	require.NoError(t, Clear(path))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
