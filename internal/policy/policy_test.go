package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultProfile(t *testing.T) {
	p, err := New("", nil)
	require.NoError(t, err)

	assert.Equal(t, ProfileDefault, p.Profile())
	assert.True(t, p.Protects("GET", "/manageUsers"))
	assert.True(t, p.Protects("get", "/manageUsers"))
	assert.False(t, p.Protects("POST", "/manageUsers"))
	assert.False(t, p.Protects("GET", "/users"))
	assert.Equal(t, []string{"GET /manageUsers"}, p.Strings())
}

func TestNewStrictProfile(t *testing.T) {
	p, err := New("STRICT", nil)
	require.NoError(t, err)

	assert.Equal(t, []Route{
		{Method: "GET", Path: "/allclasses"},
		{Method: "GET", Path: "/enrolledClasses"},
		{Method: "GET", Path: "/manageUsers"},
		{Method: "GET", Path: "/selectedClasses"},
		{Method: "GET", Path: "/users"},
	}, p.Routes())
	assert.False(t, p.Protects("GET", "/allclasses/:id"))
}

func TestNewOpenProfileWithEntries(t *testing.T) {
	p, err := New("open", []string{"delete /selectedClasses/:id", "  ", "PATCH /updateRole/:id/"})
	require.NoError(t, err)

	assert.True(t, p.Protects("GET", "/manageUsers"))
	assert.False(t, p.Protects("GET", "/users"))
	assert.True(t, p.Protects("DELETE", "/selectedClasses/:id"))
	assert.True(t, p.Protects("PATCH", "/updateRole/:id"))
	assert.Len(t, p.Routes(), 3)
}

func TestEveryProfileProtectsManageUsers(t *testing.T) {
	for _, profile := range []string{ProfileDefault, ProfileStrict, ProfileOpen} {
		p, err := New(profile, nil)
		require.NoError(t, err)
		assert.True(t, p.Protects("GET", "/manageUsers"), profile)
	}
}

func TestNewEntriesExtendPreset(t *testing.T) {
	p, err := New("default", []string{"GET /manageUsers", "GET /studentsData/export"})
	require.NoError(t, err)

	assert.Equal(t, []string{"GET /manageUsers", "GET /studentsData/export"}, p.Strings())
}

func TestNewRejectsMalformedInput(t *testing.T) {
	_, err := New("paranoid", nil)
	assert.Error(t, err)

	cases := []string{"/users", "GET users", "FETCH /users", "GET /users extra"}
	for _, entry := range cases {
		_, err := New("default", []string{entry})
		assert.Error(t, err, entry)
	}
}

func TestNilPolicyProtectsNothing(t *testing.T) {
	var p *Policy
	assert.False(t, p.Protects("GET", "/manageUsers"))
	assert.Empty(t, p.Routes())
}
