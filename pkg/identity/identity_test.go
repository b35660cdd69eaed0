package identity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSystemUserLine(t *testing.T) {
	u := SystemUser("sero", 10001, 10001)
	require.Equal(t, "sero:x:10001:10001::/nonexistent:/sbin/nologin", u.Line())
}

func TestGroupLine(t *testing.T) {
	g := Group{Name: "sero", GID: 10001}
	require.Equal(t, "sero:x:10001:", g.Line())
}

func TestParseUsers(t *testing.T) {
	contents := `root:x:0:0:root:/root:/bin/ash
sero:x:10001:10001:Linux User,,,:/nonexistent:/sbin/nologin
`
	users, err := ParseUsers(contents)
	require.NoError(t, err)
	require.Len(t, users, 2)

	sero, ok := LookupUID(users, 10001)
	require.True(t, ok)
	require.Equal(t, "sero", sero.Name)
	require.Equal(t, 10001, sero.GID)
	require.Equal(t, "/sbin/nologin", sero.Shell)
}

func TestParseUsersMalformed(t *testing.T) {
	_, err := ParseUsers("sero:x:10001\n")
	require.ErrorContains(t, err, "7 fields")

	_, err = ParseUsers("sero:x:notanumber:10001::/nonexistent:/sbin/nologin\n")
	require.ErrorContains(t, err, "uid")
}

func TestParseGroups(t *testing.T) {
	contents := "root:x:0:root\nsero:x:10001:\n"
	groups, err := ParseGroups(contents)
	require.NoError(t, err)
	require.Len(t, groups, 2)

	sero, ok := LookupGID(groups, 10001)
	require.True(t, ok)
	require.Equal(t, "sero", sero.Name)
}

func TestParseGroupsMalformed(t *testing.T) {
	_, err := ParseGroups("sero:x\n")
	require.ErrorContains(t, err, "4 fields")
}

func TestLookupMiss(t *testing.T) {
	users, err := ParseUsers("sero:x:10001:10001::/nonexistent:/sbin/nologin\n")
	require.NoError(t, err)
	_, ok := LookupUID(users, 0)
	require.False(t, ok)
}

func TestParseRoundTrip(t *testing.T) {
	u := SystemUser("sero", 10001, 10001)
	users, err := ParseUsers(u.Line() + "\n")
	require.NoError(t, err)
	require.Equal(t, []User{u}, users)
}
