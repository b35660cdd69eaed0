// Package identity models the /etc/passwd and /etc/group records the build
// stage creates and the runtime image carries. The runtime image has no nss
// libraries, so name resolution for the process identity depends entirely on
// these two flat files being present and well formed.
package identity

import (
	"fmt"
	"strconv"
	"strings"
)

// User is a single passwd(5) record.
type User struct {
	Name  string
	UID   int
	GID   int
	Gecos string
	Home  string
	Shell string
}

// Group is a single group(5) record.
type Group struct {
	Name string
	GID  int
}

// Line renders the record in passwd(5) format.
func (u User) Line() string {
	return fmt.Sprintf("%s:x:%d:%d:%s:%s:%s", u.Name, u.UID, u.GID, u.Gecos, u.Home, u.Shell)
}

// Line renders the record in group(5) format.
func (g Group) Line() string {
	return fmt.Sprintf("%s:x:%d:", g.Name, g.GID)
}

// SystemUser returns the unprivileged system account the build stage creates
// for the packaged binary: no home, no login shell.
func SystemUser(name string, uid, gid int) User {
	return User{
		Name:  name,
		UID:   uid,
		GID:   gid,
		Home:  "/nonexistent",
		Shell: "/sbin/nologin",
	}
}

// ParseUsers parses the contents of a passwd file. Malformed lines are an
// error: the file is generated, so anything unparseable means the pipeline
// copied the wrong bytes.
func ParseUsers(contents string) ([]User, error) {
	var users []User
	for _, line := range splitLines(contents) {
		fields := strings.Split(line, ":")
		if len(fields) != 7 {
			return nil, fmt.Errorf("malformed passwd line %q: want 7 fields, got %d", line, len(fields))
		}
		uid, err := strconv.Atoi(fields[2])
		if err != nil {
			return nil, fmt.Errorf("malformed passwd line %q: uid: %w", line, err)
		}
		gid, err := strconv.Atoi(fields[3])
		if err != nil {
			return nil, fmt.Errorf("malformed passwd line %q: gid: %w", line, err)
		}
		users = append(users, User{
			Name:  fields[0],
			UID:   uid,
			GID:   gid,
			Gecos: fields[4],
			Home:  fields[5],
			Shell: fields[6],
		})
	}
	return users, nil
}

// ParseGroups parses the contents of a group file.
func ParseGroups(contents string) ([]Group, error) {
	var groups []Group
	for _, line := range splitLines(contents) {
		fields := strings.Split(line, ":")
		if len(fields) != 4 {
			return nil, fmt.Errorf("malformed group line %q: want 4 fields, got %d", line, len(fields))
		}
		gid, err := strconv.Atoi(fields[2])
		if err != nil {
			return nil, fmt.Errorf("malformed group line %q: gid: %w", line, err)
		}
		groups = append(groups, Group{Name: fields[0], GID: gid})
	}
	return groups, nil
}

// LookupUID returns the user record for uid, if any.
func LookupUID(users []User, uid int) (User, bool) {
	for _, u := range users {
		if u.UID == uid {
			return u, true
		}
	}
	return User{}, false
}

// LookupGID returns the group record for gid, if any.
func LookupGID(groups []Group, gid int) (Group, bool) {
	for _, g := range groups {
		if g.GID == gid {
			return g, true
		}
	}
	return Group{}, false
}

func splitLines(contents string) []string {
	var lines []string
	for _, line := range strings.Split(contents, "\n") {
		line = strings.TrimRight(line, "\r")
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
