package spacesuite

import (
	"github.com/launchdarkly/spaces-contract-tests/apiclient"
)

// UsersArchive contains the users and roles in KnownUsers.
const UsersArchive = "security/users"

// testUserPassword is the password of every user in UsersArchive.
const testUserPassword = "password"

// Privilege describes what a user may do with spaces, which determines the response they get.
type Privilege int

const (
	// AllSpaces users can read every space.
	AllSpaces Privilege = iota
	// Space1Only users can read space_1 and get an authorization error for anything else.
	Space1Only
	// NoAccess users have no privileges that the application recognizes, so the search engine's
	// security layer rejects them.
	NoAccess
)

// User is a user in UsersArchive.
type User struct {
	Username  string
	Privilege Privilege
}

func (u User) Credentials() apiclient.Credentials {
	return apiclient.BasicAuth(u.Username, testUserPassword)
}

// KnownUsers are the users in UsersArchive. The superuser is not included since it is configured
// separately.
var KnownUsers = []User{
	{Username: "a_kibana_rbac_user", Privilege: AllSpaces},
	{Username: "a_kibana_rbac_dashboard_only_user", Privilege: AllSpaces},
	{Username: "a_kibana_rbac_space_1_all_user", Privilege: Space1Only},
	{Username: "a_kibana_dual_privileges_user", Privilege: AllSpaces},
	{Username: "a_kibana_legacy_user", Privilege: AllSpaces},
	{Username: "a_kibana_legacy_dashboard_only_user", Privilege: AllSpaces},
	{Username: "not_a_kibana_user", Privilege: NoAccess},
}
