package spacesuite

import (
	"context"
	"fmt"
	"net/http"

	"github.com/launchdarkly/spaces-contract-tests/apiclient"
	"github.com/launchdarkly/spaces-contract-tests/framework"

	"github.com/stretchr/testify/require"
)

// Config controls which scenarios RunTestSuite includes.
type Config struct {
	// SecurityEnabled means the application requires authentication. The scenarios then run as
	// each of the KnownUsers and the superuser, instead of anonymously.
	SecurityEnabled bool
	// Superuser is used for the superuser scenarios.
	Superuser apiclient.Credentials
}

// requestContexts are the spaces that every scenario is tried from.
var requestContexts = []string{DefaultSpaceID, "space_1"}

// targetSpaces are the spaces that every scenario requests.
var targetSpaces = []string{DefaultSpaceID, "space_1", "space_2", NonExistantSpaceID}

func RunTestSuite(
	ctx context.Context,
	client HTTPClient,
	loader FixtureLoader,
	config Config,
	filter framework.Filter,
	testLogger framework.TestLogger,
) framework.Results {
	return framework.Run(ctx, filter, testLogger, func(c *framework.Context) {
		t := newTestScope(c)

		if config.SecurityEnabled {
			t.Run("security and spaces", func(t *T) {
				DoSecurityAndSpacesTests(t, client, loader, config.Superuser)
			})
		} else {
			t.Run("spaces only", func(t *T) {
				DoSpacesOnlyTests(t, client, loader)
			})
		}
	})
}

// DoSpacesOnlyTests checks that any space can be read anonymously from any space when the
// application does not require authentication.
func DoSpacesOnlyTests(t *T, client HTTPClient, loader FixtureLoader) {
	suite := NewGetSuite(loader, client)
	for _, current := range requestContexts {
		for _, target := range targetSpaces {
			def := TestDefinition{CurrentSpaceID: current, SpaceID: target}
			if target == suite.NonExistantSpaceID() {
				def.Tests.Default = GetTestExpectation{StatusCode: http.StatusNotFound, Response: suite.CreateExpectNotFoundResult()}
				suite.GetTest(fmt.Sprintf("can't get %s from the %s space", target, current), def)
				continue
			}
			def.Tests.Default = GetTestExpectation{StatusCode: http.StatusOK, Response: suite.CreateExpectResults(target)}
			suite.GetTest(fmt.Sprintf("can get %s from the %s space", target, current), def)
		}
	}
	RunCases(t, suite.Cases())
}

// DoSecurityAndSpacesTests runs the same requests as DoSpacesOnlyTests as each of the KnownUsers
// and the superuser. The users are loaded once for the whole group.
func DoSecurityAndSpacesTests(t *T, client HTTPClient, loader FixtureLoader, superuser apiclient.Credentials) {
	ctx := t.GoContext()
	t.Defer(func() {
		if err := loader.Unload(ctx, UsersArchive); err != nil {
			t.Errorf("%s", err)
		}
	})
	require.NoError(t, loader.Load(ctx, UsersArchive))

	suite := NewGetSuite(loader, client)
	users := []scenarioUser{{name: "superuser", auth: superuser, privilege: AllSpaces}}
	for _, u := range KnownUsers {
		users = append(users, scenarioUser{name: u.Username, auth: u.Credentials(), privilege: u.Privilege})
	}

	for _, u := range users {
		for _, current := range requestContexts {
			for _, target := range targetSpaces {
				def := TestDefinition{Auth: u.auth, CurrentSpaceID: current, SpaceID: target}
				def.Tests.Default = expectationFor(suite, u.name, u.privilege, target)
				verb := "can't get"
				if def.Tests.Default.StatusCode == http.StatusOK {
					verb = "can get"
				}
				suite.GetTest(fmt.Sprintf("%s %s %s from the %s space", u.name, verb, target, current), def)
			}
		}
	}
	RunCases(t, suite.Cases())
}

type scenarioUser struct {
	name      string
	auth      apiclient.Credentials
	privilege Privilege
}

func expectationFor(suite *GetSuite, username string, privilege Privilege, target string) GetTestExpectation {
	switch {
	case privilege == NoAccess:
		return GetTestExpectation{StatusCode: http.StatusForbidden, Response: suite.CreateExpectLegacyForbidden(username)}
	case privilege == Space1Only && target != "space_1":
		return GetTestExpectation{StatusCode: http.StatusForbidden, Response: suite.CreateExpectRbacForbidden(target)}
	case target == suite.NonExistantSpaceID():
		return GetTestExpectation{StatusCode: http.StatusNotFound, Response: suite.CreateExpectNotFoundResult()}
	default:
		return GetTestExpectation{StatusCode: http.StatusOK, Response: suite.CreateExpectResults(target)}
	}
}
