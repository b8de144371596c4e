package stubservice

import (
	"errors"
	"fmt"
)

const (
	superuserRole       = "superuser"
	kibanaApplication   = "kibana-.kibana"
	kibanaIndex         = ".kibana"
	spaceResourcePrefix = "space:"
)

// decision is the outcome of authorizing a request to read a space.
type decision int

const (
	allowed decision = iota
	rbacDenied
	legacyDenied
)

// principal is an authenticated user.
type principal struct {
	username string
	roles    []string
}

// authorizeGetSpace decides whether p may read the given space. Users with any application
// privileges are checked against those only; users with none fall back to the index privileges
// on the saved objects index.
func authorizeGetSpace(s *Store, p principal, spaceID string) (decision, error) {
	var apps []ApplicationPrivileges
	var indices []IndexPrivileges
	for _, name := range p.roles {
		if name == superuserRole {
			return allowed, nil
		}
		def, err := s.GetRole(name)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("loading role %s: %w", name, err)
		}
		for _, a := range def.Applications {
			if a.Application == kibanaApplication {
				apps = append(apps, a)
			}
		}
		indices = append(indices, def.Indices...)
	}

	if len(apps) > 0 {
		for _, a := range apps {
			if grantsSpaceRead(a, spaceID) {
				return allowed, nil
			}
		}
		return rbacDenied, nil
	}

	for _, ip := range indices {
		if contains(ip.Names, kibanaIndex) || contains(ip.Names, "*") {
			if contains(ip.Privileges, "read") || contains(ip.Privileges, "all") {
				return allowed, nil
			}
		}
	}
	return legacyDenied, nil
}

func grantsSpaceRead(a ApplicationPrivileges, spaceID string) bool {
	for _, res := range a.Resources {
		switch res {
		case "*":
			if contains(a.Privileges, "all") || contains(a.Privileges, "read") {
				return true
			}
		case spaceResourcePrefix + spaceID:
			if contains(a.Privileges, "space_all") || contains(a.Privileges, "space_read") {
				return true
			}
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
