package repo

import (
	"fmt"
	"os"
	"os/user"
	"strings"

	"github.com/odvcencio/gitobj/pkg/object"
)

// IdentityProvider supplies the default author and committer.
type IdentityProvider interface {
	Identity() (object.Identity, error)
}

// StaticIdentity always returns the same identity.
type StaticIdentity object.Identity

func (s StaticIdentity) Identity() (object.Identity, error) {
	return object.Identity(s), nil
}

// DefaultIdentity resolves the identity NewCommit uses: the configured
// provider, else the [user] config section, else the OS account.
func (r *Repo) DefaultIdentity() (object.Identity, error) {
	if r.Identity != nil {
		return r.Identity.Identity()
	}
	cfg, err := r.ReadConfig()
	if err != nil {
		return object.Identity{}, err
	}
	sys, sysErr := systemIdentity()
	id := object.Identity{Name: cfg.User.Name, Email: cfg.User.Email}
	if id.Name == "" {
		id.Name = sys.Name
	}
	if id.Email == "" {
		id.Email = sys.Email
	}
	if id.Name == "" || id.Email == "" {
		if sysErr == nil {
			sysErr = object.ErrInvalidIdentity
		}
		return object.Identity{}, fmt.Errorf("default identity: %w", sysErr)
	}
	return id, nil
}

// systemIdentity derives an identity from the current OS user: the full
// name from the account's GECOS field, and user@hostname as the email.
func systemIdentity() (object.Identity, error) {
	u, err := user.Current()
	if err != nil {
		return object.Identity{}, fmt.Errorf("current user: %w", err)
	}
	name, _, _ := strings.Cut(u.Name, ",")
	name = strings.TrimSpace(name)
	if name == "" {
		name = u.Username
	}
	host, err := os.Hostname()
	if err != nil {
		return object.Identity{Name: name}, fmt.Errorf("hostname: %w", err)
	}
	return object.Identity{Name: name, Email: u.Username + "@" + host}, nil
}
