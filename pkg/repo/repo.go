package repo

import (
	"time"

	"github.com/odvcencio/gitobj/pkg/object"
	"go.uber.org/zap"
)

// Repo represents an opened repository: a working directory, its .git
// directory and the loose-object store inside it.
type Repo struct {
	RootDir string        // working directory root
	GitDir  string        // .git/ directory
	Store   *object.Store // content-addressed object store

	// Cache, when set, keeps verified object bytes for the life of the
	// process. Find still returns a fresh object on every call.
	Cache *Cache
	// Identity supplies author and committer defaults for NewCommit. When
	// nil, the repository config and then the OS account are used.
	Identity IdentityProvider
	// Now supplies commit timestamps. Defaults to time.Now.
	Now func() time.Time

	log *zap.Logger
}

// Option configures a Repo as it is opened.
type Option func(*Repo)

// WithLogger attaches a logger to the repository and its store.
func WithLogger(log *zap.Logger) Option {
	return func(r *Repo) {
		if log != nil {
			r.log = log
		}
	}
}

// WithCache attaches an object cache.
func WithCache(c *Cache) Option {
	return func(r *Repo) {
		r.Cache = c
	}
}

// WithIdentity sets the identity provider used by NewCommit.
func WithIdentity(p IdentityProvider) Option {
	return func(r *Repo) {
		r.Identity = p
	}
}

func newRepo(root, gitDir string, opts []Option, storeOpts ...object.StoreOption) *Repo {
	r := &Repo{
		RootDir: root,
		GitDir:  gitDir,
		Now:     time.Now,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	storeOpts = append(storeOpts, object.WithLogger(r.log.Named("store")))
	r.Store = object.NewStore(gitDir, storeOpts...)
	return r
}
