package object

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/odvcencio/gitobj/pkg/lazy"
)

// CommitInfo carries the fields of a new commit.
type CommitInfo struct {
	Tree        *Ref
	Parents     []*Ref
	Author      Identity
	Committer   Identity
	AuthoredAt  time.Time
	CommittedAt time.Time
	Message     string
}

type commitFields struct {
	tree        *Ref
	parents     []*Ref
	author      Identity
	committer   Identity
	authoredAt  time.Time
	committedAt time.Time
	message     string
}

// Commit records a tree snapshot with its parentage, authorship and
// message. A commit read from storage decodes its header on first field
// access; its tree and parents stay unresolved until asked for.
type Commit struct {
	hash  Hash
	state *lazy.Value[*commitFields]
}

// NewCommit builds an in-memory commit. The tree reference must be a tree
// and every parent a commit.
func NewCommit(info CommitInfo) (*Commit, error) {
	if info.Tree == nil {
		return nil, fmt.Errorf("new commit: missing tree")
	}
	if info.Tree.Type() != TypeTree {
		return nil, fmt.Errorf("new commit: %w", &TypeError{Got: info.Tree.Type(), Want: TypeTree})
	}
	for _, p := range info.Parents {
		if p == nil {
			return nil, fmt.Errorf("new commit: nil parent")
		}
		if p.Type() != TypeCommit {
			return nil, fmt.Errorf("new commit: %w", &TypeError{Got: p.Type(), Want: TypeCommit})
		}
	}
	if err := info.Author.Validate(); err != nil {
		return nil, fmt.Errorf("new commit: author: %w", err)
	}
	if err := info.Committer.Validate(); err != nil {
		return nil, fmt.Errorf("new commit: committer: %w", err)
	}

	f := &commitFields{
		tree:        info.Tree,
		parents:     append([]*Ref(nil), info.Parents...),
		author:      info.Author,
		committer:   info.Committer,
		authoredAt:  info.AuthoredAt,
		committedAt: info.CommittedAt,
		message:     info.Message,
	}
	return &Commit{state: lazy.NewReady(f)}, nil
}

func loadCommit(r Resolver, h Hash, payload []byte) *Commit {
	decode := func(raw []byte) (*commitFields, error) {
		return decodeCommit(r, h, raw)
	}
	verify := func(f *commitFields) error {
		data, err := encodeCommit(f)
		if err != nil {
			return err
		}
		return verifyHash(h, TypeCommit, data)
	}
	return &Commit{hash: h, state: lazy.NewProxied(payload, decode, verify)}
}

func (c *Commit) Type() ObjectType { return TypeCommit }

func (c *Commit) sealed() {}

// Materialized reports whether the commit header has been decoded.
func (c *Commit) Materialized() bool {
	return c.state.State() == lazy.Materialized
}

func (c *Commit) Hash() (Hash, error) {
	if c.hash != "" && !stale(c) {
		return c.hash, nil
	}
	data, err := c.Payload()
	if err != nil {
		return "", err
	}
	return HashObject(TypeCommit, data), nil
}

func (c *Commit) Payload() ([]byte, error) {
	if raw, ok := c.state.Raw(); ok {
		return raw, nil
	}
	f, err := c.state.Get()
	if err != nil {
		return nil, err
	}
	return encodeCommit(f)
}

// Tree loads the commit's tree.
func (c *Commit) Tree() (*Tree, error) {
	f, err := c.state.Get()
	if err != nil {
		return nil, err
	}
	obj, err := f.tree.Object()
	if err != nil {
		return nil, fmt.Errorf("commit tree: %w", err)
	}
	return obj.(*Tree), nil
}

// TreeHash returns the tree's hash without loading the tree.
func (c *Commit) TreeHash() (Hash, error) {
	f, err := c.state.Get()
	if err != nil {
		return "", err
	}
	return f.tree.Hash()
}

// Parents loads the parent commits in order.
func (c *Commit) Parents() ([]*Commit, error) {
	f, err := c.state.Get()
	if err != nil {
		return nil, err
	}
	out := make([]*Commit, 0, len(f.parents))
	for i, p := range f.parents {
		obj, err := p.Object()
		if err != nil {
			return nil, fmt.Errorf("commit parent %d: %w", i, err)
		}
		out = append(out, obj.(*Commit))
	}
	return out, nil
}

// ParentHashes returns the parents' hashes without loading them.
func (c *Commit) ParentHashes() ([]Hash, error) {
	f, err := c.state.Get()
	if err != nil {
		return nil, err
	}
	return refHashes(f.parents)
}

func (c *Commit) Author() (Identity, error) {
	f, err := c.state.Get()
	if err != nil {
		return Identity{}, err
	}
	return f.author, nil
}

func (c *Commit) Committer() (Identity, error) {
	f, err := c.state.Get()
	if err != nil {
		return Identity{}, err
	}
	return f.committer, nil
}

func (c *Commit) AuthoredAt() (time.Time, error) {
	f, err := c.state.Get()
	if err != nil {
		return time.Time{}, err
	}
	return f.authoredAt, nil
}

func (c *Commit) CommittedAt() (time.Time, error) {
	f, err := c.state.Get()
	if err != nil {
		return time.Time{}, err
	}
	return f.committedAt, nil
}

// Message returns everything after the header's blank line, verbatim.
func (c *Commit) Message() (string, error) {
	f, err := c.state.Get()
	if err != nil {
		return "", err
	}
	return f.message, nil
}

func (c *Commit) refs() ([]*Ref, error) {
	f, err := c.state.Get()
	if err != nil {
		return nil, err
	}
	return append([]*Ref{f.tree}, f.parents...), nil
}

// encodeCommit serializes a commit:
//
//	tree H
//	parent H     (zero or more)
//	author NAME <EMAIL> SECONDS ±HHMM
//	committer NAME <EMAIL> SECONDS ±HHMM
//
//	message
func encodeCommit(f *commitFields) ([]byte, error) {
	treeHash, err := f.tree.Hash()
	if err != nil {
		return nil, fmt.Errorf("encode commit tree: %w", err)
	}
	parents, err := refHashes(f.parents)
	if err != nil {
		return nil, fmt.Errorf("encode commit parents: %w", err)
	}

	buf := make([]byte, 0, 256+len(f.message))
	buf = append(buf, "tree "...)
	buf = append(buf, treeHash...)
	buf = append(buf, '\n')
	for _, p := range parents {
		buf = append(buf, "parent "...)
		buf = append(buf, p...)
		buf = append(buf, '\n')
	}
	buf = append(buf, "author "...)
	buf = appendSignature(buf, f.author, f.authoredAt)
	buf = append(buf, "\ncommitter "...)
	buf = appendSignature(buf, f.committer, f.committedAt)
	buf = append(buf, "\n\n"...)
	buf = append(buf, f.message...)
	return buf, nil
}

// decodeCommit parses the header lines in their fixed order and takes the
// rest of the payload after the blank line as the message.
func decodeCommit(r Resolver, h Hash, data []byte) (*commitFields, error) {
	f := &commitFields{}
	rest := data

	line, rest, ok := cutLine(rest)
	val, isTree := strings.CutPrefix(line, "tree ")
	if !ok || !isTree {
		return nil, corruptf(h, "missing tree line")
	}
	treeHash, err := ParseHash(val)
	if err != nil {
		return nil, corruptf(h, "bad tree hash %q", val)
	}
	f.tree = RefTo(r, TypeTree, treeHash)

	for {
		line, rest, ok = cutLine(rest)
		if !ok {
			return nil, corruptf(h, "truncated header")
		}
		val, isParent := strings.CutPrefix(line, "parent ")
		if !isParent {
			break
		}
		parentHash, err := ParseHash(val)
		if err != nil {
			return nil, corruptf(h, "bad parent hash %q", val)
		}
		f.parents = append(f.parents, RefTo(r, TypeCommit, parentHash))
	}

	val, isAuthor := strings.CutPrefix(line, "author ")
	if !isAuthor {
		return nil, corruptf(h, "missing author line")
	}
	if f.author, f.authoredAt, err = parseSignature(h, "author", val); err != nil {
		return nil, err
	}

	line, rest, ok = cutLine(rest)
	val, isCommitter := strings.CutPrefix(line, "committer ")
	if !ok || !isCommitter {
		return nil, corruptf(h, "missing committer line")
	}
	if f.committer, f.committedAt, err = parseSignature(h, "committer", val); err != nil {
		return nil, err
	}

	line, rest, ok = cutLine(rest)
	if !ok || line != "" {
		return nil, corruptf(h, "missing header/message separator")
	}
	f.message = string(rest)
	return f, nil
}

// cutLine splits off the next "\n"-terminated line. It reports false when
// no terminator remains.
func cutLine(data []byte) (string, []byte, bool) {
	i := bytes.IndexByte(data, '\n')
	if i < 0 {
		return "", data, false
	}
	return string(data[:i]), data[i+1:], true
}

func refHashes(refs []*Ref) ([]Hash, error) {
	out := make([]Hash, 0, len(refs))
	for _, r := range refs {
		h, err := r.Hash()
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, nil
}

// verifyHash confirms that a re-encoded payload still hashes to h.
func verifyHash(h Hash, t ObjectType, payload []byte) error {
	if actual := HashObject(t, payload); actual != h {
		return corruptf(h, "decoded %s re-encodes to %s", t, actual)
	}
	return nil
}
