package object

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/klauspost/compress/zlib"
	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// looseObjectPerm is the mode of written object files; they are never rewritten.
const looseObjectPerm = 0o444

// Store is a loose-object store with a 2-character fan-out directory
// layout: objects/ab/cdef0123... Each file holds the zlib-compressed
// envelope "type len\0payload".
type Store struct {
	root  string
	level int
	log   *zap.Logger

	reads  atomic.Int64
	writes atomic.Int64
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithCompressionLevel sets the zlib level used for new objects.
func WithCompressionLevel(level int) StoreOption {
	return func(s *Store) {
		if level == zlib.DefaultCompression || (level >= zlib.NoCompression && level <= zlib.BestCompression) {
			s.level = level
		}
	}
}

// WithLogger attaches a logger. Stores log at debug level only.
func WithLogger(log *zap.Logger) StoreOption {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// NewStore creates a Store rooted at the given directory. The objects/
// subdirectory is created lazily on first write.
func NewStore(root string, opts ...StoreOption) *Store {
	s := &Store{
		root:  root,
		level: zlib.DefaultCompression,
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StoreStats counts store activity since the Store was created. Reads
// counts Get calls; Writes counts object files actually created.
type StoreStats struct {
	Reads  int64
	Writes int64
}

// Stats returns the current operation counters.
func (s *Store) Stats() StoreStats {
	return StoreStats{Reads: s.reads.Load(), Writes: s.writes.Load()}
}

// objectPath returns the filesystem path for a given hash.
func (s *Store) objectPath(h Hash) string {
	return filepath.Join(s.root, "objects", string(h[:2]), string(h[2:]))
}

// Has reports whether the store contains an object with the given hash.
// It does not decompress or validate the file.
func (s *Store) Has(h Hash) bool {
	if !h.Valid() {
		return false
	}
	_, err := os.Stat(s.objectPath(h))
	return err == nil
}

// Write stores a payload under its computed hash and returns the hash.
func (s *Store) Write(objType ObjectType, payload []byte) (Hash, error) {
	return s.Put(HashObject(objType, payload), objType, payload)
}

// Put stores payload under h. If an object already exists at h nothing is
// written, whatever payload is passed: stored objects are write-once.
// Otherwise the type and digest are checked before the file is created.
func (s *Store) Put(h Hash, objType ObjectType, payload []byte) (Hash, error) {
	if !h.Valid() {
		return "", fmt.Errorf("object write: %w: %q", ErrInvalidHash, string(h))
	}
	if s.Has(h) {
		return h, nil
	}
	if !objType.Known() {
		return "", fmt.Errorf("object write %s: %w", h, &TypeError{Hash: h, Got: objType})
	}
	if actual := HashObject(objType, payload); actual != h {
		return "", &CorruptObjectError{Hash: h, Reason: "refusing to write payload hashing to " + string(actual)}
	}

	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, s.level)
	if err != nil {
		return "", fmt.Errorf("object write %s: compress: %w", h, err)
	}
	if _, err := zw.Write(Canonical(objType, payload)); err != nil {
		return "", fmt.Errorf("object write %s: compress: %w", h, err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("object write %s: compress: %w", h, err)
	}

	dir := filepath.Join(s.root, "objects", string(h[:2]))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("object write mkdir: %w", err)
	}
	if err := writeFileAtomic(dir, s.objectPath(h), buf.Bytes()); err != nil {
		return "", fmt.Errorf("object write %s: %w", h, err)
	}

	s.writes.Inc()
	s.log.Debug("object written",
		zap.String("hash", string(h)),
		zap.String("type", string(objType)),
		zap.Int("size", len(payload)),
	)
	return h, nil
}

// writeFileAtomic writes data to a temp file in dir and renames it to dest.
func writeFileAtomic(dir, dest string, data []byte) (retErr error) {
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("tmpfile: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if retErr != nil {
			retErr = multierr.Append(retErr, ignoreNotExist(os.Remove(tmpName)))
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return multierr.Append(fmt.Errorf("write: %w", err), tmp.Close())
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	if err := os.Chmod(tmpName, looseObjectPerm); err != nil {
		return fmt.Errorf("chmod: %w", err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

func ignoreNotExist(err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Get retrieves an object by hash. The file is decompressed and its header
// re-derived; the type, the declared length and the digest are then checked
// in that order. A missing file yields ErrObjectNotFound; any mismatch
// yields a *CorruptObjectError.
func (s *Store) Get(h Hash) (ObjectType, []byte, error) {
	s.reads.Inc()
	if !h.Valid() {
		return "", nil, fmt.Errorf("object read: %w: %q", ErrInvalidHash, string(h))
	}
	f, err := os.Open(s.objectPath(h))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil, fmt.Errorf("object %s: %w", h, ErrObjectNotFound)
		}
		return "", nil, fmt.Errorf("object read %s: %w", h, err)
	}
	defer f.Close()

	raw, err := inflate(f)
	if err != nil {
		return "", nil, &CorruptObjectError{Hash: h, Reason: "decompress", Err: err}
	}
	objType, payload, err := parseEnvelope(h, raw)
	if err != nil {
		return "", nil, err
	}
	if actual := HashObject(objType, payload); actual != h {
		return "", nil, corruptf(h, "content hashes to %s", actual)
	}

	return objType, payload, nil
}

func inflate(r io.Reader) ([]byte, error) {
	zr, err := zlib.NewReader(r)
	if err != nil {
		return nil, err
	}
	raw, err := io.ReadAll(zr)
	if err != nil {
		return nil, multierr.Append(err, zr.Close())
	}
	return raw, zr.Close()
}

// parseEnvelope splits "type len\0payload" and checks the type and length.
func parseEnvelope(h Hash, raw []byte) (ObjectType, []byte, error) {
	nulIdx := bytes.IndexByte(raw, 0)
	if nulIdx < 0 {
		return "", nil, corruptf(h, "invalid format (no NUL)")
	}
	header := raw[:nulIdx]
	payload := raw[nulIdx+1:]

	sp := bytes.IndexByte(header, ' ')
	if sp < 0 {
		return "", nil, corruptf(h, "invalid header %q", header)
	}
	objType := ObjectType(header[:sp])
	if !objType.Known() {
		return "", nil, corruptf(h, "can't be a %q", objType)
	}
	lenField := string(header[sp+1:])
	length, err := strconv.Atoi(lenField)
	if err != nil || length < 0 || strconv.Itoa(length) != lenField {
		return "", nil, corruptf(h, "invalid length %q", lenField)
	}
	if len(payload) != length {
		return "", nil, corruptf(h, "length mismatch (header=%d, actual=%d)", length, len(payload))
	}
	return objType, payload, nil
}

// Delete removes the loose file for h. It reports whether a file was
// removed. Delete exists to roll back objects written in error; it is not a
// garbage collector.
func (s *Store) Delete(h Hash) (bool, error) {
	if !h.Valid() {
		return false, nil
	}
	if err := os.Remove(s.objectPath(h)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("object delete %s: %w", h, err)
	}
	s.log.Debug("object deleted", zap.String("hash", string(h)))
	return true, nil
}
