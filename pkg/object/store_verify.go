package object

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/multierr"
)

// minPrefixLen is the shortest abbreviated hash Disambiguate accepts.
const minPrefixLen = 4

// VerifySummary reports the outcome of Store.Verify.
type VerifySummary struct {
	LooseObjects int
	Corrupt      []Hash
}

// Verify re-reads every loose object and runs all Get checks against it.
// It keeps going past corrupt objects: the summary lists each one and the
// returned error combines their individual errors.
func (s *Store) Verify() (*VerifySummary, error) {
	report := &VerifySummary{}

	looseHashes, err := s.listLooseObjectHashes("")
	if err != nil {
		return nil, err
	}
	var errs error
	for _, h := range looseHashes {
		report.LooseObjects++
		if _, _, err := s.Get(h); err != nil {
			report.Corrupt = append(report.Corrupt, h)
			errs = multierr.Append(errs, fmt.Errorf("verify loose %s: %w", h, err))
		}
	}
	return report, errs
}

// Disambiguate expands an abbreviated hex prefix to the one stored hash it
// names. A full-length hash is returned as is when present.
func (s *Store) Disambiguate(prefix string) (Hash, error) {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if len(prefix) < minPrefixLen || len(prefix) > HashHexSize || !isHex(prefix) {
		return "", fmt.Errorf("%w: %q", ErrInvalidHash, prefix)
	}
	if len(prefix) == HashHexSize {
		if s.Has(Hash(prefix)) {
			return Hash(prefix), nil
		}
		return "", fmt.Errorf("object %s: %w", prefix, ErrObjectNotFound)
	}

	matches, err := s.listLooseObjectHashes(prefix)
	if err != nil {
		return "", err
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("object %s: %w", prefix, ErrObjectNotFound)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("object %s: %w (%d candidates)", prefix, ErrAmbiguousHash, len(matches))
	}
}

// listLooseObjectHashes lists stored hashes, optionally only those that
// start with prefix. A prefix of two or more characters reads a single
// fan-out directory.
func (s *Store) listLooseObjectHashes(prefix string) ([]Hash, error) {
	objectsDir := filepath.Join(s.root, "objects")

	var fanouts []string
	if len(prefix) >= 2 {
		fanouts = []string{prefix[:2]}
	} else {
		dirs, err := os.ReadDir(objectsDir)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, nil
			}
			return nil, fmt.Errorf("read objects dir: %w", err)
		}
		for _, d := range dirs {
			if d.IsDir() && isHexHashComponent(d.Name(), 2) {
				fanouts = append(fanouts, d.Name())
			}
		}
	}

	hashes := make([]Hash, 0)
	for _, fanout := range fanouts {
		objectEntries, err := os.ReadDir(filepath.Join(objectsDir, fanout))
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("read objects fanout %s: %w", fanout, err)
		}
		for _, objectEntry := range objectEntries {
			if objectEntry.IsDir() {
				continue
			}
			suffix := objectEntry.Name()
			if !isHexHashComponent(suffix, HashHexSize-2) {
				continue
			}
			h := Hash(fanout + suffix)
			if strings.HasPrefix(string(h), prefix) {
				hashes = append(hashes, h)
			}
		}
	}

	sort.Slice(hashes, func(i, j int) bool {
		return hashes[i] < hashes[j]
	})
	return hashes, nil
}

func isHexHashComponent(s string, expectedLen int) bool {
	return len(s) == expectedLen && isHex(s)
}
