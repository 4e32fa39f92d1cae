package worktree

import (
	"io/fs"

	"github.com/odvcencio/gitobj/pkg/object"
)

// Normalized permission bits for file entries. Only the executable bit of
// the on-disk mode survives.
const (
	PermFile       = 0o644
	PermExecutable = 0o755
)

func permFromFileInfo(info fs.FileInfo) uint32 {
	if info.Mode()&0o111 != 0 {
		return PermExecutable
	}
	return PermFile
}

func kindFromFileMode(mode fs.FileMode) object.PathKind {
	switch {
	case mode.IsRegular():
		return object.PathFile
	case mode&fs.ModeSymlink != 0:
		return object.PathSymlink
	case mode.IsDir():
		return object.PathDir
	case mode&(fs.ModeDevice|fs.ModeCharDevice) != 0:
		return object.PathDevice
	case mode&fs.ModeSocket != 0:
		return object.PathSocket
	case mode&fs.ModeNamedPipe != 0:
		return object.PathFIFO
	default:
		return object.PathOther
	}
}
