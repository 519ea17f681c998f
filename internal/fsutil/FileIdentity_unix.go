//go:build linux || darwin

package fsutil

import (
	"os"
	"syscall"
)

// identityFromFileInfo extracts the POSIX (device, inode, mtime,
// size) tuple backing FileIdentity.
func identityFromFileInfo(info os.FileInfo) FileIdentity {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return FileIdentity{ModTimeNS: info.ModTime().UnixNano(), Size: info.Size()}
	}
	return FileIdentity{
		Device:    uint64(stat.Dev),
		Inode:     uint64(stat.Ino),
		ModTimeNS: info.ModTime().UnixNano(),
		Size:      info.Size(),
	}
}
