//go:build windows

package fsutil

import (
	"os"

	"golang.org/x/sys/windows"
)

// identityFromFileInfo records mtime, size and the file attribute
// bits (in Device); os.Stat data on Windows carries no volume serial
// or file index, so Inode stays zero. StatIdentityByHandle reads those
// through an explicit handle query.
func identityFromFileInfo(info os.FileInfo) FileIdentity {
	sys, ok := info.Sys().(*windows.Win32FileAttributeData)
	if !ok {
		return FileIdentity{ModTimeNS: info.ModTime().UnixNano(), Size: info.Size()}
	}
	return FileIdentity{
		ModTimeNS: info.ModTime().UnixNano(),
		Size:      info.Size(),
		Device:    uint64(sys.FileAttributes),
	}
}

// StatIdentityByHandle opens path and reads its volume serial and
// file-index words directly, giving an identity robust across
// hardlinked paths, unlike the os.Stat-based fallback.
func StatIdentityByHandle(path string) (FileIdentity, error) {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return FileIdentity{}, err
	}
	h, err := windows.CreateFile(p, windows.GENERIC_READ, windows.FILE_SHARE_READ,
		nil, windows.OPEN_EXISTING, windows.FILE_FLAG_BACKUP_SEMANTICS, 0)
	if err != nil {
		return FileIdentity{}, err
	}
	defer windows.CloseHandle(h)

	var fi windows.ByHandleFileInformation
	if err := windows.GetFileInformationByHandle(h, &fi); err != nil {
		return FileIdentity{}, err
	}

	inode := uint64(fi.FileIndexHigh)<<32 | uint64(fi.FileIndexLow)
	mtime := fi.LastWriteTime.Nanoseconds()
	return FileIdentity{
		Device:    uint64(fi.VolumeSerialNumber),
		Inode:     inode,
		ModTimeNS: mtime,
		Size:      int64(fi.FileSizeHigh)<<32 | int64(fi.FileSizeLow),
	}, nil
}
