package errors

import "strings"

// rule ties the message fragments of one category to the advice for it.
type rule struct {
	category Category
	needles  []string
	advise   func(path string) []string
}

// rules are checked in order, so a wrapped error lands in the category of its
// most specific cause: an original that could not be moved because the
// folder spans devices is a cross-device problem, not a permission one.
//
//nolint:gochecknoglobals // Read-only table
var rules = []rule{
	{CategoryLocked, []string{"another process"}, lockedAdvice},
	{CategoryCrossDevice, []string{"across devices", "cross-device link"}, crossDeviceAdvice},
	{CategoryRelocation, []string{"could not move original"}, relocationAdvice},
	{CategoryEncoder, []string{"encoder unavailable", "unknown codec", "failed to encode"}, encoderAdvice},
	{CategoryDecode, []string{"not a decodable tiff", "bad magic number"}, decodeAdvice},
	{CategoryJournal, []string{"schema version mismatch", "database is locked", "sqlite"}, journalAdvice},
	{CategoryRemote, []string{
		"ssh connection failed",
		"no ssh authentication",
		"sftp session",
		"sftp url",
		"knownhosts",
	}, remoteAdvice},
	{CategoryPermission, []string{"permission denied", "access denied", "operation not permitted"}, permissionAdvice},
	{CategoryDiskSpace, []string{"no space left on device", "disk full", "quota exceeded"}, diskSpaceAdvice},
	{CategoryPath, []string{
		"no such file or directory",
		"file does not exist",
		"must specify",
		"not a directory",
	}, pathAdvice},
	{CategoryWrite, []string{"short write", "input/output error", "i/o error"}, writeAdvice},
}

//nolint:gochecknoglobals // Fallback when nothing matches
var unknownRule = rule{CategoryUnknown, nil, unknownAdvice}

// classify returns the first rule with a needle in msg, ignoring case.
func classify(msg string) rule {
	lower := strings.ToLower(msg)

	for _, r := range rules {
		for _, needle := range r.needles {
			if strings.Contains(lower, needle) {
				return r
			}
		}
	}

	return unknownRule
}

// withPath appends line(path) when path is known, otherwise fallback (if any).
func withPath(advice []string, path string, line func(string) string, fallback string) []string {
	switch {
	case path != "":
		return append(advice, line(path))
	case fallback != "":
		return append(advice, fallback)
	default:
		return advice
	}
}

func lockedAdvice(string) []string {
	return []string{
		"Wait for the other run on this folder to finish",
		"If no other run is active, remove the stale lock from the tiff-splitter cache folder",
		"Use --no-lock only when you are sure nothing else is splitting the folder",
	}
}

func crossDeviceAdvice(path string) []string {
	return withPath([]string{
		"The originals folder must be on the same device as the scanned folder",
		"Check whether the originals folder is a mount point or a symlink to another disk",
	}, path, func(p string) string { return "Move " + p + " by hand; its pages were already written" }, "")
}

func relocationAdvice(path string) []string {
	advice := withPath([]string{
		"The pages were written but the original could not be moved aside",
		"Check that the originals folder can be created and written to",
	}, path, func(p string) string { return "Move " + p + " into the originals folder by hand" },
		"Move the original into the originals folder by hand")

	return append(advice, "Running again before moving it will split it a second time")
}

func encoderAdvice(string) []string {
	return []string{
		"Use --codec copy to write pages without re-encoding",
		"Check that --codec is one of copy, none or deflate",
		"Pages with JPEG or other lossy compression can only be written with --codec copy",
	}
}

func decodeAdvice(path string) []string {
	return withPath([]string{
		"The file has a TIFF extension but could not be read as a TIFF",
		"Open it in an image viewer to check whether it is truncated or corrupt",
		"BigTIFF files are not supported; re-save the scan as a classic TIFF",
	}, path, func(p string) string { return "Rename " + p + " if it is not a TIFF so it is ignored next time" }, "")
}

func journalAdvice(path string) []string {
	return withPath([]string{
		"The journal is written after every file; another run may be holding it",
		"A journal from an older version cannot be reused; point --journal at a new file",
	}, path, func(p string) string { return "Delete " + p + " to start a fresh journal" }, "")
}

func remoteAdvice(string) []string {
	return []string{
		"Check the folder URL has the form sftp://user@host[:port]/path",
		"Make sure an SSH agent is running or a key is in ~/.ssh (id_ed25519, id_rsa)",
		"Connect once with ssh so the host key is added to ~/.ssh/known_hosts",
	}
}

func permissionAdvice(path string) []string {
	advice := withPath([]string{
		"The folder must be readable and writable: pages are written next to each original",
	}, path, func(p string) string { return "Check permissions with 'ls -la " + p + "'" },
		"Check permissions with 'ls -la' on the scanned folder")

	return append(advice, "Run as a user that owns the scans")
}

func diskSpaceAdvice(path string) []string {
	return withPath([]string{
		"Splitting needs room for every page next to the original",
		"Check available space with 'df -h'",
	}, path, func(p string) string { return "Free up space on the device holding " + p }, "")
}

func pathAdvice(path string) []string {
	return withPath([]string{
		"Verify the folder exists and is spelled correctly",
	}, path, func(p string) string { return "Check that " + p + " exists and is a folder" }, "")
}

func writeAdvice(string) []string {
	return []string{
		"Verify the storage holding the scans is working",
		"Run again; files already split are moved aside and will not be redone",
		"Check system logs for hardware problems",
	}
}

func unknownAdvice(path string) []string {
	return withPath([]string{
		"Run again with --log-level debug --log-file stderr to see what the splitter was doing",
	}, path, func(p string) string { return "Verify " + p + " is accessible" }, "")
}
