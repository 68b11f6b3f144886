// Package errors turns the errors a split can end in into something the user
// can act on: a category and a short list of things to try.
//
//	d := errors.Diagnose(err, "/scans/album.tif")
//	fmt.Printf("%s (%s): %v\n", name, d.Category, d)
//	fmt.Println(d.Bullets())
//
// Classification works on the message text so that errors crossing the SFTP
// boundary, which lose their concrete types, are still recognised.
package errors

import (
	"errors"
	"io/fs"
	"os"
	"regexp"
	"strings"
)

// Category names the kind of problem a Diagnosis describes.
type Category string

// Categories, in the order they are checked.
const (
	CategoryLocked      Category = "locked"
	CategoryCrossDevice Category = "cross_device"
	CategoryRelocation  Category = "relocation"
	CategoryEncoder     Category = "encoder"
	CategoryDecode      Category = "decode"
	CategoryJournal     Category = "journal"
	CategoryRemote      Category = "remote"
	CategoryPermission  Category = "permission"
	CategoryDiskSpace   Category = "disk_space"
	CategoryPath        Category = "path"
	CategoryWrite       Category = "write"
	CategoryUnknown     Category = "unknown"
)

// Diagnosis wraps an error with its category and suggested remedies.
type Diagnosis struct {
	Err         error
	Category    Category
	Path        string
	Suggestions []string
}

func (d *Diagnosis) Error() string { return d.Err.Error() }

func (d *Diagnosis) Unwrap() error { return d.Err }

// Bullets lists the suggestions one per line, indented to sit under the
// error line. It is empty when there is nothing to suggest.
func (d *Diagnosis) Bullets() string {
	if d == nil || len(d.Suggestions) == 0 {
		return ""
	}

	lines := make([]string, len(d.Suggestions))
	for i, suggestion := range d.Suggestions {
		lines[i] = "  • " + suggestion
	}

	return strings.Join(lines, "\n")
}

// Diagnose classifies err. path names the file or folder involved; when it is
// empty the path is recovered from err itself. An err that already carries a
// Diagnosis is returned as that Diagnosis. Diagnose(nil, ...) is nil.
func Diagnose(err error, path string) *Diagnosis {
	if err == nil {
		return nil
	}

	var existing *Diagnosis
	if errors.As(err, &existing) {
		return existing
	}

	if path == "" {
		path = PathOf(err)
	}

	r := classify(err.Error())

	return &Diagnosis{
		Err:         err,
		Category:    r.category,
		Path:        path,
		Suggestions: r.advise(path),
	}
}

//nolint:gochecknoglobals // Compiled once
var pathInMessage = regexp.MustCompile(
	`\b(?:open|stat|lstat|create|remove|rename|mkdir|list|read|readdir|file|directory|original|move)\s+((?:[A-Za-z]:)?[./\\][^\s:]*)`)

// PathOf returns the path err is about: the one carried by a wrapped
// *fs.PathError or *os.LinkError, else the first path named in the message
// after a file operation. It returns "" when there is none.
func PathOf(err error) string {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return pathErr.Path
	}

	var linkErr *os.LinkError
	if errors.As(err, &linkErr) {
		return linkErr.Old
	}

	if m := pathInMessage.FindStringSubmatch(err.Error()); m != nil {
		return m[1]
	}

	return ""
}
