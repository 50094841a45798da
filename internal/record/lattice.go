package record

import (
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// LatticeLocationIncluded marks a lattice whose files travel inside the
// record instead of living at an external location.
const LatticeLocationIncluded = "included"

// LatticeRef points at the per-batch baseline configuration. Files maps
// filename to literal text contents; it is required non-empty when
// Location is "included".
type LatticeRef struct {
	Location string
	Files    map[string]string
}

// ReadFileFunc is the injected file-read capability used when lattice
// files are given as paths. Tests substitute an in-memory map; nil means
// os.ReadFile.
type ReadFileFunc func(path string) ([]byte, error)

// LoadLatticeFiles reads a list of lattice file paths into the inline
// filename-to-contents form. Each file must exist and contain text;
// a missing file is a value-kind error and binary contents are a
// type-kind error. Filenames (base names) must be unique.
func LoadLatticeFiles(paths []string, readFile ReadFileFunc) (map[string]string, error) {
	if readFile == nil {
		readFile = os.ReadFile
	}

	files := make(map[string]string, len(paths))
	for _, p := range paths {
		data, err := readFile(p)
		if err != nil {
			return nil, valueErr(ErrLatticeFileRead, "lattice.files", "cannot read %q: %v", p, err)
		}
		if !utf8.Valid(data) {
			return nil, typeErr(ErrLatticeFileBinary, "lattice.files", "%q is not text-readable", p)
		}
		name := filepath.Base(p)
		if _, dup := files[name]; dup {
			return nil, valueErr(ErrLatticeFileName, "lattice.files", "duplicate file name %q", name)
		}
		files[name] = string(data)
	}
	return files, nil
}

// ValidateLattice checks a lattice reference. A fully blank reference is
// accepted when allowBlank is set. Location must otherwise be non-empty,
// and an "included" lattice must carry at least one file. File names
// must be plain names without path separators.
func ValidateLattice(ref LatticeRef, allowBlank bool) (LatticeRef, error) {
	if ref.Location == "" && len(ref.Files) == 0 {
		if allowBlank {
			return ref, nil
		}
		return LatticeRef{}, valueErr(ErrLatticeBlank, "lattice", "location must not be blank")
	}
	if ref.Location == "" {
		return LatticeRef{}, valueErr(ErrLatticeBlank, "lattice", "location must not be blank")
	}
	if ref.Location == LatticeLocationIncluded && len(ref.Files) == 0 {
		return LatticeRef{}, valueErr(ErrLatticeFilesEmpty, "lattice",
			"files must be provided when location is %q", LatticeLocationIncluded)
	}
	for name := range ref.Files {
		if name == "" || strings.ContainsAny(name, "/\\") {
			return LatticeRef{}, valueErr(ErrLatticeFileName, "lattice.files",
				"invalid file name %q", name)
		}
	}
	return ref, nil
}
