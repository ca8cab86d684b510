package backup

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Options describes a single backup run: where the Minecraft installation
// lives, which folders to include, and where the result goes. Paths are not
// validated at construction time; a missing source folder simply contributes
// no files, and an unusable destination surfaces when the run writes.
type Options struct {
	SourceRoot         string
	Folders            []Folder
	Destination        string
	Compress           bool
	ExcludedExtensions []string
}

// NewOptions creates options with an empty exclusion list.
func NewOptions(sourceRoot string, folders []Folder, destination string, compress bool) *Options {
	return &Options{
		SourceRoot:  sourceRoot,
		Folders:     append([]Folder(nil), folders...),
		Destination: destination,
		Compress:    compress,
	}
}

// Clone returns an independent copy for reuse across runs.
func (o *Options) Clone() *Options {
	c := *o
	c.Folders = append([]Folder(nil), o.Folders...)
	c.ExcludedExtensions = append([]string(nil), o.ExcludedExtensions...)
	return &c
}

// SetCompress switches between archive and plain-copy mode.
func (o *Options) SetCompress(compress bool) {
	o.Compress = compress
}

// AddExcludedExtension registers an extension, with or without the leading
// dot, whose files are skipped during enumeration.
func (o *Options) AddExcludedExtension(ext string) {
	o.ExcludedExtensions = append(o.ExcludedExtensions, ext)
}

// Validate checks the options before a backup run.
func (o *Options) Validate() error {
	if len(o.Folders) == 0 {
		return ErrNoFolders
	}
	if filepath.Clean(o.SourceRoot) == filepath.Clean(o.Destination) {
		return ErrSameSourceDest
	}
	return nil
}

// Paths returns the absolute path of every selected folder under the source
// root, in selection order.
func (o *Options) Paths() []string {
	paths := make([]string, 0, len(o.Folders))
	for _, f := range o.Folders {
		paths = append(paths, filepath.Join(o.SourceRoot, f.RelPath()))
	}
	return paths
}

// ListAllFiles walks every selected folder recursively and returns the
// absolute path of each regular file that survives the exclusion filter.
// Folders missing on disk contribute nothing. The walk hits the disk on
// every call; results are never cached.
func (o *Options) ListAllFiles() ([]string, error) {
	var files []string
	for _, root := range o.Paths() {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if o.excluded(d.Name()) {
				return nil
			}
			files = append(files, path)
			return nil
		})
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("walking %s: %w", root, err)
		}
	}
	return files, nil
}

// TotalSize sums the on-disk size of every file ListAllFiles returns at this
// instant. Recomputed from disk each call since files may change between
// invocations.
func (o *Options) TotalSize() (int64, error) {
	files, err := o.ListAllFiles()
	if err != nil {
		return 0, err
	}
	var total int64
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return 0, fmt.Errorf("stat %s: %w", f, err)
		}
		total += info.Size()
	}
	return total, nil
}

// excluded reports whether a file name's extension is in the exclusion
// list. Files with no extension are never excluded.
func (o *Options) excluded(name string) bool {
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	if ext == "" {
		return false
	}
	for _, e := range o.ExcludedExtensions {
		if strings.EqualFold(ext, strings.TrimPrefix(e, ".")) {
			return true
		}
	}
	return false
}
