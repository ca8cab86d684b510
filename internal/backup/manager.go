package backup

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Manager executes backup runs described by Options. It holds no state;
// every run is a pure function of the options and the filesystem's current
// contents.
type Manager struct{}

// NewManager creates a new Manager.
func NewManager() *Manager {
	return &Manager{}
}

// Run validates the options, enumerates the selected folders and dispatches
// on the compression flag. In plain mode the metadata record is written as a
// sidecar at the destination root, next to (never inside) the mirrored
// folder trees. The returned record describes what was backed up.
func (m *Manager) Run(opts *Options) (*Record, error) {
	if opts.Compress {
		return m.ZipBackup(opts)
	}

	if err := opts.Validate(); err != nil {
		return nil, err
	}
	files, total, err := enumerate(opts)
	if err != nil {
		return nil, err
	}
	record := NewRecord(opts, total, len(files))
	if err := copyFiles(opts, files); err != nil {
		return nil, err
	}
	if err := record.WriteJSON(filepath.Join(opts.Destination, record.FileName())); err != nil {
		return nil, err
	}
	return record, nil
}

// PlainCopy mirrors every enumerated file under Destination, preserving each
// file's path relative to SourceRoot. Best-effort: files copied before a
// failure stay on disk. No metadata is written.
func (m *Manager) PlainCopy(opts *Options) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	files, _, err := enumerate(opts)
	if err != nil {
		return err
	}
	return copyFiles(opts, files)
}

// ZipBackup writes a single deflate-compressed archive at Destination
// containing every enumerated file at its relative path, plus the metadata
// record under MetadataEntryName. The archive is assembled at a temporary
// path and renamed into place once complete, so a failed run never leaves a
// truncated archive at the destination.
func (m *Manager) ZipBackup(opts *Options) (*Record, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	files, total, err := enumerate(opts)
	if err != nil {
		return nil, err
	}
	record := NewRecord(opts, total, len(files))
	if err := writeArchive(opts, files, record); err != nil {
		return nil, err
	}
	return record, nil
}

// enumerate lists the selected files and sums their sizes in one pass over
// the stat results.
func enumerate(opts *Options) ([]string, int64, error) {
	files, err := opts.ListAllFiles()
	if err != nil {
		return nil, 0, err
	}
	var total int64
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil {
			return nil, 0, fmt.Errorf("stat %s: %w", f, err)
		}
		total += info.Size()
	}
	return files, total, nil
}

func copyFiles(opts *Options, files []string) error {
	for _, src := range files {
		rel, err := filepath.Rel(opts.SourceRoot, src)
		if err != nil {
			return fmt.Errorf("relativizing %s: %w", src, err)
		}
		if err := copyFile(src, filepath.Join(opts.Destination, rel)); err != nil {
			return err
		}
	}
	return nil
}

// copyFile copies src to dst through a temporary file in the destination
// directory, renaming once the contents are fully flushed.
func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(dst), err)
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", src, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), filepath.Base(dst)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temporary file for %s: %w", dst, err)
	}
	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("copying %s: %w", src, err)
	}
	if err := tmp.Chmod(info.Mode().Perm()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("setting mode on %s: %w", dst, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing temporary file for %s: %w", dst, err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("renaming into %s: %w", dst, err)
	}
	return nil
}

func writeArchive(opts *Options, files []string, record *Record) error {
	if dir := filepath.Dir(opts.Destination); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating archive directory: %w", err)
		}
	}

	tmpPath := opts.Destination + ".tmp"
	out, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("creating archive: %w", err)
	}
	zw := zip.NewWriter(out)

	done := false
	defer func() {
		if !done {
			zw.Close()
			out.Close()
			os.Remove(tmpPath)
		}
	}()

	for _, src := range files {
		rel, err := filepath.Rel(opts.SourceRoot, src)
		if err != nil {
			return fmt.Errorf("relativizing %s: %w", src, err)
		}
		w, err := zw.Create(filepath.ToSlash(rel))
		if err != nil {
			return fmt.Errorf("adding %s to archive: %w", rel, err)
		}
		in, err := os.Open(src)
		if err != nil {
			return fmt.Errorf("opening %s: %w", src, err)
		}
		_, err = io.Copy(w, in)
		in.Close()
		if err != nil {
			return fmt.Errorf("compressing %s: %w", src, err)
		}
	}

	data, err := record.MarshalIndent()
	if err != nil {
		return err
	}
	w, err := zw.Create(MetadataEntryName)
	if err != nil {
		return fmt.Errorf("adding metadata entry: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing metadata entry: %w", err)
	}
	record.JSONSizeInBytes = int64(len(data))

	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalizing archive: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing archive: %w", err)
	}
	if err := os.Rename(tmpPath, opts.Destination); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming archive into place: %w", err)
	}
	done = true
	return nil
}
