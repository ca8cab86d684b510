package backup

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Folder identifies one of the recognized subdirectories of a Minecraft
// installation that can be selected for backup. The set is closed: anything
// outside it is rejected at parse time rather than silently producing an
// empty backup.
type Folder int

const (
	Saves Folder = iota
	Mods
	Config
	Logs
	Screenshots
	Backups
)

// AllFolders lists every recognized folder in catalog order.
var AllFolders = []Folder{Saves, Mods, Config, Logs, Screenshots, Backups}

// RelPath returns the folder's path segment relative to the installation
// root. Returns "" for values outside the catalog.
func (f Folder) RelPath() string {
	switch f {
	case Saves:
		return "saves"
	case Mods:
		return "mods"
	case Config:
		return "config"
	case Logs:
		return "logs"
	case Screenshots:
		return "screenshots"
	case Backups:
		return "backups"
	}
	return ""
}

func (f Folder) String() string {
	return f.RelPath()
}

// ParseFolder maps a name like "saves" back to its Folder, ignoring case.
func ParseFolder(name string) (Folder, error) {
	for _, f := range AllFolders {
		if strings.EqualFold(name, f.RelPath()) {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown folder %q", name)
}

// ParseFolders maps a list of names, failing on the first unknown one.
func ParseFolders(names []string) ([]Folder, error) {
	folders := make([]Folder, 0, len(names))
	for _, name := range names {
		f, err := ParseFolder(name)
		if err != nil {
			return nil, err
		}
		folders = append(folders, f)
	}
	return folders, nil
}

// FolderNames renders folders back to their catalog names.
func FolderNames(folders []Folder) []string {
	names := make([]string, 0, len(folders))
	for _, f := range folders {
		names = append(names, f.RelPath())
	}
	return names
}

// MarshalJSON encodes the folder as its catalog name.
func (f Folder) MarshalJSON() ([]byte, error) {
	name := f.RelPath()
	if name == "" {
		return nil, fmt.Errorf("invalid folder value %d", int(f))
	}
	return json.Marshal(name)
}

// UnmarshalJSON decodes a catalog name back into a Folder.
func (f *Folder) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseFolder(name)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
