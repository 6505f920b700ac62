// SPDX-License-Identifier: MPL-2.0

package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// FileSuffix is the suffix of declarative catalog files.
const FileSuffix = ".versions.toml"

// tomlFile mirrors the top-level tables of a catalog file. Entry values are
// decoded loosely because every table accepts both a string shorthand and
// an inline table.
type tomlFile struct {
	Versions  map[string]any      `toml:"versions"`
	Libraries map[string]any      `toml:"libraries"`
	Bundles   map[string][]string `toml:"bundles"`
	Plugins   map[string]any      `toml:"plugins"`
}

// NameFromFile derives the catalog name from a catalog file path by
// stripping FileSuffix ("gradle/libs.versions.toml" -> "libs"). The second
// result is false when the file does not carry the suffix.
func NameFromFile(path string) (Name, bool) {
	base := filepath.Base(path)
	if !strings.HasSuffix(base, FileSuffix) {
		return "", false
	}
	return Name(strings.TrimSuffix(base, FileSuffix)), true
}

// ParseTOMLFile reads and parses a catalog file.
func ParseTOMLFile(name Name, path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ModelError{Catalog: name, Source: path, Err: err}
	}
	return ParseTOML(name, data, path)
}

// ParseTOML parses catalog file contents into a Definition. Only the shape
// needed to extract names, coordinates and versions is checked; Build does
// the semantic validation.
func ParseTOML(name Name, data []byte, source string) (*Definition, error) {
	var raw tomlFile
	if err := toml.Unmarshal(data, &raw); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			err = fmt.Errorf("line %d, column %d: %w", row, col, derr)
		}
		return nil, &ModelError{Catalog: name, Source: source, Err: err}
	}

	d := NewDefinition(name, source)
	fail := func(err error) (*Definition, error) {
		return nil, &ModelError{Catalog: name, Source: source, Err: err}
	}

	for alias, v := range raw.Versions {
		decl, err := decodeVersion(v)
		if err != nil {
			return fail(fmt.Errorf("versions.%s: %w", alias, err))
		}
		d.Versions[alias] = decl
	}
	for alias, v := range raw.Libraries {
		decl, err := decodeLibrary(v)
		if err != nil {
			return fail(fmt.Errorf("libraries.%s: %w", alias, err))
		}
		d.Libraries[alias] = decl
	}
	for alias, v := range raw.Plugins {
		decl, err := decodePlugin(v)
		if err != nil {
			return fail(fmt.Errorf("plugins.%s: %w", alias, err))
		}
		d.Plugins[alias] = decl
	}
	for alias, members := range raw.Bundles {
		d.Bundles[alias] = members
	}
	return d, nil
}

// decodeVersion accepts "1.0", {ref = "x"} or {strictly/require/prefer}.
func decodeVersion(v any) (VersionDecl, error) {
	switch t := v.(type) {
	case string:
		return VersionDecl{Require: t}, nil
	case map[string]any:
		var decl VersionDecl
		for key, val := range t {
			s, ok := val.(string)
			if !ok {
				if key == "reject" || key == "rejectAll" {
					continue
				}
				return VersionDecl{}, fmt.Errorf("version.%s: expected string, got %T", key, val)
			}
			switch key {
			case "ref":
				decl.Ref = s
			case "strictly":
				decl.Strictly = s
			case "require":
				decl.Require = s
			case "prefer":
				decl.Prefer = s
			default:
				return VersionDecl{}, fmt.Errorf("unknown version attribute %q", key)
			}
		}
		if decl.Ref != "" && (decl.Strictly != "" || decl.Require != "" || decl.Prefer != "") {
			return VersionDecl{}, errors.New("version.ref cannot be combined with an inline constraint")
		}
		return decl, nil
	default:
		return VersionDecl{}, fmt.Errorf("expected string or table for version, got %T", v)
	}
}

func decodeLibrary(v any) (LibraryDecl, error) {
	switch t := v.(type) {
	case string:
		return ParseLibraryNotation(t)
	case map[string]any:
		var decl LibraryDecl
		if module, ok := t["module"].(string); ok {
			group, name, found := strings.Cut(module, ":")
			if !found || group == "" || name == "" || strings.Contains(name, ":") {
				return LibraryDecl{}, fmt.Errorf("invalid module %q: expected group:name", module)
			}
			decl.Group, decl.Name = group, name
		} else {
			decl.Group, _ = t["group"].(string)
			decl.Name, _ = t["name"].(string)
		}
		if raw, ok := t["version"]; ok {
			ver, err := decodeVersion(raw)
			if err != nil {
				return LibraryDecl{}, err
			}
			decl.Version = ver
		}
		return decl, nil
	default:
		return LibraryDecl{}, fmt.Errorf("expected string or table, got %T", v)
	}
}

func decodePlugin(v any) (PluginDecl, error) {
	switch t := v.(type) {
	case string:
		return ParsePluginNotation(t)
	case map[string]any:
		var decl PluginDecl
		decl.ID, _ = t["id"].(string)
		if raw, ok := t["version"]; ok {
			ver, err := decodeVersion(raw)
			if err != nil {
				return PluginDecl{}, err
			}
			decl.Version = ver
		}
		return decl, nil
	default:
		return PluginDecl{}, fmt.Errorf("expected string or table, got %T", v)
	}
}
