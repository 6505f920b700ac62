// SPDX-License-Identifier: MPL-2.0

package conventions

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/internal/extract"
	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/pkg/catalog"
)

// aliasLine matches at most one alias declaration per line. Groups: text
// before, catalog accessor, dotted plugin alias, text after.
var aliasLine = regexp.MustCompile(`^(.*)alias\(\s*([A-Za-z_][A-Za-z0-9_]*)\.plugins\.([A-Za-z0-9_.]+)\s*\)(.*)$`)

// Candidate is an alias declaration found in a script, not yet resolved.
type Candidate struct {
	CatalogName catalog.Name
	// Alias is the dotted alias as written ("some.plugin").
	Alias string
	// Script is the script path relative to the scripts directory.
	Script string
	// Line is 1-based.
	Line int
}

// String returns the declaration as written.
func (c Candidate) String() string {
	return fmt.Sprintf("alias(%s.plugins.%s)", c.CatalogName, c.Alias)
}

// Scan returns the alias declarations in the plugins blocks of the
// extractor's scripts.
func Scan(x *extract.PluginsBlockExtractor) ([]Candidate, error) {
	scripts, err := x.Scripts()
	if err != nil {
		return nil, err
	}
	var found []Candidate
	for _, rel := range scripts {
		data, err := os.ReadFile(filepath.Join(x.ScriptsDir(), filepath.FromSlash(rel)))
		if err != nil {
			return nil, err
		}
		block, _ := extract.PluginsBlock(data)
		found = append(found, ScanBytes(rel, block)...)
	}
	return found, nil
}

// ScanBytes returns the alias declarations in data, one per matching line.
func ScanBytes(script string, data []byte) []Candidate {
	var found []Candidate
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for line := 1; sc.Scan(); line++ {
		m := aliasLine.FindStringSubmatch(sc.Text())
		if m == nil {
			continue
		}
		found = append(found, Candidate{
			CatalogName: catalog.Name(m[2]),
			Alias:       strings.TrimSpace(m[3]),
			Script:      script,
			Line:        line,
		})
	}
	return found
}
