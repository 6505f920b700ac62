// SPDX-License-Identifier: MPL-2.0

package codegen

import (
	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/pkg/catalog"
)

const (
	// KindEntrypoint is the extension property exposing a catalog.
	KindEntrypoint Kind = "entrypoint"
	// KindAccessors is the accessor class of a catalog.
	KindAccessors Kind = "accessors"
)

type (
	// Kind distinguishes the artifacts generated for one catalog.
	Kind string

	// Artifact is one generated source file. (Catalog, Kind) identifies it.
	Artifact struct {
		Catalog catalog.Name
		Kind    Kind
		// FileName is relative to the generated sources root, slash-separated.
		FileName string
		Content  []byte
	}
)

// Artifacts renders every artifact generated for model.
func Artifacts(model *catalog.Model) ([]Artifact, error) {
	name := model.Name()
	entrypoint, err := Entrypoint(name)
	if err != nil {
		return nil, err
	}
	opts := DefaultOptions(name)
	return []Artifact{
		{Catalog: name, Kind: KindEntrypoint, FileName: EntrypointFile(name), Content: entrypoint},
		{Catalog: name, Kind: KindAccessors, FileName: AccessorsFile(opts), Content: GenerateAccessors(model, opts)},
	}, nil
}
