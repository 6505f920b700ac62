// SPDX-License-Identifier: MPL-2.0

package codegen

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/pkg/catalog"
)

const (
	// DefaultPackage is the package of generated accessor classes.
	DefaultPackage = "org.gradle.accessors.dm"

	indentUnit = "    "
)

// kotlinKeywords must be escaped with backticks when used as identifiers.
var kotlinKeywords = map[string]bool{
	"as": true, "break": true, "class": true, "continue": true, "do": true,
	"else": true, "false": true, "for": true, "fun": true, "if": true,
	"in": true, "interface": true, "is": true, "null": true, "object": true,
	"package": true, "return": true, "super": true, "this": true, "throw": true,
	"true": true, "try": true, "typealias": true, "typeof": true, "val": true,
	"var": true, "when": true, "while": true,
}

type (
	// Options parameterizes accessor generation.
	Options struct {
		Package   string
		ClassName string
	}

	// treeKind describes one accessor family (libraries, plugins, ...).
	treeKind struct {
		classSuffix string
		valueType   string
	}

	// tree is a node of the dotted-alias tree. A node is a leaf when expr is
	// set; it may also have children ("kotlin" and "kotlin-stdlib").
	tree struct {
		segment  string
		path     []string
		expr     string
		children map[string]*tree
	}

	// pendingClass is a nested accessor class still to be written.
	pendingClass struct {
		name string
		node *tree
		kind treeKind
	}

	generator struct {
		b       strings.Builder
		pending []pendingClass
		classes map[string]bool
	}
)

var (
	libraryKind = treeKind{classSuffix: "LibraryAccessors", valueType: "Library"}
	pluginKind  = treeKind{classSuffix: "PluginAccessors", valueType: "Plugin"}
	versionKind = treeKind{classSuffix: "VersionAccessors", valueType: "String"}
	bundleKind  = treeKind{classSuffix: "BundleAccessors", valueType: "List<String>"}
)

// DefaultOptions returns the options used for the catalog called name.
func DefaultOptions(name catalog.Name) Options {
	return Options{Package: DefaultPackage, ClassName: "LibrariesFor" + name.Capitalized()}
}

// AccessorsFile returns the path of the accessor source, relative to the
// generated sources root.
func AccessorsFile(opts Options) string {
	return strings.ReplaceAll(opts.Package, ".", "/") + "/" + opts.ClassName + ".kt"
}

// GenerateAccessors renders the accessor class for model. The output only
// depends on the model's entries, so equal models render identical bytes.
func GenerateAccessors(model *catalog.Model, opts Options) []byte {
	g := &generator{classes: map[string]bool{
		opts.ClassName:     true,
		"VersionAccessors": true,
		"BundleAccessors":  true,
		"PluginAccessors":  true,
		"Library":          true,
		"Plugin":           true,
	}}
	g.line(0, "// Generated by typesafe-conventions. Do not edit.")
	g.line(0, "package "+opts.Package)
	g.line(0, "")
	g.line(0, fmt.Sprintf("class %s {", opts.ClassName))

	libraries := newTree("", nil)
	for _, a := range model.LibraryAliases() {
		lib, _ := model.Library(string(a))
		libraries.insert(a.Segments(), libraryExpr(lib))
	}
	g.members(1, libraries, libraryKind)

	g.line(1, "val versions: VersionAccessors = VersionAccessors()")
	g.line(1, "val bundles: BundleAccessors = BundleAccessors()")
	g.line(1, "val plugins: PluginAccessors = PluginAccessors()")
	g.line(0, "")

	versions := newTree("", nil)
	for _, a := range model.VersionAliases() {
		v, _ := model.Version(string(a))
		versions.insert(a.Segments(), quote(v.String()))
	}
	bundles := newTree("", nil)
	for _, a := range model.BundleAliases() {
		libs, _ := model.Bundle(string(a))
		items := make([]string, 0, len(libs))
		for _, l := range libs {
			items = append(items, quote(l.Coordinates()))
		}
		bundles.insert(a.Segments(), "listOf("+strings.Join(items, ", ")+")")
	}
	plugins := newTree("", nil)
	for _, a := range model.PluginAliases() {
		p, _ := model.Plugin(string(a))
		plugins.insert(a.Segments(), pluginExpr(p))
	}
	g.pending = append(g.pending,
		pendingClass{name: "VersionAccessors", node: versions, kind: versionKind},
		pendingClass{name: "BundleAccessors", node: bundles, kind: bundleKind},
		pendingClass{name: "PluginAccessors", node: plugins, kind: pluginKind},
	)

	for len(g.pending) > 0 {
		c := g.pending[0]
		g.pending = g.pending[1:]
		g.class(c)
	}

	g.line(1, "data class Library(val group: String, val name: String, val version: String?) {")
	g.line(2, `val module: String get() = "$group:$name"`)
	g.line(2, `override fun toString(): String = if (version == null) module else "$module:$version"`)
	g.line(1, "}")
	g.line(0, "")
	g.line(1, "data class Plugin(val id: String, val version: String?)")
	g.line(0, "}")
	return []byte(g.b.String())
}

func newTree(segment string, path []string) *tree {
	return &tree{segment: segment, path: path, children: make(map[string]*tree)}
}

func (t *tree) insert(segments []string, expr string) {
	n := t
	for i, seg := range segments {
		child, ok := n.children[seg]
		if !ok {
			child = newTree(seg, slices.Clone(segments[:i+1]))
			n.children[seg] = child
		}
		n = child
	}
	n.expr = expr
}

func (t *tree) sortedChildren() []*tree {
	out := make([]*tree, 0, len(t.children))
	for _, k := range slices.Sorted(maps.Keys(t.children)) {
		out = append(out, t.children[k])
	}
	return out
}

// members writes one property per child of n. Children with children of
// their own become nested accessor classes.
func (g *generator) members(depth int, n *tree, kind treeKind) {
	for _, c := range n.sortedChildren() {
		id := identifier(c.segment)
		if len(c.children) == 0 {
			g.line(depth, fmt.Sprintf("val %s: %s = %s", id, kind.valueType, c.expr))
			continue
		}
		name := g.className(c.path, kind)
		g.line(depth, fmt.Sprintf("val %s: %s = %s()", id, name, name))
		g.pending = append(g.pending, pendingClass{name: name, node: c, kind: kind})
	}
}

// className returns an unused nested class name for path. Distinct paths
// may capitalize to the same name ("foo-bar" and "fooBar"); later ones get
// a numeric suffix in emission order.
func (g *generator) className(path []string, kind treeKind) string {
	base := className(path)
	name := base + kind.classSuffix
	for i := 2; g.classes[name]; i++ {
		name = base + strconv.Itoa(i) + kind.classSuffix
	}
	g.classes[name] = true
	return name
}

func (g *generator) class(c pendingClass) {
	g.line(1, fmt.Sprintf("class %s {", c.name))
	if c.node.expr != "" {
		g.line(2, fmt.Sprintf("fun asProvider(): %s = %s", c.kind.valueType, c.node.expr))
	}
	g.members(2, c.node, c.kind)
	g.line(1, "}")
	g.line(0, "")
}

func (g *generator) line(depth int, s string) {
	if s != "" {
		g.b.WriteString(strings.Repeat(indentUnit, depth))
		g.b.WriteString(s)
	}
	g.b.WriteByte('\n')
}

func libraryExpr(l catalog.Library) string {
	return fmt.Sprintf("Library(%s, %s, %s)", quote(l.Group), quote(l.Name), nullable(l.Version.String()))
}

func pluginExpr(p catalog.Plugin) string {
	return fmt.Sprintf("Plugin(%s, %s)", quote(p.ID), nullable(p.Version.String()))
}

func nullable(s string) string {
	if s == "" {
		return "null"
	}
	return quote(s)
}

// quote renders a Kotlin string literal. '$' is escaped so that versions
// are never treated as templates.
func quote(s string) string {
	q := strconv.Quote(s)
	return strings.ReplaceAll(q, "$", `\$`)
}

// identifier returns segment as a Kotlin identifier, backquoted when it is a
// keyword or does not start with a letter.
func identifier(segment string) string {
	r := []rune(segment)
	if kotlinKeywords[segment] || len(r) == 0 || !unicode.IsLetter(r[0]) {
		return "`" + segment + "`"
	}
	return segment
}

// className joins the capitalized path segments ("commons-lang3" path
// ["commons"] -> "Commons").
func className(path []string) string {
	var b strings.Builder
	for _, seg := range path {
		if r := []rune(seg); len(r) > 0 && !unicode.IsLetter(r[0]) {
			b.WriteByte('_')
		}
		b.WriteString(catalog.Capitalize(seg))
	}
	return b.String()
}
