package include

import (
	"slices"
	"strings"
)

// Separator joins the names of nested elements into a qualified name.
const Separator = "::"

// Metadata records where a document came from and, for every document it
// included, the qualified names at which that document was spliced.
type Metadata struct {
	Includes map[string][]string
	Path     string
}

// Clone returns a deep copy of m.
func (m Metadata) Clone() Metadata {
	out := Metadata{Path: m.Path, Includes: make(map[string][]string, len(m.Includes))}
	for path, names := range m.Includes {
		out.Includes[path] = slices.Clone(names)
	}
	return out
}

// Paths returns the included document paths in sorted order.
func (m Metadata) Paths() []string {
	var paths []string
	for path := range m.Includes {
		paths = append(paths, path)
	}
	slices.Sort(paths)
	return paths
}

// SplicedAt returns the qualified names at which path was included.
func (m Metadata) SplicedAt(path string) []string {
	return slices.Clone(m.Includes[path])
}

// FileOf returns the document that contributed the element with the given
// qualified name: the included document spliced at the longest matching
// prefix of name, else the top-level document. ok is false when m has no
// path at all.
func (m Metadata) FileOf(name string) (path string, ok bool) {
	best := -1
	for _, included := range m.Paths() {
		for _, at := range m.Includes[included] {
			if !within(name, at) || len(at) <= best {
				continue
			}
			best, path = len(at), included
		}
	}
	if best >= 0 {
		return path, true
	}
	return m.Path, m.Path != ""
}

func within(name, scope string) bool {
	return name == scope || strings.HasPrefix(name, scope+Separator)
}

func merge(dst, src map[string][]string) {
	for path, names := range src {
		dst[path] = append(dst[path], names...)
	}
}

func prefix(includes map[string][]string, scope string) {
	for path, names := range includes {
		for i, n := range names {
			names[i] = scope + Separator + n
		}
		includes[path] = names
	}
}

// reroot moves names recorded under the included model's original name onto
// the name it was spliced at.
func reroot(includes map[string][]string, from, to string) map[string][]string {
	out := make(map[string][]string, len(includes))
	for path, names := range includes {
		moved := make([]string, len(names))
		for i, n := range names {
			switch {
			case n == from:
				moved[i] = to
			case strings.HasPrefix(n, from+Separator):
				moved[i] = to + n[len(from):]
			default:
				moved[i] = to + Separator + n
			}
		}
		out[path] = moved
	}
	return out
}
