package xmltree

import (
	"sort"

	"github.com/beevik/etree"
)

// xmlNamespace is bound to the "xml" prefix in every document.
const xmlNamespace = "http://www.w3.org/XML/1998/namespace"

// Scope maps prefixes to namespace URIs. The empty prefix is the default
// namespace.
type Scope map[string]string

// ScopeOf returns the namespace bindings in effect on el, taking the
// declarations of el and all its ancestors into account.
func ScopeOf(el *etree.Element) Scope {
	var path []*etree.Element
	for p := el; p != nil; p = p.Parent() {
		path = append(path, p)
	}
	scope := Scope{"xml": xmlNamespace}
	for i := len(path) - 1; i >= 0; i-- {
		scope = scope.declare(path[i])
	}
	return scope
}

// declare returns a copy of s extended by the declarations of el.
func (s Scope) declare(el *etree.Element) Scope {
	out := s
	copied := false
	for _, a := range el.Attr {
		if !isDeclaration(a) {
			continue
		}
		if !copied {
			out = s.clone()
			copied = true
		}
		if a.Space == "xmlns" {
			out[a.Key] = a.Value
		} else {
			out[""] = a.Value
		}
	}
	return out
}

func (s Scope) clone() Scope {
	out := make(Scope, len(s)+1)
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Prefix returns a prefix bound to space. Attributes can only use a
// non-empty prefix; elements prefer the default namespace when it matches.
// Among several candidates the lexically smallest prefix is chosen.
func (s Scope) Prefix(space string, forAttr bool) (string, bool) {
	if !forAttr {
		if def, ok := s[""]; ok && def == space {
			return "", true
		}
	}
	var candidates []string
	for p, uri := range s {
		if p == "" || uri != space {
			continue
		}
		candidates = append(candidates, p)
	}
	if len(candidates) == 0 {
		return "", false
	}
	sort.Strings(candidates)
	return candidates[0], true
}

// Transplant appends a copy of src, which must still be attached to its own
// document, as the last child of parent and returns the copy. Prefixes of the
// copy are rewritten so that every element and attribute resolves to the
// same namespace URI under parent as src did in its own document; element
// namespaces are first passed through mapSpace when it is not nil. Missing
// bindings are declared on the copied elements.
func Transplant(src, parent *etree.Element, mapSpace func(string) string) *etree.Element {
	from := Scope{"xml": xmlNamespace}
	if p := src.Parent(); p != nil {
		from = ScopeOf(p)
	}
	el := src.Copy()
	rebind(el, from, ScopeOf(parent), mapSpace)
	parent.AddChild(el)
	return el
}

func rebind(el *etree.Element, from, to Scope, mapSpace func(string) string) {
	// Declarations already carried by the subtree stay authoritative.
	from = from.declare(el)
	to = to.declare(el)

	space := from[el.Space]
	if mapSpace != nil {
		space = mapSpace(space)
	}
	if bound, ok := to[el.Space]; !ok || bound != space {
		if p, ok := to.Prefix(space, false); ok {
			el.Space = p
		} else {
			if space == "" {
				el.Space = ""
			}
			bindPrefix(el, el.Space, space)
			to = to.declare(el)
		}
	}

	for i := 0; i < len(el.Attr); i++ {
		a := el.Attr[i]
		if isDeclaration(a) || a.Space == "" {
			continue
		}
		space := from[a.Space]
		if bound, ok := to[a.Space]; ok && bound == space {
			continue
		}
		if p, ok := to.Prefix(space, true); ok {
			el.Attr[i].Space = p
			continue
		}
		bindPrefix(el, a.Space, space)
		to = to.declare(el)
	}

	for _, c := range el.ChildElements() {
		rebind(c, from, to, mapSpace)
	}
}

func bindPrefix(el *etree.Element, prefix, space string) {
	if prefix == "" {
		el.CreateAttr("xmlns", space)
		return
	}
	el.CreateAttr("xmlns:"+prefix, space)
}
