package xmltree

import "github.com/beevik/etree"

// Match reports whether an element is wanted.
type Match func(*etree.Element) bool

// Walk visits every descendant of el in document order. Returning false
// from fn skips the descendants of the visited element.
func Walk(el *etree.Element, fn func(*etree.Element) bool) {
	for _, c := range el.ChildElements() {
		if fn(c) {
			Walk(c, fn)
		}
	}
}

// Descendants returns every descendant of el matching match, in document
// order, at any depth. el itself is never included.
func Descendants(el *etree.Element, match Match) []*etree.Element {
	var out []*etree.Element
	Walk(el, func(c *etree.Element) bool {
		if match(c) {
			out = append(out, c)
		}
		return true
	})
	return out
}

// HasDescendant reports whether any descendant of el matches match.
func HasDescendant(el *etree.Element, match Match) bool {
	found := false
	Walk(el, func(c *etree.Element) bool {
		if found {
			return false
		}
		found = match(c)
		return !found
	})
	return found
}

// Child returns the first direct child of el matching match, or nil.
func Child(el *etree.Element, match Match) *etree.Element {
	for _, c := range el.ChildElements() {
		if match(c) {
			return c
		}
	}
	return nil
}

// RemoveChildElements drops every direct child element of el matching
// match and reports how many were removed. Other content is kept.
func RemoveChildElements(el *etree.Element, match Match) int {
	removed := 0
	for i := len(el.Child) - 1; i >= 0; i-- {
		if c, ok := el.Child[i].(*etree.Element); ok && match(c) {
			el.RemoveChildAt(i)
			removed++
		}
	}
	return removed
}

// RemoveContent drops all content of el. Attributes are kept.
func RemoveContent(el *etree.Element) {
	for len(el.Child) > 0 {
		el.RemoveChildAt(len(el.Child) - 1)
	}
}

// AttrValue returns the value of the attribute of el with the given
// namespace URI and local name. Namespace declarations never match.
func AttrValue(el *etree.Element, space, local string) (string, bool) {
	var scope Scope
	for _, a := range el.Attr {
		if isDeclaration(a) || a.Key != local {
			continue
		}
		if a.Space == "" {
			if space == "" {
				return a.Value, true
			}
			continue
		}
		if scope == nil {
			scope = ScopeOf(el)
		}
		if uri, ok := scope[a.Space]; ok && uri == space && space != "" {
			return a.Value, true
		}
	}
	return "", false
}

// RemoveAttr removes the unqualified attribute local from el.
func RemoveAttr(el *etree.Element, local string) {
	for i, a := range el.Attr {
		if a.Space == "" && a.Key == local {
			el.Attr = append(el.Attr[:i], el.Attr[i+1:]...)
			return
		}
	}
}

func isDeclaration(a etree.Attr) bool {
	return a.Space == "xmlns" || (a.Space == "" && a.Key == "xmlns")
}
