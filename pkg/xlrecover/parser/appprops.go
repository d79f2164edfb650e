package parser

import (
	"strconv"

	"github.com/beevik/etree"
	"github.com/ukaji3/xlrecover-go/pkg/xlrecover/xmltree"
)

// Extended properties (docProps/app.xml) namespaces.
const (
	NSExtendedProperties = "http://schemas.openxmlformats.org/officeDocument/2006/extended-properties"
	NSDocPropsVTypes     = "http://schemas.openxmlformats.org/officeDocument/2006/docPropsVTypes"
)

// WorksheetsHeading is the HeadingPairs label Excel uses for worksheets.
const WorksheetsHeading = "Worksheets"

// RebuildAppProperties makes the HeadingPairs and TitlesOfParts lists of an
// extended properties document name exactly sheetNames. Both lists are
// rewritten in place when present and removed when sheetNames is empty.
// Lists the template does not carry are not added.
func RebuildAppProperties(app *etree.Document, sheetNames []string) {
	root := app.Root()
	if root == nil {
		return
	}
	isProp := func(local string) xmltree.Match {
		return func(el *etree.Element) bool {
			return el.Tag == local && el.NamespaceURI() == NSExtendedProperties
		}
	}

	if len(sheetNames) == 0 {
		xmltree.RemoveChildElements(root, isProp("HeadingPairs"))
		xmltree.RemoveChildElements(root, isProp("TitlesOfParts"))
		return
	}

	headings := xmltree.Child(root, isProp("HeadingPairs"))
	titles := xmltree.Child(root, isProp("TitlesOfParts"))
	if headings == nil && titles == nil {
		return
	}

	vt, ok := xmltree.ScopeOf(root).Prefix(NSDocPropsVTypes, true)
	if !ok {
		vt = unusedPrefix(xmltree.ScopeOf(root), "vt")
		root.CreateAttr("xmlns:"+vt, NSDocPropsVTypes)
	}
	q := func(local string) string { return vt + ":" + local }

	if headings != nil {
		xmltree.RemoveContent(headings)
		vec := headings.CreateElement(q("vector"))
		vec.CreateAttr("size", "2")
		vec.CreateAttr("baseType", "variant")
		vec.CreateElement(q("variant")).CreateElement(q("lpstr")).SetText(WorksheetsHeading)
		vec.CreateElement(q("variant")).CreateElement(q("i4")).SetText(strconv.Itoa(len(sheetNames)))
	}
	if titles != nil {
		xmltree.RemoveContent(titles)
		vec := titles.CreateElement(q("vector"))
		vec.CreateAttr("size", strconv.Itoa(len(sheetNames)))
		vec.CreateAttr("baseType", "lpstr")
		for _, name := range sheetNames {
			vec.CreateElement(q("lpstr")).SetText(name)
		}
	}
}
