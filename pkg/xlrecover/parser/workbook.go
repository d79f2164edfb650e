package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/ukaji3/xlrecover-go/pkg/xlrecover/xmltree"
)

// SheetEntry describes one synthesized worksheet as registered in the
// workbook part and its relationships.
type SheetEntry struct {
	// Name is the sheet tab name.
	Name string
	// SheetID is the 1-based sheetId.
	SheetID int
	// RelID is the relationship id referenced by r:id.
	RelID string
	// Target is the relationship target, relative to xl/.
	Target string
}

// PartName returns the package part name of the worksheet.
func (e SheetEntry) PartName() string {
	return "/xl/" + e.Target
}

// WorksheetTarget returns the relationship target of the i-th worksheet.
func WorksheetTarget(i int) string {
	return fmt.Sprintf("worksheets/sheet%d.xml", i)
}

// DefaultSheetName returns the name of the i-th worksheet.
func DefaultSheetName(i int) string {
	return fmt.Sprintf("Sheet%d", i)
}

// RebuildWorkbook makes the workbook part and its relationships describe
// exactly len(sheetNames) worksheets, xl/worksheets/sheet1.xml onwards.
//
// Every <sheet> under <sheets> is replaced. In the relationships part the
// template's own worksheet relationships are dropped and everything else is
// kept. New relationship ids continue after the highest rId the template
// declares, so a template with a single relationship gives rId2, rId3, ...
func RebuildWorkbook(workbook, rels *etree.Document, sheetNames []string, names Names) ([]SheetEntry, error) {
	if workbook == nil || workbook.Root() == nil {
		return nil, ErrMissingSheetsElement
	}
	sheets := xmltree.Child(workbook.Root(), names.Match(names.Sheets))
	if sheets == nil {
		return nil, ErrMissingSheetsElement
	}
	relsRoot := rels.Root()
	if relsRoot == nil || relsRoot.Tag != "Relationships" {
		return nil, fmt.Errorf("workbook relationships: root element is not Relationships")
	}

	firstID := nextRelationshipID(relsRoot)
	relType := dropWorksheetRelationships(relsRoot)

	entries := make([]SheetEntry, len(sheetNames))
	for i, name := range sheetNames {
		entries[i] = SheetEntry{
			Name:    name,
			SheetID: i + 1,
			RelID:   "rId" + strconv.Itoa(firstID+i),
			Target:  WorksheetTarget(i + 1),
		}
	}

	rebuildSheets(workbook.Root(), sheets, entries, names)
	for _, e := range entries {
		rel := relsRoot.CreateElement(qualified(relsRoot.Space, "Relationship"))
		rel.CreateAttr("Id", e.RelID)
		rel.CreateAttr("Type", relType)
		rel.CreateAttr("Target", e.Target)
	}
	clampWorkbookViews(workbook.Root(), names, len(entries))

	return entries, nil
}

func rebuildSheets(root, sheets *etree.Element, entries []SheetEntry, names Names) {
	isSheet := names.Match(names.Sheet)
	relNS := sheetRelNamespace(root, sheets, isSheet)
	xmltree.RemoveChildElements(sheets, isSheet)

	prefix, ok := xmltree.ScopeOf(sheets).Prefix(relNS, true)
	if !ok {
		prefix = unusedPrefix(xmltree.ScopeOf(root), "r")
		root.CreateAttr("xmlns:"+prefix, relNS)
	}

	for _, e := range entries {
		sheet := sheets.CreateElement(qualified(sheets.Space, names.Sheet))
		sheet.CreateAttr("name", e.Name)
		sheet.CreateAttr("sheetId", strconv.Itoa(e.SheetID))
		sheet.CreateAttr("state", "visible")
		sheet.CreateAttr(prefix+":id", e.RelID)
	}
}

// sheetRelNamespace returns the namespace the template's <sheet> elements
// use for r:id, falling back to the one matching the workbook namespace.
func sheetRelNamespace(root, sheets *etree.Element, isSheet xmltree.Match) string {
	for _, s := range sheets.ChildElements() {
		if !isSheet(s) {
			continue
		}
		for _, ns := range []string{NSRelationships, NSRelationshipsStrict} {
			if _, ok := xmltree.AttrValue(s, ns, "id"); ok {
				return ns
			}
		}
	}
	if root.NamespaceURI() == NSMainStrict {
		return NSRelationshipsStrict
	}
	return NSRelationships
}

func unusedPrefix(scope xmltree.Scope, want string) string {
	candidate := want
	for i := 1; ; i++ {
		if _, taken := scope[candidate]; !taken {
			return candidate
		}
		candidate = want + strconv.Itoa(i)
	}
}

func qualified(prefix, local string) string {
	if prefix == "" {
		return local
	}
	return prefix + ":" + local
}

// nextRelationshipID returns one past the highest numeric rId in use.
func nextRelationshipID(root *etree.Element) int {
	highest := 0
	for _, rel := range root.ChildElements() {
		id, _ := xmltree.AttrValue(rel, "", "Id")
		if !strings.HasPrefix(id, "rId") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimPrefix(id, "rId"))
		if err == nil && n > highest {
			highest = n
		}
	}
	return highest + 1
}

// dropWorksheetRelationships removes worksheet relationships and returns the
// relationship type to use for new worksheets.
func dropWorksheetRelationships(root *etree.Element) string {
	relType := RelTypeWorksheet
	xmltree.RemoveChildElements(root, func(rel *etree.Element) bool {
		t, _ := xmltree.AttrValue(rel, "", "Type")
		if t == RelTypeWorksheet || t == RelTypeWorksheetStrict {
			relType = t
			return true
		}
		return false
	})
	return relType
}

// clampWorkbookViews drops the activeTab and firstSheet of workbook views
// that point past the last of count sheets.
func clampWorkbookViews(root *etree.Element, names Names, count int) {
	views := xmltree.Child(root, names.Match(names.BookViews))
	if views == nil {
		return
	}
	for _, v := range xmltree.Descendants(views, names.Match(names.WorkbookView)) {
		for _, attr := range []string{"activeTab", "firstSheet"} {
			raw, ok := xmltree.AttrValue(v, "", attr)
			if !ok {
				continue
			}
			if n, err := strconv.Atoi(raw); err != nil || n < 0 || n >= count {
				xmltree.RemoveAttr(v, attr)
			}
		}
	}
}

// RegisterWorksheets replaces the worksheet overrides of a
// [Content_Types].xml document with one override per entry.
func RegisterWorksheets(contentTypes *etree.Document, entries []SheetEntry) error {
	root := contentTypes.Root()
	if root == nil || root.Tag != "Types" {
		return fmt.Errorf("content types: root element is not Types")
	}
	xmltree.RemoveChildElements(root, func(el *etree.Element) bool {
		ct, _ := xmltree.AttrValue(el, "", "ContentType")
		return el.Tag == "Override" && ct == ContentTypeWorksheet
	})
	for _, e := range entries {
		o := root.CreateElement(qualified(root.Space, "Override"))
		o.CreateAttr("PartName", e.PartName())
		o.CreateAttr("ContentType", ContentTypeWorksheet)
	}
	return nil
}
