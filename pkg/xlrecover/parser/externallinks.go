package parser

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/ukaji3/xlrecover-go/pkg/xlrecover/xmltree"
)

// ExternalLinksDir is the package directory holding external-link parts.
const ExternalLinksDir = "xl/externalLinks"

// ListExternalLinks returns the names of the external-link parts directly
// inside dir, sorted lexicographically. Only *.xml files are returned; the
// _rels directory and anything else is ignored. ErrNoExternalLinks is
// returned when dir does not exist.
func ListExternalLinks(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoExternalLinks
	}
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".xml") {
			continue
		}
		names = append(names, e.Name())
	}
	slices.Sort(names)
	return names, nil
}

// ExternalBookTarget returns the location of the external workbook an
// external-link part refers to, as recorded in the part's relationships.
// It returns "" when the part has no relationships file.
func ExternalBookTarget(dir, part string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, "_rels", part+".rels"))
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return findExternalBookTarget(data), nil
}

func findExternalBookTarget(data []byte) string {
	decoder := xml.NewDecoder(bytes.NewReader(data))

	for {
		token, err := decoder.Token()
		if err != nil {
			break
		}
		if se, ok := token.(xml.StartElement); ok && se.Name.Local == "Relationship" {
			var relType, target string
			for _, attr := range se.Attr {
				switch attr.Name.Local {
				case "Type":
					relType = attr.Value
				case "Target":
					target = attr.Value
				}
			}
			if strings.HasSuffix(relType, "/externalLinkPath") {
				return target
			}
		}
	}

	return ""
}

// CachedSheetName returns the name of the external sheet whose cache is
// sheetData, looked up in the externalBook's sheetNames list by the
// sheetData's sheetId. It returns "" when the name is not recorded.
func CachedSheetName(doc *etree.Document, sheetData *etree.Element, names Names) string {
	raw, ok := xmltree.AttrValue(sheetData, "", "sheetId")
	if !ok {
		return ""
	}
	idx, err := strconv.Atoi(raw)
	if err != nil || idx < 0 {
		return ""
	}

	lists := xmltree.Descendants(doc.Root(), names.Match(names.SheetNames))
	if len(lists) == 0 {
		return ""
	}
	sheetNames := xmltree.Descendants(lists[0], names.Match(names.SheetName))
	if idx >= len(sheetNames) {
		return ""
	}
	val, _ := xmltree.AttrValue(sheetNames[idx], "", "val")
	return val
}
