package parser

import (
	"strings"
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/require"
	"github.com/ukaji3/xlrecover-go/pkg/xlrecover/xmltree"
)

func parseXML(t *testing.T, s string) *etree.Document {
	t.Helper()
	doc, err := xmltree.Parse(strings.NewReader(s))
	require.NoError(t, err)
	return doc
}

// externalLinkXML wraps sheetData fragments in an externalLink part.
func externalLinkXML(sheetDatas ...string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<externalLink xmlns="` + NSMain + `" xmlns:r="` + NSRelationships + `">` +
		`<externalBook r:id="rId1"><sheetNames><sheetName val="Prices"/><sheetName val="Stock"/></sheetNames>` +
		`<sheetDataSet>` + strings.Join(sheetDatas, "") + `</sheetDataSet></externalBook></externalLink>`
}

const templateWorksheetXML = `<worksheet xmlns="` + NSMain + `" xmlns:r="` + NSRelationships + `">` +
	`<dimension ref="A1"/><sheetViews><sheetView workbookViewId="0"/></sheetViews>` +
	`<sheetData/><pageMargins left="0.7" right="0.7" top="0.75" bottom="0.75" header="0.3" footer="0.3"/>` +
	`</worksheet>`
