package mcp

import "fmt"

// DocumentURI builds document resource URIs for MCP tool results.
// Immutable value object; methods return copies.
type DocumentURI struct {
	documentID int64
	filename   string
	page       int
}

// NewDocumentURI creates a DocumentURI with the required fields.
func NewDocumentURI(documentID int64, filename string) DocumentURI {
	return DocumentURI{
		documentID: documentID,
		filename:   filename,
	}
}

// WithPage returns a copy with the page reference set.
func (u DocumentURI) WithPage(page int) DocumentURI {
	u.page = page
	return u
}

// String builds the document:// URI string.
func (u DocumentURI) String() string {
	base := fmt.Sprintf("document://%d/%s", u.documentID, u.filename)
	if u.page > 0 {
		return fmt.Sprintf("%s?page=%d", base, u.page)
	}
	return base
}
