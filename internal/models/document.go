// Package models defines core data structures for documents, queries, and search results.
package models

// Field names indexed for every document.
const (
	FieldTitle = "title"
	FieldBody  = "body"
)

// Document is a unit of the corpus: an opaque unique ID and its raw fields.
type Document struct {
	ID       string            `json:"id"`
	Fields   map[string]string `json:"fields"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// NewDocument builds a document with the standard title and body fields.
func NewDocument(id, title, body string) *Document {
	return &Document{
		ID:     id,
		Fields: map[string]string{FieldTitle: title, FieldBody: body},
	}
}

// Title returns the title field.
func (d *Document) Title() string {
	return d.Fields[FieldTitle]
}

// Body returns the body field.
func (d *Document) Body() string {
	return d.Fields[FieldBody]
}

// Clone returns a deep copy of d.
func (d *Document) Clone() *Document {
	c := &Document{ID: d.ID}
	if d.Fields != nil {
		c.Fields = make(map[string]string, len(d.Fields))
		for k, v := range d.Fields {
			c.Fields[k] = v
		}
	}
	if d.Metadata != nil {
		c.Metadata = make(map[string]string, len(d.Metadata))
		for k, v := range d.Metadata {
			c.Metadata[k] = v
		}
	}
	return c
}

// DocumentInput is the input for creating or replacing a document through the API.
type DocumentInput struct {
	ID       string            `json:"id"`
	Title    string            `json:"title,omitempty"`
	Body     string            `json:"body"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Document converts the input into a Document.
func (in *DocumentInput) Document() *Document {
	doc := NewDocument(in.ID, in.Title, in.Body)
	doc.Metadata = in.Metadata
	return doc
}

// DocumentRef is a lightweight listing entry for an indexed document.
type DocumentRef struct {
	ID    string `json:"id"`
	URI   string `json:"uri"`
	Title string `json:"title"`
}
