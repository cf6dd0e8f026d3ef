package resource

import (
	"bytes"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"epubres/common"
	"epubres/epub"
	"epubres/markup"
)

// Chapter is spine document reduced to a sanitized body fragment.
type Chapter struct {
	base
	item  *epub.SpineItem
	log   *zap.Logger
	valid bool

	length  int
	doc     *markup.Document
	content []byte
}

// NewChapter creates chapter resource for spine item.
func NewChapter(item *epub.SpineItem, log *zap.Logger) *Chapter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Chapter{base: newBase(item.Href), item: item, log: log, length: -1}
}

func (c *Chapter) Type() common.ResourceType {
	return common.ResourceTypeChapter
}

// Item returns spine item chapter was created for.
func (c *Chapter) Item() *epub.SpineItem {
	return c.item
}

// Order is position in reading order.
func (c *Chapter) Order() int {
	return c.item.Order
}

func (c *Chapter) IsValid() bool {
	return c.valid
}

func (c *Chapter) SetValid(valid bool) {
	c.valid = valid
}

// IsUsed is true only for valid chapters.
func (c *Chapter) IsUsed() bool {
	return c.valid && c.used
}

// Document returns parsed chapter, parsing it on first access.
func (c *Chapter) Document() (*markup.Document, error) {
	if c.doc != nil {
		return c.doc, nil
	}
	data, err := c.item.Content()
	if err != nil {
		return nil, fmt.Errorf("unable to read chapter %s: %w", c.Href(), err)
	}
	if c.doc, err = markup.Parse(data, c.log); err != nil {
		return nil, fmt.Errorf("chapter %s: %w", c.Href(), err)
	}
	return c.doc, nil
}

// Length returns number of characters in chapter body text. Value is
// computed once, document parsed for that is released unless it was
// already held.
func (c *Chapter) Length() (int, error) {
	if c.length >= 0 {
		return c.length, nil
	}
	held := c.doc != nil
	doc, err := c.Document()
	if err != nil {
		return 0, err
	}
	c.length = doc.PlainLength()
	if !held {
		c.Release()
	}
	return c.length, nil
}

// Run hands parsed document to fn and flushes the result.
func (c *Chapter) Run(fn func(*markup.Document) error) error {
	doc, err := c.Document()
	if err != nil {
		return err
	}
	if err := fn(doc); err != nil {
		c.Release()
		return err
	}
	return c.Flush()
}

// Flush serializes body as strict XHTML wrapped in JSON and drops parsed
// document.
func (c *Chapter) Flush() error {
	doc, err := c.Document()
	if err != nil {
		return err
	}
	defer c.Release()

	body, err := doc.Save("body", true)
	if err != nil {
		return fmt.Errorf("chapter %s: %w", c.Href(), err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(struct {
		Value string `json:"value"`
	}{body}); err != nil {
		return fmt.Errorf("chapter %s: %w", c.Href(), err)
	}
	c.content = bytes.TrimSuffix(buf.Bytes(), []byte("\n"))
	return nil
}

// Release drops parsed document.
func (c *Chapter) Release() {
	c.doc = nil
}

// Content returns flushed JSON, nil for chapters never processed.
func (c *Chapter) Content() ([]byte, error) {
	return c.content, nil
}

func (c *Chapter) Filename() string {
	return sha1hex(c.Href()) + ".json"
}
