package feb

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Element is a node of the input document. Attributes keep insertion order
// so that output is byte-for-byte reproducible.
type Element struct {
	Name     string
	Attrs    []xml.Attr
	Text     string
	Children []*Element
}

// NewElement creates an element. attrs are name/value pairs.
func NewElement(name string, attrs ...string) *Element {
	if len(attrs)%2 != 0 {
		panic(fmt.Sprintf("feb: odd attribute list for <%s>", name))
	}
	e := &Element{Name: name}
	for i := 0; i < len(attrs); i += 2 {
		e.Attrs = append(e.Attrs, xml.Attr{Name: xml.Name{Local: attrs[i]}, Value: attrs[i+1]})
	}
	return e
}

// Add appends a new child and returns it.
func (e *Element) Add(name string, attrs ...string) *Element {
	c := NewElement(name, attrs...)
	e.Children = append(e.Children, c)
	return c
}

// AddText appends a child holding text and returns it.
func (e *Element) AddText(name, text string, attrs ...string) *Element {
	c := e.Add(name, attrs...)
	c.Text = text
	return c
}

// Attr returns the value of the named attribute.
func (e *Element) Attr(name string) string {
	for _, a := range e.Attrs {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

// Find walks down the first child matching each name in path.
func (e *Element) Find(path ...string) *Element {
	cur := e
	for _, name := range path {
		var next *Element
		for _, c := range cur.Children {
			if c.Name == name {
				next = c
				break
			}
		}
		if next == nil {
			return nil
		}
		cur = next
	}
	return cur
}

// All returns the direct children with the given name.
func (e *Element) All(name string) []*Element {
	var out []*Element
	for _, c := range e.Children {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

func (e *Element) MarshalXML(enc *xml.Encoder, _ xml.StartElement) error {
	start := xml.StartElement{Name: xml.Name{Local: e.Name}, Attr: e.Attrs}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	if e.Text != "" {
		if err := enc.EncodeToken(xml.CharData(e.Text)); err != nil {
			return err
		}
	}
	for _, c := range e.Children {
		if err := enc.Encode(c); err != nil {
			return err
		}
	}
	return enc.EncodeToken(start.End())
}

// Encode writes root as a tab-indented XML document.
func Encode(w io.Writer, root *Element) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(bw)
	enc.Indent("", "\t")
	if err := enc.Encode(root); err != nil {
		return fmt.Errorf("failed to encode solver input: %w", err)
	}
	if err := enc.Close(); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}
	return bw.Flush()
}

func formatFloat(f float64) string { return strconv.FormatFloat(f, 'g', -1, 64) }

func joinInts(ids []int) string {
	var b strings.Builder
	for i, id := range ids {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(id))
	}
	return b.String()
}
