// Package xmldoc implements the two out-of-scope pure-function
// collaborators spec.md §6 names — inflate(bytes) -> bytes and
// parse_xml(bytes) -> tree — plus the small set of format parsers the
// playlist/browse orchestration layer builds on top of them: the
// comma/newline hex id list and the four-field version tuple
// (spec.md §4.H, §8).
package xmldoc

import (
	"bytes"
	"compress/flate"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/qfwfq/corespot/internal/ident"
)

// XMLDecl is the declaration the client prepends before splicing a
// root-less server fragment into a well-formed document.
const XMLDecl = `<?xml version="1.0" encoding="UTF-8"?>`

// Splice wraps a root-less fragment in decl + "<playlist>" ... "</playlist>",
// matching the buffer the container/playlist callbacks accumulate
// (spec.md §4.H: "the service returns a root-less fragment; the client
// splices it into a well-formed document").
func Splice(fragment []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString(XMLDecl)
	buf.WriteString("<playlist>")
	buf.Write(fragment)
	buf.WriteString("</playlist>")
	return buf.Bytes()
}

// Inflate decompresses a raw-DEFLATE buffer (spec.md §6: "Browse payloads
// are raw DEFLATE").
func Inflate(data []byte) ([]byte, error) {
	r := flate.NewReader(bytes.NewReader(data))
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("xmldoc: inflate: %w", err)
	}
	return out, nil
}

// Node is one element of a parsed document, generic enough to express the
// service's schema without a struct per element kind.
type Node struct {
	Name     string
	Attrs    map[string]string
	Text     string
	Children []*Node
}

// Doc is a parsed XML document.
type Doc struct {
	Root *Node
}

// Parse builds a Doc from an XML byte slice.
func Parse(data []byte) (*Doc, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	root, err := parseElement(dec)
	if err != nil {
		return nil, fmt.Errorf("xmldoc: parse: %w", err)
	}
	return &Doc{Root: root}, nil
}

// parseElement reads tokens until it has consumed one complete element
// (the StartElement already read by the caller, or the document's first
// element if called at the top).
func parseElement(dec *xml.Decoder) (*Node, error) {
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		if se, ok := tok.(xml.StartElement); ok {
			return readElement(dec, se)
		}
	}
}

func readElement(dec *xml.Decoder, start xml.StartElement) (*Node, error) {
	n := &Node{Name: start.Name.Local, Attrs: make(map[string]string)}
	for _, a := range start.Attr {
		n.Attrs[a.Name.Local] = a.Value
	}
	var text strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			child, err := readElement(dec, t)
			if err != nil {
				return nil, err
			}
			n.Children = append(n.Children, child)
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			n.Text = text.String()
			return n, nil
		}
	}
}

// Find walks a "/"-separated dotted path from n, returning the first
// matching descendant at each level. It reports false if any segment has
// no match.
func (n *Node) Find(path string) (*Node, bool) {
	cur := n
	for _, seg := range strings.Split(path, "/") {
		if seg == "" {
			continue
		}
		next := cur.child(seg)
		if next == nil {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// FindAll walks a "/"-separated path up to its last segment, then returns
// every child matching the final segment name (used for repeated
// elements, e.g. a list of <track> nodes).
func (n *Node) FindAll(path string) []*Node {
	segs := strings.Split(path, "/")
	if len(segs) == 0 {
		return nil
	}
	cur := n
	for _, seg := range segs[:len(segs)-1] {
		if seg == "" {
			continue
		}
		next := cur.child(seg)
		if next == nil {
			return nil
		}
		cur = next
	}
	last := segs[len(segs)-1]
	var out []*Node
	for _, c := range cur.Children {
		if c.Name == last {
			out = append(out, c)
		}
	}
	return out
}

func (n *Node) child(name string) *Node {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Find is Doc's convenience forwarder to Root.Find. path is relative to
// the document root's children, e.g. "next-change/change/ops/add/items".
func (d *Doc) Find(path string) (*Node, bool) {
	if d.Root == nil {
		return nil, false
	}
	return d.Root.Find(path)
}

// FindAll is Doc's convenience forwarder to Root.FindAll.
func (d *Doc) FindAll(path string) []*Node {
	if d.Root == nil {
		return nil
	}
	return d.Root.FindAll(path)
}

// ParseHashKeyList parses a comma-or-newline separated list of
// 34-hex-character ids (spec.md §5 "XML fragment grammar (inbound)").
// Blank entries (from a trailing separator) are skipped.
func ParseHashKeyList(s string) ([]ident.HashKey, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == '\n' || r == '\r'
	})
	out := make([]ident.HashKey, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		k, err := ident.ParseHashKey(f)
		if err != nil {
			return nil, fmt.Errorf("xmldoc: parse id list: %w", err)
		}
		out = append(out, k)
	}
	return out, nil
}

// VersionTuple is the parsed "revision,items,checksum,flag" quadruple.
type VersionTuple struct {
	Revision int
	Items    int
	Checksum uint32
	Flag     int
}

// ParseVersionTuple parses the four zero-padded decimal fields of a
// next-change/version or confirm/version node, e.g.
// "0000000003,0000000002,0000001234,0". Trailing fields beyond the
// fourth are accepted and ignored; fewer than three fields rejects the
// whole update (spec.md §8 boundary).
func ParseVersionTuple(s string) (VersionTuple, error) {
	fields := strings.Split(strings.TrimSpace(s), ",")
	if len(fields) < 3 {
		return VersionTuple{}, fmt.Errorf("xmldoc: version tuple needs at least 3 fields, got %d", len(fields))
	}
	revision, err := strconv.Atoi(strings.TrimSpace(fields[0]))
	if err != nil {
		return VersionTuple{}, fmt.Errorf("xmldoc: parse revision: %w", err)
	}
	items, err := strconv.Atoi(strings.TrimSpace(fields[1]))
	if err != nil {
		return VersionTuple{}, fmt.Errorf("xmldoc: parse item count: %w", err)
	}
	checksum, err := strconv.ParseUint(strings.TrimSpace(fields[2]), 10, 32)
	if err != nil {
		return VersionTuple{}, fmt.Errorf("xmldoc: parse checksum: %w", err)
	}
	vt := VersionTuple{Revision: revision, Items: items, Checksum: uint32(checksum)}
	if len(fields) >= 4 {
		if flag, err := strconv.Atoi(strings.TrimSpace(fields[3])); err == nil {
			vt.Flag = flag
		}
	}
	return vt, nil
}
