// Package hqp implements the DSP Protocol Client (spec.md §4.5, C5): a
// TCP client speaking the newline-delimited XML request/response
// protocol exposed by the DSP controller on port 4321, plus its UDP
// multicast discovery channel. This is the hardest single adapter in
// the bridge — INDEX vs VALUE semantics, multi-item list collection,
// and State/Status reconciliation all live here so every other package
// can deal in domain names instead of wire indices.
package hqp

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// element is a generic XML node used to decode every response shape
// the protocol produces (bare attribute-only commands like State, and
// list commands whose children are repeated *Item elements) without a
// dedicated Go struct per command.
type element struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Children []element  `xml:",any"`
}

func (e *element) attr(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

func (e *element) attrString(name, def string) string {
	if v, ok := e.attr(name); ok {
		return v
	}
	return def
}

func (e *element) attrInt(name string) (int, bool) {
	v, ok := e.attr(name)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (e *element) attrIntOr(name string, def int) int {
	if n, ok := e.attrInt(name); ok {
		return n
	}
	return def
}

func (e *element) attrFloat(name string) (float64, bool) {
	v, ok := e.attr(name)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func (e *element) attrFloatOr(name string, def float64) float64 {
	if f, ok := e.attrFloat(name); ok {
		return f
	}
	return def
}

func (e *element) attrBool(name string) bool {
	v, _ := e.attr(name)
	return v == "1" || v == "true"
}

func (e *element) childrenNamed(local string) []element {
	var out []element
	for _, c := range e.Children {
		if c.XMLName.Local == local {
			out = append(out, c)
		}
	}
	return out
}

// attrPair is one wire-request attribute; kept as an ordered slice
// (not a map) so requests are built with a stable, readable attribute
// order matching spec.md §4.5.2's command table.
type attrPair struct {
	Name  string
	Value string
}

func attrInt(name string, v int) attrPair {
	return attrPair{Name: name, Value: strconv.Itoa(v)}
}

func attrStr(name, v string) attrPair {
	return attrPair{Name: name, Value: v}
}

// buildCommand renders "<?xml version=\"1.0\"?><Name a=\"v\" .../>\n",
// XML-escaping every attribute value per spec.md §4.5.2.
func buildCommand(name string, attrs ...attrPair) []byte {
	var b bytes.Buffer
	b.WriteString(`<?xml version="1.0"?><`)
	b.WriteString(name)
	for _, a := range attrs {
		b.WriteByte(' ')
		b.WriteString(a.Name)
		b.WriteString(`="`)
		_ = xml.EscapeText(&b, []byte(a.Value))
		b.WriteByte('"')
	}
	b.WriteString("/>\n")
	return b.Bytes()
}

// readDocument reads and parses the next complete top-level XML
// element from r, accumulating as many newline-terminated lines as
// necessary. This handles both response shapes in spec.md §4.5.2
// uniformly: a single-line self-closed command (State, Status, an
// item) and a multi-line list response (an opening element, N item
// children, a closing tag) are both just "accumulate until
// xml.Unmarshal succeeds on one root element" — newlines inside are
// insignificant XML whitespace either way.
//
// A line that can never complete into valid XML (a genuine syntax
// error, not simply a not-yet-closed element) is logged by the caller
// and discarded; reading resumes on a clean buffer, per spec.md
// §4.5.7's "malformed XML on a line: logged at error level, line
// discarded, connection retained".
func readDocument(r *bufio.Reader, onMalformed func(line string, err error)) (*element, error) {
	var buf bytes.Buffer
	for {
		line, err := r.ReadString('\n')
		if line != "" {
			buf.WriteString(line)
		}
		if err != nil {
			if buf.Len() > 0 {
				// Partial line at EOF/close: nothing more is coming for it.
				return nil, fmt.Errorf("hqp: connection closed mid-document: %w", err)
			}
			return nil, err
		}

		var el element
		uerr := xml.Unmarshal(buf.Bytes(), &el)
		if uerr == nil {
			return &el, nil
		}
		if isIncompleteDocument(uerr) {
			// Need more lines before this parses; keep accumulating.
			continue
		}
		// Genuine syntax error: this line (or run of lines) is noise.
		// Log it and start over rather than tearing down the connection.
		if onMalformed != nil {
			onMalformed(buf.String(), uerr)
		}
		buf.Reset()
	}
}

// isIncompleteDocument reports whether err is the shape xml.Unmarshal
// returns for a document that is well-formed so far but not yet
// closed (e.g. "<GetFilters>" with its children still to arrive),
// versus an error indicating the bytes read so far can never become
// valid XML.
func isIncompleteDocument(err error) bool {
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var se *xml.SyntaxError
	if errors.As(err, &se) {
		return strings.Contains(se.Error(), "unexpected EOF")
	}
	return false
}
