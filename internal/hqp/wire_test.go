package hqp

import (
	"bufio"
	"strings"
	"testing"
)

func TestBuildCommandEscapesAttributes(t *testing.T) {
	got := string(buildCommand("SetFilter", attrStr("value", `19`), attrStr("note", `a "quoted" & <tag>`)))
	want := `<?xml version="1.0"?><SetFilter value="19" note="a &#34;quoted&#34; &amp; &lt;tag&gt;"/>` + "\n"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestReadDocumentSingleLine(t *testing.T) {
	r := bufio.NewReader(strings.NewReader(`<State state="2" mode_idx="0"/>` + "\n"))
	el, err := readDocument(r, nil)
	if err != nil {
		t.Fatalf("readDocument: %v", err)
	}
	if el.XMLName.Local != "State" {
		t.Fatalf("got root %q", el.XMLName.Local)
	}
	if v, _ := el.attrInt("state"); v != 2 {
		t.Fatalf("state=%d, want 2", v)
	}
}

func TestReadDocumentMultiLineList(t *testing.T) {
	stream := `<GetFilters>
<FiltersItem index="0" value="0" name="none"/>
<FiltersItem index="1" value="1" name="IIR"/>
<FiltersItem index="2" value="57" name="IIR2"/>
</GetFilters>
`
	r := bufio.NewReader(strings.NewReader(stream))
	el, err := readDocument(r, nil)
	if err != nil {
		t.Fatalf("readDocument: %v", err)
	}
	items := parseListItems(el, "FiltersItem")
	if len(items) != 3 {
		t.Fatalf("got %d items, want 3", len(items))
	}
	if items[2].Index != 2 || items[2].Value != 57 || items[2].Name != "IIR2" {
		t.Fatalf("item[2] = %+v", items[2])
	}
}

func TestReadDocumentDiscardsMalformedLine(t *testing.T) {
	stream := "not xml at all\n" + `<State state="1"/>` + "\n"
	r := bufio.NewReader(strings.NewReader(stream))

	var discarded []string
	el, err := readDocument(r, func(line string, err error) {
		discarded = append(discarded, line)
	})
	if err != nil {
		t.Fatalf("readDocument: %v", err)
	}
	if len(discarded) != 1 {
		t.Fatalf("expected exactly one discarded line, got %d: %v", len(discarded), discarded)
	}
	if el.XMLName.Local != "State" {
		t.Fatalf("expected to recover and parse State, got %q", el.XMLName.Local)
	}
}

func TestReadDocumentStreamingThirtyItems(t *testing.T) {
	var b strings.Builder
	b.WriteString("<GetFilters>\n")
	for i := 0; i < 30; i++ {
		b.WriteString(`<FiltersItem index="0" value="0" name="x"/>` + "\n")
	}
	b.WriteString("</GetFilters>\n")

	r := bufio.NewReader(strings.NewReader(b.String()))
	el, err := readDocument(r, nil)
	if err != nil {
		t.Fatalf("readDocument: %v", err)
	}
	items := parseListItems(el, "FiltersItem")
	if len(items) != 30 {
		t.Fatalf("got %d items, want 30", len(items))
	}
}
