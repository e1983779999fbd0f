package xmldoc

import (
	"bytes"
	"compress/flate"
	"testing"
)

func TestSpliceYieldsPlaylistRoot(t *testing.T) {
	fragment := []byte("<next-change><change><ops><name>Mix</name></ops></change></next-change>")
	doc, err := Parse(Splice(fragment))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Root.Name != "playlist" {
		t.Fatalf("want root <playlist>, got <%s>", doc.Root.Name)
	}
}

func TestInflateRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.DefaultCompression)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	want := []byte("<tracks><track><id>aabbcc</id></track></tracks>")
	if _, err := w.Write(want); err != nil {
		t.Fatalf("Write: %v", err)
	}
	w.Close()

	got, err := Inflate(buf.Bytes())
	if err != nil {
		t.Fatalf("Inflate: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("want %q, got %q", want, got)
	}
}

func TestFindDottedPath(t *testing.T) {
	xmlDoc := []byte(`<playlist><next-change><change><ops><add><items>aa,bb</items></add></ops></change></next-change></playlist>`)
	doc, err := Parse(xmlDoc)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	node, ok := doc.Find("next-change/change/ops/add/items")
	if !ok {
		t.Fatal("want to find items node")
	}
	if node.Text != "aa,bb" {
		t.Fatalf("want text %q, got %q", "aa,bb", node.Text)
	}

	if _, ok := doc.Find("next-change/nonexistent"); ok {
		t.Fatal("want no match for a missing path")
	}
}

func TestFindAllRepeatedElements(t *testing.T) {
	xmlDoc := []byte(`<tracks><track><id>1</id></track><track><id>2</id></track></tracks>`)
	doc, err := Parse(xmlDoc)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	tracks := doc.FindAll("track")
	if len(tracks) != 2 {
		t.Fatalf("want 2 tracks, got %d", len(tracks))
	}
}

// TestParseHashKeyListEmptyBoundary checks the spec.md §8 boundary: a payload
// with no add/items yields zero ids and no error.
func TestParseHashKeyListEmptyBoundary(t *testing.T) {
	ids, err := ParseHashKeyList("")
	if err != nil {
		t.Fatalf("ParseHashKeyList: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("want 0 ids, got %d", len(ids))
	}
}

func TestParseHashKeyListCommaAndNewline(t *testing.T) {
	a := "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa" // 34 hex chars (17 bytes)
	b := "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	ids, err := ParseHashKeyList(a + ",\n" + b)
	if err != nil {
		t.Fatalf("ParseHashKeyList: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("want 2 ids, got %d", len(ids))
	}
}

func TestParseVersionTupleAcceptsTrailingGarbage(t *testing.T) {
	vt, err := ParseVersionTuple("0000000003,0000000002,0000001234,0,extra,garbage")
	if err != nil {
		t.Fatalf("ParseVersionTuple: %v", err)
	}
	if vt.Revision != 3 || vt.Items != 2 || vt.Checksum != 1234 {
		t.Fatalf("unexpected parse: %+v", vt)
	}
}

func TestParseVersionTupleRejectsFewerThanThreeFields(t *testing.T) {
	if _, err := ParseVersionTuple("1,2"); err == nil {
		t.Fatal("want error for fewer than 3 fields")
	}
}

func TestParseVersionTupleChecksumHex(t *testing.T) {
	vt, err := ParseVersionTuple("0000000007,0000000002,0000000ABC,1")
	if err == nil {
		// ABC is not valid decimal; this tuple is malformed per the decimal
		// grammar, so an error is expected here.
		t.Fatalf("want decimal-parse error for hex checksum field, got %+v", vt)
	}
}
