package authtab

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	ierrors "github.com/FocuswithJustin/ibycus/core/errors"
)

// corpusRecord builds one AUTHTAB.DIR corpus record. body is everything
// after the name; the closing delimiter is appended.
func corpusRecord(tag string, name []byte, body []byte) []byte {
	var b bytes.Buffer
	b.WriteString(tag)
	size := 8 + len(name) + len(body) + 1
	binary.Write(&b, binary.BigEndian, uint16(0))
	binary.Write(&b, binary.BigEndian, uint16(size))
	b.Write(name)
	b.Write(body)
	b.WriteByte(0xFF)
	return b.Bytes()
}

func lenName(s string) []byte {
	return append([]byte{byte(len(s))}, s...)
}

func entry(delim byte, s string) []byte {
	return append([]byte{delim}, s...)
}

func catalogue(records ...[]byte) []byte {
	var b bytes.Buffer
	for _, r := range records {
		b.Write(r)
	}
	b.WriteString("*END")
	return b.Bytes()
}

func TestSingleAuthorCorpus(t *testing.T) {
	data := catalogue(corpusRecord("TEST", lenName("Test Corpus"), entry(0xFF, "0000001 Test Author")))

	at, err := Read(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}

	n, err := at.CountTag("TEST")
	if err != nil || n != 1 {
		t.Fatalf("CountTag(TEST) = %d, %v; want 1", n, err)
	}
	name, err := at.AuthorName(0, 0)
	if err != nil || name != "Test Author" {
		t.Errorf("AuthorName(0, 0) = %q, %v", name, err)
	}
	id, _ := at.ID(0, 0)
	if id != "0000001" {
		t.Errorf("ID(0, 0) = %q", id)
	}
	if cn, _ := at.Name(0); cn != "Test Corpus" {
		t.Errorf("Name(0) = %q", cn)
	}
	if at.Count() != 1 {
		t.Errorf("Count() = %d", at.Count())
	}
}

func TestFullCorpus(t *testing.T) {
	var body bytes.Buffer
	body.Write(entry(0xFF, "TLG0001 Apollonius Rhodius"))
	body.Write(entry(0x80, "Apollonius"))
	body.Write(entry(0x80, ""))
	body.Write([]byte{0x83, 0x01})
	body.Write(entry(0x81, "Epic."))
	body.Write(entry(0x82, "ignored"))
	body.Write(entry(0xFF, "TLG0012 &1Homerus&"))
	body.Write(entry(0xFF, "TLG0026 Aelius &1Aristides&"))

	data := catalogue(
		corpusRecord("*TLG", []byte("Thesaurus Linguae Graecae"), body.Bytes()),
		corpusRecord("*LAT", lenName("Latin Texts"), entry(0xFF, "LAT0474 Cicero")),
	)

	at, err := Read(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if at.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", at.Count())
	}

	tlg, _ := at.Corpus(0)
	if tlg.Tag != "TLG" || tlg.Name != "Thesaurus Linguae Graecae" {
		t.Errorf("corpus 0 = %q %q", tlg.Tag, tlg.Name)
	}
	if len(tlg.Authors) != 3 {
		t.Fatalf("authors = %d, want 3", len(tlg.Authors))
	}

	apollonius := tlg.Authors[0]
	if apollonius.Alphabet != 0x01 || apollonius.Comment != "Epic." {
		t.Errorf("author 0 = %+v", apollonius)
	}
	if n, _ := at.AliasCount(0, 0); n != 1 {
		t.Errorf("AliasCount(0, 0) = %d, want 1", n)
	}
	if a, _ := at.Alias(0, 0, 0); a != "Apollonius" {
		t.Errorf("Alias(0, 0, 0) = %q", a)
	}

	names := []string{"Apollonius Rhodius", "Homerus", "Aristides, Aelius"}
	for i, want := range names {
		if got, _ := at.AuthorName(0, i); got != want {
			t.Errorf("AuthorName(0, %d) = %q, want %q", i, got, want)
		}
	}
	if tlg.Authors[2].RawName != "Aelius &1Aristides&" {
		t.Errorf("RawName = %q", tlg.Authors[2].RawName)
	}

	if i, err := at.Index("LAT"); err != nil || i != 1 {
		t.Errorf("Index(LAT) = %d, %v", i, err)
	}
	if tag, _ := at.Tag(1); tag != "LAT" {
		t.Errorf("Tag(1) = %q", tag)
	}
	if a, tag, ok := at.Lookup("lat0474"); !ok || tag != "LAT" || a.Name != "Cicero" {
		t.Errorf("Lookup(lat0474) = %+v %q %v", a, tag, ok)
	}
	if _, _, ok := at.Lookup("TLG9999"); ok {
		t.Error("Lookup(TLG9999) should fail")
	}
}

func TestCorpusNameLengthByte(t *testing.T) {
	ambiguous := "!" + string(bytes.Repeat([]byte{'x'}, 33))
	tests := []struct {
		name string
		raw  []byte
		want string
	}{
		{"length prefix", lenName("Latin Texts"), "Latin Texts"},
		{"plain string", []byte("Latin Texts"), "Latin Texts"},
		{"length byte disagrees", append([]byte{5}, "Abc"...), "\x05Abc"},
		{"length one too short", append([]byte{10}, "Latin Texts"...), "\nLatin Texts"},
		{"printable first byte equal to length", []byte(ambiguous), ambiguous[1:]},
		{"zero length", []byte{0}, ""},
		{"no name", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := catalogue(corpusRecord("*TST", tt.raw, entry(0xFF, "0000001 Test Author")))
			at, err := Read(bytes.NewReader(data))
			if err != nil {
				t.Fatalf("Read() error: %v", err)
			}
			if got, _ := at.Name(0); got != tt.want {
				t.Errorf("Name(0) = %q, want %q", got, tt.want)
			}
			if name, _ := at.AuthorName(0, 0); name != "Test Author" {
				t.Errorf("AuthorName(0, 0) = %q", name)
			}
		})
	}
}

func TestErrors(t *testing.T) {
	at, err := Read(bytes.NewReader(catalogue(corpusRecord("TEST", lenName("T"), entry(0xFF, "0000001 A")))))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := at.Index("PHI"); !errors.Is(err, ierrors.ErrNotFound) {
		t.Errorf("Index(PHI) error = %v, want ErrNotFound", err)
	}
	if _, err := at.CountTag("PHI"); !errors.Is(err, ierrors.ErrNotFound) {
		t.Errorf("CountTag(PHI) error = %v", err)
	}
	for name, err := range map[string]error{
		"corpus": func() error { _, err := at.Name(3); return err }(),
		"author": func() error { _, err := at.AuthorName(0, 1); return err }(),
		"alias":  func() error { _, err := at.Alias(0, 0, 0); return err }(),
	} {
		var re *ierrors.RangeError
		if !errors.As(err, &re) || re.Level != name {
			t.Errorf("%s lookup error = %v, want RangeError", name, err)
		}
	}

	bad := catalogue(corpusRecord("TEST", lenName("T"), append(entry(0xFF, "0000001 A"), 0x90, 'x')))
	_, err = Read(bytes.NewReader(bad))
	var pe *ierrors.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("unexpected delimiter error = %v, want ParseError", err)
	}
	if want := int64(4 + 2 + 2 + 2 + 1 + 9); pe.Offset != want {
		t.Errorf("Offset = %d, want %d", pe.Offset, want)
	}

	if _, err := Read(bytes.NewReader([]byte("TEST\x00"))); err == nil {
		t.Error("truncated header should fail")
	}
}

func TestEmptyCatalogue(t *testing.T) {
	for _, data := range [][]byte{nil, []byte("*END")} {
		at, err := Read(bytes.NewReader(data))
		if err != nil || at.Count() != 0 {
			t.Errorf("Read(%q) = %v, %v", data, at, err)
		}
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	data := catalogue(corpusRecord("TEST", lenName("Test"), entry(0xFF, "0000001 Test Author")))
	if err := os.WriteFile(filepath.Join(dir, "authtab.dir"), data, 0644); err != nil {
		t.Fatal(err)
	}

	at, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	if filepath.Base(at.Path) != "authtab.dir" {
		t.Errorf("Path = %s", at.Path)
	}
	if n, _ := at.CountTag("TEST"); n != 1 {
		t.Errorf("CountTag(TEST) = %d", n)
	}

	if _, err := Open(t.TempDir()); !errors.Is(err, ierrors.ErrNotFound) {
		t.Errorf("Open(empty dir) error = %v, want ErrNotFound", err)
	}
}

func TestAlphabetize(t *testing.T) {
	tests := map[string]string{
		"Homerus":                  "Homerus",
		"&1Homerus& Epic.":         "Homerus Epic.",
		"Aelius &1Aristides&":      "Aristides, Aelius",
		"Marcus Tullius &1Cicero&": "Cicero, Marcus Tullius",
		"Broken &1marker":          "Broken &1marker",
	}
	for in, want := range tests {
		if got := Alphabetize(in); got != want {
			t.Errorf("Alphabetize(%q) = %q, want %q", in, got, want)
		}
	}
}
