package citation

import (
	"bytes"
	"errors"
	"testing"

	"github.com/FocuswithJustin/ibycus/core/cursor"
	ierrors "github.com/FocuswithJustin/ibycus/core/errors"
)

func TestRead(t *testing.T) {
	tests := []struct {
		name     string
		prev     string
		data     []byte
		want     string
		flag     Flag
		consumed int64
	}{
		{"author work line", "", []byte{0xE1, 0x80, 0xE2, 0x81, 0x85, 'H'}, "a:1.b:2.z:5", NoFlag, 5},
		{"increment finest", "a:1.b:2.z:5", []byte{0x80, 'x'}, "a:1.b:2.z:6", NoFlag, 1},
		{"mid level resets finer", "a:1.b:2.y:3.z:6", []byte{0x94, 'x'}, "a:1.b:2.y:4.z:1", NoFlag, 1},
		{"work resets sections", "a:1.b:2.z:6", []byte{0xE3, 0x81, 'x'}, "a:1.b:3", NoFlag, 2},
		{"no citation bytes", "a:1.b:2.z:6", []byte{'x'}, "a:1.b:2.z:6", NoFlag, 0},
		{"end of block", "a:1.b:2.z:6", []byte{0xFE, 0x00}, "a:1.b:2.z:6", EndOfBlock, 1},
		{"end of file", "a:1.z:6", []byte{0xF0}, "a:1.z:6", EndOfFile, 1},
		{"exception start", "a:1.z:6", []byte{0x87, 0xF8, 0x81}, "a:1.z:7", ExceptionStart, 2},
		{"exception end", "a:1.z:6", []byte{0xF9}, "a:1.z:6", ExceptionEnd, 1},
		{"end of input", "a:1.z:6", nil, "a:1.z:6", EndOfFile, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var prev Citation
			if tt.prev != "" {
				prev = MustParse(tt.prev)
			}
			c := cursor.NewBytes(tt.data)
			got, err := Read(c, prev)
			if err != nil {
				t.Fatalf("Read() error: %v", err)
			}
			if want := MustParse(tt.want); Compare(got, want) != 0 {
				t.Errorf("Read() = %s, want %s", got, want)
			}
			if got.Flag() != tt.flag {
				t.Errorf("Flag() = %v, want %v", got.Flag(), tt.flag)
			}
			if c.Tell() != tt.consumed {
				t.Errorf("consumed %d bytes, want %d", c.Tell(), tt.consumed)
			}
		})
	}
}

func TestReadDescriptions(t *testing.T) {
	data := []byte{
		0xEF, 0x82, 'I' | 0x80, 'l' | 0x80, 0xFF, // work description
		0xEF, 0x83, 'H' | 0x80, 'o' | 0x80, 0xFF, // author description
		0xE8, 'e' | 0x80, 0x8A, // descriptor e = 10
		0xE1, 0x80, // a = 1
		'T',
	}
	c := cursor.NewBytes(data)
	got, err := Read(c, Citation{})
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if got.WorkDesc().String() != "Il" || got.AuthorDesc().String() != "Ho" {
		t.Errorf("descriptions = %q, %q", got.AuthorDesc(), got.WorkDesc())
	}
	if d, ok := got.Descriptor('e'); !ok || d != Num(10) {
		t.Errorf("Descriptor(e) = %v, %v", d, ok)
	}
	if got.String() != "1" || got.Len() != 1 {
		t.Errorf("levels = %s", got)
	}
	if _, ok := got.Get('c'); ok {
		t.Error("level c must not be stored in the ordered levels")
	}

	next, err := Read(cursor.NewBytes([]byte{0x81, 'x'}), got)
	if err != nil {
		t.Fatal(err)
	}
	if next.WorkDesc() != got.WorkDesc() {
		t.Error("descriptions should carry over to the next citation")
	}
	if _, ok := next.Descriptor('e'); ok {
		t.Error("descriptors should not carry over")
	}
}

func TestReadDescriptionsStartBlank(t *testing.T) {
	prev, err := Read(cursor.NewBytes([]byte{
		0xEF, 0x82, 'I' | 0x80, 'l' | 0x80, 0xFF,
		0xE8, 0x83, 0x85, // d = 5
		0x81,
	}), Citation{})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		data     []byte
		workDesc Value
		authDesc Value
	}{
		{"increment c", []byte{0xE0, 0x82}, Num(1), Num(5)},
		{"increment d", []byte{0xE0, 0x83}, Value{ASCII: "Il"}, Num(1)},
		{"new char on d", []byte{0xEE, 0x83, 'b' | 0x80}, Value{ASCII: "Il"}, Value{ASCII: "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(cursor.NewBytes(tt.data), prev)
			if err != nil {
				t.Fatalf("Read() error: %v", err)
			}
			if got.WorkDesc() != tt.workDesc || got.AuthorDesc() != tt.authDesc {
				t.Errorf("descriptions = %+v, %+v; want %+v, %+v",
					got.WorkDesc(), got.AuthorDesc(), tt.workDesc, tt.authDesc)
			}

			b, err := Encode(got, prev)
			if err != nil {
				t.Fatalf("Encode() error: %v", err)
			}
			again, err := Read(cursor.NewBytes(b), prev)
			if err != nil {
				t.Fatalf("Read(Encode()) error: %v", err)
			}
			if again.WorkDesc() != got.WorkDesc() || again.AuthorDesc() != got.AuthorDesc() {
				t.Errorf("Encode() = % x does not reproduce the descriptions", b)
			}
		})
	}
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"unknown control code", []byte{0xF3}},
		{"bad escape level", []byte{0xE1, 0x85}},
		{"truncated escape", []byte{0xE1}},
		{"truncated value", []byte{0x8B, 0x81}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(cursor.NewBytes(tt.data), Citation{})
			var pe *ierrors.ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("Read() error = %v, want *ParseError", err)
			}
			if pe.Offset < 0 {
				t.Errorf("Offset = %d", pe.Offset)
			}
		})
	}
}

func TestSetCascade(t *testing.T) {
	var c Citation
	steps := []struct {
		key  byte
		val  Value
		want string
	}{
		{'a', Num(1), "1"},
		{'b', Num(1), "1.1"},
		{'v', Num(2), "1.1.2.1.1.1.1"},
		{'x', Num(5), "1.1.2.1.5.1.1"},
		{'z', Num(9), "1.1.2.1.5.1.9"},
		{'n', Num(4), "1.1.4"},
		{'b', Num(3), "1.3"},
		{'a', Num(2), "2"},
	}
	for _, s := range steps {
		if err := c.Set(s.key, s.val); err != nil {
			t.Fatalf("Set(%c) error: %v", s.key, err)
		}
		if c.String() != s.want {
			t.Errorf("after Set(%c, %v): %s, want %s", s.key, s.val, c, s.want)
		}
	}

	for _, key := range []byte{'e', 'm', 'q', 'u', 'A', 0} {
		var ve *ierrors.ValidationError
		if err := c.Set(key, Num(1)); !errors.As(err, &ve) {
			t.Errorf("Set(%q) = %v, want *ValidationError", key, err)
		}
	}
}

func TestCitationIsValue(t *testing.T) {
	a := MustParse("1.1.5")
	b := a
	if err := b.Set('z', Num(6)); err != nil {
		t.Fatal(err)
	}
	if a.String() != "1.1.5" {
		t.Errorf("mutating a copy changed its source: %s", a)
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		values []Value
		want   string
	}{
		{[]Value{Num(5)}, "z:5"},
		{[]Value{Num(3), Num(7)}, "y:3.z:7"},
		{[]Value{Num(1), Num(2), Num(3), Num(4), Num(5)}, "v:1.w:2.x:3.y:4.z:5"},
		{[]Value{Num(3), {}}, "z:3"},
	}
	for _, tt := range tests {
		got := New(tt.values...)
		if want := MustParse(tt.want); Compare(got, want) != 0 {
			t.Errorf("New(%v) = %s, want %s", tt.values, got, want)
		}
	}

	work := MustParse("12.1")
	if got := work.WithSections(Num(2), Num(40)); got.String() != "12.1.2.40" {
		t.Errorf("WithSections() = %s", got)
	}
}

func TestCompare(t *testing.T) {
	ordered := []string{
		"a:1.b:1.z:t",
		"a:1.b:1.z:1",
		"a:1.b:1.z:1a",
		"a:1.b:1.z:2",
		"a:1.b:2",
		"a:1.b:2.y:1.z:1",
		"a:2",
	}
	for i := 0; i+1 < len(ordered); i++ {
		a, b := MustParse(ordered[i]), MustParse(ordered[i+1])
		if !a.Less(b) || b.Less(a) {
			t.Errorf("expected %s < %s", ordered[i], ordered[i+1])
		}
	}

	x := MustParse("a:1.b:1.z:3")
	if !x.Equal(MustParse("a:1.b:1.z:3")) {
		t.Error("identical citations should be Equal")
	}
	y, _ := Read(cursor.NewBytes([]byte{0xFE}), x)
	if x.Equal(y) {
		t.Error("Equal must compare the flag")
	}
	if Compare(x, y) != 0 {
		t.Error("Compare ignores the flag")
	}
	if !MustParse("1.1.t").IsTitle() || MustParse("1.1.1").IsTitle() {
		t.Error("IsTitle mismatch")
	}
}

func TestSameAs(t *testing.T) {
	tests := []struct {
		recv, other string
		depth       Depth
		want        bool
	}{
		{"a:1.b:2.z:5", "a:1.b:2.z:1", DepthWork, true},
		{"a:1.b:2.z:5", "a:1.b:3.z:5", DepthWork, false},
		{"a:1.b:2.z:5", "a:1.b:3", DepthAuthor, true},
		{"a:1.b:2.y:3.z:5", "a:1.b:2.y:3.z:1", DepthSection, true},
		{"a:1.b:2.y:3.z:5", "a:1.b:2.y:4.z:5", DepthSection, false},
		{"a:1.b:2", "a:1", DepthWork, false},
		{"a:1.b:2", "a:1.b:2.z:8", DepthSection, true},
	}
	for _, tt := range tests {
		got := MustParse(tt.recv).SameAs(MustParse(tt.other), tt.depth)
		if got != tt.want {
			t.Errorf("%s.SameAs(%s, %d) = %v, want %v", tt.recv, tt.other, tt.depth, got, tt.want)
		}
	}
}

func TestID(t *testing.T) {
	c := MustParse("12.1.3.5a")
	if got, err := c.ID('z'); err != nil || got != "5a" {
		t.Errorf("ID(z) = %q, %v", got, err)
	}
	if _, err := c.ID('w'); !errors.Is(err, ierrors.ErrNotFound) {
		t.Errorf("ID(w) error = %v, want ErrNotFound", err)
	}
}

func TestFormat(t *testing.T) {
	c := MustParse("a:1.b:2.y:3.z:4")
	_ = c.Set('d', Value{ASCII: "Homer"})
	_ = c.Set('c', Value{ASCII: "Iliad"})
	prev := MustParse("a:1.b:2.y:3.z:3")

	tests := []struct {
		name string
		opts FormatOptions
		prev *Citation
		want string
	}{
		{"author numbers", FormatOptions{Numbers: true, Scope: ScopeAuthor}, nil, "1.2.3.4"},
		{"author names", FormatOptions{Scope: ScopeAuthor}, nil, "Homer.Iliad.3.4"},
		{"work names", FormatOptions{Scope: ScopeWork}, nil, "Iliad.3.4"},
		{"work numbers", FormatOptions{Numbers: true, Scope: ScopeWork}, nil, "2.3.4"},
		{"default", FormatOptions{}, nil, "3.4"},
		{"section", FormatOptions{Scope: ScopeSection}, nil, "3.4"},
		{"diff", FormatOptions{Numbers: true, Diff: true, Scope: ScopeAuthor}, &prev, "4"},
		{"diff without prev", FormatOptions{Numbers: true, Diff: true, Scope: ScopeAuthor}, nil, "1.2.3.4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Format(tt.opts, tt.prev); got != tt.want {
				t.Errorf("Format() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	stream := []Citation{
		MustParse("a:1.b:1.z:t"),
		MustParse("a:1.b:1.y:1.z:1"),
		MustParse("a:1.b:1.y:1.z:2"),
		MustParse("a:1.b:1.y:1.z:2a"),
		MustParse("a:1.b:1.y:2.z:1"),
		MustParse("a:1.b:1.z:400"),
		MustParse("a:1.b:2"),
		MustParse("a:1.b:2.n:7"),
		MustParse("a:1.b:2.n:8"),
		Marker(EndOfBlock),
	}
	desc := MustParse("a:2.b:1.z:1")
	desc.SetDescriptor('e', Num(3))
	_ = desc.Set('c', Value{ASCII: "Odyssey"})
	stream = append(stream, desc)

	var buf bytes.Buffer
	var prev Citation
	for i, c := range stream {
		b, err := Encode(c, prev)
		if err != nil {
			t.Fatalf("Encode(%d: %s) error: %v", i, c, err)
		}
		buf.Write(b)
		buf.WriteString("text")
		if c.Flag() == NoFlag {
			prev = c
		} else {
			prev = Citation{}
		}
	}

	cur := cursor.NewBytes(buf.Bytes())
	prev = Citation{}
	for i, want := range stream {
		got, err := Read(cur, prev)
		if err != nil {
			t.Fatalf("Read(%d) error: %v", i, err)
		}
		if got.Flag() != want.Flag() {
			t.Fatalf("record %d flag = %v, want %v", i, got.Flag(), want.Flag())
		}
		if want.Flag() == NoFlag && !got.Equal(want) {
			t.Errorf("record %d = %s, want %s", i, got, want)
		}
		text, _ := cur.ReadHighBitString()
		if text != "text" {
			t.Fatalf("record %d text = %q", i, text)
		}
		if got.Flag() == NoFlag {
			prev = got
		} else {
			prev = Citation{}
		}
	}
	if d, ok := prev.Descriptor('e'); !ok || d != Num(3) || prev.WorkDesc().ASCII != "Odyssey" {
		t.Errorf("descriptor or description lost: %v %v", d, prev.WorkDesc())
	}
}
