package testcorpus

import (
	"bytes"
	"testing"

	"github.com/FocuswithJustin/ibycus/core/authtab"
)

func TestAuthTabDecodes(t *testing.T) {
	tests := []struct {
		name    string
		corpora []Corpus
		tags    []string
	}{
		{name: "sample catalogue", corpora: HomerCatalogue(), tags: []string{"TLG"}},
		{name: "tag without star", corpora: []Corpus{
			{Tag: "LAT", Name: "Latin", Authors: []CatalogueAuthor{{ID: "LAT0474", Name: "Cicero"}}},
			{Tag: "*CIV", Name: "Civil", Authors: []CatalogueAuthor{{ID: "CIV0001", Name: "Gaius"}}},
		}, tags: []string{"LAT", "CIV"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			at, err := authtab.Read(bytes.NewReader(AuthTab(tt.corpora...)))
			if err != nil {
				t.Fatalf("authtab.Read() error = %v", err)
			}
			if at.Count() != len(tt.tags) {
				t.Fatalf("Count() = %d, want %d", at.Count(), len(tt.tags))
			}
			for i, want := range tt.tags {
				c, err := at.Corpus(i)
				if err != nil {
					t.Fatal(err)
				}
				if c.Tag != want || c.Name != tt.corpora[i].Name || len(c.Authors) != len(tt.corpora[i].Authors) {
					t.Errorf("corpus %d = %q %q with %d authors", i, c.Tag, c.Name, len(c.Authors))
				}
			}
		})
	}
}

func TestSampleCatalogueAuthors(t *testing.T) {
	at, err := authtab.Read(bytes.NewReader(Files(t)["AUTHTAB.DIR"]))
	if err != nil {
		t.Fatalf("authtab.Read() error = %v", err)
	}
	a, tag, ok := at.Lookup(HomerID)
	if !ok || tag != "TLG" || a.Name != "Homerus" || a.Comment != "Epic." {
		t.Errorf("Lookup(%s) = %+v, %q, %v", HomerID, a, tag, ok)
	}
	if len(a.Aliases) != 1 || a.Aliases[0] != "Homer" {
		t.Errorf("Aliases = %v", a.Aliases)
	}
}

func TestAuthTabRejectsLongTag(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("AuthTab should panic on a tag longer than 4 bytes")
		}
	}()
	AuthTab(Corpus{Tag: "*TLGX", Name: "x"})
}
