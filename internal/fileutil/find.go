// Package fileutil locates corpus files on discs whose file names may be
// upper or lower case.
package fileutil

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/FocuswithJustin/ibycus/core/errors"
)

// Find returns the path of name inside dir, matching case-insensitively
// when the exact name does not exist.
func Find(dir, name string) (string, error) {
	exact := filepath.Join(dir, name)
	if _, err := os.Stat(exact); err == nil {
		return exact, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", errors.NewIO("read directory", dir, err)
	}
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(e.Name(), name) {
			return filepath.Join(dir, e.Name()), nil
		}
	}
	return "", errors.NewNotFound("file", exact)
}

// Pair is a text file and its index.
type Pair struct {
	ID  string // upper-case base name, e.g. TLG0012
	TXT string
	IDT string
}

// Texts lists the base names in dir that have both a .TXT and an .IDT file.
func Texts(dir string) ([]Pair, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.NewIO("read directory", dir, err)
	}
	return PairNames(names(entries), func(n string) string { return filepath.Join(dir, n) }), nil
}

func names(entries []os.DirEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			out = append(out, e.Name())
		}
	}
	return out
}

// PairNames groups file names into text/index pairs, sorted by ID. join
// turns a member name into the path stored in the Pair.
func PairNames(files []string, join func(string) string) []Pair {
	byID := make(map[string]*Pair)
	var order []string
	for _, n := range files {
		ext := strings.ToUpper(filepath.Ext(n))
		if ext != ".TXT" && ext != ".IDT" {
			continue
		}
		id := strings.ToUpper(strings.TrimSuffix(filepath.Base(n), filepath.Ext(n)))
		p, ok := byID[id]
		if !ok {
			p = &Pair{ID: id}
			byID[id] = p
			order = append(order, id)
		}
		if ext == ".TXT" {
			p.TXT = join(n)
		} else {
			p.IDT = join(n)
		}
	}

	slices.Sort(order)
	out := make([]Pair, 0, len(order))
	for _, id := range order {
		if p := byID[id]; p.TXT != "" && p.IDT != "" {
			out = append(out, *p)
		}
	}
	return out
}
