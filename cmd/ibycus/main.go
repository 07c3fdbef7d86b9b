// Command ibycus reads PHI and TLG corpus volumes.
// It lists catalogues and indexes, prints passages and exports texts to SQLite.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/disiqueira/gotree/v3"
	"golang.org/x/term"

	"github.com/FocuswithJustin/ibycus/core/citation"
	"github.com/FocuswithJustin/ibycus/core/corpus"
	"github.com/FocuswithJustin/ibycus/core/errors"
	"github.com/FocuswithJustin/ibycus/core/idt"
	"github.com/FocuswithJustin/ibycus/core/sqlite"
	"github.com/FocuswithJustin/ibycus/core/txt"
	"github.com/FocuswithJustin/ibycus/internal/config"
	"github.com/FocuswithJustin/ibycus/internal/export"
	"github.com/FocuswithJustin/ibycus/internal/logging"
)

const version = "0.1.0"

// CLI defines the command-line interface for ibycus.
var CLI struct {
	// Global flags
	Corpus    string `name:"corpus" short:"C" help:"Corpus volume directory or archive" type:"path"`
	Config    string `name:"config" short:"c" help:"Config file (default: ibycus.yaml)" type:"path"`
	LogLevel  string `name:"log-level" help:"Log level (debug, info, warn, error)"`
	LogFormat string `name:"log-format" help:"Log format (text, json)"`

	Catalogue   CatalogueCmd   `cmd:"" help:"List corpora and authors from AUTHTAB.DIR"`
	Texts       TextsCmd       `cmd:"" help:"List the texts in the volume"`
	Index       IndexCmd       `cmd:"" help:"Print the author, work and section tree of a text"`
	Read        ReadCmd        `cmd:"" help:"Print a section of a text"`
	Goto        GotoCmd        `cmd:"" help:"Print a text from a citation to the end of its section"`
	Fingerprint FingerprintCmd `cmd:"" help:"Hash the text and index files"`
	Export      ExportCmd      `cmd:"" help:"Export texts to a SQLite database"`
	Version     VersionCmd     `cmd:"" help:"Print version information"`
}

var (
	// cfg is the configuration after flags are applied.
	cfg = config.Default()

	stdout io.Writer = os.Stdout
)

// CatalogueCmd lists AUTHTAB.DIR.
type CatalogueCmd struct {
	Tag     string `name:"tag" short:"t" help:"Only list this corpus (e.g. TLG)"`
	Aliases bool   `name:"aliases" short:"a" help:"Show alternative names"`
}

func (c *CatalogueCmd) Run() error {
	vol, err := openVolume()
	if err != nil {
		return err
	}
	defer vol.Close()

	at := vol.Catalogue()
	if at == nil {
		return errors.NewNotFound("catalogue", vol.Path)
	}
	for _, corp := range at.Corpora() {
		if c.Tag != "" && !strings.EqualFold(c.Tag, corp.Tag) {
			continue
		}
		fmt.Fprintf(stdout, "%s  %s (%d authors)\n", corp.Tag, corp.Name, len(corp.Authors))
		for _, a := range corp.Authors {
			fmt.Fprintf(stdout, "  %s  %s\n", a.ID, a.Name)
			if c.Aliases {
				for _, alias := range a.Aliases {
					fmt.Fprintf(stdout, "           = %s\n", alias)
				}
			}
		}
	}
	return nil
}

// TextsCmd lists the texts present in the volume.
type TextsCmd struct{}

func (c *TextsCmd) Run() error {
	vol, err := openVolume()
	if err != nil {
		return err
	}
	defer vol.Close()

	for _, id := range vol.Texts() {
		name := ""
		if a, ok := vol.Author(id); ok {
			name = a.Name
		}
		fmt.Fprintf(stdout, "%s\t%s\n", id, name)
	}
	return nil
}

// IndexCmd prints the index of a text as a tree.
type IndexCmd struct {
	ID       string `arg:"" help:"Text id (e.g. TLG0012)"`
	Sections bool   `name:"sections" short:"s" help:"Include sections"`
}

func (c *IndexCmd) Run() error {
	vol, err := openVolume()
	if err != nil {
		return err
	}
	defer vol.Close()

	index, err := vol.OpenIndex(c.ID, idt.WithCacheSize(cfg.Cache.Works))
	if err != nil {
		return err
	}
	defer index.Close()

	tree, err := indexTree(index, c.Sections)
	if err != nil {
		return err
	}
	fmt.Fprint(stdout, tree.Print())
	return nil
}

func indexTree(index *idt.File, sections bool) (gotree.Tree, error) {
	root := gotree.New(index.Name)
	authors, err := index.AuthorCount()
	if err != nil {
		return nil, err
	}
	for a := range authors {
		author, err := index.Author(a)
		if err != nil {
			return nil, err
		}
		an := root.Add(fmt.Sprintf("%s %s", author.ID, author.Name))

		works, err := index.WorkCount(a)
		if err != nil {
			return nil, err
		}
		for w := range works {
			work, err := index.Work(a, w)
			if err != nil {
				return nil, err
			}
			wn := an.Add(fmt.Sprintf("%s %s [block %d, %d levels]", work.ID, work.Name, work.Block, work.CiteLevels()))
			if !sections {
				continue
			}
			secs, err := index.Sections(a, w)
			if err != nil {
				return nil, err
			}
			for _, sec := range secs {
				wn.Add(fmt.Sprintf("%s - %s [block %d+%d]", sec.Start, sec.End, sec.Block, sec.Span()))
			}
		}
	}
	return root, nil
}

// ReadCmd prints one section.
type ReadCmd struct {
	ID      string `arg:"" help:"Text id (e.g. TLG0012)"`
	Author  int    `name:"author" short:"a" help:"Author index" default:"0"`
	Work    int    `name:"work" short:"w" help:"Work index" default:"0"`
	Section int    `name:"section" short:"s" help:"Section index" default:"0"`
	Limit   int    `name:"limit" short:"n" help:"Maximum lines (0 for the whole section)" default:"0"`
	Plain   bool   `name:"plain" help:"Strip beta-code markup"`
}

func (c *ReadCmd) Run() error {
	f, err := openText(c.ID)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Top(c.Author, c.Work, c.Section); err != nil {
		return err
	}
	lines, err := f.Lines(c.Limit)
	if err != nil {
		return err
	}
	printLines(lines, c.Plain)
	return nil
}

// GotoCmd prints from a citation on.
type GotoCmd struct {
	ID       string `arg:"" help:"Text id (e.g. TLG0012)"`
	Citation string `arg:"" help:"Citation, e.g. 12.1.2.3 or a:12.b:1.z:3"`
	Limit    int    `name:"limit" short:"n" help:"Maximum lines (0 for the rest of the section)" default:"10"`
	Plain    bool   `name:"plain" help:"Strip beta-code markup"`
}

func (c *GotoCmd) Run() error {
	target, err := citation.Parse(c.Citation)
	if err != nil {
		return err
	}
	f, err := openText(c.ID)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Goto(target); err != nil {
		return err
	}
	lines, err := f.Lines(c.Limit)
	if err != nil {
		return err
	}
	printLines(lines, c.Plain)
	return nil
}

// FingerprintCmd hashes texts.
type FingerprintCmd struct {
	IDs  []string `arg:"" help:"Text ids"`
	JSON bool     `name:"json" help:"Print JSON"`
}

func (c *FingerprintCmd) Run() error {
	vol, err := openVolume()
	if err != nil {
		return err
	}
	defer vol.Close()

	var fps []*corpus.Fingerprint
	for _, id := range c.IDs {
		fp, err := vol.Fingerprint(id)
		if err != nil {
			return err
		}
		fps = append(fps, fp)
	}

	if c.JSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(fps)
	}
	for _, fp := range fps {
		fmt.Fprintf(stdout, "%s.TXT  blake3:%s  sha256:%s  %d bytes\n", fp.ID, fp.Text.BLAKE3, fp.Text.SHA256, fp.Text.Size)
		fmt.Fprintf(stdout, "%s.IDT  blake3:%s  sha256:%s  %d bytes\n", fp.ID, fp.Index.BLAKE3, fp.Index.SHA256, fp.Index.Size)
	}
	return nil
}

// ExportCmd writes texts to SQLite.
type ExportCmd struct {
	Out       string   `name:"out" short:"o" help:"Database file (default from config)" type:"path"`
	IDs       []string `arg:"" optional:"" help:"Text ids (default: all)"`
	SkipLines bool     `name:"skip-lines" help:"Export the catalogue and index only"`
}

func (c *ExportCmd) Run() error {
	vol, err := openVolume()
	if err != nil {
		return err
	}
	defer vol.Close()

	out := c.Out
	if out == "" {
		out = cfg.Export.SQLite
	}
	sum, err := export.Run(context.Background(), vol, out, export.Options{
		Texts:     c.IDs,
		SkipLines: c.SkipLines,
		CacheSize: cfg.Cache.Works,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "run %s: %d authors, %d texts, %d works, %d sections, %d lines -> %s\n",
		sum.RunID, sum.Authors, sum.Texts, sum.Works, sum.Sections, sum.Lines, out)
	return nil
}

// VersionCmd prints the version.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Fprintf(stdout, "ibycus version %s\n", version)
	fmt.Fprintf(stdout, "sqlite driver %s\n", sqlite.GetInfo())
	return nil
}

// Helper functions

// setup loads the config file and applies the global flags over it.
func setup() error {
	path := CLI.Config
	if path == "" {
		path = config.DefaultPath
	}
	loaded, err := config.Load(path)
	if err != nil {
		return err
	}
	if CLI.Corpus != "" {
		loaded.Corpus = CLI.Corpus
	}
	if CLI.LogLevel != "" {
		loaded.Log.Level = CLI.LogLevel
	}
	if CLI.LogFormat != "" {
		loaded.Log.Format = CLI.LogFormat
	}
	if err := loaded.Validate(); err != nil {
		return err
	}
	cfg = loaded
	logging.InitLogger(logging.ParseLevel(cfg.Log.Level), logging.ParseFormat(cfg.Log.Format))
	return nil
}

func openVolume() (*corpus.Volume, error) {
	return corpus.Open(cfg.Corpus)
}

func openText(id string) (*txt.File, error) {
	vol, err := openVolume()
	if err != nil {
		return nil, err
	}
	// Directory texts hold their own files and archive texts hold
	// readers over memory, so the volume can be closed here.
	defer vol.Close()
	return vol.OpenText(id, idt.WithCacheSize(cfg.Cache.Works))
}

// interactive reports whether output goes to a terminal.
func interactive() bool {
	f, ok := stdout.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// printLines writes one line per entry. On a terminal the citation is
// padded into a column; otherwise it is separated by a tab.
func printLines(lines []txt.Line, plain bool) {
	tty := interactive()
	for _, l := range lines {
		text := l.Text
		if plain {
			text = txt.StripCodes(text)
		}
		if tty {
			fmt.Fprintf(stdout, "%-14s %s\n", l.ID, text)
		} else {
			fmt.Fprintf(stdout, "%s\t%s\n", l.ID, text)
		}
	}
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("ibycus"),
		kong.Description("Reader for PHI and TLG corpus volumes"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	if err := setup(); err != nil {
		ctx.FatalIfErrorf(err)
	}
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
