package authtab

import (
	"strings"

	"github.com/FocuswithJustin/ibycus/core/errors"
)

// Count returns the number of corpora.
func (at *AuthTab) Count() int {
	return len(at.corpora)
}

// Corpora returns the decoded corpora.
func (at *AuthTab) Corpora() []Corpus {
	return at.corpora
}

// Corpus returns the corpus at index i.
func (at *AuthTab) Corpus(i int) (*Corpus, error) {
	if err := errors.CheckIndex("corpus", i, len(at.corpora)); err != nil {
		return nil, err
	}
	return &at.corpora[i], nil
}

// Index returns the position of the corpus with the given tag.
func (at *AuthTab) Index(tag string) (int, error) {
	for i := range at.corpora {
		if at.corpora[i].Tag == tag {
			return i, nil
		}
	}
	return -1, errors.NewNotFound("corpus", tag)
}

// CountTag returns the number of authors in the corpus with the given tag.
func (at *AuthTab) CountTag(tag string) (int, error) {
	i, err := at.Index(tag)
	if err != nil {
		return 0, err
	}
	return len(at.corpora[i].Authors), nil
}

// AuthorCount returns the number of authors in corpus i.
func (at *AuthTab) AuthorCount(i int) (int, error) {
	c, err := at.Corpus(i)
	if err != nil {
		return 0, err
	}
	return len(c.Authors), nil
}

// Tag returns the tag of corpus i.
func (at *AuthTab) Tag(i int) (string, error) {
	c, err := at.Corpus(i)
	if err != nil {
		return "", err
	}
	return c.Tag, nil
}

// Name returns the name of corpus i.
func (at *AuthTab) Name(i int) (string, error) {
	c, err := at.Corpus(i)
	if err != nil {
		return "", err
	}
	return c.Name, nil
}

// Author returns author a of corpus i.
func (at *AuthTab) Author(i, a int) (*Author, error) {
	c, err := at.Corpus(i)
	if err != nil {
		return nil, err
	}
	if err := errors.CheckIndex("author", a, len(c.Authors)); err != nil {
		return nil, err
	}
	return &c.Authors[a], nil
}

// AuthorName returns the display name of author a in corpus i.
func (at *AuthTab) AuthorName(i, a int) (string, error) {
	au, err := at.Author(i, a)
	if err != nil {
		return "", err
	}
	return au.Name, nil
}

// ID returns the id of author a in corpus i.
func (at *AuthTab) ID(i, a int) (string, error) {
	au, err := at.Author(i, a)
	if err != nil {
		return "", err
	}
	return au.ID, nil
}

// AliasCount returns the number of aliases of author a in corpus i.
func (at *AuthTab) AliasCount(i, a int) (int, error) {
	au, err := at.Author(i, a)
	if err != nil {
		return 0, err
	}
	return len(au.Aliases), nil
}

// Alias returns alias n of author a in corpus i.
func (at *AuthTab) Alias(i, a, n int) (string, error) {
	au, err := at.Author(i, a)
	if err != nil {
		return "", err
	}
	if err := errors.CheckIndex("alias", n, len(au.Aliases)); err != nil {
		return "", err
	}
	return au.Aliases[n], nil
}

// Lookup finds an author by id in any corpus. Ids compare case-insensitively.
func (at *AuthTab) Lookup(id string) (Author, string, bool) {
	for _, c := range at.corpora {
		for _, a := range c.Authors {
			if strings.EqualFold(a.ID, id) {
				return a, c.Tag, true
			}
		}
	}
	return Author{}, "", false
}
