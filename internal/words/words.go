// Package words holds the word catalog used to deal secret words and their
// taboo hints.
//
// The catalog is loaded once from a CSV file whose header names the columns:
//
//	text,complexity,taboo1,taboo2,...
//
// "text" (or "word") is the secret word, "complexity" (or "difficulty") is 1, 2
// or 3 for easy, medium and hard, and every other column is a taboo hint keyed
// by its header. Cells under a repeated or missing header are keyed by
// position instead. Empty hint cells are ignored.
package words

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/text/unicode/norm"
)

var ErrEmptyBucket = errors.New("words: difficulty bucket is empty")
var ErrMissingColumn = errors.New("words: missing column")
var ErrBadDifficulty = errors.New("words: bad difficulty")

// MaxTaboo is how many taboo hints are shown with a word at most.
const MaxTaboo = 4

type Difficulty uint8

const (
	Easy   Difficulty = 1
	Medium Difficulty = 2
	Hard   Difficulty = 3
)

func (d Difficulty) String() string {
	switch d {
	case Easy:
		return "easy"
	case Medium:
		return "medium"
	case Hard:
		return "hard"
	default:
		return "unknown"
	}
}

type Word struct {
	Text       string
	Difficulty Difficulty
	Taboo      map[string]string // column header -> hint text
}

// Catalog is read-only after construction apart from its random source.
type Catalog struct {
	buckets [3][]Word

	mu  sync.Mutex
	rng *rand.Rand // nil means the global source
}

type Option func(*Catalog)

// WithRand makes draws reproducible.
func WithRand(r *rand.Rand) Option {
	return func(c *Catalog) { c.rng = r }
}

// New partitions ws by difficulty. Every bucket must end up non-empty.
func New(ws []Word, opts ...Option) (*Catalog, error) {
	c := &Catalog{}
	for _, opt := range opts {
		opt(c)
	}
	for _, w := range ws {
		if w.Difficulty < Easy || w.Difficulty > Hard {
			return nil, fmt.Errorf("%w: %d for %q", ErrBadDifficulty, w.Difficulty, w.Text)
		}
		c.buckets[w.Difficulty-1] = append(c.buckets[w.Difficulty-1], w)
	}
	for i, b := range c.buckets {
		if len(b) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrEmptyBucket, Difficulty(i+1))
		}
	}
	return c, nil
}

// Load reads a CSV word file from disk.
func Load(path string, opts ...Option) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open word file: %w", err)
	}
	defer f.Close()

	ws, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return New(ws, opts...)
}

// Parse decodes CSV records into words without bucketing them.
func Parse(r io.Reader) ([]Word, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.ToLower(clean(header[i]))
	}

	textCol := slices.IndexFunc(header, func(h string) bool { return h == "text" || h == "word" })
	diffCol := slices.IndexFunc(header, func(h string) bool { return h == "complexity" || h == "difficulty" })
	if textCol < 0 {
		return nil, fmt.Errorf("%w: text", ErrMissingColumn)
	}
	if diffCol < 0 {
		return nil, fmt.Errorf("%w: complexity", ErrMissingColumn)
	}

	names := make(map[string]int, len(header))
	for _, h := range header {
		names[h]++
	}
	// colKey names a hint by its header when that is unambiguous and by its
	// position otherwise, so repeated or missing headers never merge hints.
	colKey := func(i int) string {
		if i < len(header) && header[i] != "" && names[header[i]] == 1 {
			return header[i]
		}
		k := fmt.Sprintf("taboo%d", i)
		for names[k] > 0 {
			k = "_" + k
		}
		return k
	}

	var out []Word
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line, _ := cr.FieldPos(0)

		if textCol >= len(rec) || diffCol >= len(rec) {
			return nil, fmt.Errorf("line %d: short record", line)
		}
		text := clean(rec[textCol])
		if text == "" {
			continue
		}
		n, err := strconv.Atoi(clean(rec[diffCol]))
		if err != nil || n < int(Easy) || n > int(Hard) {
			return nil, fmt.Errorf("line %d: %w: %q", line, ErrBadDifficulty, rec[diffCol])
		}

		w := Word{Text: text, Difficulty: Difficulty(n), Taboo: map[string]string{}}
		for i, cell := range rec {
			if i == textCol || i == diffCol {
				continue
			}
			if hint := clean(cell); hint != "" {
				w.Taboo[colKey(i)] = hint
			}
		}
		out = append(out, w)
	}
	return out, nil
}

func clean(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// bucketFor maps a uniform draw in [0,1) onto a difficulty: 70% easy,
// 20% medium, 10% hard.
func bucketFor(x float64) Difficulty {
	switch {
	case x < 0.7:
		return Easy
	case x < 0.9:
		return Medium
	default:
		return Hard
	}
}

// Draw picks a difficulty by weighted coin flip, then a uniform word from it.
func (c *Catalog) Draw() Word {
	b := c.buckets[bucketFor(c.float64())-1]
	return b[c.intN(len(b))]
}

// TabooSubset returns up to MaxTaboo hints of w, drawn without replacement.
func (c *Catalog) TabooSubset(w Word) []string {
	keys := make([]string, 0, len(w.Taboo))
	for k := range w.Taboo {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	c.shuffle(len(keys), func(i, j int) { keys[i], keys[j] = keys[j], keys[i] })

	n := min(len(keys), MaxTaboo)
	out := make([]string, 0, n)
	for _, k := range keys[:n] {
		out = append(out, w.Taboo[k])
	}
	return out
}

// Stats returns the bucket sizes.
func (c *Catalog) Stats() (easy, medium, hard int) {
	return len(c.buckets[0]), len(c.buckets[1]), len(c.buckets[2])
}

func (c *Catalog) float64() float64 {
	if c.rng == nil {
		return rand.Float64()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rng.Float64()
}

func (c *Catalog) intN(n int) int {
	if c.rng == nil {
		return rand.IntN(n)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rng.IntN(n)
}

func (c *Catalog) shuffle(n int, swap func(i, j int)) {
	if c.rng == nil {
		rand.Shuffle(n, swap)
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rng.Shuffle(n, swap)
}
