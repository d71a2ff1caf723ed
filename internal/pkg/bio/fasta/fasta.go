// Package fasta parses the FASTA text users paste or upload into tool forms.
package fasta

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/biogo/biogo/alphabet"
	biofasta "github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"
)

// DefaultName is used for sequence text pasted without a header line.
const DefaultName = "sequence"

var (
	ErrEmpty        = errors.New("no sequence data")
	ErrInvalidChars = errors.New("invalid sequence characters")
	ErrEmptyRecord  = errors.New("record has no sequence")
)

type Alphabet string

const (
	DNA     Alphabet = "dna"
	RNA     Alphabet = "rna"
	Protein Alphabet = "protein"
)

// Record is a single FASTA entry. Sequence is upper-cased with whitespace removed.
type Record struct {
	ID          string
	Description string
	Sequence    string
}

func (r Record) Header() string {
	if r.Description == "" {
		return r.ID
	}
	return r.ID + " " + r.Description
}

func (r Record) Len() int { return len(r.Sequence) }

// Parse reads FASTA records. Lines starting with ';' are comments. Sequence lines
// that appear before any header form an implicit record named DefaultName.
func Parse(r io.Reader) ([]Record, error) {
	clean, err := normalize(r)
	if err != nil {
		return nil, err
	}
	if clean.Len() == 0 {
		return nil, ErrEmpty
	}

	reader := biofasta.NewReader(clean, linear.NewSeq("", nil, alphabet.Protein))
	var records []Record
	for {
		s, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read fasta: %w", err)
		}
		ls, ok := s.(*linear.Seq)
		if !ok {
			return nil, fmt.Errorf("read fasta: unexpected sequence type %T", s)
		}
		records = append(records, Record{
			ID:          ls.Name(),
			Description: strings.TrimSpace(ls.Description()),
			Sequence:    lettersString(ls.Seq),
		})
	}
	if len(records) == 0 {
		return nil, ErrEmpty
	}
	return records, nil
}

// normalize rewrites user text into strict FASTA for the biogo reader: comments
// and blank lines dropped, residues upper-cased, every record given an ID.
// Illegal characters and empty records are reported here with line numbers.
func normalize(r io.Reader) (*bytes.Buffer, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)

	var (
		out      bytes.Buffer
		current  string
		residues int
		headers  int
		lineNo   int
	)
	closeRecord := func() error {
		if current != "" && residues == 0 {
			return fmt.Errorf("%w: %q", ErrEmptyRecord, current)
		}
		return nil
	}

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}

		if strings.HasPrefix(line, ">") {
			if err := closeRecord(); err != nil {
				return nil, err
			}
			headers++
			id, desc := splitHeader(strings.TrimSpace(line[1:]))
			if id == "" {
				id = fmt.Sprintf("%s_%d", DefaultName, headers)
			}
			current, residues = id, 0
			out.WriteByte('>')
			out.WriteString(id)
			if desc != "" {
				out.WriteByte(' ')
				out.WriteString(desc)
			}
			out.WriteByte('\n')
			continue
		}

		if current == "" {
			headers++
			current = DefaultName
			out.WriteString(">" + DefaultName + "\n")
		}
		for i, ch := range line {
			switch {
			case ch == ' ' || ch == '\t':
				continue
			case isSequenceChar(ch):
				out.WriteRune(toUpper(ch))
				residues++
			default:
				return nil, fmt.Errorf("%w: %q at line %d, column %d", ErrInvalidChars, ch, lineNo, i+1)
			}
		}
		out.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read fasta: %w", err)
	}
	if err := closeRecord(); err != nil {
		return nil, err
	}
	return &out, nil
}

// ParseString is Parse over an in-memory string.
func ParseString(s string) ([]Record, error) {
	return Parse(strings.NewReader(s))
}

// Format writes records back as FASTA with the given line width (60 when width <= 0).
func Format(records []Record, width int) string {
	if width <= 0 {
		width = 60
	}
	var b strings.Builder
	for _, rec := range records {
		b.WriteByte('>')
		b.WriteString(rec.Header())
		b.WriteByte('\n')
		for i := 0; i < len(rec.Sequence); i += width {
			end := min(i+width, len(rec.Sequence))
			b.WriteString(rec.Sequence[i:end])
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func splitHeader(h string) (string, string) {
	id, desc, _ := strings.Cut(h, " ")
	return id, strings.TrimSpace(desc)
}

func lettersString(ls alphabet.Letters) string {
	b := make([]byte, len(ls))
	for i, l := range ls {
		b[i] = byte(l)
	}
	return string(b)
}

func isSequenceChar(ch rune) bool {
	return (ch >= 'A' && ch <= 'Z') || (ch >= 'a' && ch <= 'z') || ch == '*' || ch == '-' || ch == '.'
}

func toUpper(ch rune) rune {
	if ch >= 'a' && ch <= 'z' {
		return ch - 'a' + 'A'
	}
	return ch
}
