package fasta

import (
	"fmt"
	"strings"

	"github.com/biogo/biogo/alphabet"
)

// minNucleicShare is the fraction of A, C, G, T, U or N residues (gaps
// excluded) a sequence needs before it is read as nucleic acid.
const minNucleicShare = 0.9

func letters(seq string) []alphabet.Letter {
	return alphabet.BytesToLetters([]byte(strings.ReplaceAll(seq, ".", "-")))
}

// Detect guesses the alphabet of a sequence. It must be valid IUPAC DNA or RNA
// and mostly unambiguous bases to count as nucleic acid.
func Detect(seq string) Alphabet {
	ls := letters(seq)
	var got Alphabet
	switch {
	case validIn(alphabet.DNAredundant, ls):
		got = DNA
	case validIn(alphabet.RNAredundant, ls):
		got = RNA
	default:
		return Protein
	}

	var bases, total int
	for _, ch := range seq {
		switch ch {
		case '-', '.':
		case 'A', 'C', 'G', 'T', 'U', 'N':
			bases++
			total++
		default:
			total++
		}
	}
	if total == 0 || float64(bases) < minNucleicShare*float64(total) {
		return Protein
	}
	return got
}

func validIn(a alphabet.Alphabet, ls []alphabet.Letter) bool {
	ok, _ := a.AllValid(ls)
	return ok
}

// Conforms reports whether every record matches the wanted alphabet. "any" and
// the empty string accept everything; "nucleotide" accepts DNA or RNA.
func Conforms(records []Record, want string) error {
	switch want {
	case "", "any":
		return nil
	}
	for _, rec := range records {
		if want == string(Protein) {
			if ok, pos := alphabet.Protein.AllValid(letters(rec.Sequence)); !ok {
				return fmt.Errorf("%w: record %q has %q at position %d, which is not an amino acid",
					ErrInvalidChars, rec.ID, rec.Sequence[pos], pos+1)
			}
		}
		got := Detect(rec.Sequence)
		ok := false
		switch want {
		case "nucleotide":
			ok = got == DNA || got == RNA
		default:
			ok = string(got) == want
		}
		if !ok {
			return fmt.Errorf("%w: record %q looks like %s, expected %s", ErrInvalidChars, rec.ID, got, want)
		}
	}
	return nil
}

// Summary describes a parsed input for display next to tool results.
type Summary struct {
	Records     int
	TotalLength int
	MinLength   int
	MaxLength   int
	Alphabet    Alphabet
	GCPercent   float64
}

func Summarize(records []Record) Summary {
	s := Summary{Records: len(records)}
	if len(records) == 0 {
		return s
	}

	var gc, acgt int
	s.MinLength = records[0].Len()
	s.Alphabet = Detect(records[0].Sequence)
	for _, rec := range records {
		n := rec.Len()
		s.TotalLength += n
		s.MinLength = min(s.MinLength, n)
		s.MaxLength = max(s.MaxLength, n)
		if Detect(rec.Sequence) != s.Alphabet {
			s.Alphabet = ""
		}
		for _, ch := range rec.Sequence {
			switch ch {
			case 'G', 'C':
				gc++
				acgt++
			case 'A', 'T', 'U':
				acgt++
			}
		}
	}
	if s.Alphabet != Protein && acgt > 0 {
		s.GCPercent = float64(gc) * 100 / float64(acgt)
	}
	return s
}
