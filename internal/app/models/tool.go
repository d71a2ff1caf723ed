package models

import "time"

// InputKind says how a tool collects its data.
type InputKind string

const (
	InputSequence       InputKind = "sequence"
	InputFile           InputKind = "file"
	InputSequenceOrFile InputKind = "sequence_or_file"
	InputPair           InputKind = "pair"
)

// RenderKind selects how a backend response is displayed.
type RenderKind string

const (
	RenderJSON      RenderKind = "json"
	RenderTable     RenderKind = "table"
	RenderText      RenderKind = "text"
	RenderHTML      RenderKind = "html"
	RenderTree      RenderKind = "tree"
	RenderPie       RenderKind = "pie"
	RenderMelody    RenderKind = "melody"
	RenderStructure RenderKind = "structure"
	RenderPlot      RenderKind = "plot"
	RenderDownload  RenderKind = "download"
)

type ParamKind string

const (
	ParamText   ParamKind = "text"
	ParamNumber ParamKind = "number"
	ParamSelect ParamKind = "select"
)

// Param is an extra form field forwarded to the backend.
type Param struct {
	Name     string    `yaml:"name" validate:"required,slug"`
	Label    string    `yaml:"label" validate:"required"`
	Kind     ParamKind `yaml:"kind" validate:"required,oneof=text number select"`
	Options  []string  `yaml:"options" validate:"required_if=Kind select"`
	Default  string    `yaml:"default"`
	Required bool      `yaml:"required"`
	Help     string    `yaml:"help"`
}

// Tool is one entry of the tool catalog. Endpoint is the backend path the
// input is posted to, Accept the file input's accept attribute, Alphabet
// "text" means the input is free text rather than FASTA, and
// ResultField an optional top-level field of a JSON response to render (such
// as "newick" for tree tools).
type Tool struct {
	Slug          string     `yaml:"slug" validate:"required,slug"`
	Name          string     `yaml:"name" validate:"required"`
	Category      string     `yaml:"category" validate:"required"`
	Description   string     `yaml:"description"`
	Endpoint      string     `yaml:"endpoint" validate:"required,startswith=/"`
	Method        string     `yaml:"method" validate:"omitempty,oneof=GET POST"`
	Input         InputKind  `yaml:"input" validate:"required,oneof=sequence file sequence_or_file pair"`
	Alphabet      string     `yaml:"alphabet" validate:"omitempty,oneof=any dna rna nucleotide protein text"`
	Render        RenderKind `yaml:"render" validate:"required,oneof=json table text html tree pie melody structure plot download"`
	Accept        string     `yaml:"accept"`
	Params        []Param    `yaml:"params" validate:"dive"`
	Cacheable     bool       `yaml:"cacheable"`
	MaxInputBytes int64      `yaml:"max_input_bytes" validate:"gte=0"`
	ResultField   string     `yaml:"result_field"`
}

func (t *Tool) AcceptsSequence() bool {
	return t.Input == InputSequence || t.Input == InputSequenceOrFile || t.Input == InputPair
}

func (t *Tool) AcceptsFile() bool {
	return t.Input == InputFile || t.Input == InputSequenceOrFile
}

func (t *Tool) URL() string { return "/tools/" + t.Slug }

func (t *Tool) FreeText() bool { return t.Alphabet == AlphabetText }

// NeedsInput reports whether a required param has no default, so the tool
// cannot run on sequence text alone.
func (t *Tool) NeedsInput() bool {
	for _, p := range t.Params {
		if p.Required && p.Default == "" {
			return true
		}
	}
	return false
}

const AlphabetText = "text"

// InputSummary describes what was submitted, for the result header.
type InputSummary struct {
	Records   int
	Length    int
	Alphabet  string
	FileName  string
	FileBytes int
	Params    map[string]string
}

const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Result is a backend response kept so it can be re-rendered or downloaded.
// Cached is set when it was served without calling the backend. Sequence is
// the first submitted sequence, for renderers that visualise the input
// alongside the response.
type Result struct {
	ID          string
	Tool        string
	Status      string
	ContentType string
	Body        []byte
	Duration    time.Duration
	CachedAt    time.Time
	Cached      bool
	Input       InputSummary
	Sequence    string
	Owner       string
}
