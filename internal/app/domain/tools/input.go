package tools

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/helixlab/helixdash/internal/app/models"
	"github.com/helixlab/helixdash/internal/pkg/backend"
	"github.com/helixlab/helixdash/internal/pkg/bio/fasta"
)

const (
	sequenceField = "sequence"
	fileField     = "file"
)

// Input is a validated tool submission. Text holds the pasted input,
// normalised to FASTA unless the tool takes free text.
type Input struct {
	Text    string
	Records []fasta.Record
	File    *backend.File
	Params  map[string]string
	Summary models.InputSummary
}

// FirstSequence is the sequence of the first record, or the free text.
func (in *Input) FirstSequence() string {
	if len(in.Records) > 0 {
		return in.Records[0].Sequence
	}
	return in.Text
}

// ParseInput reads and validates a tool form. limit caps the pasted text and
// the uploaded file when the tool sets no MaxInputBytes of its own.
func ParseInput(tool *models.Tool, r *http.Request, limit int64) (*Input, error) {
	if err := parseForm(r, limit); err != nil {
		return nil, err
	}
	if tool.MaxInputBytes > 0 {
		limit = tool.MaxInputBytes
	}

	in := &Input{}
	text := strings.TrimSpace(r.PostFormValue(sequenceField))
	if !tool.AcceptsSequence() {
		text = ""
	}

	var header *multipart.FileHeader
	if tool.AcceptsFile() && r.MultipartForm != nil {
		if fhs := r.MultipartForm.File[fileField]; len(fhs) > 0 && fhs[0].Size > 0 {
			header = fhs[0]
		}
	}

	switch {
	case text != "" && header != nil:
		return nil, models.NewValidationError(sequenceField, "paste a sequence or upload a file, not both")
	case text == "" && header == nil:
		return nil, models.NewValidationError(inputField(tool), missingMessage(tool))
	case header != nil:
		if err := in.readFile(tool, header, limit); err != nil {
			return nil, err
		}
	default:
		if err := in.readText(tool, text, limit); err != nil {
			return nil, err
		}
	}

	params, err := bindParams(tool, r.PostForm)
	if err != nil {
		return nil, err
	}
	in.Params = params
	in.Summary.Params = params
	return in, nil
}

func parseForm(r *http.Request, limit int64) error {
	var err error
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		maxMemory := int64(32 << 20)
		if limit > 0 {
			maxMemory = min(limit, maxMemory)
		}
		err = r.ParseMultipartForm(maxMemory)
	} else {
		err = r.ParseForm()
	}
	if err == nil {
		return nil
	}
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return models.NewValidationError(fileField, fmt.Sprintf("upload exceeds the %s limit", humanBytes(maxErr.Limit)))
	}
	return models.NewValidationError("", "the form could not be read")
}

func inputField(tool *models.Tool) string {
	if tool.Input == models.InputFile {
		return fileField
	}
	return sequenceField
}

func missingMessage(tool *models.Tool) string {
	switch tool.Input {
	case models.InputFile:
		return "choose a file to upload"
	case models.InputSequenceOrFile:
		return "paste a sequence or upload a file"
	case models.InputPair:
		return "paste two sequences in FASTA format"
	}
	if tool.FreeText() {
		return "enter a value"
	}
	return "paste a sequence"
}

func (in *Input) readText(tool *models.Tool, text string, limit int64) error {
	if limit > 0 && int64(len(text)) > limit {
		return models.NewValidationError(sequenceField, fmt.Sprintf("input exceeds the %s limit", humanBytes(limit)))
	}
	if tool.FreeText() {
		in.Text = text
		in.Summary.Length = len(text)
		return nil
	}

	records, err := fasta.ParseString(text)
	if err != nil {
		return models.NewValidationError(sequenceField, fastaMessage(err))
	}
	if tool.Input == models.InputPair && len(records) != 2 {
		return models.NewValidationError(sequenceField,
			fmt.Sprintf("exactly two sequences are required, got %d", len(records)))
	}
	if err := fasta.Conforms(records, tool.Alphabet); err != nil {
		return models.NewValidationError(sequenceField, fastaMessage(err))
	}
	in.setRecords(records)
	return nil
}

func (in *Input) setRecords(records []fasta.Record) {
	in.Records = records
	in.Text = fasta.Format(records, 0)
	sum := fasta.Summarize(records)
	in.Summary.Records = sum.Records
	in.Summary.Length = sum.TotalLength
	in.Summary.Alphabet = string(sum.Alphabet)
}

func (in *Input) readFile(tool *models.Tool, header *multipart.FileHeader, limit int64) error {
	if limit > 0 && header.Size > limit {
		return models.NewValidationError(fileField, fmt.Sprintf("%s exceeds the %s limit", header.Filename, humanBytes(limit)))
	}
	if !acceptedFile(tool.Accept, header.Filename) {
		return models.NewValidationError(fileField, fmt.Sprintf("%s is not one of %s", header.Filename, tool.Accept))
	}
	f, err := header.Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("read upload: %w", err)
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	in.File = &backend.File{
		Field:       fileField,
		Name:        filepath.Base(header.Filename),
		ContentType: contentType,
		Content:     content,
	}
	in.Summary.FileName = in.File.Name
	in.Summary.FileBytes = len(content)

	// FASTA uploads are summarised for the result header. Other formats go to
	// the backend unread.
	if !tool.FreeText() && looksLikeFASTA(content) {
		if records, err := fasta.ParseString(string(content)); err == nil {
			if err := fasta.Conforms(records, tool.Alphabet); err != nil {
				return models.NewValidationError(fileField, fastaMessage(err))
			}
			in.Records = records
			sum := fasta.Summarize(records)
			in.Summary.Records = sum.Records
			in.Summary.Length = sum.TotalLength
			in.Summary.Alphabet = string(sum.Alphabet)
		}
	}
	return nil
}

func looksLikeFASTA(content []byte) bool {
	s := strings.TrimLeft(string(content[:min(len(content), 512)]), " \t\r\n")
	return strings.HasPrefix(s, ">")
}

// acceptedFile checks the extension against an accept attribute value. An
// empty accept list allows anything.
func acceptedFile(accept, name string) bool {
	if strings.TrimSpace(accept) == "" {
		return true
	}
	lower := strings.ToLower(name)
	for _, ext := range strings.Split(accept, ",") {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" && strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

func fastaMessage(err error) string {
	switch {
	case errors.Is(err, fasta.ErrEmpty):
		return "no sequence found"
	case errors.Is(err, fasta.ErrEmptyRecord), errors.Is(err, fasta.ErrInvalidChars):
		return err.Error()
	}
	return "the sequence could not be read"
}

// bindParams applies defaults and checks required, numeric and select params.
// Form fields that are not declared params are ignored.
func bindParams(tool *models.Tool, form url.Values) (map[string]string, error) {
	out := make(map[string]string, len(tool.Params))
	for _, p := range tool.Params {
		v := strings.TrimSpace(form.Get(p.Name))
		if v == "" {
			v = p.Default
		}
		if v == "" {
			if p.Required {
				return nil, models.NewValidationError(p.Name, p.Label+" is required")
			}
			continue
		}
		switch p.Kind {
		case models.ParamNumber:
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				return nil, models.NewValidationError(p.Name, p.Label+" must be a number")
			}
		case models.ParamSelect:
			if !slices.Contains(p.Options, v) {
				return nil, models.NewValidationError(p.Name, fmt.Sprintf("%s must be one of %s", p.Label, strings.Join(p.Options, ", ")))
			}
		}
		out[p.Name] = v
	}
	return out, nil
}

// ForTool adapts a workbench input, parsed once, to one tool: it checks the
// tool's alphabet and size limit and applies its parameter defaults.
func (in *Input) ForTool(tool *models.Tool, limit int64) (*Input, error) {
	if tool.MaxInputBytes > 0 {
		limit = tool.MaxInputBytes
	}
	if limit > 0 && int64(len(in.Text)) > limit {
		return nil, models.NewValidationError(sequenceField, fmt.Sprintf("input exceeds the %s limit", humanBytes(limit)))
	}
	if err := fasta.Conforms(in.Records, tool.Alphabet); err != nil {
		return nil, models.NewValidationError(sequenceField, fastaMessage(err))
	}
	params, err := bindParams(tool, nil)
	if err != nil {
		return nil, err
	}
	out := *in
	out.Params = params
	out.Summary.Params = maps.Clone(params)
	return &out, nil
}

// ParseWorkbench reads the shared sequence of a workbench form.
func ParseWorkbench(text string, limit int64) (*Input, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, models.NewValidationError(sequenceField, "paste a sequence")
	}
	in := &Input{}
	if err := in.readText(&models.Tool{Input: models.InputSequence}, text, limit); err != nil {
		return nil, err
	}
	return in, nil
}

// Request builds the backend call. GET tools send the text as the q query
// parameter, uploads go as multipart and everything else as JSON.
func (in *Input) Request(tool *models.Tool) backend.Request {
	req := backend.Request{Method: tool.Method, Path: tool.Endpoint}

	switch {
	case tool.Method == http.MethodGet:
		q := url.Values{}
		q.Set("q", in.Text)
		for k, v := range in.Params {
			q.Set(k, v)
		}
		req.Query = q
	case in.File != nil:
		fields := maps.Clone(in.Params)
		if fields == nil {
			fields = map[string]string{}
		}
		req.Multipart = &backend.Multipart{Fields: fields, Files: []backend.File{*in.File}}
	default:
		req.JSON = in.payload(tool)
	}
	return req
}

type sequencePayload struct {
	ID          string `json:"id"`
	Description string `json:"description,omitempty"`
	Sequence    string `json:"sequence"`
}

type runPayload struct {
	Sequence  string            `json:"sequence"`
	Sequences []sequencePayload `json:"sequences,omitempty"`
	FASTA     string            `json:"fasta,omitempty"`
	Format    string            `json:"format"`
	Params    map[string]string `json:"params"`
}

func (in *Input) payload(tool *models.Tool) runPayload {
	p := runPayload{Params: in.Params, Format: "fasta"}
	if p.Params == nil {
		p.Params = map[string]string{}
	}
	if tool.FreeText() {
		p.Format = "text"
		p.Sequence = in.Text
		return p
	}
	p.FASTA = in.Text
	p.Sequence = in.FirstSequence()
	for _, rec := range in.Records {
		p.Sequences = append(p.Sequences, sequencePayload{ID: rec.ID, Description: rec.Description, Sequence: rec.Sequence})
	}
	return p
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
