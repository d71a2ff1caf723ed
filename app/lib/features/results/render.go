// Package results renders tool results by the tool's render kind.
package results

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/microcosm-cc/bluemonday"

	"github.com/helixlab/helixdash/app/lib/components/banner"
	"github.com/helixlab/helixdash/app/lib/utils"
	"github.com/helixlab/helixdash/internal/app/models"
	"github.com/helixlab/helixdash/internal/pkg/bio/chart"
	"github.com/helixlab/helixdash/internal/pkg/bio/melody"
	"github.com/helixlab/helixdash/internal/pkg/bio/newick"
)

// maxTableRows keeps very large hit lists from producing megabytes of HTML.
// The full result stays available as a download.
const maxTableRows = 500

var reportPolicy = bluemonday.UGCPolicy()

// DownloadURL is where the raw backend response can be fetched.
func DownloadURL(res *models.Result) string {
	return "/tools/" + res.Tool + "/results/" + res.ID
}

// Result renders the header and body of one run.
func Result(tool *models.Tool, res *models.Result) templ.Component {
	return utils.Component(func(w *utils.Writer) {
		w.Raw(`<article class="result rounded-lg border bg-white p-4 shadow-sm"`)
		w.Attr("id", "result-"+res.ID)
		w.Attr("data-render", string(tool.Render))
		w.Raw(">")
		header(w, tool, res)
		w.Raw(`<div class="result-body mt-4">`)
		w.Render(Body(tool, res))
		w.Raw("</div></article>")
	})
}

func header(w *utils.Writer, tool *models.Tool, res *models.Result) {
	w.Raw(`<header class="flex flex-wrap items-baseline justify-between gap-2"><h2 class="text-lg font-semibold">`)
	w.Text(tool.Name)
	w.Raw(`</h2><p class="result-meta text-xs text-slate-500">`)
	w.Text(Meta(res))
	if res.Cached {
		w.Raw(` <span class="badge-cached rounded bg-slate-100 px-1">cached</span>`)
	}
	w.Raw(` <a class="underline"`)
	w.Attr("href", DownloadURL(res))
	w.Raw(` download>Raw response</a></p></header>`)
}

// Meta summarises the input and timing of a run in one line.
func Meta(res *models.Result) string {
	var parts []string
	in := res.Input
	if in.FileName != "" {
		parts = append(parts, fmt.Sprintf("%s (%s)", in.FileName, byteCount(in.FileBytes)))
	}
	if in.Records > 0 {
		noun := "sequences"
		if in.Records == 1 {
			noun = "sequence"
		}
		parts = append(parts, fmt.Sprintf("%d %s, %d residues", in.Records, noun, in.Length))
	} else if in.Length > 0 {
		parts = append(parts, fmt.Sprintf("%d characters", in.Length))
	}
	if in.Alphabet != "" {
		parts = append(parts, strings.ToUpper(in.Alphabet))
	}
	parts = append(parts, res.Duration.Round(time.Millisecond).String())
	return strings.Join(parts, " · ")
}

func byteCount(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	}
	return strconv.Itoa(n) + " B"
}

// Body renders the response according to the tool's render kind. Responses
// that do not have the expected shape fall back to their raw text with a
// warning rather than failing the page.
func Body(tool *models.Tool, res *models.Result) templ.Component {
	value, isJSON := extract(tool, res)

	switch tool.Render {
	case models.RenderTable:
		if rows, ok := tableRows(value); ok && isJSON {
			return Table(rows)
		}
		return fallback("The response is not a list of rows.", value, isJSON)
	case models.RenderJSON:
		if isJSON {
			return JSON(value)
		}
		return Pre(string(value))
	case models.RenderText:
		return Pre(textOf(value, isJSON))
	case models.RenderHTML:
		return HTML(textOf(value, isJSON))
	case models.RenderTree:
		return Tree(textOf(value, isJSON))
	case models.RenderPie:
		if !isJSON {
			return fallback("The response has no abundance data.", value, isJSON)
		}
		return Pie(value)
	case models.RenderMelody:
		return Melody(value, isJSON, res.Sequence, res.Input.Params["tempo"])
	case models.RenderStructure:
		return Structure(res.ID, textOf(value, isJSON), res.Input.Params["style"])
	case models.RenderPlot:
		if !isJSON {
			return fallback("The response is not a plot.", value, isJSON)
		}
		return Plot(res.ID, value)
	case models.RenderDownload:
		return Download(res)
	}
	return Pre(string(res.Body))
}

// extract returns the part of the body to render: the tool's result field
// when the body is a JSON object that has it, the whole body otherwise.
func extract(tool *models.Tool, res *models.Result) (json.RawMessage, bool) {
	body := bytes.TrimSpace(res.Body)
	if !json.Valid(body) || len(body) == 0 {
		return body, false
	}
	if tool.ResultField != "" {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(body, &obj); err == nil {
			if v, ok := obj[tool.ResultField]; ok {
				return v, true
			}
		}
	}
	return body, true
}

// textOf unquotes a JSON string value and leaves anything else as is.
func textOf(value json.RawMessage, isJSON bool) string {
	if isJSON {
		var s string
		if err := json.Unmarshal(value, &s); err == nil {
			return s
		}
	}
	return string(value)
}

func fallback(msg string, value json.RawMessage, isJSON bool) templ.Component {
	var body templ.Component
	if isJSON {
		body = JSON(value)
	} else {
		body = Pre(string(value))
	}
	return utils.Fragment(
		banner.Banner(banner.BannerProps{Type: banner.BannerWarning, Message: msg, Description: "Showing the raw response instead."}),
		body,
	)
}

func Pre(text string) templ.Component {
	return utils.Component(func(w *utils.Writer) {
		w.Raw(`<pre class="result-text max-h-[32rem] overflow-auto whitespace-pre-wrap rounded bg-slate-50 p-3 font-mono text-xs">`)
		w.Text(text)
		w.Raw("</pre>")
	})
}

// JSON shows a flat object as a key/value list and anything else indented.
func JSON(value json.RawMessage) templ.Component {
	var obj map[string]any
	if err := json.Unmarshal(value, &obj); err == nil && flat(obj) {
		return KeyValues(obj)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, value, "", "  "); err != nil {
		return Pre(string(value))
	}
	return Pre(buf.String())
}

func flat(obj map[string]any) bool {
	if len(obj) == 0 {
		return false
	}
	for _, v := range obj {
		switch v.(type) {
		case map[string]any, []any:
			return false
		}
	}
	return true
}

func KeyValues(obj map[string]any) templ.Component {
	keys := sortedKeys(obj)
	return utils.Component(func(w *utils.Writer) {
		w.Raw(`<dl class="result-kv grid grid-cols-[max-content_1fr] gap-x-4 gap-y-1 text-sm">`)
		for _, k := range keys {
			w.Raw(`<dt class="font-medium text-slate-600">`)
			w.Text(k)
			w.Raw("</dt><dd>")
			w.Text(cell(obj[k]))
			w.Raw("</dd>")
		}
		w.Raw("</dl>")
	})
}

// tableRows accepts an array of objects, or an object whose single array
// field holds them.
func tableRows(value json.RawMessage) ([]map[string]any, bool) {
	var rows []map[string]any
	if err := json.Unmarshal(value, &rows); err == nil {
		return rows, true
	}
	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(value, &wrapper); err != nil {
		return nil, false
	}
	for _, k := range sortedKeys(wrapper) {
		if err := json.Unmarshal(wrapper[k], &rows); err == nil {
			return rows, true
		}
	}
	return nil, false
}

// Table renders rows with the sorted union of their keys as columns.
func Table(rows []map[string]any) templ.Component {
	colSet := map[string]struct{}{}
	for _, r := range rows {
		for k := range r {
			colSet[k] = struct{}{}
		}
	}
	cols := sortedKeys(colSet)
	shown := rows[:min(len(rows), maxTableRows)]

	return utils.Component(func(w *utils.Writer) {
		if len(rows) == 0 {
			w.Raw(`<p class="result-empty text-sm text-slate-500">No results.</p>`)
			return
		}
		w.Raw(`<div class="overflow-x-auto"><table class="result-table min-w-full text-left text-sm"><thead><tr>`)
		for _, c := range cols {
			w.Raw(`<th class="border-b px-2 py-1 font-medium">`)
			w.Text(c)
			w.Raw("</th>")
		}
		w.Raw("</tr></thead><tbody>")
		for _, r := range shown {
			w.Raw("<tr>")
			for _, c := range cols {
				w.Raw(`<td class="border-b px-2 py-1">`)
				w.Text(cell(r[c]))
				w.Raw("</td>")
			}
			w.Raw("</tr>")
		}
		w.Raw("</tbody></table></div>")
		if len(rows) > len(shown) {
			w.Rawf(`<p class="result-truncated mt-2 text-xs text-slate-500">Showing %d of %d rows. Download the raw response for all of them.</p>`,
				len(shown), len(rows))
		}
	})
}

func cell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// HTML sanitises a backend report before embedding it.
func HTML(report string) templ.Component {
	return utils.Component(func(w *utils.Writer) {
		w.Raw(`<div class="result-html prose max-w-none">`)
		w.Raw(reportPolicy.Sanitize(report))
		w.Raw("</div>")
	})
}

func Tree(src string) templ.Component {
	root, err := newick.Parse(strings.TrimSpace(src))
	if err != nil {
		return utils.Fragment(
			banner.Banner(banner.BannerProps{Type: banner.BannerWarning, Message: "The tree could not be drawn", Description: err.Error()}),
			Pre(src),
		)
	}
	svg := newick.RenderSVG(root, newick.DefaultSVGOptions())
	return utils.Component(func(w *utils.Writer) {
		w.Raw(`<figure class="result-tree overflow-x-auto">`)
		w.Raw(svg)
		w.Rawf(`<figcaption class="mt-2 text-xs text-slate-500">%d leaves</figcaption>`, len(root.Leaves()))
		w.Raw(`<details class="mt-2 text-xs"><summary>Newick</summary>`)
		w.Render(Pre(root.String()))
		w.Raw("</details></figure>")
	})
}

// pieSlices accepts {"label": value} objects and arrays of objects carrying a
// label (label, name, taxon) and a value (value, count, abundance).
func pieSlices(value json.RawMessage) ([]chart.Slice, error) {
	var m map[string]float64
	if err := json.Unmarshal(value, &m); err == nil {
		return chart.SlicesFromMap(m), nil
	}
	var rows []map[string]any
	if err := json.Unmarshal(value, &rows); err != nil {
		return nil, fmt.Errorf("expected an object of numbers or a list of labelled values")
	}
	slices := make([]chart.Slice, 0, len(rows))
	for _, r := range rows {
		label := firstString(r, "label", "name", "taxon")
		v, ok := firstNumber(r, "value", "count", "abundance")
		if label == "" || !ok {
			return nil, fmt.Errorf("row without a label and value")
		}
		slices = append(slices, chart.Slice{Label: label, Value: v})
	}
	return slices, nil
}

func firstString(r map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := r[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func firstNumber(r map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		if f, ok := r[k].(float64); ok {
			return f, true
		}
	}
	return 0, false
}

func Pie(value json.RawMessage) templ.Component {
	slices, err := pieSlices(value)
	var svg string
	if err == nil {
		svg, err = chart.PieSVG(slices, chart.PieOptions{MaxSlices: 10})
	}
	if err != nil {
		return utils.Fragment(
			banner.Banner(banner.BannerProps{Type: banner.BannerWarning, Message: "The chart could not be drawn", Description: err.Error()}),
			JSON(value),
		)
	}
	return utils.Component(func(w *utils.Writer) {
		w.Raw(`<figure class="result-pie">`)
		w.Raw(svg)
		w.Raw("</figure>")
	})
}

type noteSpec struct {
	Note     string  `json:"note"`
	Duration float64 `json:"duration"`
}

// melodyNotes reads ["C4","E4"] or [{"note":"C4","duration":0.25}] (seconds).
func melodyNotes(value json.RawMessage, beat time.Duration) ([]melody.Note, error) {
	var names []string
	if err := json.Unmarshal(value, &names); err == nil {
		specs := make([]noteSpec, len(names))
		for i, n := range names {
			specs[i].Note = n
		}
		return toNotes(specs, beat)
	}
	var specs []noteSpec
	if err := json.Unmarshal(value, &specs); err != nil {
		return nil, fmt.Errorf("expected a list of notes")
	}
	return toNotes(specs, beat)
}

func toNotes(specs []noteSpec, beat time.Duration) ([]melody.Note, error) {
	notes := make([]melody.Note, 0, min(len(specs), melody.MaxNotes))
	for _, s := range specs[:min(len(specs), melody.MaxNotes)] {
		d := beat
		if s.Duration > 0 {
			d = time.Duration(math.Min(s.Duration, melody.MaxNoteDuration.Seconds()) * float64(time.Second))
		}
		if strings.EqualFold(s.Note, "rest") || s.Note == "" {
			notes = append(notes, melody.Note{Name: "rest", Duration: d})
			continue
		}
		f, err := melody.Frequency(s.Note)
		if err != nil {
			return nil, err
		}
		notes = append(notes, melody.Note{Name: s.Note, Freq: f, Duration: d})
	}
	return notes, nil
}

// beatFor converts a tempo in beats per minute to one note's length.
func beatFor(tempo string) time.Duration {
	bpm, err := strconv.ParseFloat(tempo, 64)
	if err != nil {
		return melody.DefaultBeat
	}
	return melody.BeatForTempo(bpm)
}

// Melody plays the notes returned by the backend, or the submitted sequence
// mapped base by base when the response has none.
func Melody(value json.RawMessage, isJSON bool, sequence, tempo string) templ.Component {
	beat := beatFor(tempo)
	var notes []melody.Note
	if isJSON {
		if n, err := melodyNotes(value, beat); err == nil {
			notes = n
		}
	}
	if len(notes) == 0 {
		notes = melody.FromSequence(sequence, beat)
	}
	notes = melody.Limit(notes)
	if len(notes) == 0 {
		return banner.Banner(banner.BannerProps{Type: banner.BannerWarning, Message: "There is nothing to play"})
	}
	uri, err := melody.Render(notes, melody.DefaultSampleRate)
	if err != nil {
		return banner.Banner(banner.BannerProps{Type: banner.BannerError, Message: "The melody could not be rendered", Description: err.Error()})
	}
	return utils.Component(func(w *utils.Writer) {
		w.Raw(`<figure class="result-melody">`)
		w.Raw("<audio controls")
		w.Attr("src", uri)
		w.Raw("></audio>")
		w.Rawf(`<figcaption class="mt-2 text-xs text-slate-500">%d notes at %s per note</figcaption>`, len(notes), beat.Round(time.Millisecond))
		w.Raw(`<p class="mt-1 font-mono text-xs">`)
		for i, n := range notes[:min(len(notes), 64)] {
			if i > 0 {
				w.Raw(" ")
			}
			w.Text(n.Name)
		}
		if len(notes) > 64 {
			w.Raw(" …")
		}
		w.Raw(`</p><a class="text-sm underline" href="#" download="melody.wav" data-wav-download>Download WAV</a></figure>`)
	})
}

// Structure hands PDB text to the 3Dmol viewer initialised by app.js.
func Structure(id, pdb, style string) templ.Component {
	if style == "" {
		style = "cartoon"
	}
	return utils.Component(func(w *utils.Writer) {
		if strings.TrimSpace(pdb) == "" {
			w.Render(banner.Banner(banner.BannerProps{Type: banner.BannerWarning, Message: "The response has no structure"}))
			return
		}
		w.Raw(`<div class="mol-viewer relative h-96 w-full rounded border"`)
		w.Attr("id", "mol-"+id)
		w.Attr("data-style", style)
		w.Raw(`><textarea class="mol-data" hidden>`)
		w.Text(pdb)
		w.Raw("</textarea></div>")
	})
}

// Plot hands a Plotly figure ({"data": [...], "layout": {...}}) to app.js.
func Plot(id string, figure json.RawMessage) templ.Component {
	return utils.Component(func(w *utils.Writer) {
		w.Raw(`<div class="plotly-figure h-96 w-full"`)
		w.Attr("id", "plot-"+id)
		w.Attr("data-figure", string(figure))
		w.Raw("></div>")
	})
}

func Download(res *models.Result) templ.Component {
	return utils.Component(func(w *utils.Writer) {
		w.Raw(`<p class="result-download text-sm">The result is ready (`)
		w.Text(byteCount(len(res.Body)))
		w.Raw(`). <a class="font-medium underline"`)
		w.Attr("href", DownloadURL(res))
		w.Raw(" download>Download</a></p>")
	})
}
