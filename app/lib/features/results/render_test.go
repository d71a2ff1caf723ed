package results

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixlab/helixdash/internal/app/models"
	"github.com/helixlab/helixdash/internal/pkg/bio/melody"
)

func render(t *testing.T, c templ.Component) (*goquery.Document, string) {
	t.Helper()
	var sb strings.Builder
	require.NoError(t, c.Render(context.Background(), &sb))
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(sb.String()))
	require.NoError(t, err)
	return doc, sb.String()
}

func result(tool, body string) *models.Result {
	return &models.Result{
		ID:          "r-1",
		Tool:        tool,
		Status:      models.StatusOK,
		ContentType: "application/json",
		Body:        []byte(body),
		Duration:    1500 * time.Millisecond,
		Input:       models.InputSummary{Records: 1, Length: 12, Alphabet: "dna"},
		Sequence:    "ACGTACGTACGT",
	}
}

func TestResultHeader(t *testing.T) {
	tool := &models.Tool{Slug: "gc", Name: "GC content", Render: models.RenderJSON}
	res := result("gc", `{"gc":50}`)
	res.Cached = true

	doc, _ := render(t, Result(tool, res))
	article := doc.Find("article#result-r-1")
	require.Equal(t, 1, article.Length())
	assert.Equal(t, "json", article.AttrOr("data-render", ""))
	assert.Equal(t, "GC content", article.Find("h2").Text())
	assert.Equal(t, "/tools/gc/results/r-1", article.Find("a[download]").AttrOr("href", ""))
	assert.Equal(t, 1, article.Find(".badge-cached").Length())
	assert.Equal(t, "1 sequence, 12 residues · DNA · 1.5s", Meta(res))
}

func TestMetaForUploads(t *testing.T) {
	res := &models.Result{
		Duration: 20 * time.Millisecond,
		Input:    models.InputSummary{FileName: "reads.fastq", FileBytes: 3 << 20},
	}
	assert.Equal(t, "reads.fastq (3.0 MiB) · 20ms", Meta(res))

	res.Input = models.InputSummary{Length: 6}
	assert.Equal(t, "6 characters · 20ms", Meta(res))
}

func TestTable(t *testing.T) {
	tool := &models.Tool{Slug: "blast", Render: models.RenderTable, ResultField: "hits"}
	doc, _ := render(t, Body(tool, result("blast", `{"hits":[{"id":"sp|P1","evalue":1e-30},{"id":"sp|P2","score":88.5}],"db":"swissprot"}`)))

	var headers []string
	doc.Find("table.result-table th").Each(func(_ int, s *goquery.Selection) { headers = append(headers, s.Text()) })
	assert.Equal(t, []string{"evalue", "id", "score"}, headers)
	assert.Equal(t, 2, doc.Find("tbody tr").Length())
	assert.Equal(t, "1e-30", doc.Find("tbody tr").Eq(0).Find("td").Eq(0).Text())
	assert.Equal(t, "", doc.Find("tbody tr").Eq(1).Find("td").Eq(0).Text(), "missing columns are blank")
}

func TestTableTruncatesAndEmpty(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("[")
	for i := range maxTableRows + 5 {
		if i > 0 {
			sb.WriteString(",")
		}
		fmt.Fprintf(&sb, `{"n":%d}`, i)
	}
	sb.WriteString("]")
	tool := &models.Tool{Render: models.RenderTable}

	doc, _ := render(t, Body(tool, result("x", sb.String())))
	assert.Equal(t, maxTableRows, doc.Find("tbody tr").Length())
	assert.Contains(t, doc.Find(".result-truncated").Text(), fmt.Sprintf("Showing %d of %d rows", maxTableRows, maxTableRows+5))

	doc, _ = render(t, Body(tool, result("x", `[]`)))
	assert.Equal(t, 1, doc.Find(".result-empty").Length())

	doc, _ = render(t, Body(tool, result("x", `not json`)))
	assert.Equal(t, "warning", doc.Find("[data-banner]").AttrOr("data-banner", ""))
	assert.Equal(t, "not json", doc.Find("pre").Text())
}

func TestJSONAndText(t *testing.T) {
	doc, _ := render(t, Body(&models.Tool{Render: models.RenderJSON}, result("x", `{"gc":41.5,"length":1200,"circular":false}`)))
	var keys []string
	doc.Find(".result-kv dt").Each(func(_ int, s *goquery.Selection) { keys = append(keys, s.Text()) })
	assert.Equal(t, []string{"circular", "gc", "length"}, keys)
	assert.Equal(t, "41.5", doc.Find(".result-kv dd").Eq(1).Text())

	doc, _ = render(t, Body(&models.Tool{Render: models.RenderJSON}, result("x", `{"orfs":[{"start":1}]}`)))
	assert.Contains(t, doc.Find("pre").Text(), "\n  \"orfs\": [")

	doc, _ = render(t, Body(&models.Tool{Render: models.RenderText, ResultField: "alignment"}, result("x", `{"alignment":"ACGT\n|| |\nACCT"}`)))
	assert.Equal(t, "ACGT\n|| |\nACCT", doc.Find("pre").Text())
}

func TestHTMLIsSanitised(t *testing.T) {
	tool := &models.Tool{Render: models.RenderHTML}
	res := result("qc", `<h2>Per base quality</h2><script>alert(1)</script><p onclick="x()">ok</p>`)
	res.ContentType = "text/html"

	doc, raw := render(t, Body(tool, res))
	assert.Equal(t, "Per base quality", doc.Find(".result-html h2").Text())
	assert.NotContains(t, raw, "<script")
	assert.NotContains(t, raw, "onclick")
}

func TestTree(t *testing.T) {
	tool := &models.Tool{Render: models.RenderTree, ResultField: "newick"}
	doc, _ := render(t, Body(tool, result("tree", `{"newick":"((A:0.1,B:0.2):0.3,C:0.4);"}`)))
	assert.Equal(t, 1, doc.Find("figure.result-tree svg.phylo-tree").Length())
	assert.Contains(t, doc.Find("figcaption").Text(), "3 leaves")

	doc, _ = render(t, Body(tool, result("tree", `{"newick":"((A,B);"}`)))
	assert.Equal(t, "warning", doc.Find("[data-banner]").AttrOr("data-banner", ""))
	assert.Equal(t, 0, doc.Find("svg").Length())
}

func TestPie(t *testing.T) {
	tool := &models.Tool{Render: models.RenderPie, ResultField: "abundances"}
	doc, _ := render(t, Body(tool, result("meta", `{"abundances":{"Bacteroides":40,"Prevotella":35,"Other":25}}`)))
	assert.Equal(t, 1, doc.Find("figure.result-pie svg.pie-chart").Length())

	doc, _ = render(t, Body(tool, result("meta", `{"abundances":[{"taxon":"E. coli","abundance":3},{"name":"B. subtilis","count":1}]}`)))
	assert.Equal(t, 1, doc.Find("svg.pie-chart").Length())

	doc, _ = render(t, Body(tool, result("meta", `{"abundances":[{"rank":"genus"}]}`)))
	assert.Equal(t, 0, doc.Find("svg").Length())
	assert.Equal(t, "warning", doc.Find("[data-banner]").AttrOr("data-banner", ""))
}

func TestMelody(t *testing.T) {
	tool := &models.Tool{Render: models.RenderMelody, ResultField: "notes"}

	res := result("music", `{"notes":["C4","E4","rest","G4"]}`)
	res.Input.Params = map[string]string{"tempo": "120"}
	doc, html := render(t, Body(tool, res))
	src := doc.Find("audio").AttrOr("src", "")
	assert.True(t, strings.HasPrefix(src, "data:audio/wav;base64,"))
	assert.Equal(t, 1, strings.Count(html, "data:audio/wav"), "the clip is embedded once")
	assert.Equal(t, 1, doc.Find(`a[download="melody.wav"][data-wav-download]`).Length())
	assert.Contains(t, doc.Find("figcaption").Text(), "4 notes at 500ms per note")

	doc, _ = render(t, Body(tool, result("music", `{"status":"done"}`)))
	assert.Contains(t, doc.Find("figcaption").Text(), "12 notes", "falls back to the submitted sequence")
}

func TestStructurePlotAndDownload(t *testing.T) {
	doc, _ := render(t, Body(&models.Tool{Render: models.RenderStructure, ResultField: "pdb"},
		result("fold", `{"pdb":"ATOM      1  N   MET A   1      11.104  13.207   2.100"}`)))
	viewer := doc.Find(".mol-viewer#mol-r-1")
	assert.Equal(t, "cartoon", viewer.AttrOr("data-style", ""))
	assert.Contains(t, viewer.Find("textarea.mol-data").Text(), "ATOM      1  N   MET")

	doc, _ = render(t, Body(&models.Tool{Render: models.RenderPlot},
		result("plot", `{"data":[{"x":[1,2],"y":[3,4]}],"layout":{}}`)))
	assert.JSONEq(t, `{"data":[{"x":[1,2],"y":[3,4]}],"layout":{}}`, doc.Find(".plotly-figure#plot-r-1").AttrOr("data-figure", ""))

	doc, _ = render(t, Body(&models.Tool{Render: models.RenderDownload}, result("asm", `{}`)))
	assert.Equal(t, "/tools/asm/results/r-1", doc.Find("a").AttrOr("href", ""))
}

func TestBeatFor(t *testing.T) {
	assert.Equal(t, 500*time.Millisecond, beatFor("120"))
	assert.Equal(t, 200*time.Millisecond, beatFor(""))
	assert.Equal(t, 2*time.Second, beatFor("-5"))
	assert.Equal(t, 2*time.Second, beatFor("0.001"), "slow tempos clamp to 30 bpm")
	assert.Equal(t, 100*time.Millisecond, beatFor("100000"), "fast tempos clamp to 600 bpm")
}

func TestMelodyBounds(t *testing.T) {
	tool := &models.Tool{Render: models.RenderMelody, ResultField: "notes"}

	res := result("music", `{"status":"done"}`)
	res.Input.Params = map[string]string{"tempo": "0.001"}
	_, html := render(t, Body(tool, res))
	assert.Less(t, len(html), 4<<20, "a crawling tempo still renders a bounded clip")

	res = result("music", `{"notes":[{"note":"C4","duration":36000},{"note":"E4","duration":1e300}]}`)
	doc, _ := render(t, Body(tool, res))
	assert.Contains(t, doc.Find("figcaption").Text(), "2 notes")

	notes, err := melodyNotes([]byte(`[{"note":"C4","duration":36000}]`), time.Second)
	require.NoError(t, err)
	assert.Equal(t, melody.MaxNoteDuration, notes[0].Duration)
}
