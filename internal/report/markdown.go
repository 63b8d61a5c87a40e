package report

import (
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/specscrape/internal/model"
)

// maxPieSlices bounds the brands drawn in the pie chart; the rest are
// merged into one "Other" slice.
const maxPieSlices = 8

// MarkdownWriter outputs reports in Markdown, for sharing and docs.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// WriteRun outputs the run counters.
func (w *MarkdownWriter) WriteRun(s *model.Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Crawl Summary")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Run ID", "`" + s.RunID + "`"},
			{"Root URL", s.RootURL},
			{"Started", s.StartedAt.Format(timeLayout)},
			{"Elapsed", s.Elapsed().Round(time.Second).String()},
		},
	})
	md.PlainText("")

	md.H2("Counters")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"", "Seen", "Skipped", "Stored", "Failed"},
		Rows: [][]string{
			{"Brands", itoa(s.BrandsSeen), itoa(s.BrandsSkipped), "-", itoa(s.BrandsFailed)},
			{"Products", itoa(s.ProductsSeen), itoa(s.ProductsSkipped), itoa(s.ProductsStored), itoa(s.ProductsFailed)},
		},
	})
	md.PlainText("")

	if s.BrandsFailed > 0 || s.ProductsFailed > 0 {
		md.Warningf("%d brand(s) and %d product(s) failed and will be retried by the next run.",
			s.BrandsFailed, s.ProductsFailed)
		md.PlainText("")
	}

	return len(md.String()), md.Build()
}

// WriteStore outputs the store overview.
func (w *MarkdownWriter) WriteStore(s *model.StoreSummary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Store Report")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Store", "`" + s.Source + "`"},
			{"Generated", s.GeneratedAt.Format(timeLayout)},
			{"Products", itoa(s.TotalRows)},
			{"Products without specs", itoa(s.RowsWithoutAttributes)},
			{"Brands", itoa(len(s.Brands))},
		},
	})
	md.PlainText("")

	if s.TotalRows == 0 {
		md.Note("The store holds no products yet.")
		md.PlainText("")
		return len(md.String()), md.Build()
	}

	md.H2("Products per Brand")
	md.PlainText("")
	w.writeBrandChart(md, s.Brands)

	rows := make([][]string, len(s.Brands))
	for i, b := range s.Brands {
		rows[i] = []string{truncateString(b.Brand, 50), itoa(b.Products)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Brand", "Products"},
		Rows:   rows,
	})
	md.PlainText("")

	if len(s.TopAttributes) > 0 {
		md.H2("Most Common Attributes")
		md.PlainText("")

		attrRows := make([][]string, len(s.TopAttributes))
		for i, a := range s.TopAttributes {
			attrRows[i] = []string{truncateString(a.Name, 50), itoa(a.Rows)}
		}
		md.Table(markdown.TableSet{
			Header: []string{"Attribute", "Products"},
			Rows:   attrRows,
		})
		md.PlainText("")
	}

	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by specscrape*")

	return len(md.String()), md.Build()
}

// writeBrandChart draws a mermaid pie chart of the largest brands.
func (w *MarkdownWriter) writeBrandChart(md *markdown.Markdown, brands []model.BrandCount) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Products per Brand"),
		piechart.WithShowData(true),
	)

	other := 0
	for i, b := range brands {
		if i >= maxPieSlices {
			other += b.Products
			continue
		}
		chart.LabelAndIntValue(b.Brand, uint64(b.Products)) //nolint:gosec // counts are never negative
	}
	if other > 0 {
		chart.LabelAndIntValue("Other", uint64(other)) //nolint:gosec // counts are never negative
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
