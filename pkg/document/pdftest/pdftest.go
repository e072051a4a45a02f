// Package pdftest builds small, valid PDF files for tests.
package pdftest

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
)

// Build returns a PDF with one page per entry. Each line of an entry is drawn
// with the standard Helvetica font. An empty entry yields a page with no text layer.
func Build(pages ...string) []byte {
	return BuildWithTitle("", pages...)
}

// BuildWithTitle is Build with a /Title entry in the document-information dictionary.
func BuildWithTitle(title string, pages ...string) []byte {
	streams := make([]string, len(pages))
	for i, text := range pages {
		streams[i] = pageContent(text)
	}
	return build(title, streams)
}

// BuildContent returns a PDF whose pages use the given raw content streams as is.
// The font resource /F1 is Helvetica, as in Build.
func BuildContent(streams ...string) []byte {
	return build("", streams)
}

// Page is one page for BuildPages. Forms maps a resource name to the content
// stream of a form XObject; a form inherits /F1 and can draw other forms of its page.
type Page struct {
	Content string
	Forms   map[string]string
}

// Options tune BuildPages. Encoding replaces the /Encoding name of /F1.
type Options struct {
	Title    string
	Encoding string
}

// BuildPages is the general form of Build and BuildContent.
func BuildPages(o Options, pages ...Page) []byte {
	if o.Encoding == "" {
		o.Encoding = "WinAnsiEncoding"
	}
	objs := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"", // page tree, filled once the page numbers are known
		fmt.Sprintf("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /%s >>", o.Encoding),
	}
	add := func(obj string) int {
		objs = append(objs, obj)
		return len(objs)
	}
	kids := make([]string, len(pages))
	for i, pg := range pages {
		names := make([]string, 0, len(pg.Forms))
		for name := range pg.Forms {
			names = append(names, name)
		}
		sort.Strings(names)

		// forms are numbered first so they can reference each other
		base := len(objs) + 1
		var xobjs strings.Builder
		for j, name := range names {
			fmt.Fprintf(&xobjs, " /%s %d 0 R", name, base+j)
		}
		res := "<< /Font << /F1 3 0 R >> >>"
		if len(names) > 0 {
			res = fmt.Sprintf("<< /Font << /F1 3 0 R >> /XObject <<%s >> >>", xobjs.String())
		}
		for _, name := range names {
			body := pg.Forms[name]
			add(fmt.Sprintf("<< /Type /XObject /Subtype /Form /BBox [0 0 612 792] /Resources %s /Length %d >>\nstream\n%s\nendstream", res, len(body), body))
		}
		content := len(objs) + 2
		kids[i] = fmt.Sprintf("%d 0 R", add(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources %s /Contents %d 0 R >>", res, content)))
		add(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(pg.Content), pg.Content))
	}
	objs[1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages))

	info := "<< /Producer (pdftest) >>"
	if o.Title != "" {
		info = fmt.Sprintf("<< /Title (%s) /Producer (pdftest) >>", escape(o.Title))
	}
	infoRef := add(info)

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, obj := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objs)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R /Info %d 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, infoRef, xref)
	return buf.Bytes()
}

func build(title string, streams []string) []byte {
	pages := make([]Page, len(streams))
	for i, content := range streams {
		pages[i] = Page{Content: content}
	}
	return BuildPages(Options{Title: title}, pages...)
}

func pageContent(text string) string {
	if strings.TrimSpace(text) == "" {
		return "BT ET"
	}
	var b strings.Builder
	b.WriteString("BT /F1 12 Tf 72 720 Td")
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			b.WriteString(" 0 -16 Td")
		}
		fmt.Fprintf(&b, " (%s) Tj", escape(line))
	}
	b.WriteString(" ET")
	return b.String()
}

func escape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(s)
}
