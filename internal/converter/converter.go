package converter

import (
	"archive/zip"
	"bufio"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrNotDocx       = errors.New("file is not a docx document")
	ErrEmptyDocument = errors.New("document has no text")
)

const documentPart = "word/document.xml"

// wordNS is the WordprocessingML main namespace used by w:* elements.
const wordNS = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

// DocxConverter turns quiz tables of a .docx document into the plain-text
// test format:
//
//	? question
//	+ correct answer
//	- wrong answer
//
// The first cell of a row is the question, the second the correct answer and
// the rest wrong answers. Documents without tables are written paragraph by
// paragraph.
type DocxConverter struct {
	maxSize int64
}

func NewDocxConverter() *DocxConverter {
	return &DocxConverter{maxSize: 64 << 20}
}

func (c *DocxConverter) Convert(ctx context.Context, srcPath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	doc, err := c.parse(srcPath)
	if err != nil {
		return "", err
	}

	resultPath := buildResultPath(srcPath)
	if err := writeResult(resultPath, doc); err != nil {
		_ = os.Remove(resultPath)
		return "", fmt.Errorf("write result: %w", err)
	}

	info, err := os.Stat(resultPath)
	if err != nil {
		return "", fmt.Errorf("stat result: %w", err)
	}
	if info.Size() == 0 {
		_ = os.Remove(resultPath)
		return "", ErrEmptyDocument
	}
	return resultPath, nil
}

func (c *DocxConverter) parse(srcPath string) (*document, error) {
	zr, err := zip.OpenReader(srcPath)
	if err != nil {
		if errors.Is(err, zip.ErrFormat) {
			return nil, ErrNotDocx
		}
		return nil, fmt.Errorf("open docx: %w", err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != documentPart {
			continue
		}
		if int64(f.UncompressedSize64) > c.maxSize {
			return nil, fmt.Errorf("%s is too large: %d bytes", documentPart, f.UncompressedSize64)
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", documentPart, err)
		}
		defer rc.Close()
		return readDocument(io.LimitReader(rc, c.maxSize))
	}
	return nil, ErrNotDocx
}

type row []string

type document struct {
	rows       []row
	paragraphs []string
}

// readDocument streams document.xml. Only top-level tables produce rows;
// text of nested tables is folded into the enclosing cell.
func readDocument(r io.Reader) (*document, error) {
	var (
		doc        document
		dec        = xml.NewDecoder(r)
		tableDepth int
		current    row
		cell       []string
		para       strings.Builder
		inText     bool
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNotDocx, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != wordNS {
				continue
			}
			switch t.Name.Local {
			case "tbl":
				tableDepth++
			case "tr":
				if tableDepth == 1 {
					current = current[:0:0]
				}
			case "tc":
				if tableDepth == 1 {
					cell = cell[:0:0]
				}
			case "p":
				para.Reset()
			case "t":
				inText = true
			case "tab":
				para.WriteByte('\t')
			case "br", "cr":
				para.WriteByte(' ')
			}
		case xml.EndElement:
			if t.Name.Space != wordNS {
				continue
			}
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				text := strings.TrimSpace(para.String())
				if tableDepth > 0 {
					if text != "" {
						cell = append(cell, text)
					}
				} else {
					doc.paragraphs = append(doc.paragraphs, text)
				}
				para.Reset()
			case "tc":
				if tableDepth == 1 {
					current = append(current, strings.Join(cell, " "))
				}
			case "tr":
				if tableDepth == 1 {
					doc.rows = append(doc.rows, current)
				}
			case "tbl":
				tableDepth--
			}
		case xml.CharData:
			if inText {
				para.Write(t)
			}
		}
	}
	return &doc, nil
}

func writeResult(path string, doc *document) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()

	w := bufio.NewWriter(out)
	if len(doc.rows) > 0 {
		writeQuiz(w, doc.rows)
	} else {
		writeParagraphs(w, doc.paragraphs)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return out.Sync()
}

func writeQuiz(w *bufio.Writer, rows []row) {
	for _, r := range rows {
		if len(r) == 0 {
			continue
		}
		question := strings.TrimSpace(r[0])
		if question == "" {
			continue
		}
		fmt.Fprintf(w, "? %s\n", question)
		for i, answer := range r[1:] {
			answer = strings.TrimSpace(answer)
			if answer == "" {
				continue
			}
			if i == 0 {
				fmt.Fprintf(w, "+ %s\n", answer)
			} else {
				fmt.Fprintf(w, "- %s\n", answer)
			}
		}
		w.WriteByte('\n')
	}
}

func writeParagraphs(w *bufio.Writer, paragraphs []string) {
	hasText := false
	for _, p := range paragraphs {
		if p != "" {
			hasText = true
			break
		}
	}
	if !hasText {
		return
	}
	for _, p := range paragraphs {
		w.WriteString(p)
		w.WriteByte('\n')
	}
}

// buildResultPath places the text file next to the source so that the
// artifact sweep sees both.
func buildResultPath(srcPath string) string {
	dir := filepath.Dir(srcPath)
	base := filepath.Base(srcPath)
	ext := filepath.Ext(base)
	if ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	if base == "" {
		base = "converted"
	}
	return filepath.Join(dir, base+"_result.txt")
}
