package converter

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const docHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`

const docFooter = `</w:body></w:document>`

func cellXML(parts ...string) string {
	var b strings.Builder
	b.WriteString("<w:tc>")
	for _, p := range parts {
		b.WriteString("<w:p><w:r><w:t>" + p + "</w:t></w:r></w:p>")
	}
	b.WriteString("</w:tc>")
	return b.String()
}

func rowXML(cells ...string) string {
	var b strings.Builder
	b.WriteString("<w:tr>")
	for _, c := range cells {
		b.WriteString(cellXML(c))
	}
	b.WriteString("</w:tr>")
	return b.String()
}

func writeDocx(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "quiz.docx")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	w, err := zw.Create("[Content_Types].xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<?xml version="1.0"?><Types/>`))
	require.NoError(t, err)

	w, err = zw.Create(documentPart)
	require.NoError(t, err)
	_, err = w.Write([]byte(docHeader + body + docFooter))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return path
}

func convert(t *testing.T, body string) string {
	t.Helper()
	src := writeDocx(t, body)
	out, err := NewDocxConverter().Convert(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(filepath.Dir(src), "quiz_result.txt"), out)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	return string(data)
}

func TestConvertQuizTable(t *testing.T) {
	body := "<w:tbl>" +
		rowXML("2 + 2 = ?", "4", "3", "5") +
		rowXML("Capital of Uzbekistan", "Tashkent", "", "Samarkand") +
		rowXML("", "orphan answer") +
		"</w:tbl>"

	got := convert(t, body)
	want := "? 2 + 2 = ?\n+ 4\n- 3\n- 5\n\n" +
		"? Capital of Uzbekistan\n+ Tashkent\n- Samarkand\n\n"
	assert.Equal(t, want, got)
}

func TestConvertMissingCorrectAnswer(t *testing.T) {
	body := "<w:tbl>" + rowXML("Question", "", "wrong") + "</w:tbl>"

	assert.Equal(t, "? Question\n- wrong\n\n", convert(t, body))
}

func TestConvertJoinsCellParagraphs(t *testing.T) {
	body := "<w:tbl><w:tr>" +
		cellXML("Which one", "is prime?") +
		cellXML("7") +
		"</w:tr></w:tbl>"

	assert.Equal(t, "? Which one is prime?\n+ 7\n\n", convert(t, body))
}

func TestConvertSplitRuns(t *testing.T) {
	body := `<w:tbl><w:tr><w:tc><w:p><w:r><w:t>Hel</w:t></w:r><w:r><w:t xml:space="preserve">lo </w:t></w:r><w:r><w:t>world</w:t></w:r></w:p></w:tc>` +
		cellXML("yes") + "</w:tr></w:tbl>"

	assert.Equal(t, "? Hello world\n+ yes\n\n", convert(t, body))
}

func TestConvertNestedTableStaysInCell(t *testing.T) {
	nested := "<w:tbl>" + rowXML("inner") + "</w:tbl>"
	body := "<w:tbl><w:tr><w:tc><w:p><w:r><w:t>Outer</w:t></w:r></w:p>" + nested + "</w:tc>" +
		cellXML("answer") + "</w:tr></w:tbl>"

	assert.Equal(t, "? Outer inner\n+ answer\n\n", convert(t, body))
}

func TestConvertParagraphFallback(t *testing.T) {
	body := "<w:p><w:r><w:t>First line</w:t></w:r></w:p>" +
		"<w:p/>" +
		"<w:p><w:r><w:t>Second</w:t><w:tab/><w:t>line</w:t></w:r></w:p>"

	assert.Equal(t, "First line\n\nSecond\tline\n", convert(t, body))
}

func TestConvertEmptyDocument(t *testing.T) {
	src := writeDocx(t, "<w:p/>")

	_, err := NewDocxConverter().Convert(context.Background(), src)
	assert.ErrorIs(t, err, ErrEmptyDocument)
	_, statErr := os.Stat(buildResultPath(src))
	assert.True(t, os.IsNotExist(statErr))
}

func TestConvertRejectsNonDocx(t *testing.T) {
	src := filepath.Join(t.TempDir(), "notes.docx")
	require.NoError(t, os.WriteFile(src, []byte("plain text, not a zip archive"), 0o644))

	_, err := NewDocxConverter().Convert(context.Background(), src)
	assert.ErrorIs(t, err, ErrNotDocx)
}

func TestConvertRejectsZipWithoutDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.docx")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	_, err = zw.Create("other.xml")
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	_, err = NewDocxConverter().Convert(context.Background(), path)
	assert.ErrorIs(t, err, ErrNotDocx)
}

func TestConvertCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewDocxConverter().Convert(ctx, "whatever.docx")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuildResultPath(t *testing.T) {
	assert.Equal(t, filepath.Join("files", "1_abc_test_result.txt"), buildResultPath(filepath.Join("files", "1_abc_test.docx")))
	assert.Equal(t, filepath.Join("files", "noext_result.txt"), buildResultPath(filepath.Join("files", "noext")))
}
