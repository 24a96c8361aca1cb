package services

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildPDF writes a minimal PDF with one Helvetica text line per page.
func buildPDF(pages ...string) []byte {
	var buf bytes.Buffer
	var offsets []int
	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}

	buf.WriteString("%PDF-1.4\n")
	obj("<< /Type /Catalog /Pages 2 0 R >>")
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)))
	obj("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")
	for i, text := range pages {
		obj(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] "+
			"/Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i))
		stream := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
		obj(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(offsets)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)

	return buf.Bytes()
}

func TestExtractTextConcatenatesPagesInOrder(t *testing.T) {
	parser := NewPDFParserService()

	text, err := parser.ExtractText(buildPDF("First page Python", "Second page Go"))
	require.NoError(t, err)
	assert.Equal(t, "First page Python\nSecond page Go", text)
}

func TestExtractTextFromFileReadsPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resume.pdf")
	require.NoError(t, os.WriteFile(path, buildPDF("Go engineer", "Kubernetes"), 0o600))

	text, err := NewPDFParserService().ExtractTextFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Go engineer\nKubernetes", text)
}

func TestExtractTextRejectsInvalidDocuments(t *testing.T) {
	parser := NewPDFParserService()

	tests := []struct {
		name     string
		document []byte
	}{
		{name: "empty", document: nil},
		{name: "plain text", document: []byte("this is not a pdf at all")},
		{name: "truncated header", document: []byte("%PDF-1.4\n1 0 obj\n<<")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := parser.ExtractText(tt.document)
			require.Error(t, err)
			assert.Empty(t, text)

			var extractionErr *ExtractionError
			assert.True(t, errors.As(err, &extractionErr))
		})
	}
}

func TestExtractTextFromFile(t *testing.T) {
	parser := NewPDFParserService()

	_, err := parser.ExtractTextFromFile(filepath.Join(t.TempDir(), "missing.pdf"))
	var extractionErr *ExtractionError
	require.True(t, errors.As(err, &extractionErr))
	assert.True(t, errors.Is(err, os.ErrNotExist))

	path := filepath.Join(t.TempDir(), "resume.pdf")
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o600))

	_, err = parser.ExtractTextFromFile(path)
	assert.True(t, errors.As(err, &extractionErr))
}

func TestExtractionErrorMessage(t *testing.T) {
	err := &ExtractionError{Cause: errors.New("encrypted")}
	assert.Equal(t, "failed to extract text from PDF: encrypted", err.Error())
	assert.Equal(t, "failed to extract text from PDF", (&ExtractionError{}).Error())
}
