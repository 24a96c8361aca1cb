package services

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ExtractionFailedText replaces the resume text when a document cannot be read.
const ExtractionFailedText = "Could not extract text from the PDF file."

type PDFParserService interface {
	ExtractText(document []byte) (string, error)
	ExtractTextFromFile(filePath string) (string, error)
}

type pdfParserService struct{}

func NewPDFParserService() PDFParserService {
	return &pdfParserService{}
}

// ExtractText returns the plain text of all pages in order. Every failure is an *ExtractionError.
func (p *pdfParserService) ExtractText(document []byte) (text string, err error) {
	if len(document) == 0 {
		return "", &ExtractionError{Cause: errors.New("document is empty")}
	}

	// The parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = &ExtractionError{Cause: fmt.Errorf("malformed PDF: %v", r)}
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(document), int64(len(document)))
	if err != nil {
		return "", &ExtractionError{Cause: fmt.Errorf("failed to open PDF: %w", err)}
	}

	var textBuilder strings.Builder
	totalPage := r.NumPage()

	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		page := r.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", &ExtractionError{Cause: fmt.Errorf("failed to read page %d: %w", pageIndex, err)}
		}

		textBuilder.WriteString(pageText)
		textBuilder.WriteString("\n\n")
	}

	return CleanText(textBuilder.String()), nil
}

// ExtractTextFromFile reads a PDF from disk and extracts it.
func (p *pdfParserService) ExtractTextFromFile(filePath string) (string, error) {
	document, err := os.ReadFile(filePath)
	if err != nil {
		return "", &ExtractionError{Cause: fmt.Errorf("failed to read file: %w", err)}
	}

	return p.ExtractText(document)
}
