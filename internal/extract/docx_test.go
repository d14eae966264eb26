package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"strings"
	"testing"
)

func buildDocx(t *testing.T, documentXML string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create entry: %v", err)
	}
	if _, err := w.Write([]byte(documentXML)); err != nil {
		t.Fatalf("write entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

const sampleDocumentXML = `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Câu 1. Thủ đô của Việt Nam là gì?</w:t></w:r></w:p>
    <w:p><w:r><w:t>A. Hà Nội</w:t></w:r><w:r><w:tab/><w:t>B. Huế</w:t></w:r></w:p>
    <w:p><w:r><w:t>Dòng trên</w:t><w:br/><w:t>dòng dưới</w:t></w:r></w:p>
  </w:body>
</w:document>`

func TestFromDOCX(t *testing.T) {
	doc, err := FromFile(context.Background(), "de-thi.docx", buildDocx(t, sampleDocumentXML))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	wantLines := []string{
		"Câu 1. Thủ đô của Việt Nam là gì?",
		"A. Hà Nội\tB. Huế",
		"Dòng trên\ndòng dưới",
	}
	for _, line := range wantLines {
		if !strings.Contains(doc.Text, line) {
			t.Errorf("text missing %q:\n%s", line, doc.Text)
		}
	}

	// Paragraphs must stay on separate lines.
	if strings.Contains(doc.Text, "gì?A.") {
		t.Errorf("paragraph boundary lost:\n%s", doc.Text)
	}
}

func TestFromDOCXMissingDocument(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, _ := zw.Create("word/styles.xml")
	w.Write([]byte("<styles/>"))
	zw.Close()

	if _, err := FromFile(context.Background(), "x.docx", buf.Bytes()); err == nil {
		t.Fatal("expected error for docx without document.xml")
	}
}

func TestFromFileUnsupported(t *testing.T) {
	_, err := FromFile(context.Background(), "notes.txt", []byte("hello"))
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "unsupported") {
		t.Errorf("err = %v, want unsupported format", err)
	}
}
