// Package convert turns filled DOCX documents into PDF by driving a
// headless LibreOffice process.
package convert

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/docforge/docfill/pkg/docfill"
)

const (
	windowsBinary = `C:\Program Files\LibreOffice\program\soffice.exe`
	linuxBinary   = "/opt/libreoffice25.8/program/soffice"

	// DefaultTimeout bounds one conversion. LibreOffice occasionally hangs
	// on malformed input, so an unbounded wait is not an option.
	DefaultTimeout = 2 * time.Minute
)

// DefaultBinary returns the conventional LibreOffice path for the current
// platform. DOCFILL_SOFFICE overrides it.
func DefaultBinary() string {
	if path := os.Getenv("DOCFILL_SOFFICE"); path != "" {
		return path
	}
	if runtime.GOOS == "windows" {
		return windowsBinary
	}
	return linuxBinary
}

// Converter runs DOCX to PDF conversions. The zero value is not usable;
// construct with NewConverter.
type Converter struct {
	// Binary is the soffice executable path.
	Binary string
	// TempDir holds the per-conversion scratch files. Empty means the
	// system temp directory.
	TempDir string
	// Timeout bounds a single conversion.
	Timeout time.Duration

	logger *docfill.Logger
}

// NewConverter creates a converter with platform defaults.
func NewConverter() *Converter {
	return &Converter{
		Binary:  DefaultBinary(),
		TempDir: os.TempDir(),
		Timeout: DefaultTimeout,
		logger:  docfill.GetLogger(),
	}
}

// randomName returns a 7-character lowercase alphanumeric file stem.
func randomName() string {
	const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	b := make([]byte, 7)
	for i := range b {
		b[i] = alphabet[rand.Intn(len(alphabet))]
	}
	return string(b)
}

// commandArgs builds the soffice invocation for one input file.
func (c *Converter) commandArgs(docxPath, outDir string) []string {
	return []string{
		"--headless",
		"--convert-to", "pdf",
		"--outdir", outDir,
		docxPath,
	}
}

// WordToPDF converts DOCX bytes to PDF bytes. Scratch files are written
// under TempDir and removed before returning, success or not.
func (c *Converter) WordToPDF(ctx context.Context, docx []byte) ([]byte, error) {
	if len(docx) == 0 {
		return nil, fmt.Errorf("empty document")
	}

	dir := c.TempDir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating temp dir %s: %w", dir, err)
	}

	stem := randomName()
	docxPath := filepath.Join(dir, stem+".docx")
	pdfPath := filepath.Join(dir, stem+".pdf")

	if err := os.WriteFile(docxPath, docx, 0o644); err != nil {
		return nil, fmt.Errorf("writing temp docx: %w", err)
	}
	defer os.Remove(docxPath)
	defer os.Remove(pdfPath)

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	args := c.commandArgs(docxPath, dir)
	c.logger.Debug("running %s %s", c.Binary, strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, c.Binary, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("soffice conversion failed: %w: %s", err, strings.TrimSpace(string(output)))
	}

	pdf, err := os.ReadFile(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("conversion produced no pdf: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return pdf, nil
}

// WordToPDFBase64 is WordToPDF over Base64 payloads, matching the wire
// contract of callers that move documents as Base64 strings.
func (c *Converter) WordToPDFBase64(ctx context.Context, docxB64 string) (string, error) {
	docx, err := DecodeBase64Template(docxB64)
	if err != nil {
		return "", err
	}
	pdf, err := c.WordToPDF(ctx, docx)
	if err != nil {
		return "", err
	}
	return EncodeBase64(pdf), nil
}
