package htmlfill

import (
	"fmt"
	"io"
	"os"

	"github.com/docforge/docfill/pkg/docfill"
)

// FontSet lists the font files a renderer embeds into the produced PDF.
// CJK templates need at least one font carrying the full character set.
type FontSet struct {
	Paths []string
}

// Validate checks that every font file exists and is a regular file.
func (fs FontSet) Validate() error {
	for _, path := range fs.Paths {
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("font file %s: %w", path, err)
		}
		if info.IsDir() {
			return fmt.Errorf("font file %s is a directory", path)
		}
	}
	return nil
}

// Renderer turns filled HTML into a PDF stream. Rendering itself is outside
// this package; implementations typically shell out or call a PDF library.
type Renderer interface {
	Render(doc string, fonts FontSet, out io.Writer) error
}

// RendererFunc adapts a function to the Renderer interface.
type RendererFunc func(doc string, fonts FontSet, out io.Writer) error

func (f RendererFunc) Render(doc string, fonts FontSet, out io.Writer) error {
	return f(doc, fonts, out)
}

// Engine fills HTML templates and drives a Renderer for PDF output.
type Engine struct {
	renderer Renderer
	fonts    FontSet
	auth     docfill.Authorizer
	logger   *docfill.Logger
}

// NewEngine creates an engine around a renderer and its fonts.
func NewEngine(renderer Renderer, fonts FontSet) *Engine {
	config := docfill.GetGlobalConfig()
	return &Engine{
		renderer: renderer,
		fonts:    fonts,
		auth:     docfill.KeyAuthorizer(config.LicenseKey),
		logger:   docfill.GetLogger(),
	}
}

// UseAuthorizer replaces the engine's authorizer.
func (e *Engine) UseAuthorizer(auth docfill.Authorizer) {
	if auth == nil {
		auth = docfill.AllowAll()
	}
	e.auth = auth
}

// Render fills doc with data and writes the rendered PDF to out.
func (e *Engine) Render(doc string, data map[string]interface{}, out io.Writer) error {
	if err := e.auth.Authorize(docfill.OpConvert); err != nil {
		return err
	}
	if e.renderer == nil {
		return fmt.Errorf("no renderer configured")
	}
	if err := e.fonts.Validate(); err != nil {
		return err
	}

	filled := Fill(doc, data)
	if err := e.renderer.Render(filled, e.fonts, out); err != nil {
		return fmt.Errorf("rendering pdf: %w", err)
	}
	return nil
}

// RenderFile reads an HTML template from templatePath, fills it, and writes
// the rendered PDF to outputPath. It reports success as a boolean and logs
// the underlying error; a false return leaves no partial output file behind.
func (e *Engine) RenderFile(templatePath, outputPath string, data map[string]interface{}) bool {
	template, err := os.ReadFile(templatePath)
	if err != nil {
		e.logger.Error("reading html template %s: %v", templatePath, err)
		return false
	}

	out, err := os.Create(outputPath)
	if err != nil {
		e.logger.Error("creating pdf output %s: %v", outputPath, err)
		return false
	}

	if err := e.Render(string(template), data, out); err != nil {
		out.Close()
		os.Remove(outputPath)
		e.logger.Error("rendering %s: %v", templatePath, err)
		return false
	}

	if err := out.Close(); err != nil {
		os.Remove(outputPath)
		e.logger.Error("closing pdf output %s: %v", outputPath, err)
		return false
	}
	return true
}
