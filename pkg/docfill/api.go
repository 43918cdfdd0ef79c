// Package docfill fills Microsoft Word (DOCX) templates with data.
//
// Templates carry ${key} placeholders in body text and table cells, and
// ${table:name} markers for repeating table rows. Placeholders survive
// arbitrary run fragmentation: Word often splits "${name}" across several
// runs while the user types, and docfill resolves them anyway.
//
// Basic usage:
//
//	template, err := os.ReadFile("contract.docx")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	output, err := docfill.Fill(template, docfill.FillData{
//	    Text: docfill.ScalarMap{"name": "Zhang Wei", "amount": 1200},
//	    Tables: docfill.TableMap{
//	        "items": {
//	            {"product": "Widget", "price": "19.99"},
//	            {"product": "Gadget", "price": "29.99"},
//	        },
//	    },
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := os.WriteFile("filled.docx", output, 0o644); err != nil {
//	    log.Fatal(err)
//	}
package docfill

import (
	"encoding/base64"
	"io"
	"os"
)

// ScalarMap binds placeholder keys to text values. Non-string values are
// rendered with default formatting; nil renders as the empty string.
type ScalarMap map[string]interface{}

// ImageMap binds placeholder keys to image streams. Each bound image is
// consumed by the first body paragraph containing its placeholder and
// embedded inline at a fixed display size.
type ImageMap map[string]io.Reader

// RowData binds keys for a single generated table row. Row bindings shadow
// global scalar bindings for the same key.
type RowData map[string]interface{}

// Dataset is the ordered list of rows bound to one table loop.
type Dataset []RowData

// TableMap binds ${table:name} loop names to datasets.
type TableMap map[string]Dataset

// FillData is the complete set of bindings for one fill.
type FillData struct {
	Text   ScalarMap
	Images ImageMap
	Tables TableMap
}

// Engine is the configured entry point for filling documents.
// Use New for an engine with defaults.
type Engine struct {
	config *Config
	logger *Logger
	auth   Authorizer
}

// New creates an engine with the global configuration.
func New() *Engine {
	config := GetGlobalConfig()
	return &Engine{
		config: config,
		logger: GetLogger(),
		auth:   KeyAuthorizer(config.LicenseKey),
	}
}

// NewWithConfig creates an engine with a custom configuration.
func NewWithConfig(config *Config) *Engine {
	if config == nil {
		return New()
	}
	return &Engine{
		config: config,
		logger: GetLogger(),
		auth:   KeyAuthorizer(config.LicenseKey),
	}
}

// Config returns the engine's configuration.
func (e *Engine) Config() *Config {
	return e.config
}

// UseAuthorizer replaces the engine's authorizer.
func (e *Engine) UseAuthorizer(auth Authorizer) {
	if auth == nil {
		auth = AllowAll()
	}
	e.auth = auth
}

// Fill substitutes data into a DOCX template and returns the filled
// document. The template bytes are not modified.
func (e *Engine) Fill(template []byte, data FillData) ([]byte, error) {
	if err := e.auth.Authorize(OpFill); err != nil {
		return nil, err
	}

	e.logger.WithFields(Fields{
		"scalars": len(data.Text),
		"images":  len(data.Images),
		"tables":  len(data.Tables),
	}).Debug("filling document template")

	output, err := fill(template, data)
	if err != nil {
		e.logger.Error("fill failed: %v", err)
		return nil, err
	}
	return output, nil
}

// FillBase64 is Fill over Base64 payloads: it decodes the template,
// fills it, and encodes the result.
func (e *Engine) FillBase64(templateB64 string, data FillData) (string, error) {
	template, err := base64.StdEncoding.DecodeString(templateB64)
	if err != nil {
		return "", &InvalidInputError{Message: "template is not valid base64"}
	}

	output, err := e.Fill(template, data)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(output), nil
}

// FillFile fills a template read from templatePath and writes the result
// to outputPath.
func (e *Engine) FillFile(templatePath, outputPath string, data FillData) error {
	template, err := os.ReadFile(templatePath)
	if err != nil {
		return &DocumentError{Operation: "read", Path: templatePath, Cause: err}
	}

	output, err := e.Fill(template, data)
	if err != nil {
		return err
	}

	if err := os.WriteFile(outputPath, output, 0o644); err != nil {
		return &DocumentError{Operation: "write", Path: outputPath, Cause: err}
	}
	return nil
}

// DefaultEngine is the shared engine used by the package-level functions.
var DefaultEngine = New()

// Fill fills a template using the default engine.
func Fill(template []byte, data FillData) ([]byte, error) {
	return DefaultEngine.Fill(template, data)
}

// FillBase64 fills a Base64 template using the default engine.
func FillBase64(templateB64 string, data FillData) (string, error) {
	return DefaultEngine.FillBase64(templateB64, data)
}
