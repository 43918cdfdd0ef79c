package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDataFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
text:
  name: Zhang Wei
  amount: 1200
tables:
  items:
    - product: Widget
      price: "19.99"
`), 0o644))

	data, err := loadDataFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Zhang Wei", data.Text["name"])
	assert.Equal(t, 1200, data.Text["amount"])
	require.Len(t, data.Tables["items"], 1)
	assert.Equal(t, "Widget", data.Tables["items"][0]["product"])
}

func TestLoadDataFileEmptyPath(t *testing.T) {
	data, err := loadDataFile("")
	require.NoError(t, err)
	assert.Empty(t, data.Text)
}

func TestLoadDataFileMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("text: [unbalanced"), 0o644))
	_, err := loadDataFile(path)
	assert.Error(t, err)
}

func TestHTMLCommandFillsToStdout(t *testing.T) {
	dir := t.TempDir()
	templatePath := filepath.Join(dir, "t.html")
	dataPath := filepath.Join(dir, "d.yaml")
	require.NoError(t, os.WriteFile(templatePath, []byte("<p>Hi {{name}}</p>"), 0o644))
	require.NoError(t, os.WriteFile(dataPath, []byte("text:\n  name: Li\n"), 0o644))

	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"html", "--template", templatePath, "--data", dataPath, "--check"})

	require.NoError(t, root.Execute())
	assert.Equal(t, "<p>Hi Li</p>", out.String())
}

func TestFillCommandMissingTemplateFlag(t *testing.T) {
	root := newRootCommand()
	root.SetArgs([]string{"fill", "--out", "x.docx"})
	assert.Error(t, root.Execute())
}
