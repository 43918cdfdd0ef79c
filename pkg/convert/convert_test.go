package convert

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeStubSoffice creates a shell script that mimics soffice by writing a
// fixed PDF payload next to the input file.
func writeStubSoffice(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("stub converter script requires a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "soffice")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

// stubConvertScript parses --outdir and the input path the way the real
// binary would, and emits <outdir>/<stem>.pdf.
const stubConvertScript = `#!/bin/sh
outdir=""
input=""
while [ $# -gt 0 ]; do
  case "$1" in
    --outdir) outdir="$2"; shift 2 ;;
    --headless|--convert-to) shift ;;
    pdf) shift ;;
    *) input="$1"; shift ;;
  esac
done
stem=$(basename "$input" .docx)
printf '%%PDF-stub' > "$outdir/$stem.pdf"
`

func TestCommandArgs(t *testing.T) {
	c := NewConverter()
	args := c.commandArgs("/tmp/in.docx", "/tmp/out")
	assert.Equal(t, []string{"--headless", "--convert-to", "pdf", "--outdir", "/tmp/out", "/tmp/in.docx"}, args)
}

func TestDefaultBinaryOverride(t *testing.T) {
	t.Setenv("DOCFILL_SOFFICE", "/custom/soffice")
	assert.Equal(t, "/custom/soffice", DefaultBinary())
}

func TestWordToPDF(t *testing.T) {
	c := NewConverter()
	c.Binary = writeStubSoffice(t, stubConvertScript)
	c.TempDir = t.TempDir()

	pdf, err := c.WordToPDF(context.Background(), []byte("fake docx content"))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-stub", string(pdf))

	// scratch files are cleaned up
	entries, err := os.ReadDir(c.TempDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWordToPDFEmptyInput(t *testing.T) {
	c := NewConverter()
	_, err := c.WordToPDF(context.Background(), nil)
	assert.Error(t, err)
}

func TestWordToPDFConverterFails(t *testing.T) {
	c := NewConverter()
	c.Binary = writeStubSoffice(t, "#!/bin/sh\necho boom >&2\nexit 3\n")
	c.TempDir = t.TempDir()

	_, err := c.WordToPDF(context.Background(), []byte("docx"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestWordToPDFNoOutputProduced(t *testing.T) {
	c := NewConverter()
	c.Binary = writeStubSoffice(t, "#!/bin/sh\nexit 0\n")
	c.TempDir = t.TempDir()

	_, err := c.WordToPDF(context.Background(), []byte("docx"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no pdf")
}

func TestWordToPDFTimeout(t *testing.T) {
	c := NewConverter()
	c.Binary = writeStubSoffice(t, "#!/bin/sh\nsleep 10\n")
	c.TempDir = t.TempDir()
	c.Timeout = 50 * time.Millisecond

	_, err := c.WordToPDF(context.Background(), []byte("docx"))
	assert.Error(t, err)
}

func TestWordToPDFBase64RoundTrip(t *testing.T) {
	c := NewConverter()
	c.Binary = writeStubSoffice(t, stubConvertScript)
	c.TempDir = t.TempDir()

	out, err := c.WordToPDFBase64(context.Background(), EncodeBase64([]byte("docx")))
	require.NoError(t, err)

	pdf, err := DecodeBase64Template(out)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-stub", string(pdf))
}

func TestWordToPDFBase64InvalidInput(t *testing.T) {
	c := NewConverter()
	_, err := c.WordToPDFBase64(context.Background(), "!!not base64!!")
	assert.Error(t, err)
}
