package tableio

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbukum/tabletool/errors"
	"github.com/kbukum/tabletool/logger"
	"github.com/kbukum/tabletool/stream"
)

func jsonLogger(buf *bytes.Buffer) *logger.Logger {
	return logger.NewWithWriter(&logger.Config{Level: "debug", Format: "json"}, "tabletool", buf)
}

func TestReaderSkipsCommentsAndBlankLines(t *testing.T) {
	in := "# header\n1\ta\n\n2\tb\n#x\t\n3\tc"
	r := NewReader(strings.NewReader(in), ReaderOptions{Comment: "#", Logger: logger.Nop()})

	rows, err := stream.Collect[stream.Row](context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, []stream.Row{{"1", "a"}, {"2", "b"}, {"3", "c"}}, rows)
	assert.Equal(t, 6, r.Line())
	assert.Equal(t, 3, r.Rows())
	assert.Equal(t, 2, r.Columns())
	assert.Equal(t, int64(-1), r.Size())
}

func TestReaderCommentsDisabled(t *testing.T) {
	r := NewReader(strings.NewReader("#1\t2\n"), ReaderOptions{Logger: logger.Nop()})
	rows, err := stream.Collect[stream.Row](context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, []stream.Row{{"#1", "2"}}, rows)
}

func TestReaderCustomSeparatorKeepsEmptyFields(t *testing.T) {
	r := NewReader(strings.NewReader("a,,c\n,\n"), ReaderOptions{Separator: ",", Logger: logger.Nop()})
	rows, err := stream.Collect[stream.Row](context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, []stream.Row{{"a", "", "c"}, {"", ""}}, rows)
}

func TestReaderRaggedRowWarns(t *testing.T) {
	var buf bytes.Buffer
	r := NewReader(strings.NewReader("1\t2\t3\n4\t5\n6\t7\t8\n"), ReaderOptions{Name: "t.tsv", Logger: jsonLogger(&buf)})

	rows, err := stream.Collect[stream.Row](context.Background(), r)
	require.NoError(t, err)
	require.Len(t, rows, 3, "ragged rows are passed through")
	assert.Equal(t, stream.Row{"4", "5"}, rows[1])
	assert.Equal(t, 1, r.Warnings())

	out := buf.String()
	assert.Contains(t, out, `"level":"warn"`)
	assert.Contains(t, out, `"line":2`)
	assert.Contains(t, out, string(errors.ErrCodeDataShape))
	assert.Contains(t, out, "t.tsv")
}

func TestReaderCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := NewReader(strings.NewReader("a\n"), ReaderOptions{Logger: logger.Nop()})
	_, ok, err := r.Next(ctx)
	assert.False(t, ok)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOpenReportsSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.tsv")
	content := "k\tv\nk2\tv2\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	r, err := Open(path, ReaderOptions{Logger: logger.Nop()})
	require.NoError(t, err)
	assert.Equal(t, int64(len(content)), r.Size())
	assert.Equal(t, int64(len(content)), stream.SizeOf(r))
	assert.Equal(t, path, r.Name())

	rows, err := stream.Collect[stream.Row](context.Background(), r)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.NoError(t, r.Close(), "closing twice is harmless")
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.tsv"), ReaderOptions{})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeIO))
}

func TestWriterJoinsAndTerminates(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, "")
	require.NoError(t, w.Write(stream.Row{"a", "b"}))
	require.NoError(t, w.Write(stream.Row{}))
	require.NoError(t, w.Write(stream.Row{"c"}))
	require.NoError(t, w.Close())

	assert.Equal(t, "a\tb\n\nc\n", buf.String())
	assert.Equal(t, int64(3), w.Rows())
}

func TestCopyRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")

	w, err := Create(path, ",")
	require.NoError(t, err)
	rows := []stream.Row{{"1", "x"}, {"2", "y"}}
	n, err := Copy(context.Background(), w, stream.FromSlice(rows))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	assert.Equal(t, int64(2), n)

	r, err := Open(path, ReaderOptions{Separator: ",", Logger: logger.Nop()})
	require.NoError(t, err)
	got, err := stream.Collect[stream.Row](context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, rows, got)
}

func TestCreateInMissingDir(t *testing.T) {
	_, err := Create(filepath.Join(t.TempDir(), "no", "such", "dir.tsv"), "")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeIO))
}
