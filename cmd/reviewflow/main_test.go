package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spacesedan/reviewflow/internal/models"
	"github.com/spacesedan/reviewflow/internal/processing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSeparator(t *testing.T) {
	for raw, want := range map[string]rune{",": ',', "": ',', ";": ';', `\t`: '\t', "tab": '\t'} {
		got, err := parseSeparator(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}
	_, err := parseSeparator("|")
	assert.ErrorIs(t, err, processing.ErrParseFailure)
}

func TestPresentWritesReportAndCSV(t *testing.T) {
	score := 0.75
	res := &processing.Result{
		RunID: "run-1",
		State: processing.StateDone,
		Reviews: []models.AnalyzedReview{
			{Comment: "Chegou rápido", SentimentLabel: models.SentimentPositive, SentimentScore: &score, Rating: models.IntPtr(5)},
		},
		Notices: []processing.Notice{{Level: processing.NoticeWarning, Message: "collection stopped early"}},
	}
	out := filepath.Join(t.TempDir(), "out.csv")

	var buf bytes.Buffer
	require.NoError(t, present(&buf, res, out))

	assert.Contains(t, buf.String(), "[warning] collection stopped early")
	assert.Contains(t, buf.String(), "Chegou rápido")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Chegou rápido,positive,0.7500,5", lines[1])
}

func TestPresentFailedRun(t *testing.T) {
	res := &processing.Result{RunID: "run-2", State: processing.StateFailed,
		Notices: []processing.Notice{{Level: processing.NoticeError, Message: "collection failed"}}}

	var buf bytes.Buffer
	err := present(&buf, res, filepath.Join(t.TempDir(), "out.csv"))
	assert.Error(t, err)
	assert.Contains(t, buf.String(), "collection failed")
}

func TestPresentEmptyRunSkipsFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.csv")
	res := &processing.Result{State: processing.StateDone}

	var buf bytes.Buffer
	require.NoError(t, present(&buf, res, out))
	_, err := os.Stat(out)
	assert.True(t, os.IsNotExist(err))
}

func TestFileCommandReportsColumnErrorBeforeLoadingClassifier(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reviews.csv")
	require.NoError(t, os.WriteFile(path, []byte("id;comentario\n1;Entrega rápida\n"), 0o644))

	cmd := newFileCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs([]string{path, "--sep", ";", "--column", "texto"})

	err := cmd.Execute()

	assert.ErrorIs(t, err, processing.ErrParseFailure)
	assert.Contains(t, buf.String(), "Entrega rápida")
	assert.NotContains(t, buf.String(), "Total de reviews")
}

func TestFileCommandRejectsSeparatorFirst(t *testing.T) {
	cmd := newFileCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"missing.csv", "--sep", "|"})

	assert.ErrorIs(t, cmd.Execute(), processing.ErrParseFailure)
}

type failingCloser struct {
	bytes.Buffer
	err error
}

func (f *failingCloser) Close() error { return f.err }

func TestWriteAndCloseReturnsCloseError(t *testing.T) {
	res := &processing.Result{Reviews: []models.AnalyzedReview{{Comment: "ok", SentimentLabel: models.SentimentNeutral}}}
	diskFull := errors.New("no space left on device")

	w := &failingCloser{err: diskFull}
	assert.ErrorIs(t, writeAndClose(w, res), diskFull)
	assert.Contains(t, w.String(), "ok,neutral,,")

	assert.NoError(t, writeAndClose(&failingCloser{}, res))
}

func TestWriteCSVToMissingDirectory(t *testing.T) {
	out := filepath.Join(t.TempDir(), "missing", "out.csv")
	assert.Error(t, writeCSV(out, &processing.Result{}))
}
