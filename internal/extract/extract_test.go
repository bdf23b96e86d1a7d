package extract

import (
	"testing"

	"github.com/stretchr/testify/require"

	appErr "github.com/xxxsen/medassist/internal/pkg/errors"
)

func TestPagesRejectsUnknownExtension(t *testing.T) {
	_, err := Pages("scan.docx", []byte("x"))
	require.ErrorIs(t, err, appErr.ErrUnsupportedFile)
	require.False(t, Supported("a.exe"))
	require.True(t, Supported("REPORT.PDF"))
	require.True(t, Supported("notes.md"))
}

func TestPagesPlainText(t *testing.T) {
	pages, err := Pages("notes.txt", []byte("line one\nline two"))
	require.NoError(t, err)
	require.Equal(t, []string{"line one\nline two"}, pages)
}

func TestPagesMarkdownDropsMarkup(t *testing.T) {
	src := "# Results\n\nYour **glucose** was *normal*.\n\n- item one\n- item two\n"
	pages, err := Pages("r.md", []byte(src))
	require.NoError(t, err)
	require.Len(t, pages, 1)
	require.Contains(t, pages[0], "Results")
	require.Contains(t, pages[0], "Your glucose was normal.")
	require.Contains(t, pages[0], "item one")
	require.NotContains(t, pages[0], "**")
	require.NotContains(t, pages[0], "#")
}

func TestPagesMalformedPDF(t *testing.T) {
	_, err := Pages("broken.pdf", []byte("not a pdf"))
	require.Error(t, err)
}
