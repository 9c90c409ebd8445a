package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	foundationerrors "git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
)

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" Print-PDF ")
	require.NoError(t, err)
	assert.Equal(t, FormatPrintPDF, f)
	assert.True(t, f.IsPDF())

	_, err = ParseFormat("mobi")
	require.Error(t, err)
}

func TestRequest_Validate(t *testing.T) {
	valid := []Request{
		{Work: "novel", Format: FormatEpub},
		{Work: "novel", Format: FormatPrintPDF, Language: "fr"},
		{Work: "novel", Format: FormatWord, SourceFormat: FormatScreenPDF},
		{Work: "novel", Format: FormatApp, AppOS: "android", AppBuild: true, AppEmulate: true},
	}
	for _, r := range valid {
		assert.NoError(t, r.Validate(), "%+v", r)
	}

	invalid := []Request{
		{Format: FormatEpub},
		{Work: "novel", Format: "mobi"},
		{Work: "novel", Format: FormatEpub, Language: "not a language"},
		{Work: "novel", Format: FormatWord, SourceFormat: FormatWord},
		{Work: "novel", Format: FormatApp, AppBuild: true},
		{Work: "novel", Format: FormatApp, AppOS: "ios", AppEmulate: true},
		{Work: "novel", Format: FormatEpub, Configs: []string{"../secret.yml"}},
	}
	for _, r := range invalid {
		err := r.Validate()
		require.Error(t, err, "%+v", r)
		assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryValidation))
	}
}

func TestRequest_ProductFormat(t *testing.T) {
	assert.Equal(t, FormatEpub, Request{Format: FormatEpub}.ProductFormat())
	assert.Equal(t, FormatPrintPDF, Request{Format: FormatWord}.ProductFormat())
	assert.Equal(t, FormatScreenPDF, Request{Format: FormatWord, SourceFormat: FormatScreenPDF}.ProductFormat())
	assert.Equal(t, "print-pdf", Request{Work: "novel", Format: FormatWord}.Query().Format)
}

func TestOutputName(t *testing.T) {
	assert.Equal(t, "novel.epub", OutputName(Request{Work: "novel", Format: FormatEpub}))
	assert.Equal(t, "novel-print-pdf.pdf", OutputName(Request{Work: "novel", Format: FormatPrintPDF}))
	assert.Equal(t, "novel-fr-screen-pdf.pdf", OutputName(Request{Work: "novel", Format: FormatScreenPDF, Language: "fr"}))
}
