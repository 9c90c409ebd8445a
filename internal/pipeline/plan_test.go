package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlan_PerFormat(t *testing.T) {
	cases := []struct {
		name string
		req  Request
		math bool
		want []StageName
	}{
		{"web", Request{Format: FormatWeb}, false, []StageName{StageClearSite, StageGenerateSite}},
		{"print-pdf", Request{Format: FormatPrintPDF}, false, []StageName{
			StageClearSite, StageGenerateSite, StageIndexComments, StageIndexLinks, StageRenderPDF,
		}},
		{"screen-pdf with math and open", Request{Format: FormatScreenPDF, OpenResult: true}, true, []StageName{
			StageClearSite, StageGenerateSite, StageRenderMath, StageIndexComments, StageIndexLinks,
			StageRenderPDF, StageOpenResult,
		}},
		{"epub", Request{Format: FormatEpub}, true, []StageName{
			StageClearSite, StageGenerateSite, StageIndexComments, StageIndexLinks,
			StageXHTMLLinks, StageXHTMLFiles, StagePurgeHTML, StageCopyEpubFiles,
			StageAssembleEpub, StageValidateEpub,
		}},
		{"app shell only", Request{Format: FormatApp}, false, []StageName{
			StageClearSite, StageGenerateSite, StageAssembleApp,
		}},
		{"app build and emulate", Request{Format: FormatApp, AppOS: "android", AppBuild: true, AppEmulate: true}, false, []StageName{
			StageClearSite, StageGenerateSite, StageAssembleApp,
			StageAppPlatformAdd, StageAppPrepare, StageAppBuild, StageAppEmulate,
		}},
		{"word", Request{Format: FormatWord}, true, []StageName{StageClearSite, StageGenerateSite, StageConvertWord}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Plan(tc.req, tc.math))
		})
	}
}

func TestRefreshPlan(t *testing.T) {
	assert.Equal(t, []StageName{StageClearSite, StageGenerateSite, StageReferenceIndex, StageSearchIndex},
		RefreshPlan(Request{Format: FormatWeb}, true))
	assert.Equal(t, []StageName{StageClearSite, StageGenerateSite, StageRenderMath, StageIndexComments, StageReferenceIndex},
		RefreshPlan(Request{Format: FormatPrintPDF}, true))
	assert.Equal(t, []StageName{StageClearSite, StageGenerateSite, StageIndexComments, StageReferenceIndex},
		RefreshPlan(Request{Format: FormatEpub}, false))
}
