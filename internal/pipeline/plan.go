package pipeline

// Plan returns the stage sequence for a build request. math selects the
// math rendering stage for PDF output.
func Plan(req Request, math bool) []StageName {
	names := []StageName{StageClearSite, StageGenerateSite}
	switch req.Format {
	case FormatWeb:
	case FormatPrintPDF, FormatScreenPDF:
		if math {
			names = append(names, StageRenderMath)
		}
		names = append(names, StageIndexComments, StageIndexLinks, StageRenderPDF)
		if req.OpenResult {
			names = append(names, StageOpenResult)
		}
	case FormatEpub:
		names = append(names,
			StageIndexComments, StageIndexLinks,
			StageXHTMLLinks, StageXHTMLFiles, StagePurgeHTML,
			StageCopyEpubFiles, StageAssembleEpub, StageValidateEpub)
	case FormatApp:
		names = append(names, StageAssembleApp)
		if req.AppBuild {
			names = append(names, StageAppPlatformAdd, StageAppPrepare, StageAppBuild)
			if req.AppEmulate {
				names = append(names, StageAppEmulate)
			}
		}
	case FormatWord:
		names = append(names, StageConvertWord)
	}
	return names
}

// RefreshPlan returns the stages that regenerate the indexes for a format.
func RefreshPlan(req Request, math bool) []StageName {
	names := []StageName{StageClearSite, StageGenerateSite}
	switch req.Format {
	case FormatPrintPDF, FormatScreenPDF, FormatEpub:
		if math {
			names = append(names, StageRenderMath)
		}
		names = append(names, StageIndexComments)
	}
	names = append(names, StageReferenceIndex)
	if req.Format == FormatWeb || req.Format == FormatApp {
		names = append(names, StageSearchIndex)
	}
	return names
}
