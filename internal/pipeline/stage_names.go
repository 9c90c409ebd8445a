package pipeline

import "context"

// StageName is a strongly-typed identifier for a pipeline stage.
type StageName string

// Canonical stage names.
const (
	StageClearSite          StageName = "clear-site"
	StageGenerateSite       StageName = "generate-site"
	StageRenderMath         StageName = "render-math"
	StageIndexComments      StageName = "render-index-comments"
	StageIndexLinks         StageName = "render-index-links"
	StageRenderPDF          StageName = "render-pdf"
	StageOpenResult         StageName = "open-result"
	StageXHTMLLinks         StageName = "rewrite-xhtml-links"
	StageXHTMLFiles         StageName = "rename-xhtml-files"
	StagePurgeHTML          StageName = "purge-html"
	StageCopyEpubFiles      StageName = "copy-epub-files"
	StageAssembleEpub       StageName = "assemble-epub"
	StageValidateEpub       StageName = "validate-epub"
	StageAssembleApp        StageName = "assemble-app"
	StageAppPlatformAdd     StageName = "app-platform-add"
	StageAppPrepare         StageName = "app-prepare"
	StageAppBuild           StageName = "app-build"
	StageAppEmulate         StageName = "app-emulate"
	StageConvertWord        StageName = "convert-word"
	StageReferenceIndex     StageName = "build-reference-index"
	StageSearchIndex        StageName = "build-search-index"
	StageProcessImages      StageName = "process-images"
	StageInstallGems        StageName = "install-gems"
	StageInstallNodeModules StageName = "install-node-modules"
)

// Stage is one step of a run.
type Stage func(ctx context.Context, rs *RunState) error

// StageDef pairs a stage name with its executing function.
type StageDef struct {
	Name StageName
	Fn   Stage
}
