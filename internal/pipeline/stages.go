package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"

	"git.home.luguber.info/inful/bookbuilder/internal/appshell"
	"git.home.luguber.info/inful/bookbuilder/internal/batch"
	"git.home.luguber.info/inful/bookbuilder/internal/epub"
	"git.home.luguber.info/inful/bookbuilder/internal/logfields"
	"git.home.luguber.info/inful/bookbuilder/internal/pdf"
	"git.home.luguber.info/inful/bookbuilder/internal/stage"
	"git.home.luguber.info/inful/bookbuilder/internal/wordexport"
)

func (o *Orchestrator) stageTable() map[StageName]Stage {
	return map[StageName]Stage{
		StageClearSite:          o.stageClearSite,
		StageGenerateSite:       o.stageGenerateSite,
		StageRenderMath:         o.gulpStage(StageRenderMath, "mathjax"),
		StageIndexComments:      o.gulpStage(StageIndexComments, "renderIndexCommentsAsTargets"),
		StageIndexLinks:         o.gulpStage(StageIndexLinks, "renderIndexListReferences"),
		StageRenderPDF:          o.stageRenderPDF,
		StageOpenResult:         o.stageOpenResult,
		StageXHTMLLinks:         o.gulpStage(StageXHTMLLinks, "epub:xhtmlLinks"),
		StageXHTMLFiles:         o.gulpStage(StageXHTMLFiles, "epub:xhtmlFiles"),
		StagePurgeHTML:          o.gulpStage(StagePurgeHTML, "epub:cleanHtmlFiles"),
		StageCopyEpubFiles:      o.stageCopyEpubFiles,
		StageAssembleEpub:       o.stageAssembleEpub,
		StageValidateEpub:       o.stageValidateEpub,
		StageAssembleApp:        o.stageAssembleApp,
		StageAppPlatformAdd:     o.packagerStage(StageAppPlatformAdd, 0),
		StageAppPrepare:         o.packagerStage(StageAppPrepare, 1),
		StageAppBuild:           o.packagerStage(StageAppBuild, 2),
		StageAppEmulate:         o.packagerStage(StageAppEmulate, 3),
		StageConvertWord:        o.stageConvertWord,
		StageReferenceIndex:     o.gulpStage(StageReferenceIndex, "index:references"),
		StageSearchIndex:        o.gulpStage(StageSearchIndex, "index:search"),
		StageProcessImages:      o.stageProcessImages,
		StageInstallGems:        o.stageInstallGems,
		StageInstallNodeModules: o.stageInstallNodeModules,
	}
}

// exec runs one external command as the named stage.
func (o *Orchestrator) exec(ctx context.Context, name StageName, cmd stage.Command) error {
	cmd.Name = string(name)
	if cmd.Dir == "" {
		cmd.Dir = o.paths.Root
	}
	_, err := stage.Run(ctx, o.runner, cmd)
	return stageFailure(ctx, name, err)
}

// stageFailure wraps err for the stage runner; errors caused by the run's
// own context are cancellations.
func stageFailure(ctx context.Context, name StageName, err error) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return newCanceledStageError(name, err)
	}
	return newFatalStageError(name, err)
}

func (o *Orchestrator) stageClearSite(_ context.Context, rs *RunState) error {
	if err := o.workspace.ClearSite(); err != nil {
		return newFatalStageError(StageClearSite, err)
	}
	return nil
}

func (o *Orchestrator) stageGenerateSite(ctx context.Context, rs *RunState) error {
	req := rs.Request
	command := "build"
	if rs.Serve {
		command = "serve"
	}
	rs.Log.Info("Generating site",
		logfields.Stage(string(StageGenerateSite)),
		logfields.Language(req.Language),
		logfields.Variant(req.Variant))
	return o.exec(ctx, StageGenerateSite, stage.Command{
		Binary: o.cfg.Tools.Bundle,
		Args:   GeneratorArgs(req, command),
	})
}

// gulpStage runs `gulp <task> --book <work> [--language <lang>]`.
func (o *Orchestrator) gulpStage(name StageName, task string) Stage {
	return func(ctx context.Context, rs *RunState) error {
		return o.exec(ctx, name, stage.Command{
			Binary: o.cfg.Tools.Gulp,
			Args:   GulpArgs(task, rs.Request),
		})
	}
}

// GulpArgs builds the task runner arguments for a request. An empty task
// runs the default task.
func GulpArgs(task string, req Request) []string {
	var args []string
	if task != "" {
		args = append(args, task)
	}
	if req.Work != "" {
		args = append(args, "--book", req.Work)
	}
	if req.Language != "" {
		args = append(args, "--language", req.Language)
	}
	return args
}

func (o *Orchestrator) stageRenderPDF(ctx context.Context, rs *RunState) error {
	inputs := rs.Manifest.Paths(o.paths.Site, ".html")
	if len(inputs) == 0 {
		return nothingToDo(rs, StageRenderPDF, rs.Request.Format)
	}
	if err := o.workspace.EnsureOutput(); err != nil {
		return newFatalStageError(StageRenderPDF, err)
	}

	pkg, err := pdf.ReadPackageSettings(o.cfg.Abs(o.cfg.PDF.PackageJSON))
	if err != nil {
		rs.Log.Warn("Could not read PDF settings from package.json", logfields.Error(err))
	}
	o.checkPDFVersion(ctx, rs, firstNonEmpty(o.cfg.PDF.Version, pkg.Version))

	license := pdf.LicenseFile(o.paths.Root, o.cfg.PDF.License, pkg.License)
	if license != "" {
		rs.Log.Info("Using PDF engine license", logfields.Path(license))
	}
	out := o.paths.OutputFile(rs.Request)
	cmd := pdf.Command(pdf.Options{
		Binary:      o.cfg.Tools.Prince,
		Timeout:     o.cfg.PDF.Timeout,
		LicenseFile: license,
	}, inputs, out)
	if err := o.exec(ctx, StageRenderPDF, cmd); err != nil {
		return err
	}
	rs.Report.AddArtifact(string(rs.Request.Format), out)
	rs.Log.Info("PDF written", logfields.Path(out), logfields.Count(len(inputs)))
	return nil
}

// checkPDFVersion compares the installed engine with the required one. A
// mismatch is recorded as a warning issue and never fails the render.
func (o *Orchestrator) checkPDFVersion(ctx context.Context, rs *RunState, required string) {
	if required == "" {
		return
	}
	installed, err := pdf.InstalledVersion(ctx, o.runner, o.cfg.Tools.Prince)
	if err != nil {
		rs.Log.Debug("PDF engine version unavailable", logfields.Error(err))
		return
	}
	if installed != required {
		msg := fmt.Sprintf("installed PDF engine version %s differs from required %s", installed, required)
		rs.Log.Warn(msg)
		rs.Report.AddIssue(IssueToolVersion, StageRenderPDF, SeverityWarning, msg, errors.New(msg))
	}
}

// nothingToDo skips a stage whose product lists no files. The run goes on
// with a warning.
func nothingToDo(rs *RunState, name StageName, format Format) error {
	rs.Log.Warn("No files listed, skipping stage", logfields.Stage(string(name)), logfields.Format(string(format)))
	return newWarnStageError(name, fmt.Errorf("%w: %s", ErrNoFiles, format))
}

func (o *Orchestrator) stageOpenResult(ctx context.Context, rs *RunState) error {
	out := o.paths.OutputFile(rs.Request)
	if !rs.Report.HasArtifact(out) {
		rs.Log.Debug("Nothing to open", logfields.Path(out))
		return nil
	}
	if err := o.opener.Open(ctx, out); err != nil {
		return newWarnStageError(StageOpenResult, err)
	}
	return nil
}

func (o *Orchestrator) stageCopyEpubFiles(ctx context.Context, rs *RunState) error {
	layout := epub.Layout{
		SiteDir:  o.paths.Site,
		Work:     rs.Request.Work,
		Language: rs.Request.Language,
		Pages:    rs.Manifest.Paths(o.paths.Site, ".xhtml"),
		MathJax:  rs.Math,
	}
	copier := &epub.Copier{ContainerDir: layout.ContainerDir(), Logger: rs.Log}
	results := copier.Copy(ctx, epub.Items(layout))
	return o.itemStage(ctx, rs, StageCopyEpubFiles, "copy", results, ErrPartialCopy)
}

// itemStage records per-item results. Failed items make the stage a warning.
func (o *Orchestrator) itemStage(ctx context.Context, rs *RunState, name StageName, kind string, results []batch.ItemResult, partial error) error {
	rs.Report.Items[name] = results
	for _, r := range results {
		o.recorder.IncItemResult(kind, r.OK())
	}
	if err := ctx.Err(); err != nil {
		return newCanceledStageError(name, err)
	}
	if failed := batch.Failed(results); len(failed) > 0 {
		return newWarnStageError(name, fmt.Errorf("%w: %d of %d items failed", partial, len(failed), len(results)))
	}
	return nil
}

func (o *Orchestrator) stageAssembleEpub(ctx context.Context, rs *RunState) error {
	archive, err := o.assembler.Assemble(ctx, o.paths.EpubContainer(), "")
	if err != nil {
		return stageFailure(ctx, StageAssembleEpub, err)
	}
	if err := o.workspace.EnsureOutput(); err != nil {
		return newFatalStageError(StageAssembleEpub, err)
	}
	out := o.paths.OutputFile(rs.Request)
	if err := epub.Relocate(archive, out); err != nil {
		return newFatalStageError(StageAssembleEpub, err)
	}
	rs.Report.AddArtifact(string(FormatEpub), out)
	return nil
}

func (o *Orchestrator) stageValidateEpub(ctx context.Context, rs *RunState) error {
	out := o.paths.OutputFile(rs.Request)
	res, err := o.validator.Validate(ctx, out)
	if err != nil {
		return stageFailure(ctx, StageValidateEpub, err)
	}
	if _, statErr := os.Stat(res.ReportPath); statErr == nil {
		rs.Report.AddArtifact("report", res.ReportPath)
	}
	if !res.HasFindings() {
		return nil
	}
	if rs.Request.OpenResult {
		if err := o.opener.Open(ctx, res.ReportPath); err != nil {
			rs.Log.Warn("Could not open validation report", logfields.Path(res.ReportPath), logfields.Error(err))
		}
	}
	return newWarnStageError(StageValidateEpub, fmt.Errorf("%w: %d fatal, %d errors, %d warnings (see %s)",
		ErrEpubFindings, res.Fatal, res.Errors, res.Warnings, res.ReportPath))
}

func (o *Orchestrator) stageAssembleApp(_ context.Context, rs *RunState) error {
	moved, err := appshell.Assemble(o.paths.Site)
	if err != nil {
		return newFatalStageError(StageAssembleApp, err)
	}
	rs.Report.AddArtifact(string(FormatApp), appshell.Dir(o.paths.Site))
	rs.Log.Info("App shell assembled", logfields.Path(appshell.WWWDir(o.paths.Site)), logfields.Count(moved))
	return nil
}

// packagerStage runs the i-th packager invocation inside the app folder.
func (o *Orchestrator) packagerStage(name StageName, i int) Stage {
	return func(ctx context.Context, rs *RunState) error {
		req := rs.Request
		invocations := appshell.PackagerArgs(req.AppOS, req.AppRelease, req.AppEmulate)
		if i >= len(invocations) {
			return newFatalStageError(name, fmt.Errorf("no packager step %d", i))
		}
		return o.exec(ctx, name, stage.Command{
			Binary: o.cfg.Tools.Cordova,
			Args:   invocations[i],
			Dir:    appshell.Dir(o.paths.Site),
		})
	}
}

func (o *Orchestrator) stageConvertWord(ctx context.Context, rs *RunState) error {
	files := rs.Manifest.Paths(o.paths.Site, ".html")
	if len(files) == 0 {
		return nothingToDo(rs, StageConvertWord, rs.Request.ProductFormat())
	}
	outDir := wordexport.OutputDir(o.paths.Output, rs.Request.Work)
	results, err := o.converter.Convert(ctx, files, outDir)
	if err != nil {
		return newFatalStageError(StageConvertWord, err)
	}
	for _, r := range results {
		if r.OK() {
			rs.Report.AddArtifact(string(FormatWord), r.Output)
		}
	}
	err = o.itemStage(ctx, rs, StageConvertWord, "convert", results, ErrPartialConversion)
	if err != nil && ctx.Err() == nil && batch.Succeeded(results) == 0 {
		return newFatalStageError(StageConvertWord, fmt.Errorf("%w: no documents were produced", ErrPartialConversion))
	}
	return err
}

func (o *Orchestrator) stageProcessImages(ctx context.Context, rs *RunState) error {
	// the default task is the image pipeline
	return o.exec(ctx, StageProcessImages, stage.Command{
		Binary: o.cfg.Tools.Gulp,
		Args:   GulpArgs("", rs.Request),
	})
}

func (o *Orchestrator) stageInstallGems(ctx context.Context, _ *RunState) error {
	return o.exec(ctx, StageInstallGems, stage.Command{
		Binary: o.cfg.Tools.Bundle,
		Args:   []string{"install"},
	})
}

func (o *Orchestrator) stageInstallNodeModules(ctx context.Context, _ *RunState) error {
	return o.exec(ctx, StageInstallNodeModules, stage.Command{
		Binary: o.cfg.Tools.Npm,
		Args:   []string{"install"},
	})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

