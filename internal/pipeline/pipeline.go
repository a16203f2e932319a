// Package pipeline orchestrates a full site build: content discovery,
// context construction, link resolution and output rendering run as
// named stages with per-stage timing and error classification.
package pipeline

import (
	"context"
	stderrors "errors"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/sitegen/internal/content"
	"git.home.luguber.info/inful/sitegen/internal/errors"
	"git.home.luguber.info/inful/sitegen/internal/generators"
	"git.home.luguber.info/inful/sitegen/internal/links"
	"git.home.luguber.info/inful/sitegen/internal/logfields"
	"git.home.luguber.info/inful/sitegen/internal/readers"
	"git.home.luguber.info/inful/sitegen/internal/settings"
	"git.home.luguber.info/inful/sitegen/internal/signals"
	"git.home.luguber.info/inful/sitegen/internal/templates"
	"git.home.luguber.info/inful/sitegen/internal/writer"
)

// Stage is a discrete unit of work in the site build.
type Stage func(ctx context.Context, bs *BuildState) error

// BuildState carries mutable state across stages.
type BuildState struct {
	Settings *settings.Settings
	Context  *content.Context
	Report   *BuildReport
	Timings  map[string]time.Duration

	bus        *signals.Bus
	env        templates.Environment
	readers    *readers.Registry
	resolver   *links.Resolver
	generators []generators.Generator
	writer     *writer.Writer
	logger     *slog.Logger
}

// Pipeline runs one complete build from settings to output tree.
type Pipeline struct {
	settings *settings.Settings
	logger   *slog.Logger
}

func New(s *settings.Settings, logger *slog.Logger) *Pipeline {
	return &Pipeline{settings: s, logger: logger}
}

// Run executes the build stages in order. The returned report is always
// non-nil, also on failure.
func (p *Pipeline) Run(ctx context.Context) (*BuildReport, error) {
	bs := &BuildState{
		Settings: p.settings,
		Context:  content.NewContext(),
		Report:   newBuildReport(uuid.NewString()),
		Timings:  map[string]time.Duration{},
		bus:      signals.NewBus(),
		logger:   p.logger,
	}
	p.logger.Info("starting build", slog.String("build_id", bs.Report.BuildID))

	stages := []struct {
		name string
		fn   Stage
	}{
		{"init", stageInit},
		{"clean_output", stageCleanOutput},
		{"articles_context", stageArticlesContext},
		{"pages_context", stagePagesContext},
		{"collect_static_links", stageCollectStaticLinks},
		{"static_context", stageStaticContext},
		{"resolve_links", stageResolveLinks},
		{"generate_output", stageGenerateOutput},
		{"finalize", stageFinalize},
	}
	err := p.runStages(ctx, bs, stages)
	bs.Report.finish()
	p.logger.Info("build finished",
		slog.String("build_id", bs.Report.BuildID),
		slog.String("outcome", bs.Report.Outcome),
		logfields.DurationMS(float64(bs.Report.Duration().Milliseconds())))
	return bs.Report, err
}

// runStages executes stages in order, recording timing and stopping on
// the first fatal error.
func (p *Pipeline) runStages(ctx context.Context, bs *BuildState, stages []struct {
	name string
	fn   Stage
}) error {
	for _, st := range stages {
		select {
		case <-ctx.Done():
			se := newCanceledStageError(st.name, ctx.Err())
			bs.Report.Errors = append(bs.Report.Errors, se)
			bs.Report.StageErrorKinds[st.name] = se.Kind
			return se
		default:
		}
		t0 := time.Now()
		err := st.fn(ctx, bs)
		dur := time.Since(t0)
		bs.Timings[st.name] = dur
		bs.Report.StageDurations[st.name] = dur
		p.logger.Debug("stage complete", logfields.Phase(st.name),
			logfields.DurationMS(float64(dur.Milliseconds())))
		if err == nil {
			continue
		}
		se := classify(st.name, err)
		bs.Report.StageErrorKinds[st.name] = se.Kind
		if se.Kind == StageErrorWarning {
			bs.Report.Warnings = append(bs.Report.Warnings, se)
			p.logger.Warn("stage degraded", logfields.Phase(st.name), logfields.Error(se.Err))
			continue
		}
		bs.Report.Errors = append(bs.Report.Errors, se)
		return se
	}
	return nil
}

// classify maps an arbitrary stage failure onto a StageError, deferring
// to the classified-error severity when one is wrapped.
func classify(stage string, err error) *StageError {
	var se *StageError
	if stderrors.As(err, &se) {
		return se
	}
	if cl, ok := errors.AsClassified(err); ok && cl.Severity() == errors.SeverityWarning {
		return newWarnStageError(stage, err)
	}
	if stderrors.Is(err, context.Canceled) {
		return newCanceledStageError(stage, err)
	}
	return newFatalStageError(stage, err)
}

func stageInit(_ context.Context, bs *BuildState) error {
	if err := signals.EnablePlugins(bs.bus, bs.Settings.Strings("PLUGINS")); err != nil {
		return err
	}
	bs.env = templates.NewEnvironment(bs.Settings, nil)
	bs.readers = readers.NewRegistry(bs.Settings)
	bs.resolver = links.NewResolver(bs.Settings, bs.Context)
	bs.writer = writer.New(bs.Settings, bs.bus, bs.logger)
	bs.generators = []generators.Generator{
		generators.NewArticles(bs.Settings, bs.env, bs.readers, bs.bus, bs.logger),
		generators.NewPages(bs.Settings, bs.env, bs.readers, bs.bus, bs.logger),
		generators.NewStatic(bs.Settings, bs.readers, bs.bus, bs.logger),
	}
	return bs.bus.Send(signals.PipelineInitialized, &signals.Payload{
		Settings: bs.Settings, Context: bs.Context,
	})
}

// stageCleanOutput erases the output tree when configured, refusing when
// the content root lives inside the output directory.
func stageCleanOutput(_ context.Context, bs *BuildState) error {
	if !bs.Settings.Bool("DELETE_OUTPUT_DIRECTORY") {
		return nil
	}
	if isDescendant(bs.Settings.Path, bs.Settings.OutputPath) {
		return errors.ConfigError("refusing to delete output: content path is inside it").
			WithContext("output", bs.Settings.OutputPath).Build()
	}
	if err := os.RemoveAll(bs.Settings.OutputPath); err != nil {
		return errors.Wrap(err, errors.CategoryFileSystem, "deleting output directory").
			WithContext("path", bs.Settings.OutputPath).Build()
	}
	bs.logger.Info("deleted output directory", logfields.Path(bs.Settings.OutputPath))
	return nil
}

func isDescendant(child, parent string) bool {
	absChild, err1 := filepath.Abs(child)
	absParent, err2 := filepath.Abs(parent)
	if err1 != nil || err2 != nil {
		return true // refuse on doubt
	}
	rel, err := filepath.Rel(absParent, absChild)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func stageArticlesContext(_ context.Context, bs *BuildState) error {
	return bs.generators[0].GenerateContext(bs.Context)
}

func stagePagesContext(_ context.Context, bs *BuildState) error {
	return bs.generators[1].GenerateContext(bs.Context)
}

// stageCollectStaticLinks scans every parsed body for {static} and
// {attach} targets so the static generator discovers assets that are
// referenced but not listed under a static path.
func stageCollectStaticLinks(_ context.Context, bs *BuildState) error {
	for _, c := range sortedGenerated(bs.Context) {
		bs.resolver.CollectStaticLinks(c.Body(), c)
		if c.Summary != "" {
			bs.resolver.CollectStaticLinks(c.Summary, c)
		}
	}
	return nil
}

// sortedGenerated returns the readable generated contents ordered by
// source path. Attach claims are first-writer-wins, so the worklist
// order must not depend on map iteration.
func sortedGenerated(ctx *content.Context) []*content.Content {
	keys := make([]string, 0, len(ctx.Generated))
	for k := range ctx.Generated {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]*content.Content, 0, len(keys))
	for _, k := range keys {
		if c := ctx.Generated[k]; c != nil && !c.IsSkip() {
			out = append(out, c)
		}
	}
	return out
}

func stageStaticContext(_ context.Context, bs *BuildState) error {
	return bs.generators[2].GenerateContext(bs.Context)
}

// stageResolveLinks rewrites intra-site references now that every
// generator has populated the context, so cross-document links work
// regardless of read order.
func stageResolveLinks(_ context.Context, bs *BuildState) error {
	siteURL := bs.Settings.Str("SITEURL")
	relative := bs.Settings.Bool("RELATIVE_URLS")
	formatted := bs.Settings.Strings("FORMATTED_FIELDS")
	for _, c := range sortedGenerated(bs.Context) {
		base := siteURL
		if relative {
			// Each document's links are relativized against its own
			// output location, matching the template-variable SITEURL
			// the writer hands that page.
			base = writer.RelativePrefix(c.SaveAs())
		}
		c.SetBody(bs.resolver.ResolveBody(c, base))
		for _, field := range formatted {
			if field == "summary" {
				c.Summary = bs.resolver.ResolveText(c.Summary, c, base)
				continue
			}
			if v, ok := c.Metadata[field].(string); ok {
				c.Metadata[field] = bs.resolver.ResolveText(v, c, base)
			}
		}
	}
	return nil
}

func stageGenerateOutput(_ context.Context, bs *BuildState) error {
	for _, g := range bs.generators {
		if err := g.GenerateOutput(bs.Context, bs.writer); err != nil {
			return err
		}
	}
	return nil
}

func stageFinalize(_ context.Context, bs *BuildState) error {
	bs.Report.Articles = len(bs.Context.Articles) + len(bs.Context.Translations)
	bs.Report.Pages = len(bs.Context.Pages) + len(bs.Context.PageTranslations)
	bs.Report.StaticFiles = len(bs.Context.StaticFiles)
	for _, c := range bs.Context.Generated {
		if c == nil {
			bs.Report.FailedPaths++
		}
	}
	return bs.bus.Send(signals.PipelineFinalized, &signals.Payload{
		Settings: bs.Settings, Context: bs.Context,
	})
}
