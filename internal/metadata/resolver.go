package metadata

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	foundationerrors "git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/bookbuilder/internal/logfields"
)

// Query selects what to resolve.
type Query struct {
	Work     string
	Format   string
	Language string
	Variant  string
}

// Resolver loads the documents a Query needs and cascades them.
type Resolver struct {
	Store  Store
	Logger *slog.Logger
}

// NewResolver returns a resolver over store.
func NewResolver(store Store) *Resolver {
	return &Resolver{Store: store, Logger: slog.Default()}
}

// Resolve returns the manifest for q. A missing default document is a fatal
// metadata error. A format no document defines yields an empty list and a
// logged warning.
func (r *Resolver) Resolve(ctx context.Context, q Query) (Manifest, error) {
	if err := ctx.Err(); err != nil {
		return Manifest{}, err
	}
	log := r.logger().With(logfields.Work(q.Work), logfields.Format(q.Format))

	base, err := r.Store.Default(q.Work)
	if err != nil {
		return Manifest{}, classify(err, q)
	}
	translation, err := r.Store.Translation(q.Work, q.Language)
	if err != nil {
		return Manifest{}, classify(err, q)
	}
	variant, err := r.Store.Variant(q.Work, q.Language, q.Variant)
	if err != nil {
		return Manifest{}, classify(err, q)
	}

	m := Cascade(q.Format, base, translation, variant)
	m.Work, m.Language, m.Variant = q.Work, q.Language, q.Variant

	if variant == nil && q.Variant != "" && q.Language != "" {
		// A parent-language variant is never applied to a translation.
		parent, perr := r.Store.Variant(q.Work, "", q.Variant)
		if perr == nil && parent != nil {
			m.Warnings = append(m.Warnings, fmt.Sprintf("variant %q has no %s document; ignoring %s", q.Variant, q.Language, parent.Path))
		}
	}

	for _, w := range m.Warnings {
		log.Warn(w, logfields.Language(q.Language), logfields.Variant(q.Variant))
	}
	log.Debug("Resolved manifest", logfields.Count(len(m.Files)), logfields.Path(m.FilesFrom))
	return m, nil
}

func (r *Resolver) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

func classify(err error, q Query) error {
	var b *foundationerrors.ErrorBuilder
	switch {
	case errors.Is(err, ErrManifestNotFound):
		b = foundationerrors.WrapError(err, foundationerrors.CategoryNotFound, "no default metadata for work "+q.Work).
			Fatal().UserAction().
			WithHint("create default.yml in the work's metadata folder or check the --book name")
	case errors.Is(err, ErrInvalidName):
		b = foundationerrors.WrapError(err, foundationerrors.CategoryValidation, "invalid build request").Fatal().UserAction()
	default:
		b = foundationerrors.WrapError(err, foundationerrors.CategoryMetadata, "cannot load metadata").Fatal().UserAction()
	}
	return b.WithContext("work", q.Work).
		WithContext("language", q.Language).
		WithContext("variant", q.Variant).
		Build()
}
