package gopaginate

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// Paginator pages through the documents of one collection. T is the document
// type the executor fills on non-lean queries.
//
// A Paginator is immutable: the With* methods return modified copies, so a
// single instance may be shared between goroutines.
type Paginator[T any] struct {
	executor Executor
	defaults Options
	idField  string
	logger   zerolog.Logger
}

// Completion receives the result of PaginateCallback.
type Completion[T any] func(err error, result *Result[T])

// New returns a paginator over exec. The identifier field is taken from exec
// when it implements IDFielder.
func New[T any](exec Executor) *Paginator[T] {
	idField := DefaultIDField
	if f, ok := exec.(IDFielder); ok && f.IDField() != "" {
		idField = f.IDField()
	}

	return &Paginator[T]{
		executor: exec,
		idField:  idField,
		logger:   zerolog.Nop(),
	}
}

func (p *Paginator[T]) clone() *Paginator[T] {
	if p == nil {
		return &Paginator[T]{idField: DefaultIDField, logger: zerolog.Nop()}
	}

	c := *p
	c.defaults = p.defaults.clone()

	return &c
}

// WithDefaults binds default options, applied under per-call options.
func (p *Paginator[T]) WithDefaults(defaults Options) *Paginator[T] {
	c := p.clone()
	c.defaults = defaults.clone()

	return c
}

// WithIDField sets the field lean records take their "id" from.
func (p *Paginator[T]) WithIDField(field string) *Paginator[T] {
	c := p.clone()
	c.idField = field

	return c
}

// WithLogger sets the logger. Calls are logged at debug level.
func (p *Paginator[T]) WithLogger(logger zerolog.Logger) *Paginator[T] {
	c := p.clone()
	c.logger = logger

	return c
}

// GetDefaults returns a copy of the bound default options.
func (p *Paginator[T]) GetDefaults() Options {
	if p == nil {
		return Options{}
	}

	return p.defaults.clone()
}

// GetIDField returns the identifier field name.
func (p *Paginator[T]) GetIDField() string {
	if p == nil {
		return DefaultIDField
	}

	return p.idField
}

// Paginate fetches one page of the documents matching filter and counts all
// of them. The fetch and the count run concurrently; if either fails the call
// fails with that error.
//
// A nil filter matches every document. opts are merged over the defaults
// bound with WithDefaults.
func (p *Paginator[T]) Paginate(ctx context.Context, filter Filter, opts Options) (*Result[T], error) {
	if p == nil || p.executor == nil {
		return nil, ErrNilExecutor
	}

	if filter == nil {
		filter = Filter{}
	}

	pl := resolve(p.defaults.Merge(opts))

	query := p.executor.Find(filter).
		Select(pl.selectSpec).
		Sort(pl.sortSpec).
		Skip(pl.skip).
		Limit(pl.limit).
		Lean(pl.lean)
	for _, populate := range pl.populate {
		query = query.Populate(populate)
	}

	var (
		docs    = make([]T, 0)
		records = make([]Record, 0)
		total   int64
	)

	g, gctx := errgroup.WithContext(ctx)
	if pl.limit != 0 {
		g.Go(func() error {
			var err error
			if pl.lean {
				err = query.Exec(gctx, &records)
			} else {
				err = query.Exec(gctx, &docs)
			}
			if err != nil {
				return fmt.Errorf("cannot fetch documents: %w", err)
			}

			if pl.lean && pl.leanWithID {
				records = stampIDs(records, p.idField)
			}

			return nil
		})
	}
	g.Go(func() error {
		var err error
		total, err = p.executor.CountMatching(gctx, filter)
		if err != nil {
			return fmt.Errorf("cannot count documents: %w", err)
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		p.logger.Error().Err(err).Str("mode", string(pl.mode)).Msg("paginate failed")
		return nil, err
	}

	result := &Result[T]{
		Total: total,
		Limit: pl.limit,
		lean:  pl.lean,
	}
	if pl.lean {
		result.Records = records
	} else {
		result.Docs = docs
	}

	if pl.mode == ModeOffset || pl.mode == ModeDefault {
		result.Offset = lo.ToPtr(pl.offset)
	}
	if pl.mode == ModePage || pl.mode == ModeDefault {
		result.Page = lo.ToPtr(pl.page)
		result.Pages = lo.ToPtr(countPages(total, pl.limit))
	}
	result.NextPageToken = nextPageToken(pl.skip, result.Len(), total)

	p.logger.Debug().
		Str("mode", string(pl.mode)).
		Int("skip", pl.skip).
		Int("limit", pl.limit).
		Bool("lean", pl.lean).
		Int64("total", total).
		Int("fetched", result.Len()).
		Msg("paginate")

	return result, nil
}

// PaginateCallback runs Paginate and hands a successful result to done as
// done(nil, result). On failure the error is returned and done is not called.
func (p *Paginator[T]) PaginateCallback(ctx context.Context, filter Filter, opts Options, done Completion[T]) error {
	result, err := p.Paginate(ctx, filter, opts)
	if err != nil {
		return err
	}

	if done != nil {
		done(nil, result)
	}

	return nil
}
