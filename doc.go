// Package gopaginate adds offset and page based pagination to document
// collection queries.
//
// Overview
//
// A Paginator is bound to an Executor, the capability of running a filtered,
// projected, sorted, skipped and limited query plus a count query. One call of
// Paginator.Paginate issues both queries concurrently and assembles a Result:
//
//	books := gopaginate.New[*memdoc.Document](collection).
//		WithDefaults(gopaginate.Options{}.WithLimit(20))
//
//	res, err := books.Paginate(ctx, gopaginate.Filter{"author": id},
//		gopaginate.Options{}.WithPage(3).WithSort("-date"))
//
// Key concepts
//   - Options: select, sort, populate, lean and leanWithId flags, limit, and
//     either an offset or a page. Offset wins over page.
//   - Result: docs (or lean records), total, limit, and offset or page/pages.
//   - PseudoCursor: opaque offset token returned as Result.NextPageToken.
//   - RawPager: API payload decoding into Options.
//
// Executors live in sub-packages: memdoc (in-memory collection) and gormexec
// (GORM models).
package gopaginate
