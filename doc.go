/*
Package implindex assembles per-capability implementor indexes from the
fragments a documentation generator writes, in whatever order the fragments
and the page consumers show up.

Every capability page (a trait such as core::fmt::Debug) owns one
registry.Registry. Fragments submit library tables to the page; the page's
consumer, attached whenever it is ready, receives every table exactly once and
in submission order:

	pages := implindex.NewPages(implindex.WithLogger(logger))

	// fragments may arrive first...
	_ = pages.Submit("core::fmt::Debug", table)

	// ...and are replayed when the consumer attaches
	idx := implindex.NewIndex("core::fmt::Debug")
	_ = pages.Attach("core::fmt::Debug", idx.Consume)

	_ = idx.WriteText(os.Stdout)

Index is the stock consumer: it merges the tables of one page by library and
renders them as text or YAML. archive.Archiver is the persisting one.

For more information, see the documentation at https://github.com/suparena/implindex
*/
package implindex
