/*
Package archive persists delivered library tables and replays them later.

An Archiver is a registry consumer. Each descriptor of a delivered table is
stored as one models.ImplementorRecord carrying the capability, library,
delivery sequence number and position, so that Restore can rebuild the exact
sequence of tables and submit them to a fresh registry:

	arch := archive.NewArchiver(store, "core::fmt::Debug", archive.WithLogger(logger))
	_ = pages.Attach("core::fmt::Debug", arch.Consumer(ctx))

	// later, possibly in another process
	n, err := archive.Restore(ctx, store, "core::fmt::Debug", reg)

An Archiver continues the sequence numbers already stored for its capability,
so archiving the same capability again in a later run appends new tables
instead of interleaving with the old ones.

Records are keyed for the DynamoDB single-table layout registered in this
package's init function. Libraries with an empty implementor list leave no
records behind, and neither do empty tables.
*/
package archive
