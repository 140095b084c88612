/*
Package registry implements the implementor registry: the page-wide
aggregator that fragments submit their library tables to.

Fragments load in no particular order and the page may not be ready to render
when the first one arrives. The registry decouples the two:

	reg := registry.New(registry.WithName("core::fmt::Debug"))

	// fragments, possibly before the page is ready
	_ = reg.Submit(models.LibraryTable{"libA": {d1, d2}})
	_ = reg.Submit(models.LibraryTable{"libB": {d3}})

	// the page attaches its renderer: libA then libB are replayed now
	err := reg.Attach(func(t models.LibraryTable) error {
	    return render(t)
	})

	// later fragments are forwarded before Submit returns
	_ = reg.Submit(models.LibraryTable{"libC": {}})

State machine:

	AwaitingConsumer --Attach--> ConsumerAttached

Submit queues in AwaitingConsumer and forwards in ConsumerAttached. There is no
way back. A second Attach fails with errors.ErrDoubleAttach.

Every table is delivered exactly once and in submission order. Tables naming
the same library are independent deliveries; merging them is up to the
consumer.
*/
package registry
