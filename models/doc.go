/*
Package models defines the data structures shared across the implementor index.

Fragment payloads:

	table := models.LibraryTable{
	    "rustypub": {
	        models.ImplementorDescriptor(`["impl Debug for Object"]`),
	        models.ImplementorDescriptor(`["impl Sync for Null",1,["rustypub::core::Null"]]`),
	    },
	}
	if err := table.Validate(); err != nil { ... }

ImplementorDescriptor is raw JSON. The registry stores and forwards it
untouched; consumers may peek at it through HTML, Text, Synthetic and
Paths.

Archive types:

ImplementorRecord is one descriptor as persisted by the archive consumer.
QueryParams, StreamResult and StreamOption configure reads from a datastore:

	opts := []StreamOption{
	    WithBufferSize(100),
	    WithPageSize(25),
	    WithMaxRetries(3),
	    WithProgressHandler(progressFunc),
	}
*/
package models
