/*
Package fragment reads the implementor fragment files a documentation
generator writes, one per capability page:

	implementors/core/fmt/trait.Debug.js

Each file is a small script that hands a library table to the page's
registry, or parks it until the page is ready:

	(function() {var implementors = {
	"rustypub":[["impl Debug for Object"], ...]
	};if (window.register_implementors) {...} else {...}})()

Parse extracts the table, CapabilityFromPath names the page, Load reads a
whole tree and Watcher submits fragments as the generator rewrites them.
*/
package fragment
