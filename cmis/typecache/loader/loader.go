// Package loader registers the default type cache drivers via blank
// imports.
//
// Usage:
//
//	import _ "github.com/content-interop/cmis-go/cmis/typecache/loader"
package loader

import (
	// Register the memory driver
	_ "github.com/content-interop/cmis-go/cmis/typecache/memory"

	// Register the sqlite driver
	_ "github.com/content-interop/cmis-go/cmis/typecache/sqlite"
)
