// Package templates loads and serves the set-icon template library.
//
// A template is a reference image of one set symbol, stored on disk as a
// PNG or JPEG file whose name (without extension) is the set identifier:
//
//	set_icons/
//	  base-set.png     -> "base-set"
//	  jungle.png       -> "jungle"
//	  fossil.jpeg      -> "fossil"
//
// # Loading
//
// Load reads a single directory (not recursive), in lexical filename order.
// Only files with a .png, .jpg or .jpeg extension (case-insensitive) are
// considered. Files that fail to decode are skipped with a warning. A missing
// or unreadable directory is a fatal TEMPLATE_LOAD_FAILED error.
//
// When two files map to the same identifier (base-set.png and base-set.jpg),
// the later file's pixels win but the identifier keeps the position where it
// was first seen.
//
// # Concurrency
//
// A Library is immutable once built and may be shared freely. Store holds the
// current library behind an atomic pointer so a reload never disturbs
// in-flight identifications; Watch drives such reloads from filesystem events.
package templates
