// Package sorter relocates files into the date- and category-based
// destination hierarchy and reports each successful move to the statistics
// recorder.
//
// Sorting is deliberately forgiving: a file that vanished or cannot be moved
// produces a per-file error that never aborts a directory-wide pass.
package sorter
