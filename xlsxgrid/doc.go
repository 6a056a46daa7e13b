// Package xlsxgrid decodes OOXML spreadsheet packages (.xlsx) into a dense,
// randomly addressable, rectangular grid of typed cell values.
//
// The package reproduces Excel's historical numeric quirks: serial date
// decoding including the 1900 leap-year bug, shared string resolution and
// number-format driven date detection. It tolerates the sparse and malformed
// worksheets found in real-world files, degrading individual cells to null
// rather than aborting.
//
// Formula cells decode to their literal source text; formula evaluation,
// styling beyond date detection and writing of packages are out of scope.
package xlsxgrid
