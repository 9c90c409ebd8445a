// Package metadata loads per-edition product metadata for a work and resolves
// the effective file list and settings for one output format.
//
// Metadata lives under the works directory (usually _data/works):
//
//	<work>/default.yml             default edition
//	<work>/<variant>.yml           parent-language variant edition
//	<work>/<lang>/default.yml      translation
//	<work>/<lang>/<variant>.yml    translated variant edition
//
// Each document carries a products mapping keyed by format. A product's files
// list is spine order and is never re-sorted. When several documents define the
// same format, the most specific document's files list replaces the others
// wholesale while settings are shallow-merged with later documents winning.
package metadata
