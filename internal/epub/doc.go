// Package epub builds the EPUB container from the generated site.
//
// The Copier gathers pages and assets into the uncompressed container folder,
// the Assembler zips that folder into an OCF archive, Relocate moves it to
// the output folder and the Validator runs epubcheck over the result.
package epub
