// Package enhance runs the annotation processors over prepared page content.
//
// Processors scan element text for bracketed annotation patterns and replace
// them with markup fragments carrying data attributes. They run in a fixed
// order - footnotes, marginalia, extensions, markers - so nested patterns
// resolve the same way on every run.
package enhance

// Kind tags what family of annotation a processor produces.
// ENUM(footnote, marginalia, extension, marker)
type Kind int
