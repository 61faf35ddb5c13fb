// Package blueprint models reusable contract templates.
//
// A blueprint owns an ordered list of positioned fields. Insertion order is
// preserved for editing, while RenderOrder derives the reading order used by
// anything that renders a filled document.
//
// All operations are pure: they take a Blueprint value and return a new one,
// leaving the input untouched, so callers can detect changes by comparing
// versions.
package blueprint
