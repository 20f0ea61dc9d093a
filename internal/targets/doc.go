// Package targets holds the watch list: the plates an operator is looking
// for and who to alert when one is seen.
//
// Plate strings are compared in normalized form (upper case, no
// whitespace), so "ab 12 cd" from a form and "AB12CD" from OCR refer to
// the same plate. The Store keeps a single process-wide configuration that
// is replaced wholesale; readers take an immutable snapshot per request.
package targets
