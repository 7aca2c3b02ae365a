// Package errors provides structured, coded errors for the Wayfind
// navigation engine.
//
// Every error carries a unique code (e.g. "W101") that maps to a category,
// a short message, and a longer explanation. Codes make failures greppable
// and let callers branch on error identity without string matching.
//
// # Error Categories
//
//   - compile: route declaration and hierarchy compilation errors
//   - match: path matching and hierarchy resolution errors
//   - preload: guard and resolver pipeline errors
//   - navigation: location and history synchronization errors
//   - config: engine construction errors
//
// Errors wrap underlying causes and support errors.Is / errors.As.
package errors
