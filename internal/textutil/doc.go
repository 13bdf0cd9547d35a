// Package textutil provides text processing helpers for cache keys and
// filenames.
//
// The primary use cases are:
//   - Folding movie titles into stable, ASCII-only cache key fragments
//   - Sanitizing filenames and path segments for safe filesystem use
//
// Key folding lowercases text, strips diacritics via Unicode decomposition,
// and replaces everything outside [a-z0-9] with underscores.
package textutil
