// Package formfile locates and fetches JSON form documents. A form path comes
// from the launch context (query parameter or session slot) and is resolved to
// a Source: an absolute URL, a path relative to a configured base URL, an entry
// in an fs.FS bundle, or a file on disk. Loaders live in internal/formfile but
// satisfy the Loader contract defined here.
package formfile
