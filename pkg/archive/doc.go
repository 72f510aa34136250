// Package archive builds and reads single-entry zip archives.
//
// ZipFile deflates one file into a zip whose only entry carries the name the
// caller chooses, normally the base name of the source object. Compression
// uses github.com/klauspost/compress for both the container and the deflate
// stream.
package archive
