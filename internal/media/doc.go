// Package media provides image handling for the gallery: decoding with
// EXIF orientation, aspect-preserving fit sizing, JPEG encoding, pixel
// extraction and directory scanning.
//
// Decoding uses imaging with the standard library and x/image format
// decoders. When libvips has been initialized, ThumbnailWithVips shrinks
// during decode, which keeps memory flat for very large sources.
//
// The Scanner walks the media directory and returns images in natural
// order, each with its native size read from the file header.
package media
