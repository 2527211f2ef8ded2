// Package imaging turns stored image bytes into the luminance values the
// histogram builder consumes.
//
// The flow for one image is:
//
//	bytes --Decode--> image.Image --FromImage--> PixelGrid --Crop--> PixelGrid --Luminance--> LuminanceGrid
//
// Everything here is a pure function of its inputs. Intermediate grids are
// owned by the caller and never persisted.
//
// Decoding supports PNG, JPEG and GIF from the standard library plus WebP,
// BMP and TIFF from golang.org/x/image. Camera metadata (EXIF) is read with
// github.com/dsoprea/go-exif/v3 and never affects the pixel values.
package imaging
