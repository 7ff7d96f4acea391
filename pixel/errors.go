package pixel

import "errors"

// Sentinel errors for pixel package operations.
// These errors enable reliable error classification using errors.Is().
var (
	// ErrUnsupportedConversion indicates no converter exists for the
	// requested (input, output) pixel type pair.
	ErrUnsupportedConversion = errors.New("unhandled buffer format")

	// ErrSizeMismatch indicates two images that must share dimensions do not.
	ErrSizeMismatch = errors.New("image dimensions do not match")

	// ErrSampleOutOfRange indicates a sample coordinate outside the image.
	ErrSampleOutOfRange = errors.New("sample position out of range")

	// ErrInvalidImage indicates an image description that cannot back a buffer.
	ErrInvalidImage = errors.New("invalid image")

	// ErrUnknownPixelType indicates a pixel type name that cannot be parsed.
	ErrUnknownPixelType = errors.New("unknown pixel type")
)
