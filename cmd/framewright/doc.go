// Package main provides the framewright command, which exports a synthetic
// timeline through the writer plugins.
//
// # Overview
//
// The timeline is a color-bar test pattern with a moving frame marker and
// a sine tone or a decoded Ogg/Opus track. The output file extension
// selects the writer: numbered PNG, TIFF or WebP sequences, RawZ movies,
// RTP dumps, WAV audio or digest manifests.
//
// # Usage
//
// Export two seconds of half-resolution movie with annotations:
//
//	framewright -o take.rawz -frames 48 -resolution half -annotations
//
// Export a PNG sequence starting at frame 1:
//
//	framewright -o shot.0001.png -in 1 -out 24
//
// # Configuration
//
// Settings are read from FRAMEWRIGHT_* environment variables, then from a
// YAML file given with -config, and flags on the command line take
// precedence over both:
//
//	output: take.rawz
//	width: 1920
//	height: 1080
//	resolution: quarter
//	timeout: 30s
//	writer_options:
//	  Speed: "25"
//
// # Sync peers
//
// With -sync-listen, viewers connect over Noise-encrypted TCP and follow
// the playhead. Sync messages are suppressed while the export runs, and an
// "exported" message carrying the output path is sent when it finishes.
package main
