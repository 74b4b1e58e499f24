// Package ffmpeg drives an ffmpeg process that encodes rendered frames to
// H.264 over RTP.
package ffmpeg

import (
	"fmt"
)

const (
	// EncoderX264 is the preferred H.264 encoder.
	EncoderX264 = "libx264"
	// EncoderOpenH264 is tried when libx264 is missing from the build.
	EncoderOpenH264 = "libopenh264"
)

// Options describes ffmpeg runtime parameters.
type Options struct {
	FFmpegPath  string
	FPS         int
	BitrateKbps int
}

// BuildEncodeArgs returns ffmpeg args reading raw RGBA frames of w×h from
// stdin and sending H.264 RTP to the local port.
func BuildEncodeArgs(w, h int, opts Options, port int, encoder string) []string {
	input := buildInputArgs(w, h, opts)
	output := buildOutputArgs(opts, port, evenCropFilter(w, h), encoder)
	return append(input, output...)
}

// buildInputArgs builds the raw-video input arguments.
func buildInputArgs(w, h int, opts Options) []string {
	return []string{
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", w, h),
		"-framerate", fmt.Sprintf("%d", opts.FPS),
		"-i", "-",
	}
}

// buildOutputArgs builds the encode/output arguments.
func buildOutputArgs(opts Options, port int, cropFilter string, encoder string) []string {
	// Keep keyframes frequent to help decoders recover quickly after restarts.
	keyint := opts.FPS
	if keyint <= 0 {
		keyint = 30
	}
	if keyint < 15 {
		keyint = 15
	}
	if encoder == "" {
		encoder = EncoderX264
	}
	args := []string{
		"-an",
	}
	if cropFilter != "" {
		args = append(args, "-vf", cropFilter)
	}
	args = append(args, "-vcodec", encoder)
	if encoder == EncoderX264 {
		args = append(args,
			"-preset", "ultrafast",
			"-tune", "zerolatency",
			"-profile:v", "baseline",
			"-x264-params", "scenecut=0:repeat-headers=1",
		)
	}
	args = append(args,
		"-g", fmt.Sprintf("%d", keyint),
		"-keyint_min", fmt.Sprintf("%d", keyint),
		"-bf", "0",
		"-pix_fmt", "yuv420p",
		"-b:v", fmt.Sprintf("%dk", opts.BitrateKbps),
		"-payload_type", "96",
		"-f", "rtp",
		fmt.Sprintf("rtp://127.0.0.1:%d?pkt_size=1200", port),
	)
	return args
}

// evenCropFilter trims odd frame sizes to the even dimensions yuv420p
// needs. It returns "" when no crop is required.
func evenCropFilter(w, h int) string {
	ew, eh := evenSize(w, h)
	if ew == w && eh == h {
		return ""
	}
	return fmt.Sprintf("crop=%d:%d:0:0", ew, eh)
}

// evenSize rounds both dimensions down to even values of at least 2.
func evenSize(w, h int) (int, int) {
	w -= w % 2
	h -= h % 2
	return maxInt(w, 2), maxInt(h, 2)
}

// maxInt returns the larger integer.
func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
