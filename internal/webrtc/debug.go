package webrtc

import "sync/atomic"

// debugRTP controls whether periodic RTP forwarding logs are emitted.
var debugRTP atomic.Bool

// SetDebugLogging enables/disables verbose WebRTC/RTP debug logs.
func SetDebugLogging(enabled bool) {
	debugRTP.Store(enabled)
}

// debugRTPEnabled reports whether RTP debug logs are enabled.
func debugRTPEnabled() bool {
	return debugRTP.Load()
}
