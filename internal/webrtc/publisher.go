// Package webrtc publishes the encoded surface as a WebRTC video track.
package webrtc

import (
	"fmt"
	"sync"

	"github.com/pion/interceptor"
	"github.com/pion/webrtc/v3"
	"github.com/sirupsen/logrus"
)

// Publisher manages the WebRTC peer connection and video track.
type Publisher struct {
	mu    sync.Mutex
	api   *webrtc.API
	peer  *webrtc.PeerConnection
	track *webrtc.TrackLocalStaticRTP
	log   *logrus.Entry

	rtpListener *rtpListener
	forwarding  bool

	// rewriter outlives listeners so encoder restarts keep one stream.
	rwMu     sync.Mutex
	rewriter rtpRewriter
}

// NewPublisher initializes a WebRTC publisher with default codecs/interceptors.
func NewPublisher(log *logrus.Entry) (*Publisher, error) {
	if log == nil {
		log = logrus.StandardLogger().WithField("component", "webrtc")
	}
	media := &webrtc.MediaEngine{}
	if err := media.RegisterDefaultCodecs(); err != nil {
		return nil, fmt.Errorf("register codecs: %w", err)
	}

	interceptors := &interceptor.Registry{}
	if err := webrtc.RegisterDefaultInterceptors(media, interceptors); err != nil {
		return nil, fmt.Errorf("register interceptors: %w", err)
	}

	api := webrtc.NewAPI(
		webrtc.WithMediaEngine(media),
		webrtc.WithInterceptorRegistry(interceptors),
	)

	return &Publisher{api: api, log: log}, nil
}

// Track returns the H264 RTP track, creating it if needed.
func (p *Publisher) Track() (*webrtc.TrackLocalStaticRTP, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ensureTrack()
}

// NewPeer creates a new peer connection and attaches the video track. Any
// previous peer is closed.
func (p *Publisher) NewPeer() (*webrtc.PeerConnection, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.peer != nil {
		_ = p.peer.Close()
		p.peer = nil
	}

	peer, err := p.api.NewPeerConnection(webrtc.Configuration{})
	if err != nil {
		return nil, err
	}

	track, err := p.ensureTrack()
	if err != nil {
		_ = peer.Close()
		return nil, err
	}

	sender, err := peer.AddTrack(track)
	if err != nil {
		_ = peer.Close()
		return nil, err
	}

	go func() {
		buf := make([]byte, 1500)
		for {
			if _, _, rtcpErr := sender.Read(buf); rtcpErr != nil {
				return
			}
		}
	}()

	p.peer = peer
	p.log.Debug("peer created")
	return peer, nil
}

// ClosePeer closes the current peer connection.
func (p *Publisher) ClosePeer() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.peer != nil {
		_ = p.peer.Close()
		p.peer = nil
	}
}

// AttachRTP binds a local UDP port for RTP ingest, replacing the previous
// one. Forwarding resumes on the new port when it was running.
func (p *Publisher) AttachRTP(port int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.rtpListener != nil {
		p.rtpListener.close()
		p.rtpListener = nil
	}

	listener, err := newRTPListener(port, p.log)
	if err != nil {
		return err
	}
	p.rtpListener = listener
	if p.forwarding && p.track != nil {
		return listener.start(p.track, &p.rewriter, &p.rwMu)
	}
	return nil
}

// StartForwarding begins forwarding RTP packets into the WebRTC track.
func (p *Publisher) StartForwarding() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	track, err := p.ensureTrack()
	if err != nil {
		return err
	}
	p.forwarding = true
	if p.rtpListener == nil {
		return nil
	}
	return p.rtpListener.start(track, &p.rewriter, &p.rwMu)
}

// StopForwarding stops RTP forwarding without closing the listener.
func (p *Publisher) StopForwarding() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.forwarding = false
	if p.rtpListener != nil {
		p.rtpListener.stop()
	}
}

// Close closes the peer and the RTP listener.
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.forwarding = false
	if p.rtpListener != nil {
		p.rtpListener.close()
		p.rtpListener = nil
	}
	if p.peer != nil {
		_ = p.peer.Close()
		p.peer = nil
	}
}

// ensureTrack initializes the track if it does not already exist.
func (p *Publisher) ensureTrack() (*webrtc.TrackLocalStaticRTP, error) {
	if p.track != nil {
		return p.track, nil
	}
	track, err := webrtc.NewTrackLocalStaticRTP(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeH264},
		"video",
		"touchsliders",
	)
	if err != nil {
		return nil, err
	}
	p.track = track
	return track, nil
}
