package webrtc

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v3"
	"github.com/sirupsen/logrus"
)

const (
	// videoClockRate is the H.264 RTP clock.
	videoClockRate = 90000
	// defaultFrameDelta is used in place of a timestamp discontinuity.
	defaultFrameDelta = videoClockRate / 30
	// maxFrameDelta is the largest forward step accepted as a normal frame gap.
	maxFrameDelta = videoClockRate
)

// rtpWriteParams overrides header fields on forwarded packets. Zero keeps
// the incoming value.
type rtpWriteParams struct {
	payloadType uint8
	ssrc        uint32
}

// rtpRewriter keeps one continuous RTP stream across encoder restarts.
type rtpRewriter struct {
	started bool
	seq     uint16
	lastIn  uint32
	lastOut uint32
}

// Apply rewrites p in place: contiguous sequence numbers, monotonic
// timestamps grouped by input timestamp, and optional header overrides.
func (rw *rtpRewriter) Apply(p *rtp.Packet, params rtpWriteParams) {
	if !rw.started {
		rw.started = true
		rw.seq = p.SequenceNumber
		rw.lastIn = p.Timestamp
		rw.lastOut = p.Timestamp
	} else {
		rw.seq++
		if p.Timestamp != rw.lastIn {
			delta := p.Timestamp - rw.lastIn
			if delta == 0 || delta > maxFrameDelta {
				delta = defaultFrameDelta
			}
			rw.lastIn = p.Timestamp
			rw.lastOut += delta
		}
	}
	p.SequenceNumber = rw.seq
	p.Timestamp = rw.lastOut
	if params.payloadType != 0 {
		p.PayloadType = params.payloadType
	}
	if params.ssrc != 0 {
		p.SSRC = params.ssrc
	}
}

type rtpListener struct {
	mu      sync.Mutex
	conn    *net.UDPConn
	ctx     context.Context
	cancel  context.CancelFunc
	running bool
	log     *logrus.Entry
}

// newRTPListener binds a UDP port for RTP ingestion.
func newRTPListener(port int, log *logrus.Entry) (*rtpListener, error) {
	addr := &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: port}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, err
	}
	return &rtpListener{conn: conn, log: log.WithField("port", port)}, nil
}

// start begins forwarding RTP packets into the provided track.
func (l *rtpListener) start(track *webrtc.TrackLocalStaticRTP, rw *rtpRewriter, rwMu *sync.Mutex) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conn == nil {
		return fmt.Errorf("rtp listener not initialized")
	}
	if l.running {
		return nil
	}
	l.ctx, l.cancel = context.WithCancel(context.Background())
	l.running = true
	go l.loop(l.ctx, l.conn, track, rw, rwMu)
	return nil
}

// stop cancels the forward loop.
func (l *rtpListener) stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
	}
	l.running = false
}

// close stops forwarding and closes the UDP socket.
func (l *rtpListener) close() {
	l.stop()
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conn != nil {
		_ = l.conn.Close()
		l.conn = nil
	}
}

// loop reads RTP packets and forwards them to the track.
func (l *rtpListener) loop(ctx context.Context, conn *net.UDPConn, track *webrtc.TrackLocalStaticRTP, rw *rtpRewriter, rwMu *sync.Mutex) {
	buf := make([]byte, 1600)
	var forwarded uint64
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			l.log.WithError(err).Debug("rtp read stopped")
			return
		}
		var pkt rtp.Packet
		if err := pkt.Unmarshal(buf[:n]); err != nil {
			continue
		}
		rwMu.Lock()
		rw.Apply(&pkt, rtpWriteParams{})
		rwMu.Unlock()
		if err := track.WriteRTP(&pkt); err != nil {
			l.log.WithError(err).Debug("rtp write failed")
			continue
		}
		forwarded++
		if debugRTPEnabled() && forwarded%300 == 0 {
			l.log.WithFields(logrus.Fields{"seq": pkt.SequenceNumber, "ts": pkt.Timestamp, "count": forwarded}).Debug("rtp forwarded")
		}
	}
}
