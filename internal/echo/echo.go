// Package echo implements a userspace UDP echo target: every datagram read is
// written back, unmodified, to the address it came from.
package echo

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// maxDatagramSize accommodates any UDP payload.
const maxDatagramSize = 65535

// Server echoes datagrams received on Conn.
type Server struct {
	Conn net.PacketConn
	Log  logrus.FieldLogger

	// Drop, when set, is consulted for every datagram; returning true discards it.
	// Tests use it to simulate loss.
	Drop func(payload []byte) bool

	echoed  atomic.Int64
	dropped atomic.Int64
}

// Serve echoes until ctx is cancelled or the connection fails. Cancellation is
// not reported as an error.
func (s *Server) Serve(ctx context.Context) error {
	log := s.Log
	if log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		log = discard
	}

	stop := context.AfterFunc(ctx, func() {
		_ = s.Conn.SetReadDeadline(time.Now())
	})
	defer stop()

	log.WithField("address", s.Conn.LocalAddr().String()).Info("Echo target listening")

	buf := make([]byte, maxDatagramSize)
	for {
		n, addr, err := s.Conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil && errors.Is(err, os.ErrDeadlineExceeded) {
				log.WithField("echoed", s.echoed.Load()).Info("Echo target stopped")
				return nil
			}
			return err
		}
		if s.Drop != nil && s.Drop(buf[:n]) {
			s.dropped.Add(1)
			continue
		}
		if _, err := s.Conn.WriteTo(buf[:n], addr); err != nil {
			log.WithError(err).WithField("peer", addr.String()).Warn("Echo write failed")
			continue
		}
		s.echoed.Add(1)
	}
}

// Echoed returns the number of datagrams written back.
func (s *Server) Echoed() int64 {
	return s.echoed.Load()
}

// Dropped returns the number of datagrams discarded by Drop.
func (s *Server) Dropped() int64 {
	return s.dropped.Load()
}
