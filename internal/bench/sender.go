package bench

import (
	"context"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/torosent/udprtt/internal/wire"
)

type sender struct {
	conn      net.PacketConn
	target    net.Addr
	seq       *Sequencer
	admission *Admission
	store     *Store
	arrival   arrivalController
	grace     time.Duration
	shutdown  *Shutdown
	recorder  Recorder
	log       logrus.FieldLogger
	sent      atomic.Uint32
}

// run transmits every id, waits out the grace period and fires shutdown.
// Shutdown is fired on every exit path so the receiver never outlives the sender.
func (s *sender) run(ctx context.Context) error {
	defer s.shutdown.Fire()

	for {
		id, ok := s.seq.Next()
		if !ok {
			break
		}
		if s.arrival != nil {
			if err := s.arrival.Wait(ctx); err != nil {
				return err
			}
		}
		permit, err := s.admission.Acquire(ctx)
		if err != nil {
			return err
		}

		s.store.Insert(id, time.Now(), permit)

		payload := wire.Encode(id)
		if _, err := s.conn.WriteTo(payload[:], s.target); err != nil {
			return fmt.Errorf("send request %d: %w", id, err)
		}
		s.sent.Add(1)
		s.recorder.RecordSent()
	}

	s.log.WithFields(logrus.Fields{
		"sent":         s.sent.Load(),
		"grace_period": s.grace,
	}).Info("Send phase complete")

	if s.grace <= 0 {
		return nil
	}
	timer := time.NewTimer(s.grace)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
