package bench

import (
	"fmt"
	"net"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/torosent/udprtt/internal/wire"
)

// readBufferSize is larger than a payload so oversized datagrams are seen as
// malformed instead of silently truncated to a valid-looking id.
const readBufferSize = 64

// replyQueueSize decouples the socket reader from store lock contention.
const replyQueueSize = 1024

type reply struct {
	id uint32
	at time.Time
}

type receiver struct {
	store    *Store
	shutdown *Shutdown
	recorder Recorder
	log      logrus.FieldLogger

	accepted, duplicates, unknown int64
}

// run matches replies until the shutdown signal fires or the reader fails.
func (r *receiver) run(replies <-chan reply, readErr <-chan error) error {
	defer func() {
		r.log.WithFields(logrus.Fields{
			"accepted":   r.accepted,
			"duplicates": r.duplicates,
			"unknown":    r.unknown,
		}).Debug("Receiver stopped")
	}()

	for {
		select {
		case rep := <-replies:
			rtt, result := r.store.Claim(rep.id, rep.at)
			switch result {
			case ClaimAccepted:
				r.accepted++
				r.recorder.RecordReply(rtt)
			case ClaimDuplicate:
				r.duplicates++
				r.recorder.RecordDuplicate()
			default:
				r.unknown++
				r.recorder.RecordUnknown()
			}
		case err := <-readErr:
			return fmt.Errorf("receive reply: %w", err)
		case <-r.shutdown.Done():
			return nil
		}
	}
}

// socketReader pulls datagrams off the socket and forwards decoded replies.
type socketReader struct {
	conn     net.PacketConn
	recorder Recorder
}

// read loops until stop is closed. The caller unblocks a pending ReadFrom by
// setting a past read deadline after closing stop; errors seen after that are
// expected and swallowed.
func (sr *socketReader) read(replies chan<- reply, readErr chan<- error, stop <-chan struct{}) {
	buf := make([]byte, readBufferSize)
	for {
		n, _, err := sr.conn.ReadFrom(buf)
		at := time.Now()
		if err != nil {
			select {
			case <-stop:
			case readErr <- err:
			}
			return
		}
		id, err := wire.Decode(buf[:n])
		if err != nil {
			sr.recorder.RecordMalformed()
			continue
		}
		select {
		case replies <- reply{id: id, at: at}:
		case <-stop:
			return
		}
	}
}
