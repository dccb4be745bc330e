package output

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/gofrs/flock"

	"github.com/torosent/udprtt/internal/bench"
)

var detailHeader = []string{"id", "sent_at", "received_at", "rtt_nanos"}

// WriteDetailCSV writes one row per record. Timestamps are nanosecond offsets
// from start; fields are left empty for requests that were never sent or never
// answered.
func WriteDetailCSV(w io.Writer, start time.Time, records []bench.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(detailHeader); err != nil {
		return err
	}
	row := make([]string, len(detailHeader))
	for _, rec := range records {
		row[0] = strconv.FormatUint(uint64(rec.ID), 10)
		row[1], row[2], row[3] = "", "", ""
		if rec.Sent() {
			row[1] = offset(start, rec.SentAt)
		}
		if rec.Received() {
			row[2] = offset(start, rec.ReceivedAt)
		}
		if rtt, ok := rec.RTT(); ok {
			row[3] = strconv.FormatInt(int64(rtt), 10)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteDetailFile writes the detail report to path while holding an exclusive
// lock on path+".lock", so concurrent runs never interleave rows.
func WriteDetailFile(path string, start time.Time, records []bench.Record) (err error) {
	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock %s: %w", path, err)
	}
	defer func() {
		if uerr := lock.Unlock(); uerr != nil && err == nil {
			err = fmt.Errorf("unlock %s: %w", path, uerr)
		}
	}()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	bw := bufio.NewWriter(f)
	if err := WriteDetailCSV(bw, start, records); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Sync()
}

func offset(start, t time.Time) string {
	return strconv.FormatInt(int64(t.Sub(start)), 10)
}
