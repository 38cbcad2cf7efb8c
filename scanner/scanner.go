// Package scanner triggers Wi-Fi scans and turns the reported access points
// into scan records.
package scanner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-errors/errors"
	"github.com/the-lightning-land/wifid/network"
)

const DefaultTimeout = 15 * time.Second

var ErrScanTimeout = errors.New("timed out waiting for scan results")

// RecordError is a single access point that could not be converted.
type RecordError struct {
	ID  string
	Err error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("%v: %v", e.ID, e.Err)
}

// RecordErrors is returned next to the records that could be converted.
type RecordErrors []*RecordError

func (e RecordErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}

	return fmt.Sprintf("could not convert %d scan records: %v", len(e), strings.Join(msgs, "; "))
}

type Config struct {
	Network network.Network
	Timeout time.Duration
	Logger  Logger
}

type Scanner struct {
	network network.Network
	timeout time.Duration
	log     Logger
}

func New(config *Config) *Scanner {
	scanner := &Scanner{
		network: config.Network,
		timeout: config.Timeout,
	}

	if scanner.timeout <= 0 {
		scanner.timeout = DefaultTimeout
	}

	if config.Logger != nil {
		scanner.log = config.Logger
	} else {
		scanner.log = noopLogger{}
	}

	return scanner
}

// Load returns the current scan results without hidden networks, in the
// order the OS reported them. Records that cannot be converted are skipped
// and reported through a RecordErrors error next to the others.
func (s *Scanner) Load() ([]*network.ScanRecord, error) {
	raws, err := s.network.ScanResults()
	if err != nil {
		return nil, errors.Errorf("could not get scan results: %w", err)
	}

	records := []*network.ScanRecord{}
	var failed RecordErrors

	for _, raw := range raws {
		if raw.Err != nil {
			failed = append(failed, &RecordError{ID: raw.ID, Err: raw.Err})
			continue
		}

		record, err := network.RecordFromProperties(raw.Props)
		if err != nil {
			failed = append(failed, &RecordError{ID: raw.ID, Err: err})
			continue
		}

		if record.SSID == "" {
			continue
		}

		records = append(records, record)
	}

	s.log.Debugf("Loaded %d scan records, %d hidden or failed", len(records), len(raws)-len(records))

	if len(failed) > 0 {
		return records, failed
	}

	return records, nil
}

// RescanAndLoad triggers a scan, waits for it to complete and loads the
// results.
func (s *Scanner) RescanAndLoad(ctx context.Context) ([]*network.ScanRecord, error) {
	// subscribe first so a fast scan is not missed
	client, err := s.network.SubscribeScanDone()
	if err != nil {
		return nil, errors.Errorf("could not subscribe to scan completion: %w", err)
	}

	defer client.Cancel()

	err = s.network.Scan()
	if err != nil {
		return nil, errors.Errorf("could not scan: %w", err)
	}

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	select {
	case success, ok := <-client.ScanDone:
		if !ok {
			return nil, errors.New("scan completion subscription closed")
		}

		if !success {
			s.log.Warnf("Scan did not succeed, loading previous results")
		}
	case <-timer.C:
		return nil, ErrScanTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	// release the subscription before reading
	client.Cancel()

	return s.Load()
}
