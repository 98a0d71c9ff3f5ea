// Package export uploads the appointment listing to S3 for offline download.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/wolfman30/carservice-desk/internal/appointments"
	"github.com/wolfman30/carservice-desk/internal/http/handlers"
	"github.com/wolfman30/carservice-desk/pkg/logging"
)

// S3API is the subset of the S3 client used by Exporter.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Lister lists every booking. *appointments.Service satisfies it.
type Lister interface {
	List(ctx context.Context) ([]appointments.Appointment, error)
}

// Result describes one upload.
type Result struct {
	Key       string
	LatestKey string
	Count     int
}

// Exporter writes a dated snapshot of the listing and refreshes latest.json next to it.
type Exporter struct {
	s3Client S3API
	bucket   string
	prefix   string
	lister   Lister
	now      func() time.Time
	logger   *logging.Logger
}

// NewExporter creates an Exporter. The prefix is normalised to end with "/".
func NewExporter(s3Client S3API, bucket, prefix string, lister Lister, logger *logging.Logger) *Exporter {
	if logger == nil {
		logger = logging.Default()
	}
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix != "" {
		prefix += "/"
	}
	return &Exporter{
		s3Client: s3Client,
		bucket:   strings.TrimSpace(bucket),
		prefix:   prefix,
		lister:   lister,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   logger,
	}
}

// WithClock overrides the timestamp used for snapshot keys.
func (e *Exporter) WithClock(now func() time.Time) *Exporter {
	if now != nil {
		e.now = now
	}
	return e
}

// Enabled reports whether a bucket and client are configured.
func (e *Exporter) Enabled() bool {
	return e != nil && e.bucket != "" && e.s3Client != nil && e.lister != nil
}

// Export uploads the current listing. Unlike the HTTP listing, a store failure is an
// error here: an empty snapshot would overwrite latest.json with nothing.
func (e *Exporter) Export(ctx context.Context) (*Result, error) {
	if !e.Enabled() {
		return nil, fmt.Errorf("export: bucket not configured")
	}

	appts, err := e.lister.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("export: list appointments: %w", err)
	}
	data, err := json.Marshal(handlers.ToViews(appts))
	if err != nil {
		return nil, fmt.Errorf("export: marshal listing: %w", err)
	}

	now := e.now().UTC()
	res := &Result{
		Key: fmt.Sprintf("%sby-date/%d/%02d/%02d/appointments-%s.json",
			e.prefix, now.Year(), now.Month(), now.Day(), now.Format("150405")),
		LatestKey: e.prefix + "latest.json",
		Count:     len(appts),
	}

	for _, key := range []string{res.Key, res.LatestKey} {
		if err := e.put(ctx, key, data); err != nil {
			return nil, err
		}
	}

	e.logger.Info("exported appointment listing", "bucket", e.bucket, "s3_key", res.Key, "count", res.Count)
	return res, nil
}

func (e *Exporter) put(ctx context.Context, key string, data []byte) error {
	_, err := e.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(e.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("export: s3 put %s: %w", key, err)
	}
	return nil
}
