// Package harvest runs a batch: records are assembled, optionally dumped, and
// published one after another.
package harvest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"os"

	"github.com/segmentio/encoding/json"
	log "github.com/sirupsen/logrus"
	"github.com/wikimedia-pl/mbckit/classify"
	"github.com/wikimedia-pl/mbckit/commons"
	"github.com/wikimedia-pl/mbckit/dateutil"
	"github.com/wikimedia-pl/mbckit/dlibra"
	"github.com/wikimedia-pl/mbckit/feeds"
	"github.com/wikimedia-pl/mbckit/schema/oaidc"
)

// Assembler turns a raw record into a result, see dlibra.Assembler.
type Assembler interface {
	Assemble(context.Context, *oaidc.Record) dlibra.Result
}

// Uploader publishes files, see commons.Client.
type Uploader interface {
	Exists(ctx context.Context, name string) (bool, error)
	Upload(ctx context.Context, u *commons.Upload) error
}

// Stats counts outcomes of a run.
type Stats struct {
	Seen         int `json:"seen"`
	Offset       int `json:"offset"`
	Assembled    int `json:"assembled"`
	Skipped      int `json:"skipped"`
	Failed       int `json:"failed"`
	Uploaded     int `json:"uploaded"`
	Exists       int `json:"exists"`
	UploadFailed int `json:"upload_failed"`
}

func (s Stats) fields() log.Fields {
	return log.Fields{
		"seen":          s.Seen,
		"offset":        s.Offset,
		"assembled":     s.Assembled,
		"skipped":       s.Skipped,
		"failed":        s.Failed,
		"uploaded":      s.Uploaded,
		"exists":        s.Exists,
		"upload_failed": s.UploadFailed,
	}
}

// Runner processes records strictly in order. A failing record is logged and
// counted, only a failing record listing ends the run early.
type Runner struct {
	Records   iter.Seq2[*oaidc.Record, error]
	Assembler Assembler
	// Uploader may be nil in a dry run.
	Uploader Uploader
	// Client downloads the binary content before the upload.
	Client     feeds.Doer
	Categories classify.Table
	Comment    string
	// Offset is the number of records to pass over without processing.
	Offset int
	// Limit is the maximum number of records to process, zero means all; a
	// negative value stops after the first record.
	Limit  int
	DryRun bool
	// Dump, if set, receives every assembled record as a JSON line.
	Dump io.Writer
	// ScratchDir holds the downloaded content during an upload.
	ScratchDir string
	RunID      string
}

func (r *Runner) limit() int {
	if r.Limit < 0 {
		return 1
	}
	return r.Limit
}

// Run processes all records and returns the counts.
func (r *Runner) Run(ctx context.Context) (Stats, error) {
	var (
		stats  Stats
		enc    *json.Encoder
		logger = log.WithField("run", r.RunID)
	)
	if r.Dump != nil {
		enc = json.NewEncoder(r.Dump)
		enc.SetEscapeHTML(false)
	}
	if !r.DryRun && r.Uploader == nil {
		return stats, errors.New("harvest: no uploader configured")
	}
	var processed int
	for raw, err := range r.Records {
		if err != nil {
			return stats, fmt.Errorf("harvest: listing records: %w", err)
		}
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		stats.Seen++
		if stats.Seen <= r.Offset {
			stats.Offset++
			continue
		}
		processed++
		rlog := logger.WithFields(log.Fields{"n": stats.Seen, "id": raw.Header.Identifier})
		if t, err := raw.Header.Time(); err == nil {
			rlog = rlog.WithField("datestamp", t.Format(dateutil.DayLayout))
		}
		result := r.Assembler.Assemble(ctx, raw)
		switch result.Status {
		case dlibra.StatusSkipped:
			stats.Skipped++
			rlog.WithField("reason", result.Err).Info("skipped")
		case dlibra.StatusFailed:
			stats.Failed++
			rlog.WithField("err", result.Err).Error("assembly failed")
		case dlibra.StatusAssembled:
			stats.Assembled++
			rlog.WithField("content_url", result.Record.ContentURL).Info("assembled")
			if enc != nil {
				if err := enc.Encode(result.Record); err != nil {
					return stats, fmt.Errorf("harvest: dump: %w", err)
				}
			}
			if !r.DryRun {
				r.publish(ctx, rlog, result.Record, &stats)
			}
		}
		if l := r.limit(); l > 0 && processed >= l {
			rlog.WithField("limit", l).Info("limit reached")
			break
		}
	}
	logger.WithFields(stats.fields()).Info("run done")
	return stats, nil
}

// publish uploads a record, unless a file of that name exists; any failure
// is counted and logged.
func (r *Runner) publish(ctx context.Context, rlog *log.Entry, record *dlibra.Record, stats *Stats) {
	name, err := commons.FileName(record)
	if err != nil {
		stats.UploadFailed++
		rlog.WithField("err", err).Error("cannot name file")
		return
	}
	rlog = rlog.WithField("file", name)
	exists, err := r.Uploader.Exists(ctx, name)
	switch {
	case err != nil:
		stats.UploadFailed++
		rlog.WithField("err", err).Error("exists check failed")
		return
	case exists:
		stats.Exists++
		rlog.Info("file exists, skipping upload")
		return
	}
	page, err := commons.NewPage(record, r.Categories)
	if err != nil {
		stats.UploadFailed++
		rlog.WithField("err", err).Error("cannot render page")
		return
	}
	text, err := page.Wikitext()
	if err != nil {
		stats.UploadFailed++
		rlog.WithField("err", err).Error("cannot render page")
		return
	}
	rlog.WithField("medium", page.Medium).Debug(text)
	err = r.upload(ctx, record.ContentURL, &commons.Upload{
		Filename: name,
		Text:     text,
		Comment:  r.comment(),
	})
	switch {
	case errors.Is(err, commons.ErrFileExists):
		stats.Exists++
		rlog.WithField("err", err).Info("file exists")
	case err != nil:
		stats.UploadFailed++
		rlog.WithField("err", err).Error("upload failed")
	default:
		stats.Uploaded++
		rlog.Info("uploaded")
	}
}

func (r *Runner) comment() string {
	if r.Comment == "" {
		return commons.DefaultComment
	}
	return r.Comment
}

// upload downloads the content into a scratch file, which is removed once
// the upload attempt is over.
func (r *Runner) upload(ctx context.Context, contentURL string, u *commons.Upload) error {
	f, err := os.CreateTemp(r.ScratchDir, "mbc-*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())
	defer f.Close()
	if err := r.download(ctx, contentURL, f); err != nil {
		return err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return err
	}
	u.Content = f
	return r.Uploader.Upload(ctx, u)
}

func (r *Runner) download(ctx context.Context, link string, w io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return err
	}
	resp, err := r.Client.Do(req)
	if err != nil {
		return &dlibra.NetworkError{URL: link, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &dlibra.NetworkError{URL: link, Err: fmt.Errorf("HTTP %d", resp.StatusCode)}
	}
	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return &dlibra.NetworkError{URL: link, Err: err}
	}
	if n == 0 {
		return fmt.Errorf("harvest: empty content at %s", link)
	}
	log.WithFields(log.Fields{"url": link, "bytes": n}).Debug("downloaded")
	return nil
}
