package harvest

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/segmentio/encoding/json"
	"github.com/wikimedia-pl/mbckit/classify"
	"github.com/wikimedia-pl/mbckit/commons"
	"github.com/wikimedia-pl/mbckit/dlibra"
	"github.com/wikimedia-pl/mbckit/schema/oaidc"
)

func records(ids ...string) iter.Seq2[*oaidc.Record, error] {
	return func(yield func(*oaidc.Record, error) bool) {
		for _, id := range ids {
			r := &oaidc.Record{}
			r.Header.Identifier = id
			if !yield(r, nil) {
				return
			}
		}
	}
}

// fakeAssembler assembles records whose identifier ends with a number; ids
// ending in "skip" are skipped, everything else fails.
type fakeAssembler struct {
	contentURL string
	seen       []string
}

func (a *fakeAssembler) Assemble(_ context.Context, raw *oaidc.Record) dlibra.Result {
	id := raw.Header.Identifier
	a.seen = append(a.seen, id)
	switch {
	case strings.HasSuffix(id, "skip"):
		return dlibra.NewResult(id, nil, dlibra.ErrNoContent)
	case strings.HasSuffix(id, "fail"):
		return dlibra.NewResult(id, nil, &dlibra.RdfFetchError{URL: "x", Err: errors.New("broken")})
	}
	_, n, err := dlibra.ParseIdentifier(id)
	if err != nil {
		return dlibra.NewResult(id, nil, err)
	}
	return dlibra.NewResult(id, &dlibra.Record{
		RecordID:   id,
		SourceID:   "mbc.cyfrowemazowsze.pl",
		Title:      fmt.Sprintf("Widok %d", n),
		MediumRaw:  "grafika",
		ContentURL: a.contentURL,
		Tags:       []string{"Drzeworyt"},
	}, nil)
}

type fakeUploader struct {
	existing  map[string]bool
	uploadErr error
	uploads   []string
	contents  []string
	scratch   []string
}

func (u *fakeUploader) Exists(_ context.Context, name string) (bool, error) {
	return u.existing[name], nil
}

func (u *fakeUploader) Upload(_ context.Context, up *commons.Upload) error {
	if f, ok := up.Content.(*os.File); ok {
		u.scratch = append(u.scratch, f.Name())
	}
	b, err := io.ReadAll(up.Content)
	if err != nil {
		return err
	}
	u.uploads = append(u.uploads, up.Filename)
	u.contents = append(u.contents, string(b))
	if !strings.Contains(up.Text, "|medium = woodcut") {
		return fmt.Errorf("unexpected text: %s", up.Text)
	}
	return u.uploadErr
}

func newContentServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/Content/1/image.jpg" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		io.WriteString(w, "\xff\xd8\xff\xe0")
	}))
	t.Cleanup(server.Close)
	return server
}

func TestRun(t *testing.T) {
	server := newContentServer(t)
	scratch := t.TempDir()
	uploader := &fakeUploader{existing: map[string]bool{"Widok 2 (2).jpg": true}}
	runner := &Runner{
		Records: records(
			"oai:mbc.cyfrowemazowsze.pl:1",
			"oai:mbc.cyfrowemazowsze.pl:2",
			"oai:mbc.cyfrowemazowsze.pl:skip",
			"oai:mbc.cyfrowemazowsze.pl:fail",
			"broken",
		),
		Assembler:  &fakeAssembler{contentURL: server.URL + "/Content/1/image.jpg"},
		Uploader:   uploader,
		Client:     server.Client(),
		Categories: classify.DefaultTable,
		ScratchDir: scratch,
		RunID:      "test",
	}
	stats, err := runner.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := Stats{Seen: 5, Assembled: 2, Skipped: 1, Failed: 2, Uploaded: 1, Exists: 1}
	if diff := cmp.Diff(want, stats); diff != "" {
		t.Errorf("Stats mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Widok 1 (1).jpg"}, uploader.uploads); diff != "" {
		t.Errorf("uploads mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"\xff\xd8\xff\xe0"}, uploader.contents); diff != "" {
		t.Errorf("contents mismatch (-want +got):\n%s", diff)
	}
	assertEmptyDir(t, scratch)
}

func TestRunUploadFailureRemovesScratch(t *testing.T) {
	server := newContentServer(t)
	var cases = []struct {
		name      string
		uploadErr error
		want      Stats
	}{
		{"conflict", fmt.Errorf("x: %w", commons.ErrFileExists), Stats{Seen: 1, Assembled: 1, Exists: 1}},
		{"failure", errors.New("permissiondenied"), Stats{Seen: 1, Assembled: 1, UploadFailed: 1}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			scratch := t.TempDir()
			uploader := &fakeUploader{uploadErr: c.uploadErr}
			runner := &Runner{
				Records:    records("oai:mbc.cyfrowemazowsze.pl:1"),
				Assembler:  &fakeAssembler{contentURL: server.URL + "/Content/1/image.jpg"},
				Uploader:   uploader,
				Client:     server.Client(),
				ScratchDir: scratch,
			}
			stats, err := runner.Run(context.Background())
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(c.want, stats); diff != "" {
				t.Errorf("Stats mismatch (-want +got):\n%s", diff)
			}
			if len(uploader.scratch) != 1 {
				t.Fatalf("got %d scratch files, want 1", len(uploader.scratch))
			}
			if _, err := os.Stat(uploader.scratch[0]); !os.IsNotExist(err) {
				t.Errorf("scratch file not removed: %v", err)
			}
			assertEmptyDir(t, scratch)
		})
	}
}

func TestRunDownloadFailure(t *testing.T) {
	server := newContentServer(t)
	scratch := t.TempDir()
	uploader := &fakeUploader{}
	runner := &Runner{
		Records:    records("oai:mbc.cyfrowemazowsze.pl:1"),
		Assembler:  &fakeAssembler{contentURL: server.URL + "/missing.jpg"},
		Uploader:   uploader,
		Client:     server.Client(),
		ScratchDir: scratch,
	}
	stats, err := runner.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.UploadFailed != 1 || len(uploader.uploads) != 0 {
		t.Errorf("got %+v, uploads %v", stats, uploader.uploads)
	}
	assertEmptyDir(t, scratch)
}

func TestRunOffsetLimit(t *testing.T) {
	ids := []string{
		"oai:mbc.cyfrowemazowsze.pl:1",
		"oai:mbc.cyfrowemazowsze.pl:2",
		"oai:mbc.cyfrowemazowsze.pl:3",
		"oai:mbc.cyfrowemazowsze.pl:4",
		"oai:mbc.cyfrowemazowsze.pl:5",
	}
	var cases = []struct {
		offset, limit int
		want          []string
	}{
		{0, 0, ids},
		{2, 0, ids[2:]},
		{1, 2, ids[1:3]},
		{0, -1, ids[:1]},
		{3, -1, ids[3:4]},
		{10, 0, nil},
		{0, 100, ids},
	}
	for _, c := range cases {
		assembler := &fakeAssembler{}
		runner := &Runner{
			Records:   records(ids...),
			Assembler: assembler,
			Offset:    c.offset,
			Limit:     c.limit,
			DryRun:    true,
		}
		stats, err := runner.Run(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(c.want, assembler.seen); diff != "" {
			t.Errorf("offset=%d limit=%d mismatch (-want +got):\n%s", c.offset, c.limit, diff)
		}
		if stats.Offset != min(c.offset, len(ids)) {
			t.Errorf("offset=%d: got %d passed over", c.offset, stats.Offset)
		}
	}
}

func TestRunDump(t *testing.T) {
	var buf bytes.Buffer
	runner := &Runner{
		Records: records(
			"oai:mbc.cyfrowemazowsze.pl:1",
			"oai:mbc.cyfrowemazowsze.pl:skip",
			"oai:mbc.cyfrowemazowsze.pl:2",
		),
		Assembler: &fakeAssembler{contentURL: "https://mbc.cyfrowemazowsze.pl/Content/1/image.jpg"},
		DryRun:    true,
		Dump:      &buf,
	}
	if _, err := runner.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	var got []string
	scanner := bufio.NewScanner(&buf)
	for scanner.Scan() {
		var record dlibra.Record
		if err := json.Unmarshal(scanner.Bytes(), &record); err != nil {
			t.Fatalf("invalid line %q: %v", scanner.Text(), err)
		}
		got = append(got, record.RecordID)
	}
	want := []string{"oai:mbc.cyfrowemazowsze.pl:1", "oai:mbc.cyfrowemazowsze.pl:2"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("dump mismatch (-want +got):\n%s", diff)
	}
}

func TestRunListingError(t *testing.T) {
	seq := func(yield func(*oaidc.Record, error) bool) {
		r := &oaidc.Record{}
		r.Header.Identifier = "oai:mbc.cyfrowemazowsze.pl:1"
		if !yield(r, nil) {
			return
		}
		yield(nil, errors.New("badResumptionToken"))
	}
	runner := &Runner{Records: seq, Assembler: &fakeAssembler{}, DryRun: true}
	stats, err := runner.Run(context.Background())
	if err == nil {
		t.Fatalf("expected error")
	}
	if stats.Assembled != 1 {
		t.Errorf("got %d assembled, want 1", stats.Assembled)
	}
}

func TestRunRequiresUploader(t *testing.T) {
	runner := &Runner{Records: records(), Assembler: &fakeAssembler{}}
	if _, err := runner.Run(context.Background()); err == nil {
		t.Errorf("expected error without uploader")
	}
}

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("got %d files in %s, want none", len(entries), dir)
	}
}
