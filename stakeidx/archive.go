package stakeidx

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"github.com/smolage/gbones/sysaction"
)

// Export writes the events matching f to path as zstd-compressed JSON lines,
// returning the number written.
func (idx *Index) Export(ctx context.Context, path string, f Filter) (int, error) {
	events, err := idx.Events(ctx, f)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, err
	}
	file, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	enc, err := zstd.NewWriter(file, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return 0, err
	}
	w := bufio.NewWriterSize(enc, 128*1024)
	for _, ev := range events {
		b, err := json.Marshal(ev)
		if err != nil {
			enc.Close()
			return 0, err
		}
		w.Write(b)
		if err := w.WriteByte('\n'); err != nil {
			enc.Close()
			return 0, err
		}
	}
	if err := w.Flush(); err != nil {
		enc.Close()
		return 0, err
	}
	if err := enc.Close(); err != nil {
		return 0, err
	}
	return len(events), file.Close()
}

// ReadArchive reads back the events of an archive written by Export.
func ReadArchive(path string) ([]*sysaction.DecodedEvent, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	dec, err := zstd.NewReader(file)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var (
		out []*sysaction.DecodedEvent
		jd  = json.NewDecoder(dec)
	)
	for {
		ev := new(sysaction.DecodedEvent)
		if err := jd.Decode(ev); errors.Is(err, io.EOF) {
			return out, nil
		} else if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
}
