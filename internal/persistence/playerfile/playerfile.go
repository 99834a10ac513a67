package playerfile

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Tnze/go-mc/nbt"
	"github.com/klauspost/compress/gzip"

	"playerxfer.ai/internal/playerdata"
)

var gzipMagic = []byte{0x1f, 0x8b}

// DecodeError reports a player file whose content is not a valid record.
// Offset counts uncompressed bytes consumed before the failure.
type DecodeError struct {
	Offset int64
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode at byte %d: %v", e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

type countingReader struct {
	r *bufio.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

func (c *countingReader) ReadByte() (byte, error) {
	b, err := c.r.ReadByte()
	if err == nil {
		c.n++
	}
	return b, err
}

// Read decodes a player file. Gzip is detected from the magic bytes so
// uncompressed files load too. The root must be a compound; a key that
// appears twice keeps its last value.
func Read(path string) (*playerdata.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	br := bufio.NewReaderSize(f, 64*1024)
	src := br
	compressed := false
	if head, _ := br.Peek(2); bytes.Equal(head, gzipMagic) {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, &DecodeError{Err: fmt.Errorf("gzip header: %w", err)}
		}
		defer zr.Close()
		src = bufio.NewReaderSize(zr, 64*1024)
		compressed = true
	}

	cr := &countingReader{r: src}
	rec := playerdata.NewRecord()
	name, err := nbt.NewDecoder(cr).Decode(&rec.Data)
	if err != nil {
		return nil, &DecodeError{Offset: cr.n, Err: err}
	}
	rec.Name = name

	if compressed {
		// Reading to EOF makes the gzip reader verify the CRC and size trailer.
		if _, err := io.Copy(io.Discard, cr); err != nil {
			return nil, &DecodeError{Offset: cr.n, Err: fmt.Errorf("gzip stream: %w", err)}
		}
	}
	return rec, nil
}

// Write encodes rec gzip-compressed into a temp file next to path, syncs it
// and renames it over path. On any failure path keeps its old content.
func Write(path string, rec *playerdata.Record) (err error) {
	if rec == nil || rec.Data == nil {
		return fmt.Errorf("write %s: empty record", path)
	}
	dir := filepath.Dir(path)
	mode := os.FileMode(0o644)
	if st, err := os.Stat(path); err == nil {
		mode = st.Mode().Perm()
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	zw := gzip.NewWriter(tmp)
	bw := bufio.NewWriter(zw)
	if err := nbt.NewEncoder(bw).Encode(rec.Data, rec.Name); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("gzip: %w", err)
	}
	if err := tmp.Chmod(mode); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
