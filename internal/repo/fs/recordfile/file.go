// Package recordfile implements a growable file of fixed-size records
// behind a 4-byte header holding the next identity.
//
// Layout: [next_id u32 LE][record 0][record 1]...  Records are only ever
// appended at EOF or rewritten in place, so the byte offset reported by
// Scan stays valid for the life of a record. Every call opens and closes
// its own handle; a per-file mutex serialises the read-modify-write
// sequences (GenerateID, Mutate, AppendNew) inside one process.
package recordfile

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sync"

	"GophShop/internal/repo"
)

// HeaderSize is the byte length of the file header.
const HeaderSize = 4

// File is a record file of T.
type File[T any] struct {
	path  string
	codec Codec[T]
	mu    sync.Mutex
}

// Open binds a File to path and initialises the header if needed.
func Open[T any](path string, codec Codec[T]) (*File[T], error) {
	f := &File[T]{path: path, codec: codec}
	if err := f.Init(); err != nil {
		return nil, err
	}
	return f, nil
}

// Path returns the file location.
func (f *File[T]) Path() string { return f.path }

// RecordSize returns the encoded size of one record.
func (f *File[T]) RecordSize() int { return f.codec.Size() }

// Init writes a fresh header (next_id = 1) when the file is absent or
// shorter than a header. Existing data is left untouched.
func (f *File[T]) Init() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	fh, err := os.OpenFile(f.path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return repo.Fail(repo.CodeOpenFailure, "init", f.path, err)
	}
	defer fh.Close()
	st, err := fh.Stat()
	if err != nil {
		return repo.Fail(repo.CodeReadFailure, "init", f.path, err)
	}
	if st.Size() >= HeaderSize {
		return nil
	}
	var hdr [HeaderSize]byte
	binary.LittleEndian.PutUint32(hdr[:], 1)
	if _, err := fh.WriteAt(hdr[:], 0); err != nil {
		return repo.Fail(repo.CodeWriteFailure, "init", f.path, err)
	}
	return nil
}

// GenerateID returns the current next_id and persists next_id+1.
func (f *File[T]) GenerateID(ctx context.Context) (uint32, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.generateID()
}

func (f *File[T]) generateID() (uint32, error) {
	fh, err := os.OpenFile(f.path, os.O_RDWR, 0)
	if err != nil {
		return 0, repo.Fail(repo.CodeOpenFailure, "generate id", f.path, err)
	}
	defer fh.Close()

	var hdr [HeaderSize]byte
	if _, err := fh.ReadAt(hdr[:], 0); err != nil {
		return 0, repo.Fail(repo.CodeReadFailure, "generate id", f.path, err)
	}
	id := binary.LittleEndian.Uint32(hdr[:])
	if id == 0 || id == math.MaxUint32 {
		return 0, repo.Fail(repo.CodeReadFailure, "generate id", f.path, fmt.Errorf("invalid next_id %d", id))
	}
	binary.LittleEndian.PutUint32(hdr[:], id+1)
	if _, err := fh.WriteAt(hdr[:], 0); err != nil {
		return 0, repo.Fail(repo.CodeWriteFailure, "generate id", f.path, err)
	}
	return id, nil
}

// NextID reads the header without advancing it.
func (f *File[T]) NextID(ctx context.Context) (uint32, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	fh, err := os.Open(f.path)
	if err != nil {
		return 0, repo.Fail(repo.CodeOpenFailure, "read header", f.path, err)
	}
	defer fh.Close()
	var hdr [HeaderSize]byte
	if _, err := fh.ReadAt(hdr[:], 0); err != nil {
		return 0, repo.Fail(repo.CodeReadFailure, "read header", f.path, err)
	}
	return binary.LittleEndian.Uint32(hdr[:]), nil
}

// Append writes records past the last complete record.
func (f *File[T]) Append(ctx context.Context, recs ...T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.append(recs)
}

// AppendNew allocates an id, builds the record from it and appends it in
// one critical section. If conflict is non-nil and matches an existing
// record, nothing is written and repo.ErrConflict is returned.
func (f *File[T]) AppendNew(ctx context.Context, conflict func(T) bool, build func(id uint32) T) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if conflict != nil {
		found := false
		err := f.scan(ctx, func(_ int64, rec T) bool {
			found = conflict(rec)
			return !found
		})
		if err != nil {
			return zero, err
		}
		if found {
			return zero, repo.ErrConflict
		}
	}
	id, err := f.generateID()
	if err != nil {
		return zero, err
	}
	rec := build(id)
	if err := f.append([]T{rec}); err != nil {
		return zero, err
	}
	return rec, nil
}

func (f *File[T]) append(recs []T) error {
	if len(recs) == 0 {
		return nil
	}
	size := f.codec.Size()
	buf := make([]byte, size*len(recs))
	for i, rec := range recs {
		if err := f.codec.Encode(buf[i*size:(i+1)*size], rec); err != nil {
			return repo.Fail(repo.CodeWriteFailure, "append", f.path, err)
		}
	}

	fh, err := os.OpenFile(f.path, os.O_RDWR, 0)
	if err != nil {
		return repo.Fail(repo.CodeOpenFailure, "append", f.path, err)
	}
	defer fh.Close()
	st, err := fh.Stat()
	if err != nil {
		return repo.Fail(repo.CodeReadFailure, "append", f.path, err)
	}
	// a torn trailing record from an interrupted write is overwritten
	end := HeaderSize + (st.Size()-HeaderSize)/int64(size)*int64(size)
	if end < HeaderSize {
		return repo.Fail(repo.CodeSeekFailure, "append", f.path, errors.New("file shorter than header"))
	}
	if _, err := fh.WriteAt(buf, end); err != nil {
		return repo.Fail(repo.CodeWriteFailure, "append", f.path, err)
	}
	if err := fh.Truncate(end + int64(len(buf))); err != nil {
		return repo.Fail(repo.CodeWriteFailure, "append", f.path, err)
	}
	return nil
}

// Scan calls fn for every complete record in file order with its byte
// offset. Returning false stops the scan. A trailing partial record is
// ignored. fn runs under the file lock and must not call back into f.
func (f *File[T]) Scan(ctx context.Context, fn func(pos int64, rec T) bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.scan(ctx, fn)
}

func (f *File[T]) scan(ctx context.Context, fn func(pos int64, rec T) bool) error {
	fh, err := os.Open(f.path)
	if err != nil {
		return repo.Fail(repo.CodeOpenFailure, "scan", f.path, err)
	}
	defer fh.Close()
	if _, err := fh.Seek(HeaderSize, io.SeekStart); err != nil {
		return repo.Fail(repo.CodeSeekFailure, "scan", f.path, err)
	}

	size := f.codec.Size()
	r := bufio.NewReaderSize(fh, 64*size)
	buf := make([]byte, size)
	pos := int64(HeaderSize)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := io.ReadFull(r, buf); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil
			}
			return repo.Fail(repo.CodeReadFailure, "scan", f.path, err)
		}
		rec, err := f.codec.Decode(buf)
		if err != nil {
			return repo.Fail(repo.CodeReadFailure, "scan", f.path, fmt.Errorf("record at %d: %w", pos, err))
		}
		if !fn(pos, rec) {
			return nil
		}
		pos += int64(size)
	}
}

// Find returns the first record matching pred and its offset.
func (f *File[T]) Find(ctx context.Context, pred func(T) bool) (int64, T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.find(ctx, pred)
}

func (f *File[T]) find(ctx context.Context, pred func(T) bool) (int64, T, error) {
	var (
		at    int64 = -1
		found T
	)
	err := f.scan(ctx, func(pos int64, rec T) bool {
		if pred(rec) {
			at, found = pos, rec
			return false
		}
		return true
	})
	if err != nil {
		return -1, found, err
	}
	if at < 0 {
		return -1, found, repo.Fail(repo.CodeNotFound, "find", f.path, nil)
	}
	return at, found, nil
}

// Collect returns every record matching pred in file order.
func (f *File[T]) Collect(ctx context.Context, pred func(T) bool) ([]T, error) {
	var out []T
	err := f.Scan(ctx, func(_ int64, rec T) bool {
		if pred == nil || pred(rec) {
			out = append(out, rec)
		}
		return true
	})
	return out, err
}

// ReadAt decodes the record stored at pos.
func (f *File[T]) ReadAt(ctx context.Context, pos int64) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	fh, err := os.Open(f.path)
	if err != nil {
		return zero, repo.Fail(repo.CodeOpenFailure, "read", f.path, err)
	}
	defer fh.Close()
	if err := f.checkPos(fh, pos); err != nil {
		return zero, err
	}
	buf := make([]byte, f.codec.Size())
	if _, err := fh.ReadAt(buf, pos); err != nil {
		return zero, repo.Fail(repo.CodeReadFailure, "read", f.path, err)
	}
	rec, err := f.codec.Decode(buf)
	if err != nil {
		return zero, repo.Fail(repo.CodeReadFailure, "read", f.path, err)
	}
	return rec, nil
}

// RewriteAt replaces the record at pos with rec. The offset must come
// from a Scan/Find of the same file; it is validated against the record
// grid and the current file length.
func (f *File[T]) RewriteAt(ctx context.Context, pos int64, rec T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rewriteAt(pos, rec)
}

func (f *File[T]) rewriteAt(pos int64, rec T) error {
	buf := make([]byte, f.codec.Size())
	if err := f.codec.Encode(buf, rec); err != nil {
		return repo.Fail(repo.CodeWriteFailure, "rewrite", f.path, err)
	}
	fh, err := os.OpenFile(f.path, os.O_RDWR, 0)
	if err != nil {
		return repo.Fail(repo.CodeOpenFailure, "rewrite", f.path, err)
	}
	defer fh.Close()
	if err := f.checkPos(fh, pos); err != nil {
		return err
	}
	if _, err := fh.WriteAt(buf, pos); err != nil {
		return repo.Fail(repo.CodeWriteFailure, "rewrite", f.path, err)
	}
	return nil
}

func (f *File[T]) checkPos(fh *os.File, pos int64) error {
	size := int64(f.codec.Size())
	if pos < HeaderSize || (pos-HeaderSize)%size != 0 {
		return repo.Fail(repo.CodeSeekFailure, "position", f.path, fmt.Errorf("offset %d is not a record boundary", pos))
	}
	st, err := fh.Stat()
	if err != nil {
		return repo.Fail(repo.CodeReadFailure, "position", f.path, err)
	}
	if pos+size > st.Size() {
		return repo.Fail(repo.CodeSeekFailure, "position", f.path, fmt.Errorf("offset %d past end of file", pos))
	}
	return nil
}

// Mutate finds the first record matching pred and rewrites it with the
// value returned by fn, holding the lock across both steps. An error from
// fn aborts without writing.
func (f *File[T]) Mutate(ctx context.Context, pred func(T) bool, fn func(T) (T, error)) (int64, T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	pos, rec, err := f.find(ctx, pred)
	if err != nil {
		return -1, rec, err
	}
	next, err := fn(rec)
	if err != nil {
		return pos, rec, err
	}
	if err := f.rewriteAt(pos, next); err != nil {
		return pos, rec, err
	}
	return pos, next, nil
}

// MutateAll rewrites every record matching pred. fn returns the new value
// and whether to write it. It returns the number of records written.
func (f *File[T]) MutateAll(ctx context.Context, pred func(T) bool, fn func(T) (T, bool)) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	type hit struct {
		pos int64
		rec T
	}
	var hits []hit
	err := f.scan(ctx, func(pos int64, rec T) bool {
		if pred(rec) {
			if next, ok := fn(rec); ok {
				hits = append(hits, hit{pos: pos, rec: next})
			}
		}
		return true
	})
	if err != nil {
		return 0, err
	}
	for i, h := range hits {
		if err := f.rewriteAt(h.pos, h.rec); err != nil {
			return i, err
		}
	}
	return len(hits), nil
}

// Upsert picks the best-ranked record (rank > 0, highest first, earliest
// on ties) and rewrites it with fn(rec, true); with no candidate it
// appends fn(zero, false). Both steps run under one lock.
func (f *File[T]) Upsert(ctx context.Context, rank func(T) int, fn func(prev T, found bool) (T, error)) (T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var (
		best    int
		bestPos int64 = -1
		prev    T
	)
	err := f.scan(ctx, func(pos int64, rec T) bool {
		if r := rank(rec); r > best {
			best, bestPos, prev = r, pos, rec
		}
		return true
	})
	if err != nil {
		return prev, err
	}
	next, err := fn(prev, bestPos >= 0)
	if err != nil {
		return prev, err
	}
	if bestPos >= 0 {
		err = f.rewriteAt(bestPos, next)
	} else {
		err = f.append([]T{next})
	}
	return next, err
}
