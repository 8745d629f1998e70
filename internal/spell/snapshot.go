package spell

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
)

// ErrNotRegistry is returned when a snapshot does not decode into a Registry.
var ErrNotRegistry = errors.New("spell: snapshot is not a registry")

const (
	snapshotKind    = "registry"
	snapshotVersion = 1
)

// snapshotMagic prefixes every snapshot so foreign files are rejected before
// decompression.
var snapshotMagic = []byte("SPL1")

// Shared zstd encoder and decoder. Only EncodeAll and DecodeAll are used,
// which are safe for concurrent use.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	if zstdEncoder, err = zstd.NewWriter(nil); err != nil {
		panic(err) // impossible with no options
	}
	if zstdDecoder, err = zstd.NewReader(nil); err != nil {
		panic(err) // impossible with no options
	}
}

// registryRecord is the msgpack document stored inside a snapshot.
type registryRecord struct {
	Kind           string   `msgpack:"kind"`
	Version        int      `msgpack:"version"`
	Pattern        string   `msgpack:"pattern"`
	NextLineID     int      `msgpack:"next_line_id"`
	NextTemplateID int      `msgpack:"next_template_id"`
	Templates      []Record `msgpack:"templates"`
}

// Save writes the registry to w as an opaque snapshot.
func Save(w io.Writer, r *Registry) error {
	if r == nil {
		return fmt.Errorf("%w: nil registry", ErrNotRegistry)
	}

	rec := registryRecord{
		Kind:           snapshotKind,
		Version:        snapshotVersion,
		Pattern:        r.Pattern(),
		NextLineID:     r.nextLineID,
		NextTemplateID: r.nextTemplateID,
		Templates:      make([]Record, 0, len(r.templates)),
	}
	for _, t := range r.templates {
		rec.Templates = append(rec.Templates, t.Snapshot())
	}

	data, err := msgpack.Marshal(&rec)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	buf := make([]byte, 0, len(snapshotMagic)+len(data)/2)
	buf = append(buf, snapshotMagic...)
	buf = zstdEncoder.EncodeAll(data, buf)

	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return nil
}

// Load reads a snapshot written by Save. It returns ErrNotRegistry when the
// data is not a valid registry snapshot.
func Load(rd io.Reader) (*Registry, error) {
	raw, err := io.ReadAll(rd)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	if !bytes.HasPrefix(raw, snapshotMagic) {
		return nil, fmt.Errorf("%w: missing snapshot header", ErrNotRegistry)
	}

	data, err := zstdDecoder.DecodeAll(raw[len(snapshotMagic):], nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotRegistry, err)
	}

	var rec registryRecord
	if err := msgpack.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotRegistry, err)
	}
	if rec.Kind != snapshotKind {
		return nil, fmt.Errorf("%w: kind %q", ErrNotRegistry, rec.Kind)
	}
	if rec.Version != snapshotVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrNotRegistry, rec.Version)
	}

	return restore(rec)
}

// SaveFile writes the snapshot to a temporary file next to path and renames
// it into place, so a crash never leaves a truncated snapshot behind.
func SaveFile(path string, r *Registry) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".spell-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if err := Save(tmp, r); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}

// LoadFile reads a snapshot from path.
func LoadFile(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// restore rebuilds a Registry from a decoded record, rejecting state that
// could not have been produced by Insert.
func restore(rec registryRecord) (*Registry, error) {
	tok, err := NewTokenizer(rec.Pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotRegistry, err)
	}
	if rec.NextLineID < 0 || rec.NextTemplateID < len(rec.Templates) {
		return nil, fmt.Errorf("%w: inconsistent counters", ErrNotRegistry)
	}

	r := &Registry{
		tokenizer:      tok,
		templates:      make([]*Template, 0, len(rec.Templates)),
		nextLineID:     rec.NextLineID,
		nextTemplateID: rec.NextTemplateID,
	}

	seen := make(map[int]struct{}, len(rec.Templates))
	for _, tr := range rec.Templates {
		if _, dup := seen[tr.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate template id %d", ErrNotRegistry, tr.ID)
		}
		seen[tr.ID] = struct{}{}

		t, err := restoreTemplate(tr, tok, rec.NextTemplateID, rec.NextLineID)
		if err != nil {
			return nil, err
		}
		r.templates = append(r.templates, t)
	}
	return r, nil
}

func restoreTemplate(tr Record, tok *Tokenizer, nextTemplateID, nextLineID int) (*Template, error) {
	if tr.ID < 0 || tr.ID >= nextTemplateID {
		return nil, fmt.Errorf("%w: template id %d out of range", ErrNotRegistry, tr.ID)
	}
	if len(tr.LineIDs) == 0 {
		return nil, fmt.Errorf("%w: template %d has no lines", ErrNotRegistry, tr.ID)
	}
	for _, id := range tr.LineIDs {
		if id < 0 || id >= nextLineID {
			return nil, fmt.Errorf("%w: template %d line id %d out of range", ErrNotRegistry, tr.ID, id)
		}
	}

	wild := make([]bool, len(tr.Skeleton))
	prev := -2
	for _, p := range tr.WildcardPositions {
		if p < 0 || p >= len(tr.Skeleton) || p <= prev || tr.Skeleton[p] != Wildcard {
			return nil, fmt.Errorf("%w: template %d has invalid wildcard position %d", ErrNotRegistry, tr.ID, p)
		}
		if p == prev+1 {
			return nil, fmt.Errorf("%w: template %d has adjacent wildcards at %d", ErrNotRegistry, tr.ID, p)
		}
		wild[p] = true
		prev = p
	}

	t := &Template{
		id:        tr.ID,
		skeleton:  append([]string(nil), tr.Skeleton...),
		wild:      wild,
		lineIDs:   append([]int(nil), tr.LineIDs...),
		tokenizer: tok,
	}
	t.refresh()
	return t, nil
}
