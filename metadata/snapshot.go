// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package metadata

import (
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
)

// snapshotVersion is bumped on incompatible snapshot layout changes.
const snapshotVersion = 1

// ErrSnapshotVersion is returned when decoding a snapshot of another layout.
var ErrSnapshotVersion = errors.New("metadata: unsupported snapshot version")

type snapshot struct {
	Version    int        `msgpack:"version"`
	Properties []Property `msgpack:"properties"`
	Categories []string   `msgpack:"categories"`
}

// MarshalBinary encodes the schema and category table as zstd-compressed
// MessagePack. Category IDs survive the round trip.
func (m *Metadata) MarshalBinary() ([]byte, error) {
	m.mu.RLock()
	s := snapshot{
		Version:    snapshotVersion,
		Categories: append([]string(nil), m.idToCategory...),
	}
	m.mu.RUnlock()
	for _, name := range m.Names() {
		p, _ := m.Property(name)
		s.Properties = append(s.Properties, p)
	}

	raw, err := msgpack.Marshal(&s)
	if err != nil {
		return nil, fmt.Errorf("metadata: encode snapshot: %w", err)
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("metadata: create zstd encoder: %w", err)
	}
	defer enc.Close()
	return enc.EncodeAll(raw, make([]byte, 0, len(raw)/2)), nil
}

// UnmarshalBinary replaces m with a snapshot produced by MarshalBinary.
func (m *Metadata) UnmarshalBinary(data []byte) error {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return fmt.Errorf("metadata: create zstd decoder: %w", err)
	}
	defer dec.Close()
	raw, err := dec.DecodeAll(data, nil)
	if err != nil {
		return fmt.Errorf("metadata: decompress snapshot: %w", err)
	}

	var s snapshot
	if err := msgpack.Unmarshal(raw, &s); err != nil {
		return fmt.Errorf("metadata: decode snapshot: %w", err)
	}
	if s.Version != snapshotVersion {
		return fmt.Errorf("%w: %d", ErrSnapshotVersion, s.Version)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.properties = make(map[string]*Property, len(s.Properties))
	m.categoryToID = make(map[string]int, len(s.Categories))
	m.idToCategory = m.idToCategory[:0]
	for _, c := range s.Categories {
		m.categorizeLocked(c)
	}
	for i := range s.Properties {
		p := s.Properties[i]
		m.properties[p.Name] = &p
	}
	return nil
}

// Load decodes a snapshot into new metadata.
func Load(data []byte) (*Metadata, error) {
	m := New()
	if err := m.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return m, nil
}
