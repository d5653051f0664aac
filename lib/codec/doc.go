// Copyright 2026 The Memfuse Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides this module's standard CBOR encoding
// configuration.
//
// CBOR is used for internal, binary-friendly serialization: the
// snapshot export format (lib/vfs/snapshot) and any future on-disk or
// wire state that does not need to be human-edited. JSON (and JSONC
// for hand-authored input, via lib/vfs/seed) remains the format for
// anything a person is expected to read or write directly.
//
// This package provides the shared CBOR encoding and decoding modes
// so every caller encodes identically without duplicating
// configuration. The encoder uses Core Deterministic Encoding (RFC
// 8949 §4.2): sorted map keys, smallest integer encoding, no
// indefinite-length items. Same logical data always produces
// identical bytes, which is what lets two snapshot exports be
// compared byte-for-byte across runs.
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// For stream-oriented operations:
//
//	encoder := codec.NewEncoder(w)
//	decoder := codec.NewDecoder(r)
package codec
