// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package bytestream

import (
	"encoding/binary"
	"math"
)

// Reader is a cursor over an immutable byte buffer.  All fixed-width
// reads either advance the cursor by sizeof(T) and succeed, or leave
// the cursor untouched and return a *ReadError wrapping
// ErrEndOfStream.
//
// The on-disk formats this package is used to read (region containers
// and their tag streams) are big-endian; Reader defaults to
// binary.BigEndian but callers may construct with NewReaderOrder to
// swap endianness.
type Reader struct {
	buf   []byte
	pos   int
	order binary.ByteOrder
}

// NewReader wraps buf for big-endian reads, starting at position 0.
func NewReader(buf []byte) *Reader {
	return NewReaderOrder(buf, binary.BigEndian)
}

// NewReaderOrder wraps buf for reads in the given byte order.
func NewReaderOrder(buf []byte, order binary.ByteOrder) *Reader {
	return &Reader{buf: buf, order: order}
}

func (r *Reader) need(op string, n int) ([]byte, error) {
	if r.pos+n > len(r.buf) {
		return nil, &ReadError{Op: op, Want: n, Have: len(r.buf) - r.pos}
	}
	chunk := r.buf[r.pos : r.pos+n]
	r.pos += n
	return chunk, nil
}

// Available returns the number of unread bytes remaining.
func (r *Reader) Available() int { return len(r.buf) - r.pos }

// Position returns the current cursor offset.
func (r *Reader) Position() int { return r.pos }

// Seek moves the cursor to an absolute position. It does not validate
// that pos is within the buffer; the next read will fail if it is not.
func (r *Reader) Seek(pos int) { r.pos = pos }

// Reset moves the cursor back to the start of the buffer.
func (r *Reader) Reset() { r.pos = 0 }

// Len returns the total length of the wrapped buffer.
func (r *Reader) Len() int { return len(r.buf) }

func (r *Reader) ReadU8() (uint8, error) {
	b, err := r.need("ReadU8", 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) ReadI8() (int8, error) {
	v, err := r.ReadU8()
	return int8(v), err
}

func (r *Reader) ReadU16() (uint16, error) {
	b, err := r.need("ReadU16", 2)
	if err != nil {
		return 0, err
	}
	return r.order.Uint16(b), nil
}

func (r *Reader) ReadI16() (int16, error) {
	v, err := r.ReadU16()
	return int16(v), err
}

func (r *Reader) ReadU32() (uint32, error) {
	b, err := r.need("ReadU32", 4)
	if err != nil {
		return 0, err
	}
	return r.order.Uint32(b), nil
}

func (r *Reader) ReadI32() (int32, error) {
	v, err := r.ReadU32()
	return int32(v), err
}

func (r *Reader) ReadU64() (uint64, error) {
	b, err := r.need("ReadU64", 8)
	if err != nil {
		return 0, err
	}
	return r.order.Uint64(b), nil
}

func (r *Reader) ReadI64() (int64, error) {
	v, err := r.ReadU64()
	return int64(v), err
}

func (r *Reader) ReadF32() (float32, error) {
	v, err := r.ReadU32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

func (r *Reader) ReadF64() (float64, error) {
	v, err := r.ReadU64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

// ReadRaw reads n raw bytes. The returned slice aliases the
// underlying buffer and must not be retained past further mutation of
// it by the caller.
func (r *Reader) ReadRaw(n int) ([]byte, error) {
	return r.need("ReadRaw", n)
}

// ReadString reads n bytes and returns them as a string (a copy, not
// an alias of the buffer).
func (r *Reader) ReadString(n int) (string, error) {
	b, err := r.need("ReadString", n)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ReadI32Array reads n big/little-endian (per r's order) 32-bit signed
// integers.
func (r *Reader) ReadI32Array(n int) ([]int32, error) {
	out := make([]int32, n)
	for i := range out {
		v, err := r.ReadI32()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// ReadI64Array reads n 64-bit signed integers.
func (r *Reader) ReadI64Array(n int) ([]int64, error) {
	out := make([]int64, n)
	for i := range out {
		v, err := r.ReadI64()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// ReadI8Array reads n raw bytes as signed 8-bit integers (ByteArray
// payloads in the tag format are signed bytes).
func (r *Reader) ReadI8Array(n int) ([]int8, error) {
	b, err := r.need("ReadI8Array", n)
	if err != nil {
		return nil, err
	}
	out := make([]int8, n)
	for i, v := range b {
		out[i] = int8(v)
	}
	return out, nil
}
