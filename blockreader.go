/*
* Fixed-width block reader
* Copyright (C) 2025  Artem Stefankiv
*
* This program is free software: you can redistribute it and/or modify
* it under the terms of the GNU General Public License as published by
* the Free Software Foundation, either version 3 of the License, or
* (at your option) any later version.
*
* This program is distributed in the hope that it will be useful,
* but WITHOUT ANY WARRANTY; without even the implied warranty of
* MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
* GNU General Public License for more details.
*
* You should have received a copy of the GNU General Public License
* along with this program.  If not, see <http://www.gnu.org/licenses/>.
 */

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"
	"slices"

	"golang.org/x/sync/errgroup"
)

// Block sizes accepted on the command line, in bits.
var allowedBlocksizes = []int{8, 16, 24, 32, 48, 64, 96, 128, 256, 512}

func validateBlocksize(bits int) error {
	if !slices.Contains(allowedBlocksizes, bits) {
		return fmt.Errorf("%w: %d bits (allowed: %v)", ErrInvalidBlocksize, bits, allowedBlocksizes)
	}
	return nil
}

// Block is the unsigned big-endian value of one fixed-width read. It holds the
// minimal byte representation of that value, so a short trailing read and a
// zero-padded full read of the same number are the same block.
type Block string

func NewBlock(raw []byte) Block {
	i := 0
	for i < len(raw) && raw[i] == 0 {
		i++
	}
	return Block(raw[i:])
}

// ParseBlock reads a block from its decimal form, as used for report keys.
func ParseBlock(s string) (Block, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return "", fmt.Errorf("%w: block key %q is not an unsigned integer", ErrMalformedReport, s)
	}
	return Block(v.Bytes()), nil
}

func (b Block) Int() *big.Int {
	return new(big.Int).SetBytes([]byte(b))
}

// BitLen is the number of significant bits in the block value.
func (b Block) BitLen() int {
	return b.Int().BitLen()
}

func (b Block) String() string {
	return b.Int().String()
}

// BlockSource yields blocks in file order. ok is false once the source is
// exhausted.
type BlockSource interface {
	Next() (block Block, ok bool, err error)
}

// BlockReader splits a byte stream into blocks of a fixed number of bytes.
// The final block is shorter when the stream length is not a multiple of
// the width.
type BlockReader struct {
	r         *bufio.Reader
	buf       []byte
	bytesRead int64
	done      bool
}

func NewBlockReader(r io.Reader, width int) *BlockReader {
	if width <= 0 {
		panic("blockrep: block width must be positive")
	}
	return &BlockReader{
		r:   bufio.NewReaderSize(r, max(4096, width*1024)),
		buf: make([]byte, width),
	}
}

func (br *BlockReader) Next() (Block, bool, error) {
	if br.done {
		return "", false, nil
	}
	n, err := io.ReadFull(br.r, br.buf)
	br.bytesRead += int64(n)
	switch {
	case err == nil:
		return NewBlock(br.buf), true, nil
	case errors.Is(err, io.ErrUnexpectedEOF):
		br.done = true
		return NewBlock(br.buf[:n]), true, nil
	case errors.Is(err, io.EOF):
		br.done = true
		return "", false, nil
	default:
		br.done = true
		return "", false, err
	}
}

// BytesRead reports how many bytes have been consumed so far.
func (br *BlockReader) BytesRead() int64 {
	return br.bytesRead
}

// ReadBlocks reads the whole stream into memory.
func ReadBlocks(r io.Reader, width int) ([]Block, error) {
	br := NewBlockReader(r, width)
	var blocks []Block
	for {
		b, ok, err := br.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return blocks, nil
		}
		blocks = append(blocks, b)
	}
}

// BlockCount is the number of blocks a stream of size bytes splits into.
func BlockCount(size int64, width int) int {
	return int((size + int64(width) - 1) / int64(width))
}

// SliceBlockSource replays a fixed list of blocks. Reset rewinds it.
type SliceBlockSource struct {
	blocks []Block
	pos    int
}

func NewSliceBlockSource(blocks []Block) *SliceBlockSource {
	return &SliceBlockSource{blocks: blocks}
}

func (s *SliceBlockSource) Next() (Block, bool, error) {
	if s.pos >= len(s.blocks) {
		return "", false, nil
	}
	b := s.blocks[s.pos]
	s.pos++
	return b, true, nil
}

func (s *SliceBlockSource) Reset() {
	s.pos = 0
}

// BlockStream reads blocks ahead of the consumer in a separate goroutine and
// hands them over in chunks. A single producer keeps blocks in file order.
type BlockStream struct {
	chunks <-chan []Block
	cur    []Block
	pos    int
	group  *errgroup.Group
	cancel context.CancelFunc
	closed bool
}

// StreamBlocks starts reading r in the background. Close must be called when
// the consumer is done, whether or not the stream was drained.
func StreamBlocks(ctx context.Context, r io.Reader, width, chunkSize int) *BlockStream {
	if chunkSize <= 0 {
		chunkSize = 4096
	}
	ctx, cancel := context.WithCancel(ctx)
	g, ctx := errgroup.WithContext(ctx)
	chunks := make(chan []Block, 4)

	g.Go(func() error {
		defer close(chunks)
		br := NewBlockReader(r, width)
		chunk := make([]Block, 0, chunkSize)
		for {
			b, ok, err := br.Next()
			if err != nil {
				return fmt.Errorf("read block: %w", err)
			}
			if ok {
				chunk = append(chunk, b)
			}
			if len(chunk) == chunkSize || (!ok && len(chunk) > 0) {
				select {
				case chunks <- chunk:
				case <-ctx.Done():
					return ctx.Err()
				}
				chunk = make([]Block, 0, chunkSize)
			}
			if !ok {
				return nil
			}
		}
	})

	return &BlockStream{chunks: chunks, group: g, cancel: cancel}
}

func (s *BlockStream) Next() (Block, bool, error) {
	for s.pos >= len(s.cur) {
		chunk, ok := <-s.chunks
		if !ok {
			if err := s.wait(); err != nil {
				return "", false, err
			}
			return "", false, nil
		}
		s.cur, s.pos = chunk, 0
	}
	b := s.cur[s.pos]
	s.pos++
	return b, true, nil
}

func (s *BlockStream) wait() error {
	err := s.group.Wait()
	if errors.Is(err, context.Canceled) && s.closed {
		return nil
	}
	return err
}

// Close stops the background reader and waits for it to exit.
func (s *BlockStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.cancel()
	for range s.chunks {
	}
	return s.wait()
}
