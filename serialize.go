// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package dynseq

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"

	"github.com/succinct-go/dynseq/internal/bitblock"
	"github.com/succinct-go/dynseq/internal/bitio"
	"github.com/succinct-go/dynseq/internal/btree"
	"github.com/succinct-go/dynseq/internal/vlcblock"
)

// Structure tags for the shared binary format (spec.md 6).
const (
	tagBit         byte = 0x01
	tagPrefixSum   byte = 0x02
	tagWavelet     byte = 0x03
	tagPermutation byte = 0x04
)

func writeUint64LE(buf *bytes.Buffer, v uint64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	buf.Write(tmp[:])
}

func writeUint32LE(buf *bytes.Buffer, v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	buf.Write(tmp[:])
}

func readUint64LE(r io.Reader) (uint64, error) {
	var tmp [8]byte
	if _, err := io.ReadFull(r, tmp[:]); err != nil {
		return 0, ErrShortBuffer
	}
	return binary.LittleEndian.Uint64(tmp[:]), nil
}

func readUint32LE(r io.Reader) (uint32, error) {
	var tmp [4]byte
	if _, err := io.ReadFull(r, tmp[:]); err != nil {
		return 0, ErrShortBuffer
	}
	return binary.LittleEndian.Uint32(tmp[:]), nil
}

func readByteFrom(r io.Reader) (byte, error) {
	var tmp [1]byte
	if _, err := io.ReadFull(r, tmp[:]); err != nil {
		return 0, ErrShortBuffer
	}
	return tmp[0], nil
}

// writeBitSeqBody packs the shared bit-sequence wire body (spec.md 6
// "Bit sequence body"): leaf count, then per leaf a 4-byte LE bit
// length and its LSB-first packed bits, then a trailing popcount
// checksum.
func writeBitSeqBody(buf *bytes.Buffer, v *DynamicBitVector) {
	leaves := v.tree.Leaves()
	writeUint64LE(buf, uint64(len(leaves)))

	var totalOnes uint64
	for _, lf := range leaves {
		bl := lf.(*bitLeaf)
		n := bl.b.Len()
		writeUint32LE(buf, uint32(n))

		bw := bitio.NewWriter()
		for i := 0; i < n; i++ {
			bw.WriteBits(uint64(bl.b.Get(i)), 1)
		}
		buf.Write(bw.Bytes())
		totalOnes += uint64(bl.b.Popcount())
	}
	writeUint64LE(buf, totalOnes)
}

// readBitSeqBody reads a bit-sequence body written by writeBitSeqBody,
// bulk-building the resulting DynamicBitVector and validating its
// trailing checksum.
func readBitSeqBody(r io.Reader, cfg config) (*DynamicBitVector, error) {
	leafCount, err := readUint64LE(r)
	if err != nil {
		return nil, err
	}

	blocks := make([]*bitblock.Block, 0, leafCount)
	for i := uint64(0); i < leafCount; i++ {
		n32, err := readUint32LE(r)
		if err != nil {
			return nil, err
		}
		n := int(n32)
		if n > cfg.bitCap {
			return nil, ErrImpossibleLength
		}

		payload := make([]byte, (n+7)/8)
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, ErrShortBuffer
		}

		br := bitio.NewReader(payload)
		blk := bitblock.New(cfg.bitCap)
		for j := 0; j < n; j++ {
			bit, err := br.ReadBits(1)
			if err != nil {
				return nil, ErrShortBuffer
			}
			blk.PushBack(int(bit))
		}
		blocks = append(blocks, blk)
	}

	checksum, err := readUint64LE(r)
	if err != nil {
		return nil, err
	}
	var totalOnes uint64
	for _, b := range blocks {
		totalOnes += uint64(b.Popcount())
	}
	if totalOnes != checksum {
		return nil, ErrChecksumMismatch
	}

	leaves := make([]btree.Leaf[int], len(blocks))
	for i, b := range blocks {
		leaves[i] = &bitLeaf{b: b}
	}
	tree := btree.BuildBulk(cfg.fanout, func() btree.Leaf[int] { return newBitLeaf(cfg.bitCap) }, leaves)
	return &DynamicBitVector{tree: tree, cfg: cfg}, nil
}

// Save writes v in the shared binary format (spec.md 6).
func (v *DynamicBitVector) Save(w io.Writer) error {
	var buf bytes.Buffer
	buf.WriteByte(tagBit)
	writeUint64LE(&buf, uint64(v.Size()))
	writeBitSeqBody(&buf, v)
	_, err := w.Write(buf.Bytes())
	return err
}

// LoadBitVector reads a bit sequence previously written by Save.
func LoadBitVector(r io.Reader, opts ...Option) (*DynamicBitVector, error) {
	cfg := applyOptions(opts)
	tag, err := readByteFrom(r)
	if err != nil {
		return nil, err
	}
	if tag != tagBit {
		return nil, ErrTagMismatch
	}
	totalLen, err := readUint64LE(r)
	if err != nil {
		return nil, err
	}
	v, err := readBitSeqBody(r, cfg)
	if err != nil {
		return nil, err
	}
	if uint64(v.Size()) != totalLen {
		return nil, ErrImpossibleLength
	}
	return v, nil
}

// writeIntSeqBody packs the shared prefix-sum wire body (spec.md 6
// "Prefix-sum body"): leaf count, then per leaf a 1-byte codeword
// width, a 4-byte LE element count and its packed codewords, then a
// trailing sum checksum.
func writeIntSeqBody(buf *bytes.Buffer, v *DynamicIntVector) {
	leaves := v.tree.Leaves()
	writeUint64LE(buf, uint64(len(leaves)))

	var totalSum uint64
	for _, lf := range leaves {
		il := lf.(*intLeaf)
		n := il.b.Len()
		width := il.b.Width()
		buf.WriteByte(byte(width))
		writeUint32LE(buf, uint32(n))

		bw := bitio.NewWriter()
		for i := 0; i < n; i++ {
			bw.WriteBits(il.b.At(i), width)
		}
		buf.Write(bw.Bytes())
		totalSum += il.b.Sum()
	}
	writeUint64LE(buf, totalSum)
}

func readIntSeqBody(r io.Reader, cfg config) (*DynamicIntVector, error) {
	leafCount, err := readUint64LE(r)
	if err != nil {
		return nil, err
	}

	blocks := make([]*vlcblock.Block, 0, leafCount)
	for i := uint64(0); i < leafCount; i++ {
		widthByte, err := readByteFrom(r)
		if err != nil {
			return nil, err
		}
		width := int(widthByte)
		n32, err := readUint32LE(r)
		if err != nil {
			return nil, err
		}
		n := int(n32)
		if n > cfg.valCap || width < 1 || width > 64 {
			return nil, ErrImpossibleLength
		}

		payload := make([]byte, (width*n+7)/8)
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, ErrShortBuffer
		}

		br := bitio.NewReader(payload)
		blk := vlcblock.New(cfg.valCap)
		for j := 0; j < n; j++ {
			val, err := br.ReadBits(width)
			if err != nil {
				return nil, ErrShortBuffer
			}
			blk.Insert(blk.Len(), val)
		}
		blocks = append(blocks, blk)
	}

	checksum, err := readUint64LE(r)
	if err != nil {
		return nil, err
	}
	var totalSum uint64
	for _, b := range blocks {
		totalSum += b.Sum()
	}
	if totalSum != checksum {
		return nil, ErrChecksumMismatch
	}

	leaves := make([]btree.Leaf[uint64], len(blocks))
	for i, b := range blocks {
		leaves[i] = &intLeaf{b: b}
	}
	tree := btree.BuildBulk(cfg.fanout, func() btree.Leaf[uint64] { return newIntLeaf(cfg.valCap) }, leaves)
	return &DynamicIntVector{tree: tree, cfg: cfg}, nil
}

// Save writes v in the shared binary format (spec.md 6).
func (v *DynamicIntVector) Save(w io.Writer) error {
	var buf bytes.Buffer
	buf.WriteByte(tagPrefixSum)
	writeUint64LE(&buf, uint64(v.Size()))
	writeIntSeqBody(&buf, v)
	_, err := w.Write(buf.Bytes())
	return err
}

// LoadIntVector reads a prefix-sum sequence previously written by Save.
func LoadIntVector(r io.Reader, opts ...Option) (*DynamicIntVector, error) {
	cfg := applyOptions(opts)
	tag, err := readByteFrom(r)
	if err != nil {
		return nil, err
	}
	if tag != tagPrefixSum {
		return nil, ErrTagMismatch
	}
	totalLen, err := readUint64LE(r)
	if err != nil {
		return nil, err
	}
	v, err := readIntSeqBody(r, cfg)
	if err != nil {
		return nil, err
	}
	if uint64(v.Size()) != totalLen {
		return nil, ErrImpossibleLength
	}
	return v, nil
}

// Save writes w in the shared binary format (spec.md 6 "Wavelet body"):
// alphabet size, alphabet bytes, then one bit-sequence body per
// internal node in pre-order.
func (w *DynamicWaveletTree) Save(dst io.Writer) error {
	if len(w.alphabet) > 255 {
		return errors.New("dynseq: alphabet too large to serialize")
	}
	var buf bytes.Buffer
	buf.WriteByte(tagWavelet)
	writeUint64LE(&buf, uint64(w.Size()))
	buf.WriteByte(byte(len(w.alphabet)))
	buf.Write(w.alphabet)

	var visit func(n *waveletNode)
	visit = func(n *waveletNode) {
		if n == nil {
			return
		}
		writeBitSeqBody(&buf, n.bits)
		visit(n.left)
		visit(n.right)
	}
	visit(w.root)

	_, err := dst.Write(buf.Bytes())
	return err
}

func readWaveletNode(r io.Reader, depth, h int, cfg config) (*waveletNode, error) {
	if depth == h {
		return nil, nil
	}
	bv, err := readBitSeqBody(r, cfg)
	if err != nil {
		return nil, err
	}
	n := &waveletNode{bits: bv}
	if n.left, err = readWaveletNode(r, depth+1, h, cfg); err != nil {
		return nil, err
	}
	if n.right, err = readWaveletNode(r, depth+1, h, cfg); err != nil {
		return nil, err
	}
	return n, nil
}

// LoadWaveletTree reads a wavelet tree previously written by Save.
func LoadWaveletTree(r io.Reader, opts ...Option) (*DynamicWaveletTree, error) {
	cfg := applyOptions(opts)
	tag, err := readByteFrom(r)
	if err != nil {
		return nil, err
	}
	if tag != tagWavelet {
		return nil, ErrTagMismatch
	}
	totalLen, err := readUint64LE(r)
	if err != nil {
		return nil, err
	}
	alphaSize, err := readByteFrom(r)
	if err != nil {
		return nil, err
	}
	alphabet := make([]byte, alphaSize)
	if _, err := io.ReadFull(r, alphabet); err != nil {
		return nil, ErrShortBuffer
	}

	h := bitsNeeded(len(alphabet))
	root, err := readWaveletNode(r, 0, h, cfg)
	if err != nil {
		return nil, err
	}
	if h > 0 {
		if root == nil || uint64(root.bits.Size()) != totalLen {
			return nil, ErrImpossibleLength
		}
	}

	symIndex := make(map[byte]int, len(alphabet))
	for i, s := range alphabet {
		symIndex[s] = i
	}
	return &DynamicWaveletTree{
		alphabet: alphabet,
		symIndex: symIndex,
		depth:    h,
		root:     root,
		size:     int(totalLen),
		cfg:      cfg,
		opts:     opts,
	}, nil
}

// Save writes p in the shared binary format (spec.md 6 "Permutation
// body"): two prefix-sum bodies, forward then inverse, sharing a
// single element count.
func (p *DynamicPermutation) Save(w io.Writer) error {
	var buf bytes.Buffer
	buf.WriteByte(tagPermutation)
	writeUint64LE(&buf, uint64(p.Len()))
	writeIntSeqBody(&buf, p.fwd)
	writeIntSeqBody(&buf, p.inv)
	_, err := w.Write(buf.Bytes())
	return err
}

// LoadPermutation reads a permutation previously written by Save,
// rebuilding the id-to-position back-references from the loaded
// logical ids.
func LoadPermutation(r io.Reader, opts ...Option) (*DynamicPermutation, error) {
	cfg := applyOptions(opts)
	tag, err := readByteFrom(r)
	if err != nil {
		return nil, err
	}
	if tag != tagPermutation {
		return nil, ErrTagMismatch
	}
	totalLen, err := readUint64LE(r)
	if err != nil {
		return nil, err
	}

	fwdVec, err := readIntSeqBody(r, cfg)
	if err != nil {
		return nil, err
	}
	invVec, err := readIntSeqBody(r, cfg)
	if err != nil {
		return nil, err
	}
	if uint64(fwdVec.Size()) != totalLen || uint64(invVec.Size()) != totalLen {
		return nil, ErrImpossibleLength
	}

	p := &DynamicPermutation{
		fwd:      fwdVec,
		inv:      invVec,
		fwdPosOf: make(map[uint64]int, fwdVec.Size()),
		invPosOf: make(map[uint64]int, invVec.Size()),
		cfg:      cfg,
	}

	var maxID uint64
	for i := 0; i < fwdVec.Size(); i++ {
		id := fwdVec.At(i)
		p.fwdPosOf[id] = i
		if id > maxID {
			maxID = id
		}
	}
	for j := 0; j < invVec.Size(); j++ {
		id := invVec.At(j)
		p.invPosOf[id] = j
		if id > maxID {
			maxID = id
		}
	}
	p.nextID = maxID + 1
	return p, nil
}
