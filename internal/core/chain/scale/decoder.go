package scale

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
)

// ErrUnexpectedEOF 输入在值结束前耗尽
var ErrUnexpectedEOF = errors.New("scale: unexpected end of input")

// Decoder SCALE 解码器，按读取顺序消费输入
type Decoder struct {
	data []byte
	off  int
}

// NewDecoder 创建解码器
func NewDecoder(data []byte) *Decoder {
	return &Decoder{data: data}
}

// Remaining 剩余未读字节数
func (d *Decoder) Remaining() int {
	return len(d.data) - d.off
}

func (d *Decoder) take(n int) ([]byte, error) {
	if n < 0 || d.Remaining() < n {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrUnexpectedEOF, n, d.off, d.Remaining())
	}
	b := d.data[d.off : d.off+n]
	d.off += n
	return b, nil
}

// Skip 跳过 n 字节
func (d *Decoder) Skip(n int) error {
	_, err := d.take(n)
	return err
}

// ReadUint8 读取 u8
func (d *Decoder) ReadUint8() (uint8, error) {
	b, err := d.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadBool 读取 bool
func (d *Decoder) ReadBool() (bool, error) {
	v, err := d.ReadUint8()
	if err != nil {
		return false, err
	}
	switch v {
	case 0:
		return false, nil
	case 1:
		return true, nil
	}
	return false, fmt.Errorf("scale: invalid bool byte 0x%02x", v)
}

// ReadUint32 读取 u32
func (d *Decoder) ReadUint32() (uint32, error) {
	b, err := d.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadUint64 读取 u64
func (d *Decoder) ReadUint64() (uint64, error) {
	b, err := d.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// ReadUint128 读取 u128
func (d *Decoder) ReadUint128() (*big.Int, error) {
	b, err := d.take(16)
	if err != nil {
		return nil, err
	}
	be := make([]byte, 16)
	for i := range b {
		be[15-i] = b[i]
	}
	return new(big.Int).SetBytes(be), nil
}

// ReadCompact 读取紧凑整数（上限 u64）
func (d *Decoder) ReadCompact() (uint64, error) {
	first, err := d.ReadUint8()
	if err != nil {
		return 0, err
	}
	switch first & 0b11 {
	case 0b00:
		return uint64(first >> 2), nil
	case 0b01:
		next, err := d.ReadUint8()
		if err != nil {
			return 0, err
		}
		return uint64(binary.LittleEndian.Uint16([]byte{first, next}) >> 2), nil
	case 0b10:
		rest, err := d.take(3)
		if err != nil {
			return 0, err
		}
		return uint64(binary.LittleEndian.Uint32([]byte{first, rest[0], rest[1], rest[2]}) >> 2), nil
	}
	n := int(first>>2) + 4
	if n > 8 {
		return 0, fmt.Errorf("scale: compact integer of %d bytes exceeds u64", n)
	}
	b, err := d.take(n)
	if err != nil {
		return 0, err
	}
	var v uint64
	for i := n - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v, nil
}

// ReadBytes 读取带紧凑长度前缀的字节串
func (d *Decoder) ReadBytes() ([]byte, error) {
	n, err := d.ReadCompact()
	if err != nil {
		return nil, err
	}
	if n > uint64(d.Remaining()) {
		return nil, fmt.Errorf("%w: byte string of length %d, have %d", ErrUnexpectedEOF, n, d.Remaining())
	}
	return d.ReadFixed(int(n))
}

// ReadFixed 读取定长字节数组（返回副本）
func (d *Decoder) ReadFixed(n int) ([]byte, error) {
	b, err := d.take(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

// ReadOption 读取 Option 标记，返回是否为 Some
func (d *Decoder) ReadOption() (bool, error) {
	tag, err := d.ReadUint8()
	if err != nil {
		return false, err
	}
	switch tag {
	case 0:
		return false, nil
	case 1:
		return true, nil
	}
	return false, fmt.Errorf("scale: invalid option tag 0x%02x", tag)
}
