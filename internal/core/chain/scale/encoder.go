// Package scale 实现 Substrate 的 SCALE 编解码与存储键哈希
//
// 只覆盖多链接入层用到的类型：定长整数、紧凑整数、字节串、Option、枚举下标。
// 所有整数均为小端序。
package scale

import (
	"encoding/binary"
	"math/big"
)

// Encoder SCALE 编码器，按调用顺序追加字节
type Encoder struct {
	buf []byte
}

// NewEncoder 创建编码器
func NewEncoder() *Encoder {
	return &Encoder{buf: make([]byte, 0, 64)}
}

// Bytes 返回已编码内容
func (e *Encoder) Bytes() []byte {
	return e.buf
}

// PutUint8 写入 u8（也用于枚举下标）
func (e *Encoder) PutUint8(v uint8) *Encoder {
	e.buf = append(e.buf, v)
	return e
}

// PutBool 写入 bool
func (e *Encoder) PutBool(v bool) *Encoder {
	if v {
		return e.PutUint8(1)
	}
	return e.PutUint8(0)
}

// PutUint32 写入 u32
func (e *Encoder) PutUint32(v uint32) *Encoder {
	e.buf = binary.LittleEndian.AppendUint32(e.buf, v)
	return e
}

// PutUint64 写入 u64
func (e *Encoder) PutUint64(v uint64) *Encoder {
	e.buf = binary.LittleEndian.AppendUint64(e.buf, v)
	return e
}

// PutUint128 写入 u128，v 为 nil 视为 0；超过 128 位截断高位
func (e *Encoder) PutUint128(v *big.Int) *Encoder {
	var le [16]byte
	if v != nil {
		be := v.Bytes()
		for i := 0; i < len(be) && i < 16; i++ {
			le[i] = be[len(be)-1-i]
		}
	}
	e.buf = append(e.buf, le[:]...)
	return e
}

// PutCompact 写入紧凑整数
func (e *Encoder) PutCompact(v uint64) *Encoder {
	e.buf = AppendCompact(e.buf, v)
	return e
}

// PutBytes 写入带紧凑长度前缀的字节串（Vec<u8>）
func (e *Encoder) PutBytes(b []byte) *Encoder {
	e.buf = AppendCompact(e.buf, uint64(len(b)))
	e.buf = append(e.buf, b...)
	return e
}

// PutRaw 原样写入（定长数组、已编码的嵌套值）
func (e *Encoder) PutRaw(b []byte) *Encoder {
	e.buf = append(e.buf, b...)
	return e
}

// PutNone 写入 Option::None
func (e *Encoder) PutNone() *Encoder {
	return e.PutUint8(0)
}

// PutSome 写入 Option::Some 标记，随后由调用方写入值
func (e *Encoder) PutSome() *Encoder {
	return e.PutUint8(1)
}

// AppendCompact 把紧凑编码的 v 追加到 dst
//
//	v < 2^6   单字节   v<<2
//	v < 2^14  两字节   v<<2 | 0b01
//	v < 2^30  四字节   v<<2 | 0b10
//	其余      首字节 (n-4)<<2 | 0b11，随后 n 个小端字节
func AppendCompact(dst []byte, v uint64) []byte {
	switch {
	case v < 1<<6:
		return append(dst, byte(v<<2))
	case v < 1<<14:
		return binary.LittleEndian.AppendUint16(dst, uint16(v<<2)|0b01)
	case v < 1<<30:
		return binary.LittleEndian.AppendUint32(dst, uint32(v<<2)|0b10)
	}
	n := 8
	for n > 4 && byte(v>>(8*(n-1))) == 0 {
		n--
	}
	dst = append(dst, byte((n-4)<<2)|0b11)
	for i := 0; i < n; i++ {
		dst = append(dst, byte(v>>(8*i)))
	}
	return dst
}
