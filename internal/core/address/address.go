// Package address SS58 地址规范化
//
// 同一公钥在不同网络前缀下有不同的文本形式；比较地址前统一重编码为前缀 0。
package address

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/mr-tron/base58"
	"golang.org/x/crypto/blake2b"
)

// CanonicalPrefix 规范化使用的网络前缀
const CanonicalPrefix uint16 = 0

const (
	publicKeyLen = 32
	checksumLen  = 2

	// maxPrefix SS58 前缀上限（14 位）
	maxPrefix = 16383
)

var ss58Prefix = []byte("SS58PRE")

// ErrInvalidAddress 地址无法解析
var ErrInvalidAddress = errors.New("invalid address")

// Normalize 把任意前缀的 SS58 地址（或 0x 开头的 32 字节公钥）重编码为前缀 0
func Normalize(addr string) (string, error) {
	pub, err := PublicKey(addr)
	if err != nil {
		return "", err
	}
	return Encode(pub, CanonicalPrefix), nil
}

// MustNormalize 规范化失败时 panic，仅用于常量与测试
func MustNormalize(addr string) string {
	n, err := Normalize(addr)
	if err != nil {
		panic(err)
	}
	return n
}

// Equal 比较两个地址的规范化形式；任一方无法解析时为 false
func Equal(a, b string) bool {
	na, err := Normalize(a)
	if err != nil {
		return false
	}
	nb, err := Normalize(b)
	if err != nil {
		return false
	}
	return na == nb
}

// PublicKey 解析地址得到 32 字节公钥
func PublicKey(addr string) ([32]byte, error) {
	var pub [32]byte
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return pub, fmt.Errorf("%w: empty", ErrInvalidAddress)
	}

	if strings.HasPrefix(addr, "0x") || strings.HasPrefix(addr, "0X") {
		raw, err := hexutil.Decode("0x" + addr[2:])
		if err != nil || len(raw) != publicKeyLen {
			return pub, fmt.Errorf("%w: %q is not a 32-byte hex public key", ErrInvalidAddress, addr)
		}
		copy(pub[:], raw)
		return pub, nil
	}

	data, err := base58.Decode(addr)
	if err != nil {
		return pub, fmt.Errorf("%w: %q: %v", ErrInvalidAddress, addr, err)
	}
	_, prefixLen, err := decodePrefix(data)
	if err != nil {
		return pub, fmt.Errorf("%w: %q: %v", ErrInvalidAddress, addr, err)
	}
	if len(data) != prefixLen+publicKeyLen+checksumLen {
		return pub, fmt.Errorf("%w: %q has unsupported length %d", ErrInvalidAddress, addr, len(data))
	}

	body := data[:len(data)-checksumLen]
	if !bytes.Equal(checksum(body), data[len(data)-checksumLen:]) {
		return pub, fmt.Errorf("%w: %q checksum mismatch", ErrInvalidAddress, addr)
	}
	copy(pub[:], body[prefixLen:])
	return pub, nil
}

// Prefix 返回地址中的网络前缀
func Prefix(addr string) (uint16, error) {
	data, err := base58.Decode(strings.TrimSpace(addr))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	prefix, _, err := decodePrefix(data)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	return prefix, nil
}

// Encode 用给定网络前缀编码公钥
func Encode(pub [32]byte, prefix uint16) string {
	if prefix > maxPrefix {
		prefix = CanonicalPrefix
	}
	var body []byte
	if prefix < 64 {
		body = append(body, byte(prefix))
	} else {
		body = append(body,
			byte((prefix&0b1111_1100)>>2)|0b0100_0000,
			byte(prefix>>8)|byte(prefix&0b11)<<6,
		)
	}
	body = append(body, pub[:]...)
	return base58.Encode(append(body, checksum(body)...))
}

// decodePrefix 解析简单（1 字节）或完整（2 字节）前缀
func decodePrefix(data []byte) (uint16, int, error) {
	if len(data) == 0 {
		return 0, 0, errors.New("empty payload")
	}
	switch {
	case data[0] < 64:
		return uint16(data[0]), 1, nil
	case data[0] < 128:
		if len(data) < 2 {
			return 0, 0, errors.New("truncated prefix")
		}
		lower := (data[0] << 2) | (data[1] >> 6)
		upper := data[1] & 0b0011_1111
		return uint16(lower) | uint16(upper)<<8, 2, nil
	}
	return 0, 0, fmt.Errorf("reserved prefix byte 0x%02x", data[0])
}

func checksum(body []byte) []byte {
	h, _ := blake2b.New512(nil)
	_, _ = h.Write(ss58Prefix)
	_, _ = h.Write(body)
	return h.Sum(nil)[:checksumLen]
}
