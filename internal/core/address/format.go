package address

import (
	"fmt"
	"math/big"
	"net/url"
	"path"
	"strings"
)

// Strip 缩写地址为 "abcd...wxyz"
func Strip(addr string) string {
	if len(addr) <= 8 {
		return addr
	}
	return addr[:4] + "..." + addr[len(addr)-4:]
}

// ExplorerAccount 账户详情链接；base 为空时返回空串
func ExplorerAccount(base, addr string) string {
	return explorerLink(base, "account", addr)
}

// ExplorerBlock 区块详情链接；base 为空时返回空串
func ExplorerBlock(base, hash string) string {
	return explorerLink(base, "block", hash)
}

func explorerLink(base, kind, id string) string {
	if base == "" {
		return ""
	}
	u, err := url.Parse(base)
	if err != nil {
		return ""
	}
	u.Path = path.Join("/", kind, id)
	if id == "" {
		u.Path += "/"
	}
	return u.String()
}

// FormatPrice 把最小单位的整数金额格式化为 4 位小数
func FormatPrice(amount string, decimals int) (string, error) {
	v, ok := new(big.Float).SetString(strings.TrimSpace(amount))
	if !ok {
		return "", fmt.Errorf("invalid amount %q", amount)
	}
	scale := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	return new(big.Float).Quo(v, scale).Text('f', 4), nil
}
