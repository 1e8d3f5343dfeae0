// Package wallet 外部签名能力：钱包扩展（签名服务）与账户选择
package wallet

import (
	"github.com/weisyn/newsanchor/internal/core/chain"
)

// Signer 签名器接口
//
// 私钥始终留在钱包一侧，本进程只提交待签名的调用数据并取回签名后的外部交易。
type Signer interface {
	chain.ExtrinsicSigner
}

// SignerType 签名器类型
type SignerType string

const (
	SignerTypeExternal SignerType = "external" // 外部签名服务
)

// Account 钱包暴露的账户
type Account struct {
	Address string `json:"address"`
	Name    string `json:"name,omitempty"`
}
