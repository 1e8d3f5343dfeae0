package chain

import (
	"fmt"

	"github.com/weisyn/newsanchor/internal/core/address"
)

// SigningContext 一次调用使用的账户与签名能力，显式传入每个写操作
type SigningContext struct {
	Account string
	Signer  ExtrinsicSigner
}

// Validate 检查签名器存在且与账户一致
func (sc SigningContext) Validate() error {
	if sc.Signer == nil {
		return ErrSignerAbsent
	}
	if sc.Account != "" && !address.Equal(sc.Account, sc.Signer.Address()) {
		return fmt.Errorf("%w: signer %s does not control %s", ErrSignerAbsent, sc.Signer.Address(), sc.Account)
	}
	return nil
}

// AccountOrSigner 账户为空时取签名器地址
func (sc SigningContext) AccountOrSigner() string {
	if sc.Account != "" || sc.Signer == nil {
		return sc.Account
	}
	return sc.Signer.Address()
}
