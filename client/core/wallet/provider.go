package wallet

import (
	"context"
	"fmt"
	"time"

	"github.com/weisyn/newsanchor/internal/core/address"
	"github.com/weisyn/newsanchor/internal/core/infrastructure/log"
	logiface "github.com/weisyn/newsanchor/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/newsanchor/pkg/types"
)

// Provider 按扩展名称与账户选择签名器
type Provider struct {
	wallets []types.UserWalletConfig
	timeout time.Duration
	logger  logiface.Logger
}

// NewProvider 创建钱包提供者
func NewProvider(wallets []types.UserWalletConfig, timeout time.Duration, logger logiface.Logger) *Provider {
	return &Provider{wallets: wallets, timeout: timeout, logger: log.OrNop(logger)}
}

// Extensions 已配置的扩展名称
func (p *Provider) Extensions() []string {
	names := make([]string, 0, len(p.wallets))
	for _, w := range p.wallets {
		names = append(names, w.Extension)
	}
	return names
}

func (p *Provider) client(extension string) (*RemoteClient, bool) {
	for _, w := range p.wallets {
		if extension == "" || w.Extension == extension {
			return NewRemoteClient(w.Endpoint, p.timeout, p.logger), true
		}
	}
	return nil, false
}

// Accounts 扩展暴露的账户；扩展未配置时返回 nil
func (p *Provider) Accounts(ctx context.Context, extension string) ([]Account, error) {
	c, ok := p.client(extension)
	if !ok {
		return nil, nil
	}
	return c.Accounts(ctx)
}

// GetSigner 取得账户的签名器
//
// extension 为空时使用第一个配置的扩展；account 为空时使用扩展的第一个账户。
// 扩展未配置或账户不在扩展中时返回 false。账户比较基于规范化地址。
func (p *Provider) GetSigner(ctx context.Context, extension, account string) (Signer, bool, error) {
	c, ok := p.client(extension)
	if !ok {
		p.logger.Warnf("未配置钱包扩展: %q", extension)
		return nil, false, nil
	}
	accounts, err := c.Accounts(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("list accounts of %q: %w", extension, err)
	}
	for _, a := range accounts {
		if account == "" || address.Equal(a.Address, account) {
			return NewRemoteSigner(c, a.Address), true, nil
		}
	}
	return nil, false, nil
}
