// Package chain 提供多链接入层的配置：端点、区块浏览器与调用索引
//
// 调用索引（pallet 下标 + call 下标）来自外部提供的链描述，这里只做配置化，
// 运行时升级后可通过配置文件覆盖。
package chain

import (
	"sort"

	configtypes "github.com/weisyn/newsanchor/pkg/types"
)

// CallIndex 调用索引 [pallet, call]
type CallIndex [2]uint8

// ChainOptions 单条链的配置
type ChainOptions struct {
	Name      string               `json:"name"`
	Endpoints []string             `json:"endpoints"`
	Explorer  string               `json:"explorer"`
	Calls     map[string]CallIndex `json:"calls"`
}

// Config 链配置实现
type Config struct {
	chains map[string]*ChainOptions
}

// New 创建链配置，用户配置逐字段覆盖默认值
func New(user map[string]*configtypes.UserChainConfig) *Config {
	chains := defaultChains()
	for name, uc := range user {
		if uc == nil {
			continue
		}
		opts, ok := chains[name]
		if !ok {
			opts = &ChainOptions{Name: name, Calls: map[string]CallIndex{}}
			chains[name] = opts
		}
		if len(uc.Endpoints) > 0 {
			opts.Endpoints = append([]string(nil), uc.Endpoints...)
		}
		if uc.Explorer != nil {
			opts.Explorer = *uc.Explorer
		}
		for key, idx := range uc.Calls {
			opts.Calls[key] = CallIndex(idx)
		}
	}
	return &Config{chains: chains}
}

// Get 获取链配置
func (c *Config) Get(name string) (*ChainOptions, bool) {
	opts, ok := c.chains[name]
	return opts, ok
}

// Names 返回已配置的链名称（排序）
func (c *Config) Names() []string {
	names := make([]string, 0, len(c.chains))
	for name := range c.chains {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CallIndex 查询调用索引
func (c *Config) CallIndex(chain, call string) (CallIndex, bool) {
	opts, ok := c.chains[chain]
	if !ok {
		return CallIndex{}, false
	}
	idx, ok := opts.Calls[call]
	return idx, ok
}

// SetPrimaryEndpoint 把 endpoint 放到端点列表首位（环境变量覆盖使用）
func (c *Config) SetPrimaryEndpoint(chain, endpoint string) {
	opts, ok := c.chains[chain]
	if !ok {
		opts = &ChainOptions{Name: chain, Calls: map[string]CallIndex{}}
		c.chains[chain] = opts
	}
	opts.Endpoints = append([]string{endpoint}, opts.Endpoints...)
}
