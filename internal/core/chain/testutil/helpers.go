package testutil

import (
	"context"
	"fmt"
	"time"

	chainconfig "github.com/weisyn/newsanchor/internal/config/chain"
	"github.com/weisyn/newsanchor/internal/core/chain"
)

// Network 一组内存链连接
type Network struct {
	AssetHub  *MockConnection
	PeopleHub *MockConnection
	EduChain  *MockConnection
}

// NewNetwork 创建三条链的内存连接
func NewNetwork() *Network {
	return &Network{
		AssetHub:  NewMockConnection(chain.AssetHub),
		PeopleHub: NewMockConnection(chain.PeopleHub),
		EduChain:  NewMockConnection(chain.EduChain),
	}
}

// Dialer 返回注册表使用的拨号函数
func (n *Network) Dialer() chain.Dialer {
	return func(_ context.Context, name chain.Name, _ string) (chain.Connection, error) {
		switch name {
		case chain.AssetHub:
			return n.AssetHub, nil
		case chain.PeopleHub:
			return n.PeopleHub, nil
		case chain.EduChain:
			return n.EduChain, nil
		}
		return nil, fmt.Errorf("unknown chain %s", name)
	}
}

// NewTestRegistry 使用默认链配置与内存连接创建注册表
func NewTestRegistry(n *Network) *chain.Registry {
	return chain.NewRegistry(chainconfig.New(nil), n.Dialer(), nil, nil)
}

// NewTestExecutor 创建无事件、无指标的执行器
func NewTestExecutor(timeout time.Duration) *chain.Executor {
	return chain.NewExecutor(nil, nil, nil, timeout)
}
