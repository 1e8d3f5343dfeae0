package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/weisyn/newsanchor/internal/core/chain"
	"github.com/weisyn/newsanchor/internal/core/infrastructure/log"
	logiface "github.com/weisyn/newsanchor/pkg/interfaces/infrastructure/log"
)

// 签名服务方法
const (
	methodAccounts      = "signer_accounts"
	methodSignExtrinsic = "signer_signExtrinsic"
)

// CodeUserRejected 用户在钱包中拒绝签名
const CodeUserRejected = 4001

// ErrUserRejected 用户拒绝签名
var ErrUserRejected = errors.New("user rejected signing")

// RPCError 签名服务返回的 JSON-RPC 错误
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// Is 拒绝签名错误可以用 errors.Is(err, ErrUserRejected) 判断
func (e *RPCError) Is(target error) bool {
	return target == ErrUserRejected && e.Code == CodeUserRejected
}

type jsonrpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      uint64        `json:"id"`
}

type jsonrpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
	ID      uint64          `json:"id"`
}

// signRequest signer_signExtrinsic 参数
type signRequest struct {
	Account string `json:"account"`
	Chain   string `json:"chain"`
	Call    string `json:"call"` // 0x 开头的调用数据
}

// RemoteClient 签名服务 JSON-RPC 2.0 客户端
type RemoteClient struct {
	endpoint   string
	httpClient *http.Client
	nextID     atomic.Uint64
	logger     logiface.Logger
}

// NewRemoteClient 创建签名服务客户端；timeout 为 0 时使用 2 分钟（需要等待用户确认）
func NewRemoteClient(endpoint string, timeout time.Duration, logger logiface.Logger) *RemoteClient {
	if timeout == 0 {
		timeout = 2 * time.Minute
	}
	return &RemoteClient{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger: log.OrNop(logger),
	}
}

// call 统一的 JSON-RPC 调用方法
func (c *RemoteClient) call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	if params == nil {
		params = []interface{}{}
	}
	req := &jsonrpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      c.nextID.Add(1),
	}
	reqBody, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("create http request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warnf("关闭响应失败: %v", err)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("signer service %s: http %d", method, resp.StatusCode)
	}

	var jsonResp jsonrpcResponse
	if err := json.Unmarshal(respBody, &jsonResp); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	if jsonResp.Error != nil {
		return jsonResp.Error
	}
	if result != nil && len(jsonResp.Result) > 0 {
		if err := json.Unmarshal(jsonResp.Result, result); err != nil {
			return fmt.Errorf("unmarshal result: %w", err)
		}
	}
	return nil
}

// Accounts 签名服务管理的账户
func (c *RemoteClient) Accounts(ctx context.Context) ([]Account, error) {
	var accounts []Account
	if err := c.call(ctx, methodAccounts, nil, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// SignExtrinsic 请求签名服务为 account 签名调用数据
func (c *RemoteClient) SignExtrinsic(ctx context.Context, account string, name chain.Name, call []byte) ([]byte, error) {
	var signed string
	params := []interface{}{signRequest{Account: account, Chain: string(name), Call: hexutil.Encode(call)}}
	if err := c.call(ctx, methodSignExtrinsic, params, &signed); err != nil {
		return nil, err
	}
	extrinsic, err := hexutil.Decode(signed)
	if err != nil {
		return nil, fmt.Errorf("decode signed extrinsic: %w", err)
	}
	return extrinsic, nil
}

// RemoteSigner 绑定到一个账户的外部签名器
type RemoteSigner struct {
	client  *RemoteClient
	account string
}

var _ Signer = (*RemoteSigner)(nil)

// NewRemoteSigner 创建绑定账户的签名器
func NewRemoteSigner(client *RemoteClient, account string) *RemoteSigner {
	return &RemoteSigner{client: client, account: account}
}

// Address 签名账户
func (s *RemoteSigner) Address() string { return s.account }

// Type 签名器类型
func (s *RemoteSigner) Type() SignerType { return SignerTypeExternal }

// SignExtrinsic 签名调用数据
func (s *RemoteSigner) SignExtrinsic(ctx context.Context, name chain.Name, call []byte) ([]byte, error) {
	return s.client.SignExtrinsic(ctx, s.account, name, call)
}
