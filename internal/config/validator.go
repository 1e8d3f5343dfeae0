package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/weisyn/newsanchor/pkg/types"
)

// ValidationError 配置验证错误
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid config [%s]: %s", e.Field, e.Message)
}

// Validate 校验用户配置：端点必须是 ws/wss URL，时长字段必须可解析且为正
func Validate(appConfig *types.AppConfig) error {
	if appConfig == nil {
		return nil
	}
	var errs []error

	for name, chain := range appConfig.Chains {
		if chain == nil {
			continue
		}
		for i, endpoint := range chain.Endpoints {
			u, err := url.Parse(endpoint)
			if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") || u.Host == "" {
				errs = append(errs, &ValidationError{
					Field:   fmt.Sprintf("chains.%s.endpoints[%d]", name, i),
					Message: fmt.Sprintf("expected ws:// or wss:// url, got %q", endpoint),
				})
			}
		}
	}

	if appConfig.Orchestrator != nil {
		errs = appendDurationError(errs, "orchestrator.watch_timeout", appConfig.Orchestrator.WatchTimeout)
	}
	if appConfig.Lock != nil {
		errs = appendDurationError(errs, "lock.ttl", appConfig.Lock.TTL)
	}
	if appConfig.Identity != nil {
		errs = appendDurationError(errs, "identity.cache_ttl", appConfig.Identity.CacheTTL)
	}

	for i, wallet := range appConfig.Wallets {
		if strings.TrimSpace(wallet.Extension) == "" {
			errs = append(errs, &ValidationError{
				Field:   fmt.Sprintf("wallets[%d].extension", i),
				Message: "extension name is required",
			})
		}
		if _, err := url.ParseRequestURI(wallet.Endpoint); err != nil {
			errs = append(errs, &ValidationError{
				Field:   fmt.Sprintf("wallets[%d].endpoint", i),
				Message: fmt.Sprintf("invalid url %q", wallet.Endpoint),
			})
		}
	}

	return errors.Join(errs...)
}

func appendDurationError(errs []error, field string, value *string) []error {
	if value == nil {
		return errs
	}
	d, err := time.ParseDuration(strings.TrimSpace(*value))
	if err != nil || d <= 0 {
		return append(errs, &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("expected positive duration like \"5m\", got %q", *value),
		})
	}
	return errs
}
