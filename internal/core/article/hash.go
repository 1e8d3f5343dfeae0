package article

import (
	"crypto/sha256"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"golang.org/x/crypto/blake2b"

	"github.com/weisyn/newsanchor/internal/core/address"
	"github.com/weisyn/newsanchor/pkg/types"
)

// HashContent 计算文章内容哈希，返回 0x 开头的十六进制
func HashContent(algo types.HashAlgo, content []byte) (string, error) {
	switch algo {
	case types.HashAlgoSHA256:
		sum := sha256.Sum256(content)
		return hexutil.Encode(sum[:]), nil
	case types.HashAlgoBlake2b256:
		sum := blake2b.Sum256(content)
		return hexutil.Encode(sum[:]), nil
	}
	_, err := algo.Index()
	return "", err
}

// WordCount 按空白分词计数
func WordCount(text string) uint32 {
	return uint32(len(strings.Fields(text)))
}

func encodePublisher(pub [32]byte) string {
	return address.Encode(pub, address.CanonicalPrefix)
}
