// Package types 定义新闻溯源系统在各模块之间共享的领域类型
package types

import "fmt"

// HashAlgo 内容哈希算法
type HashAlgo string

const (
	HashAlgoSHA256     HashAlgo = "Sha256"     // SHA-256
	HashAlgoBlake2b256 HashAlgo = "Blake2b256" // BLAKE2b-256
)

// Index 返回链上枚举下标（News.HashAlgo）
func (a HashAlgo) Index() (uint8, error) {
	switch a {
	case HashAlgoSHA256:
		return 0, nil
	case HashAlgoBlake2b256:
		return 1, nil
	default:
		return 0, fmt.Errorf("unsupported hash algo %q", string(a))
	}
}

// HashAlgoFromIndex 根据链上枚举下标还原哈希算法
func HashAlgoFromIndex(idx uint8) (HashAlgo, error) {
	switch idx {
	case 0:
		return HashAlgoSHA256, nil
	case 1:
		return HashAlgoBlake2b256, nil
	default:
		return "", fmt.Errorf("unknown hash algo index %d", idx)
	}
}

// ParseHashAlgo 解析用户输入的算法名称（大小写与连字符宽松）
func ParseHashAlgo(s string) (HashAlgo, error) {
	switch s {
	case "Sha256", "sha256", "SHA256", "SHA-256", "sha-256":
		return HashAlgoSHA256, nil
	case "Blake2b256", "blake2b256", "BLAKE2b-256", "blake2b-256", "BLAKE2B256":
		return HashAlgoBlake2b256, nil
	default:
		return "", fmt.Errorf("unsupported hash algo %q", s)
	}
}

// SignatureScheme 签名方案（MultiSignature 变体）
type SignatureScheme string

const (
	SchemeEd25519 SignatureScheme = "Ed25519"
	SchemeSr25519 SignatureScheme = "Sr25519"
	SchemeEcdsa   SignatureScheme = "Ecdsa"
)

// Signature 带方案标签的签名值
type Signature struct {
	Scheme SignatureScheme `json:"scheme"`
	Value  string          `json:"value"` // 0x 开头的十六进制
}

// ArticleRecord EduChain 上按内容哈希存储的文章记录
//
// (CollectionID, ItemID) 指向 AssetHub 上的 NFT；EduChain 记录才是长期一致性锚点，
// NFT 只是装饰性的溯源凭证。
type ArticleRecord struct {
	Title         string    `json:"title"`
	CanonicalURL  string    `json:"canonical_url"`
	Publisher     string    `json:"publisher"` // 规范化地址
	CollectionID  uint64    `json:"collection_id"`
	ItemID        uint64    `json:"item_id"`
	ContentHash   string    `json:"content_hash"`
	Signature     Signature `json:"signature"`
	HashAlgo      HashAlgo  `json:"hash_algo"`
	WordCount     uint32    `json:"word_count"`
	LastUpdatedAt uint32    `json:"last_updated_at"` // 区块高度
	Updates       uint32    `json:"updates"`         // 0 表示初始锚定
}

// NewsPublisherCollection 发布者的新闻 NFT 集合
type NewsPublisherCollection struct {
	CollectionID uint32  `json:"collectionId"`
	Publisher    string  `json:"publisher"`
	ItemID       *uint32 `json:"itemId,omitempty"`
}

// Identity PeopleHub 身份的只读投影
type Identity struct {
	Display string `json:"display"`
	Address string `json:"address"`
}
