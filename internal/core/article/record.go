// Package article EduChain 上的文章记录：调用构造、提交、目录读取与内容哈希
package article

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/weisyn/newsanchor/internal/core/chain/scale"
	"github.com/weisyn/newsanchor/pkg/types"
)

const pallet = "News"

const (
	contentHashLen = 32
	sr25519SigLen  = 64
	ecdsaSigLen    = 65
)

// ErrInvalidRequest 文章请求字段不合法
var ErrInvalidRequest = errors.New("invalid article request")

// 签名方案在 MultiSignature 中的下标
var schemeIndex = map[types.SignatureScheme]uint8{
	types.SchemeEd25519: 0,
	types.SchemeSr25519: 1,
	types.SchemeEcdsa:   2,
}

// Request 一次文章锚定的全部字段
type Request struct {
	Title        string         `json:"title"`
	CanonicalURL string         `json:"canonical_url"`
	CollectionID uint64         `json:"collection_id"`
	ItemID       uint64         `json:"item_id"`
	ContentHash  string         `json:"content_hash"` // 0x 开头，32 字节
	Signature    string         `json:"signature"`    // 0x 开头，sr25519 64 字节
	HashAlgo     types.HashAlgo `json:"hash_algo"`
	WordCount    uint32         `json:"word_count"`
}

// Content 不含 NFT 编号的文章内容字段，编排器在得到编号后补全
type Content struct {
	Title        string         `json:"title"`
	CanonicalURL string         `json:"canonical_url"`
	ContentHash  string         `json:"content_hash"`
	Signature    string         `json:"signature"`
	HashAlgo     types.HashAlgo `json:"hash_algo"`
	WordCount    uint32         `json:"word_count"`
}

// WithItem 补全 NFT 编号
func (c Content) WithItem(collection, item uint64) Request {
	return Request{
		Title:        c.Title,
		CanonicalURL: c.CanonicalURL,
		CollectionID: collection,
		ItemID:       item,
		ContentHash:  c.ContentHash,
		Signature:    c.Signature,
		HashAlgo:     c.HashAlgo,
		WordCount:    c.WordCount,
	}
}

// Validate 校验内容字段
func (c Content) Validate() error {
	_, _, _, err := c.decode()
	return err
}

func (c Content) decode() (hash, sig []byte, algo uint8, err error) {
	hash, err = hexutil.Decode(c.ContentHash)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("%w: content hash: %v", ErrInvalidRequest, err)
	}
	if len(hash) != contentHashLen {
		return nil, nil, 0, fmt.Errorf("%w: content hash must be %d bytes, got %d", ErrInvalidRequest, contentHashLen, len(hash))
	}
	sig, err = hexutil.Decode(c.Signature)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("%w: signature: %v", ErrInvalidRequest, err)
	}
	if len(sig) != sr25519SigLen {
		return nil, nil, 0, fmt.Errorf("%w: sr25519 signature must be %d bytes, got %d", ErrInvalidRequest, sr25519SigLen, len(sig))
	}
	algo, err = c.HashAlgo.Index()
	if err != nil {
		return nil, nil, 0, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if strings.TrimSpace(c.Title) == "" {
		return nil, nil, 0, fmt.Errorf("%w: title is empty", ErrInvalidRequest)
	}
	return hash, sig, algo, nil
}

// Content 取出内容字段
func (r Request) Content() Content {
	return Content{
		Title:        r.Title,
		CanonicalURL: r.CanonicalURL,
		ContentHash:  r.ContentHash,
		Signature:    r.Signature,
		HashAlgo:     r.HashAlgo,
		WordCount:    r.WordCount,
	}
}

// Validate 校验请求
func (r Request) Validate() error {
	return r.Content().Validate()
}

// EncodeArgs News.record_article 参数
//
// collection_id u64, item_id u64, content_hash, signature(MultiSignature::Sr25519),
// hash_algo, word_count u32, title, canonical_url
func (r Request) EncodeArgs() ([]byte, error) {
	hash, sig, algo, err := r.Content().decode()
	if err != nil {
		return nil, err
	}
	enc := scale.NewEncoder().
		PutUint64(r.CollectionID).
		PutUint64(r.ItemID).
		PutBytes(hash).
		PutUint8(schemeIndex[types.SchemeSr25519]).
		PutRaw(sig).
		PutUint8(algo).
		PutUint32(r.WordCount).
		PutBytes([]byte(r.Title)).
		PutBytes([]byte(r.CanonicalURL))
	return enc.Bytes(), nil
}

// ArticleByHashPrefix News.ArticleByHash 枚举前缀
func ArticleByHashPrefix() []byte {
	return scale.StoragePrefix(pallet, "ArticleByHash")
}

// ArticleByHashKey News.ArticleByHash(content_hash)，键为 Blake2_128Concat(编码后的哈希)
func ArticleByHashKey(hash []byte) []byte {
	encoded := scale.NewEncoder().PutBytes(hash).Bytes()
	return scale.StorageKey(pallet, "ArticleByHash", scale.Blake2_128Concat(encoded))
}

// DecodeRecord 解码 ArticleByHash 的值
func DecodeRecord(value []byte) (*types.ArticleRecord, error) {
	dec := scale.NewDecoder(value)
	rec := &types.ArticleRecord{}

	title, err := dec.ReadBytes()
	if err != nil {
		return nil, fmt.Errorf("decode title: %w", err)
	}
	url, err := dec.ReadBytes()
	if err != nil {
		return nil, fmt.Errorf("decode canonical url: %w", err)
	}
	publisher, err := dec.ReadFixed(32)
	if err != nil {
		return nil, fmt.Errorf("decode publisher: %w", err)
	}
	if rec.CollectionID, err = dec.ReadUint64(); err != nil {
		return nil, fmt.Errorf("decode collection id: %w", err)
	}
	if rec.ItemID, err = dec.ReadUint64(); err != nil {
		return nil, fmt.Errorf("decode item id: %w", err)
	}
	hash, err := dec.ReadBytes()
	if err != nil {
		return nil, fmt.Errorf("decode content hash: %w", err)
	}
	sig, err := decodeSignature(dec)
	if err != nil {
		return nil, err
	}
	algoIdx, err := dec.ReadUint8()
	if err != nil {
		return nil, fmt.Errorf("decode hash algo: %w", err)
	}
	algo, err := types.HashAlgoFromIndex(algoIdx)
	if err != nil {
		return nil, err
	}
	if rec.WordCount, err = dec.ReadUint32(); err != nil {
		return nil, fmt.Errorf("decode word count: %w", err)
	}
	if rec.LastUpdatedAt, err = dec.ReadUint32(); err != nil {
		return nil, fmt.Errorf("decode last updated: %w", err)
	}
	if rec.Updates, err = dec.ReadUint32(); err != nil {
		return nil, fmt.Errorf("decode updates: %w", err)
	}

	var pub [32]byte
	copy(pub[:], publisher)
	rec.Title = string(title)
	rec.CanonicalURL = string(url)
	rec.Publisher = encodePublisher(pub)
	rec.ContentHash = hexutil.Encode(hash)
	rec.Signature = sig
	rec.HashAlgo = algo
	return rec, nil
}

func decodeSignature(dec *scale.Decoder) (types.Signature, error) {
	variant, err := dec.ReadUint8()
	if err != nil {
		return types.Signature{}, fmt.Errorf("decode signature: %w", err)
	}
	var scheme types.SignatureScheme
	n := sr25519SigLen
	switch variant {
	case 0:
		scheme = types.SchemeEd25519
	case 1:
		scheme = types.SchemeSr25519
	case 2:
		scheme, n = types.SchemeEcdsa, ecdsaSigLen
	default:
		return types.Signature{}, fmt.Errorf("unknown signature variant %d", variant)
	}
	raw, err := dec.ReadFixed(n)
	if err != nil {
		return types.Signature{}, fmt.Errorf("decode signature: %w", err)
	}
	return types.Signature{Scheme: scheme, Value: hexutil.Encode(raw)}, nil
}
