// Package articletest 内存 EduChain 上的 News 状态构造与调用模拟
package articletest

import (
	"context"

	chainconfig "github.com/weisyn/newsanchor/internal/config/chain"
	"github.com/weisyn/newsanchor/internal/core/article"
	"github.com/weisyn/newsanchor/internal/core/chain"
	"github.com/weisyn/newsanchor/internal/core/chain/scale"
	"github.com/weisyn/newsanchor/internal/core/chain/testutil"
)

// Record 写入 ArticleByHash 的字段
type Record struct {
	Title         string
	CanonicalURL  string
	Publisher     chain.AccountID
	CollectionID  uint64
	ItemID        uint64
	ContentHash   []byte
	Signature     []byte // sr25519 64 字节
	HashAlgo      uint8
	WordCount     uint32
	LastUpdatedAt uint32
	Updates       uint32
}

// Encode 按 ArticleByHash 值布局编码
func (r Record) Encode() []byte {
	return scale.NewEncoder().
		PutBytes([]byte(r.Title)).
		PutBytes([]byte(r.CanonicalURL)).
		PutRaw(r.Publisher[:]).
		PutUint64(r.CollectionID).
		PutUint64(r.ItemID).
		PutBytes(r.ContentHash).
		PutUint8(1).
		PutRaw(r.Signature).
		PutUint8(r.HashAlgo).
		PutUint32(r.WordCount).
		PutUint32(r.LastUpdatedAt).
		PutUint32(r.Updates).
		Bytes()
}

// Seed 直接写入一条记录
func Seed(w interface{ Put(key, value []byte) }, r Record) {
	w.Put(article.ArticleByHashKey(r.ContentHash), r.Encode())
}

// Install 在 EduChain 模拟器上注册 News.record_article
//
// 发布者取 Runtime 的发起账户；同一哈希再次记录时 updates 加一。
func Install(conn *testutil.MockConnection, chains *chainconfig.Config) *testutil.Runtime {
	rt := testutil.NewRuntime(conn, chains)
	rt.Handle(chainconfig.CallNewsRecordArticle, func(rt *testutil.Runtime, tx *testutil.Overlay, args *scale.Decoder) error {
		var rec Record
		var err error
		if rec.CollectionID, err = args.ReadUint64(); err != nil {
			return err
		}
		if rec.ItemID, err = args.ReadUint64(); err != nil {
			return err
		}
		if rec.ContentHash, err = args.ReadBytes(); err != nil {
			return err
		}
		if _, err = args.ReadUint8(); err != nil {
			return err
		}
		if rec.Signature, err = args.ReadFixed(64); err != nil {
			return err
		}
		if rec.HashAlgo, err = args.ReadUint8(); err != nil {
			return err
		}
		if rec.WordCount, err = args.ReadUint32(); err != nil {
			return err
		}
		title, err := args.ReadBytes()
		if err != nil {
			return err
		}
		url, err := args.ReadBytes()
		if err != nil {
			return err
		}
		rec.Title, rec.CanonicalURL = string(title), string(url)
		rec.Publisher = rt.Origin()

		head, err := conn.FinalizedHead(context.Background())
		if err != nil {
			return err
		}
		rec.LastUpdatedAt = uint32(head.Number)

		key := article.ArticleByHashKey(rec.ContentHash)
		if prev := tx.Get(key); prev != nil {
			old, err := article.DecodeRecord(prev)
			if err != nil {
				return err
			}
			rec.Updates = old.Updates + 1
		}
		tx.Put(key, rec.Encode())
		return nil
	})
	return rt
}
