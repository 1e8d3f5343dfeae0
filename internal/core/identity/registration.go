package identity

import (
	"fmt"

	"github.com/weisyn/newsanchor/internal/core/chain/scale"
)

// JudgementKind 注册员评级
type JudgementKind string

// 评级种类，顺序即链上枚举下标
const (
	JudgementUnknown    JudgementKind = "Unknown"
	JudgementFeePaid    JudgementKind = "FeePaid"
	JudgementReasonable JudgementKind = "Reasonable"
	JudgementKnownGood  JudgementKind = "KnownGood"
	JudgementOutOfDate  JudgementKind = "OutOfDate"
	JudgementLowQuality JudgementKind = "LowQuality"
	JudgementErroneous  JudgementKind = "Erroneous"
)

var judgementKinds = []JudgementKind{
	JudgementUnknown,
	JudgementFeePaid,
	JudgementReasonable,
	JudgementKnownGood,
	JudgementOutOfDate,
	JudgementLowQuality,
	JudgementErroneous,
}

// Verifying 是否视为已验证
func (k JudgementKind) Verifying() bool {
	return k == JudgementKnownGood || k == JudgementReasonable
}

// Judgement 某个注册员给出的评级
type Judgement struct {
	Registrar uint32        `json:"registrar"`
	Kind      JudgementKind `json:"kind"`
}

// Registration IdentityOf 存储值中用到的部分
type Registration struct {
	Display    string      `json:"display"`
	Judgements []Judgement `json:"judgements"`
}

// Verified 任一评级为 KnownGood 或 Reasonable
func (r *Registration) Verified() bool {
	if r == nil {
		return false
	}
	for _, j := range r.Judgements {
		if j.Kind.Verifying() {
			return true
		}
	}
	return false
}

// decodeRegistration 解码 Registration{judgements, deposit, info{display, ...}}
//
// info 中只读取 display；其后的字段以及部分运行时附带的 Option<Username> 被忽略。
func decodeRegistration(value []byte) (*Registration, error) {
	dec := scale.NewDecoder(value)

	n, err := dec.ReadCompact()
	if err != nil {
		return nil, fmt.Errorf("decode judgements length: %w", err)
	}
	reg := &Registration{Judgements: make([]Judgement, 0, n)}
	for i := uint64(0); i < n; i++ {
		registrar, err := dec.ReadUint32()
		if err != nil {
			return nil, fmt.Errorf("decode registrar index: %w", err)
		}
		tag, err := dec.ReadUint8()
		if err != nil {
			return nil, fmt.Errorf("decode judgement: %w", err)
		}
		if int(tag) >= len(judgementKinds) {
			return nil, fmt.Errorf("unknown judgement variant %d", tag)
		}
		kind := judgementKinds[tag]
		if kind == JudgementFeePaid {
			if _, err := dec.ReadUint128(); err != nil {
				return nil, fmt.Errorf("decode fee: %w", err)
			}
		}
		reg.Judgements = append(reg.Judgements, Judgement{Registrar: registrar, Kind: kind})
	}

	if _, err := dec.ReadUint128(); err != nil {
		return nil, fmt.Errorf("decode deposit: %w", err)
	}

	display, err := decodeData(dec)
	if err != nil {
		return nil, fmt.Errorf("decode display: %w", err)
	}
	reg.Display = display
	return reg, nil
}

// decodeData 解码 Data 枚举：None、Raw(0..=32)、四种 32 字节哈希；哈希变体返回空串
func decodeData(dec *scale.Decoder) (string, error) {
	tag, err := dec.ReadUint8()
	if err != nil {
		return "", err
	}
	switch {
	case tag == 0:
		return "", nil
	case tag <= 33:
		raw, err := dec.ReadFixed(int(tag) - 1)
		if err != nil {
			return "", err
		}
		return string(raw), nil
	case tag <= 37:
		return "", dec.Skip(32)
	}
	return "", fmt.Errorf("unknown data variant %d", tag)
}
