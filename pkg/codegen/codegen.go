package codegen

import (
	"context"
	"crypto/rand"
	"errors"
	"io"
	"math/big"
)

// 字母表
const (
	HexUpper    = "0123456789ABCDEF"
	Base36Upper = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// ErrExhausted 重试次数用尽仍未生成不冲突的码
var ErrExhausted = errors.New("code generation exhausted")

// ExistsFunc 检查码是否已被占用
type ExistsFunc func(ctx context.Context, code string) (bool, error)

// Generator 一次性码生成器，按字母表与长度参数化
type Generator struct {
	alphabet    string
	length      int
	maxAttempts int
	rand        io.Reader
}

// New 创建生成器；maxAttempts <= 0 时按 1 次处理
func New(alphabet string, length, maxAttempts int) *Generator {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return &Generator{
		alphabet:    alphabet,
		length:      length,
		maxAttempts: maxAttempts,
		rand:        rand.Reader,
	}
}

// NewSignup 学生注册码：8 位大写十六进制
func NewSignup(maxAttempts int) *Generator {
	return New(HexUpper, 8, maxAttempts)
}

// NewShort 教职工 / 导师 / 活动码：6 位大写 base36
func NewShort(maxAttempts int) *Generator {
	return New(Base36Upper, 6, maxAttempts)
}

// WithReader 替换随机源（测试用）
func (g *Generator) WithReader(r io.Reader) *Generator {
	cp := *g
	cp.rand = r
	return &cp
}

// Length 码长度
func (g *Generator) Length() int { return g.length }

// Generate 生成一个随机码，不做唯一性检查
func (g *Generator) Generate() (string, error) {
	max := big.NewInt(int64(len(g.alphabet)))
	buf := make([]byte, g.length)
	for i := range buf {
		n, err := rand.Int(g.rand, max)
		if err != nil {
			return "", err
		}
		buf[i] = g.alphabet[n.Int64()]
	}
	return string(buf), nil
}

// GenerateUnique 生成在 exists 视角下未被占用的码，最多尝试 maxAttempts 次
func (g *Generator) GenerateUnique(ctx context.Context, exists ExistsFunc) (string, error) {
	for i := 0; i < g.maxAttempts; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		code, err := g.Generate()
		if err != nil {
			return "", err
		}
		taken, err := exists(ctx, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
	return "", ErrExhausted
}
