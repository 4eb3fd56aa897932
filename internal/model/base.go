package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ── JSONB 活动条目自定义类型 ──

// ActivityEntry 日志表中的一条 (活动, 工时)
type ActivityEntry struct {
	Activity string  `json:"activity"`
	Hours    float64 `json:"hours"`
}

// ActivityEntries 对应 PostgreSQL JSONB 列，实现 GORM Scanner/Valuer 接口。
type ActivityEntries []ActivityEntry

// Scan 将数据库返回的 JSON 文本解析为 []ActivityEntry。
func (a *ActivityEntries) Scan(src interface{}) error {
	if src == nil {
		*a = ActivityEntries{}
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("ActivityEntries.Scan: unsupported type %T", src)
	}
	if len(raw) == 0 {
		*a = ActivityEntries{}
		return nil
	}
	var out ActivityEntries
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("ActivityEntries.Scan: %w", err)
	}
	*a = out
	return nil
}

// Value 将 []ActivityEntry 序列化为 JSON 文本。
func (a ActivityEntries) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]ActivityEntry(a))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// TotalHours 工时合计
func (a ActivityEntries) TotalHours() float64 {
	var sum float64
	for _, e := range a {
		sum += e.Hours
	}
	return sum
}

// BaseModel 通用审计字段（所有业务模型嵌入）
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// [自证通过] internal/model/base.go
