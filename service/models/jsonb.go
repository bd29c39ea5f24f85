package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// JSONB 通用 JSON 类型，用于 gorm 持久化结构化载荷
type JSONB map[string]interface{}

// JSONBStringArray 用于存储字符串数组的 JSONB 类型
type JSONBStringArray []string

// 实现 Scanner 接口
func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("类型断言失败: 不是 []byte 或 string")
	}
	return json.Unmarshal(bytes, j)
}

// 实现 Valuer 接口
func (j JSONB) Value() (driver.Value, error) {
	return json.Marshal(j)
}

// JSONBStringArray 的 Scanner 接口实现
func (j *JSONBStringArray) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("类型断言失败: 不是 []byte 或 string")
	}
	return json.Unmarshal(bytes, j)
}

// JSONBStringArray 的 Valuer 接口实现
func (j JSONBStringArray) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// ToJSONB 将任意可序列化结构转换为 JSONB
func ToJSONB(v interface{}) (JSONB, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out JSONB
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
