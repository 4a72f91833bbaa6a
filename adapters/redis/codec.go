package redis

import (
	"encoding/base64"
	"errors"
	"fmt"
	"reflect"

	"github.com/vmihailenco/msgpack/v5"
)

// 訊息在 stream entry 中存放的欄位名稱
const payloadField = "data"

var (
	ErrPointerType     = errors.New("pointer type is not allowed")
	ErrPayloadNotFound = errors.New("payload field not found or invalid type")
)

func isPointer[T any]() bool {
	t := reflect.TypeFor[T]()
	return t != nil && t.Kind() == reflect.Pointer
}

// Encode 以 msgpack 序列化資料，並以 base64 存放在 stream entry 的 data 欄位
func Encode[T any](data T) (map[string]any, error) {
	if isPointer[T]() {
		return nil, ErrPointerType
	}

	bytes, err := msgpack.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("msgpack marshal error: %w", err)
	}
	return map[string]any{
		payloadField: base64.StdEncoding.EncodeToString(bytes),
	}, nil
}

// Decode 是 Encode 的反向操作
func Decode[T any](values map[string]any) (T, error) {
	var result T
	if isPointer[T]() {
		return result, ErrPointerType
	}

	encoded, ok := values[payloadField].(string)
	if !ok {
		return result, ErrPayloadNotFound
	}
	bytes, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return result, fmt.Errorf("base64 decode error: %w", err)
	}
	if err := msgpack.Unmarshal(bytes, &result); err != nil {
		return result, fmt.Errorf("msgpack unmarshal error: %w", err)
	}
	return result, nil
}
