package inspect

import (
	"reflect"
	"sync"
)

// FieldInfo describes an exported field of a component struct.
type FieldInfo struct {
	Name      string
	Type      reflect.Type
	Index     int
	IsPointer bool
}

type fieldCache struct {
	mu     sync.RWMutex
	fields map[reflect.Type][]FieldInfo
}

var fields = &fieldCache{fields: make(map[reflect.Type][]FieldInfo)}

// Fields returns the exported fields of t in declaration order. Pointer
// fields report their element type. Non-struct types have no fields.
func Fields(t reflect.Type) []FieldInfo {
	return fields.get(t)
}

func (fc *fieldCache) get(t reflect.Type) []FieldInfo {
	fc.mu.RLock()
	cached, ok := fc.fields[t]
	fc.mu.RUnlock()
	if ok {
		return cached
	}

	fc.mu.Lock()
	defer fc.mu.Unlock()

	if cached, ok := fc.fields[t]; ok {
		return cached
	}

	var infos []FieldInfo
	if t.Kind() == reflect.Struct {
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if !field.IsExported() {
				continue
			}

			fieldType := field.Type
			isPointer := fieldType.Kind() == reflect.Pointer
			if isPointer {
				fieldType = fieldType.Elem()
			}

			infos = append(infos, FieldInfo{
				Name:      field.Name,
				Type:      fieldType,
				Index:     i,
				IsPointer: isPointer,
			})
		}
	}

	fc.fields[t] = infos
	return infos
}
