package inspect

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"

	"github.com/plus3/ignite/ecs"
)

var (
	// ErrNoComponent is returned when a node lacks the named component.
	ErrNoComponent = errors.New("inspect: no such component")
	// ErrNoField is returned when a field path does not resolve.
	ErrNoField = errors.New("inspect: no such field")
	// ErrUnsupportedField is returned for fields SetField cannot parse into.
	ErrUnsupportedField = errors.New("inspect: unsupported field type")
)

// WriteNode writes a node's header line followed by every component and
// its exported fields, nested structs indented below their field.
func WriteNode(w io.Writer, n *ecs.Node) error {
	var b strings.Builder

	state := "enabled"
	switch {
	case n.IsDestroyed():
		state = "destroyed"
	case n.IsPendingDestroy():
		state = "destroying"
	case !n.IsEnabled():
		state = "disabled"
	}
	fmt.Fprintf(&b, "node %d %q %s", n.ID(), n.Name(), state)
	if parent := n.Parent(); parent != nil {
		fmt.Fprintf(&b, " parent=%d", parent.ID())
	}
	fmt.Fprintf(&b, " children=%d\n", n.ChildCount())

	registry := n.World().Registry()
	for _, index := range n.ComponentIndices() {
		component, _ := n.TryGetComponent(index)
		val := reflect.ValueOf(component)
		if val.Kind() == reflect.Pointer {
			val = val.Elem()
		}

		name := componentName(registry.TypeOf(index))
		if val.Kind() != reflect.Struct {
			fmt.Fprintf(&b, "  %s: %s\n", name, formatScalar(val))
			continue
		}
		fmt.Fprintf(&b, "  %s\n", name)
		writeFields(&b, val, 2)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeFields(b *strings.Builder, val reflect.Value, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, field := range Fields(val.Type()) {
		fieldVal := val.Field(field.Index)
		if field.IsPointer {
			if fieldVal.IsNil() {
				fmt.Fprintf(b, "%s%s: nil\n", indent, field.Name)
				continue
			}
			fieldVal = fieldVal.Elem()
		}

		if fieldVal.Kind() == reflect.Struct && len(Fields(fieldVal.Type())) > 0 {
			fmt.Fprintf(b, "%s%s\n", indent, field.Name)
			writeFields(b, fieldVal, depth+1)
			continue
		}
		fmt.Fprintf(b, "%s%s: %s\n", indent, field.Name, formatScalar(fieldVal))
	}
}

func formatScalar(val reflect.Value) string {
	switch val.Kind() {
	case reflect.Invalid:
		return "<invalid>"
	case reflect.Slice, reflect.Array:
		return fmt.Sprintf("[%d items]", val.Len())
	case reflect.Map:
		return fmt.Sprintf("map[%d items]", val.Len())
	case reflect.String:
		return strconv.Quote(val.String())
	case reflect.Func, reflect.Chan, reflect.Interface, reflect.Pointer:
		if val.IsNil() {
			return "nil"
		}
		return val.Type().String()
	}
	if !val.CanInterface() {
		return val.Type().String()
	}
	return fmt.Sprintf("%v", val.Interface())
}

// SetField parses value into a field of the named component on n and marks
// the component modified. path is a dot separated field path such as
// "Transform.X"; an empty path sets a non-struct component itself.
func SetField(n *ecs.Node, component, path, value string) error {
	registry := n.World().Registry()
	t, ok := registry.TypeByName(component)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoComponent, component)
	}
	index, err := registry.GetIndex(t)
	if err != nil {
		return err
	}
	ptr, ok := n.TryGetComponent(index)
	if !ok {
		return fmt.Errorf("%w: node %d has no %s", ErrNoComponent, n.ID(), component)
	}

	target := reflect.ValueOf(ptr).Elem()
	if path != "" {
		for _, name := range strings.Split(path, ".") {
			if target.Kind() == reflect.Pointer {
				if target.IsNil() {
					return fmt.Errorf("%w: %s.%s is nil", ErrNoField, component, path)
				}
				target = target.Elem()
			}
			if target.Kind() != reflect.Struct {
				return fmt.Errorf("%w: %s.%s", ErrNoField, component, path)
			}
			field, ok := target.Type().FieldByName(name)
			if !ok || !field.IsExported() {
				return fmt.Errorf("%w: %s.%s", ErrNoField, component, path)
			}
			target = target.FieldByIndex(field.Index)
		}
	}
	if target.Kind() == reflect.Pointer {
		if target.IsNil() {
			return fmt.Errorf("%w: %s.%s is nil", ErrNoField, component, path)
		}
		target = target.Elem()
	}

	if err := setValue(target, value); err != nil {
		return fmt.Errorf("set %s.%s: %w", component, path, err)
	}
	n.MarkModified(index)
	return nil
}

func setValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return ErrUnsupportedField
	}

	switch field.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v, err := strconv.ParseInt(value, 10, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetInt(v)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v, err := strconv.ParseUint(value, 10, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetUint(v)

	case reflect.Float32, reflect.Float64:
		v, err := strconv.ParseFloat(value, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetFloat(v)

	case reflect.Bool:
		v, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(v)

	case reflect.String:
		field.SetString(value)

	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedField, field.Type())
	}
	return nil
}

func componentName(t reflect.Type) string {
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}
