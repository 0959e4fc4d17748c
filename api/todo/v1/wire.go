package todov1

import (
	"errors"
	"unicode/utf8"

	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers from todo.proto.
const (
	todoIDField          protowire.Number = 1
	todoTitleField       protowire.Number = 2
	todoDescriptionField protowire.Number = 3
	todoCompletedField   protowire.Number = 4

	todosField protowire.Number = 1

	createTitleField       protowire.Number = 1
	createDescriptionField protowire.Number = 2

	idField      protowire.Number = 1
	successField protowire.Number = 1
)

var errInvalidUTF8 = errors.New("string field contains invalid UTF-8")

// appendString and appendBool skip proto3 default values.
func appendString(b []byte, num protowire.Number, v string) []byte {
	if v == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

func appendBool(b []byte, num protowire.Number, v bool) []byte {
	if !v {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, protowire.EncodeBool(v))
}

// walkFields calls visit for every field in b. visit returns the number of
// bytes it consumed; zero means the field is unknown and is skipped.
func walkFields(b []byte, visit func(num protowire.Number, typ protowire.Type, b []byte) (int, error)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		n, err := visit(num, typ, b)
		if err != nil {
			return err
		}
		if n == 0 {
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
	}
	return nil
}

// A field whose wire type does not match is treated as unknown.
func consumeString(typ protowire.Type, b []byte, dst *string) (int, error) {
	if typ != protowire.BytesType {
		return 0, nil
	}
	v, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return n, nil
	}
	if !utf8.Valid(v) {
		return 0, errInvalidUTF8
	}
	*dst = string(v)
	return n, nil
}

func consumeBool(typ protowire.Type, b []byte, dst *bool) (int, error) {
	if typ != protowire.VarintType {
		return 0, nil
	}
	v, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return n, nil
	}
	*dst = protowire.DecodeBool(v)
	return n, nil
}

func (x *Todo) appendWire(b []byte) []byte {
	b = appendString(b, todoIDField, x.GetId())
	b = appendString(b, todoTitleField, x.GetTitle())
	b = appendString(b, todoDescriptionField, x.GetDescription())
	return appendBool(b, todoCompletedField, x.GetCompleted())
}

func (x *Todo) unmarshalWire(b []byte) error {
	*x = Todo{}
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case todoIDField:
			return consumeString(typ, b, &x.Id)
		case todoTitleField:
			return consumeString(typ, b, &x.Title)
		case todoDescriptionField:
			return consumeString(typ, b, &x.Description)
		case todoCompletedField:
			return consumeBool(typ, b, &x.Completed)
		}
		return 0, nil
	})
}

func (x *GetTodosRequest) appendWire(b []byte) []byte { return b }

func (x *GetTodosRequest) unmarshalWire(b []byte) error {
	return walkFields(b, func(protowire.Number, protowire.Type, []byte) (int, error) { return 0, nil })
}

func (x *GetTodosResponse) appendWire(b []byte) []byte {
	for _, todo := range x.GetTodos() {
		b = protowire.AppendTag(b, todosField, protowire.BytesType)
		b = protowire.AppendBytes(b, todo.appendWire(nil))
	}
	return b
}

func (x *GetTodosResponse) unmarshalWire(b []byte) error {
	*x = GetTodosResponse{}
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != todosField || typ != protowire.BytesType {
			return 0, nil
		}
		v, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return n, nil
		}
		todo := &Todo{}
		if err := todo.unmarshalWire(v); err != nil {
			return 0, err
		}
		x.Todos = append(x.Todos, todo)
		return n, nil
	})
}

func (x *CreateTodoRequest) appendWire(b []byte) []byte {
	b = appendString(b, createTitleField, x.GetTitle())
	return appendString(b, createDescriptionField, x.GetDescription())
}

func (x *CreateTodoRequest) unmarshalWire(b []byte) error {
	*x = CreateTodoRequest{}
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case createTitleField:
			return consumeString(typ, b, &x.Title)
		case createDescriptionField:
			return consumeString(typ, b, &x.Description)
		}
		return 0, nil
	})
}

// UpdateTodoRequest shares Todo's field numbers.
func (x *UpdateTodoRequest) appendWire(b []byte) []byte {
	b = appendString(b, todoIDField, x.GetId())
	b = appendString(b, todoTitleField, x.GetTitle())
	b = appendString(b, todoDescriptionField, x.GetDescription())
	return appendBool(b, todoCompletedField, x.GetCompleted())
}

func (x *UpdateTodoRequest) unmarshalWire(b []byte) error {
	*x = UpdateTodoRequest{}
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case todoIDField:
			return consumeString(typ, b, &x.Id)
		case todoTitleField:
			return consumeString(typ, b, &x.Title)
		case todoDescriptionField:
			return consumeString(typ, b, &x.Description)
		case todoCompletedField:
			return consumeBool(typ, b, &x.Completed)
		}
		return 0, nil
	})
}

func (x *DeleteTodoRequest) appendWire(b []byte) []byte {
	return appendString(b, idField, x.GetId())
}

func (x *DeleteTodoRequest) unmarshalWire(b []byte) error {
	*x = DeleteTodoRequest{}
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num == idField {
			return consumeString(typ, b, &x.Id)
		}
		return 0, nil
	})
}

func (x *DeleteTodoResponse) appendWire(b []byte) []byte {
	return appendBool(b, successField, x.GetSuccess())
}

func (x *DeleteTodoResponse) unmarshalWire(b []byte) error {
	*x = DeleteTodoResponse{}
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num == successField {
			return consumeBool(typ, b, &x.Success)
		}
		return 0, nil
	})
}
