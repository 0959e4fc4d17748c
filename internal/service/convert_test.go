package service

import (
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	todov1 "github.com/Tomlord1122/todo-grpc/api/todo/v1"
	"github.com/Tomlord1122/todo-grpc/internal/domain"
)

func TestToWire(t *testing.T) {
	got := toWire(domain.Todo{ID: 42, Title: " Title ", Description: "", Completed: true})
	assert.Equal(t, &todov1.Todo{Id: "42", Title: " Title ", Description: "", Completed: true}, got)
}

func TestParseIdentifier(t *testing.T) {
	valid := []struct {
		in   string
		want int64
	}{
		{"1", 1},
		{"999999", 999999},
		{"-5", -5},
		{strconv.FormatInt(math.MaxInt64, 10), math.MaxInt64},
	}
	for _, tt := range valid {
		got, err := parseIdentifier(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	for _, in := range []string{"", "not-a-number", "1.5", " 1", "0x10", "9223372036854775808"} {
		_, err := parseIdentifier(in)
		assert.Equal(t, codes.InvalidArgument, status.Code(err), "id %q", in)
	}
}

func TestIdentifierRoundTrip(t *testing.T) {
	for _, id := range []int64{1, 7, 123456789, math.MaxInt64} {
		parsed, err := parseIdentifier(toWire(domain.Todo{ID: id}).Id)
		require.NoError(t, err)
		assert.Equal(t, id, parsed)
	}
}
