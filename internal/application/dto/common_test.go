package dto_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/pos-inventory/internal/application/dto"
)

func TestPageRequest_DefaultPage(t *testing.T) {
	cases := []struct {
		name       string
		in         dto.PageRequest
		wantLimit  int
		wantOffset int
	}{
		{"cero toma el valor por defecto", dto.PageRequest{}, 50, 0},
		{"sobre el tope vuelve al defecto", dto.PageRequest{Limit: 500}, 50, 0},
		{"negativo se normaliza", dto.PageRequest{Limit: -1, Offset: -10}, 50, 0},
		{"valores válidos se conservan", dto.PageRequest{Limit: 25, Offset: 75}, 25, 75},
		{"el tope exacto es válido", dto.PageRequest{Limit: 200}, 200, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.in.DefaultPage()
			assert.Equal(t, tc.wantLimit, tc.in.Limit)
			assert.Equal(t, tc.wantOffset, tc.in.Offset)
		})
	}
}
