package milvus

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/printkb/backend/internal/search"
)

func TestBuildFilterExpr(t *testing.T) {
	tests := []struct {
		name    string
		filters search.Filters
		want    string
	}{
		{
			name:    "empty filters",
			filters: search.Filters{},
			want:    "",
		},
		{
			name:    "problem type only",
			filters: search.Filters{ProblemType: "stringing"},
			want:    `problem_type == "stringing"`,
		},
		{
			name:    "single printer model",
			filters: search.Filters{PrinterModels: []string{"Ender 3"}},
			want:    `json_contains(printer_models, "Ender 3")`,
		},
		{
			name:    "multiple models ORed",
			filters: search.Filters{PrinterModels: []string{"Ender 3", "MK4"}},
			want:    `(json_contains(printer_models, "Ender 3") || json_contains(printer_models, "MK4"))`,
		},
		{
			name: "dimensions ANDed",
			filters: search.Filters{
				ProblemType: "warping",
				Materials:   []string{"ABS"},
			},
			want: `problem_type == "warping" && json_contains(materials, "ABS")`,
		},
		{
			name:    "quotes escaped",
			filters: search.Filters{ProblemType: `string"ing`},
			want:    `problem_type == "string\"ing"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, buildFilterExpr(tt.filters))
		})
	}
}

func TestClampScore(t *testing.T) {
	assert.Equal(t, 0.0, clampScore(-0.2))
	assert.Equal(t, 1.0, clampScore(1.3))
	assert.Equal(t, 0.75, clampScore(0.75))
}
