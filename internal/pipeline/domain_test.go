package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"datamesh/internal/entity"
)

func TestInferDomain(t *testing.T) {
	tests := []struct {
		name   string
		entity *entity.Entity
		want   string
	}{
		{
			name:   "metadata annotation wins",
			entity: &entity.Entity{Metadata: map[string]string{"domain": "Sales"}, Source: "crm.contacts"},
			want:   "Sales",
		},
		{
			name:   "first source segment",
			entity: &entity.Entity{Source: "billing.invoices.v2"},
			want:   "billing",
		},
		{
			name:   "source without dots",
			entity: &entity.Entity{Source: "billing"},
			want:   "billing",
		},
		{
			name:   "no signals",
			entity: &entity.Entity{},
			want:   "Unknown",
		},
		{
			name:   "blank metadata falls through",
			entity: &entity.Entity{Metadata: map[string]string{"domain": "  "}, Source: "crm.contacts"},
			want:   "crm",
		},
		{
			name:   "degenerate source",
			entity: &entity.Entity{Source: ".invoices"},
			want:   "Unknown",
		},
		{
			name:   "nil entity",
			entity: nil,
			want:   "Unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InferDomain(tt.entity))
		})
	}
}
