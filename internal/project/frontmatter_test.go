package project

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractFrontmatter(t *testing.T) {
	content := `/*---
name: stg_orders
materialized: table
schema: staging
unique_key: order_id
tags: [staging, daily]
description: Cleaned orders
---*/
SELECT * FROM raw_orders`

	result, err := ExtractFrontmatter(content)
	require.NoError(t, err)

	assert.True(t, result.HasYAML)
	assert.Equal(t, "stg_orders", result.Config.Name)
	assert.Equal(t, "table", result.Config.Materialized)
	assert.Equal(t, "staging", result.Config.Schema)
	assert.Equal(t, "order_id", result.Config.UniqueKey)
	assert.Equal(t, []string{"staging", "daily"}, result.Config.Tags)
	assert.Equal(t, "SELECT * FROM raw_orders", result.SQL)
}

func TestExtractFrontmatter_NoBlock(t *testing.T) {
	result, err := ExtractFrontmatter("SELECT 1")
	require.NoError(t, err)

	assert.False(t, result.HasYAML)
	assert.Equal(t, "SELECT 1", result.SQL)
	assert.Empty(t, result.Config.Name)
}

func TestExtractFrontmatter_UnknownField(t *testing.T) {
	content := `/*---
name: x
materialised: table
---*/
SELECT 1`

	_, err := ExtractFrontmatter(content)
	require.Error(t, err)

	var fieldErr *UnknownFieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "materialised", fieldErr.Field)
}

func TestExtractFrontmatter_MetaAllowsCustomFields(t *testing.T) {
	content := `/*---
name: x
meta:
  team: analytics
---*/
SELECT 1`

	result, err := ExtractFrontmatter(content)
	require.NoError(t, err)
	assert.Equal(t, "analytics", result.Config.Meta["team"])
}

func TestExtractFrontmatter_InvalidMaterialized(t *testing.T) {
	content := `/*---
materialized: materialized_view
---*/
SELECT 1`

	_, err := ExtractFrontmatter(content)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid materialized value")
}

func TestExtractFrontmatter_InvalidYAML(t *testing.T) {
	content := `/*---
name: [unclosed
---*/
SELECT 1`

	_, err := ExtractFrontmatter(content)
	require.Error(t, err)

	var fmErr *FrontmatterError
	assert.ErrorAs(t, err, &fmErr)
}

func TestApplyDefaults(t *testing.T) {
	tests := []struct {
		name         string
		config       Frontmatter
		filename     string
		dirPath      string
		projectMat   string
		wantName     string
		wantMat      string
		wantSchema   string
	}{
		{
			name:       "all defaults",
			filename:   "nodes/staging/stg_orders.sql",
			dirPath:    "staging",
			wantName:   "stg_orders",
			wantMat:    "view",
			wantSchema: "staging",
		},
		{
			name:       "project default materialization",
			filename:   "nodes/a.sql",
			projectMat: "table",
			wantName:   "a",
			wantMat:    "table",
		},
		{
			name:       "declared values win",
			config:     Frontmatter{Name: "custom", Materialized: "incremental", Schema: "marts"},
			filename:   "nodes/a.sql",
			dirPath:    "staging",
			projectMat: "table",
			wantName:   "custom",
			wantMat:    "incremental",
			wantSchema: "marts",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.config
			cfg.ApplyDefaults(tt.filename, tt.dirPath, tt.projectMat)
			assert.Equal(t, tt.wantName, cfg.Name)
			assert.Equal(t, tt.wantMat, cfg.Materialized)
			assert.Equal(t, tt.wantSchema, cfg.Schema)
		})
	}
}
