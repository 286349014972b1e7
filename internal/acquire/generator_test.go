package acquire

import (
	"testing"

	"github.com/huangsam/barrace/internal/contract"
	"github.com/huangsam/barrace/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRequest() schema.ChunkRequest {
	return schema.ChunkRequest{Topic: "GDP", Entities: []string{"USA", "China"}, StartYear: 2000, EndYear: 2001}
}

func TestParseResponse(t *testing.T) {
	req := testRequest()
	valid := `{"rows":[
		{"year":2000,"values":[{"entity":"USA","value":10},{"entity":"China","value":1.2}],"milestone":""},
		{"year":2001,"values":[{"entity":"USA","value":10.5},{"entity":" China ","value":1.3}],"milestone":" WTO accession "}
	]}`

	t.Run("plain json", func(t *testing.T) {
		rows, err := ParseResponse(valid, req)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, 2000, rows[0].Year)
		assert.Equal(t, 1.3, rows[1].Values["China"])
		assert.Equal(t, "WTO accession", rows[1].Milestone)
	})

	t.Run("fenced json", func(t *testing.T) {
		rows, err := ParseResponse("Here you go:\n```json\n"+valid+"\n```", req)
		require.NoError(t, err)
		assert.Len(t, rows, 2)
	})

	tests := []struct {
		name    string
		content string
	}{
		{"empty", "   "},
		{"no object", "sorry, I cannot help"},
		{"broken object", "{\"rows\": [}"},
		{"missing year", `{"rows":[{"year":2000,"values":[{"entity":"USA","value":1},{"entity":"China","value":1}]}]}`},
		{"missing entity", `{"rows":[{"year":2000,"values":[{"entity":"USA","value":1}]},{"year":2001,"values":[{"entity":"USA","value":1}]}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseResponse(tt.content, req)
			assert.Error(t, err)
		})
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt(testRequest())
	assert.Contains(t, prompt, "Topic: GDP")
	assert.Contains(t, prompt, "2000 to 2001 inclusive (2 rows)")
	assert.Contains(t, prompt, "USA, China")
}

func TestNewOpenAIGenerator(t *testing.T) {
	cfg := &contract.Config{Model: "llama3.1", BaseURL: "http://localhost:11434/v1"}
	gen := NewOpenAIGenerator(cfg)
	assert.Equal(t, "llama3.1", gen.Name())
	assert.NotNil(t, chunkResponseSchema)
}

func TestValidateRows(t *testing.T) {
	req := testRequest()
	row := func(year int, usa, china float64) schema.ChunkRow {
		return schema.ChunkRow{Year: year, Values: map[string]float64{"USA": usa, "China": china}}
	}

	tests := []struct {
		name    string
		rows    []schema.ChunkRow
		wantErr string
	}{
		{"valid", []schema.ChunkRow{row(2000, 1, 2), row(2001, 3, 4)}, ""},
		{"too few rows", []schema.ChunkRow{row(2000, 1, 2)}, "expected 2 rows"},
		{"out of order", []schema.ChunkRow{row(2001, 1, 2), row(2000, 3, 4)}, "expected 2000"},
		{"negative", []schema.ChunkRow{row(2000, -1, 2), row(2001, 3, 4)}, "invalid value"},
		{"missing entity", []schema.ChunkRow{row(2000, 1, 2), {Year: 2001, Values: map[string]float64{"USA": 1}}}, "missing entity"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRows(req, tt.rows)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
