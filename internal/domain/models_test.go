package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		input   string
		want    Status
		wantErr bool
	}{
		{"", StatusDraft, false},
		{"Draft", StatusDraft, false},
		{"Reviewed", StatusReviewed, false},
		{"Approved", StatusApproved, false},
		{"approved", "", true},
		{"Published", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseStatus(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRole(t *testing.T) {
	for _, r := range AllRoles {
		got, err := ParseRole(string(r))
		require.NoError(t, err)
		assert.Equal(t, r, got)
	}

	_, err := ParseRole("superuser")
	assert.Error(t, err)
}

func TestID_UnmarshalJSON(t *testing.T) {
	var p struct {
		ID ID `json:"id"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"id": 42}`), &p))
	assert.Equal(t, ID("42"), p.ID)

	require.NoError(t, json.Unmarshal([]byte(`{"id": "6f1c0c8e-1b7a-4f0e-9d1e-5b7e2f0a9c11"}`), &p))
	assert.Equal(t, ID("6f1c0c8e-1b7a-4f0e-9d1e-5b7e2f0a9c11"), p.ID)

	require.NoError(t, json.Unmarshal([]byte(`{"id": null}`), &p))
	assert.Equal(t, ID(""), p.ID)

	assert.Error(t, json.Unmarshal([]byte(`{"id": true}`), &p))
}

func TestProjectRow_Translations(t *testing.T) {
	var row ProjectRow

	row.SetTranslation("zh-TW", "你好")
	row.SetTranslation("ja-JP", "")
	row.SetTranslation("fr-FR", "Bonjour")

	require.NotNil(t, row.Translation("zh-TW"))
	assert.Equal(t, "你好", *row.Translation("zh-TW"))
	assert.Nil(t, row.Translation("ja-JP"))
	assert.Nil(t, row.Translation("fr-FR"))

	data, err := json.Marshal(row)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"zh_tw":"你好"`)
	assert.Contains(t, string(data), `"ja_jp":null`)
}

func TestStatus_IsReviewed(t *testing.T) {
	assert.False(t, StatusDraft.IsReviewed())
	assert.True(t, StatusReviewed.IsReviewed())
	assert.True(t, StatusApproved.IsReviewed())
}
