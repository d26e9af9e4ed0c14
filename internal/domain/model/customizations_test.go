package model_test

import (
	"testing"

	"app/internal/domain/model"

	"github.com/stretchr/testify/assert"
)

func TestParseCustomizations_NewKey(t *testing.T) {
	c, err := model.ParseCustomizations(`{"adicionaisIds":[1,2,3]}`)
	assert.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, c.AdicionaisIDs)
}

func TestParseCustomizations_LegacyKey(t *testing.T) {
	c, err := model.ParseCustomizations(`{"adicionais":[4,5]}`)
	assert.NoError(t, err)
	assert.Equal(t, []int64{4, 5}, c.AdicionaisIDs)
}

// 両方のキーがあるときは新キーを優先する
func TestParseCustomizations_NewKeyWins(t *testing.T) {
	c, err := model.ParseCustomizations(`{"adicionaisIds":[1],"adicionais":[9,9]}`)
	assert.NoError(t, err)
	assert.Equal(t, []int64{1}, c.AdicionaisIDs)
}

func TestParseCustomizations_EmptyAndNull(t *testing.T) {
	for _, raw := range []string{"", "null", "{}", `{"adicionaisIds":[]}`} {
		c, err := model.ParseCustomizations(raw)
		assert.NoError(t, err, "raw=%q", raw)
		assert.Empty(t, c.AdicionaisIDs, "raw=%q", raw)
	}
}

func TestParseCustomizations_BrokenJSON(t *testing.T) {
	_, err := model.ParseCustomizations(`{"adicionaisIds":[1`)
	assert.Error(t, err)
}

func TestCustomizations_EncodeCanonicalForm(t *testing.T) {
	s, err := model.Customizations{AdicionaisIDs: []int64{1, 2}}.Encode()
	assert.NoError(t, err)
	assert.Equal(t, `{"adicionaisIds":[1,2]}`, s)
}

func TestCustomizations_EncodeEmptyIsEmptyString(t *testing.T) {
	s, err := model.Customizations{}.Encode()
	assert.NoError(t, err)
	assert.Equal(t, "", s)
}

// 旧形式を読み込んでも書き戻しは正規形になる
func TestCustomizations_LegacyRoundTripNormalizes(t *testing.T) {
	c, err := model.ParseCustomizations(`{"adicionais":[7]}`)
	assert.NoError(t, err)

	s, err := c.Encode()
	assert.NoError(t, err)
	assert.Equal(t, `{"adicionaisIds":[7]}`, s)
}
