package model

import "encoding/json"

// 注文明細のカスタマイズ（選択された追加のID一覧）。
// 保存時は必ずこの正規形（adicionaisIdsキー）で直列化する。
type Customizations struct {
	AdicionaisIDs []int64 `json:"adicionaisIds"`
}

// 旧データは adicionais キーで保存されていた時期がある
type customizationsWire struct {
	AdicionaisIDs []int64 `json:"adicionaisIds"`
	Adicionais    []int64 `json:"adicionais"`
}

// ParseCustomizations は新旧どちらの形でも受け付けて正規形に直す。
// adicionaisIds を優先し、無ければ adicionais を見る。空/nullは「追加なし」。
func ParseCustomizations(raw string) (Customizations, error) {
	if raw == "" || raw == "null" {
		return Customizations{}, nil
	}

	var wire customizationsWire
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return Customizations{}, err
	}

	if len(wire.AdicionaisIDs) > 0 {
		return Customizations{AdicionaisIDs: wire.AdicionaisIDs}, nil
	}
	if len(wire.Adicionais) > 0 {
		return Customizations{AdicionaisIDs: wire.Adicionais}, nil
	}
	return Customizations{}, nil
}

// Encode は正規形のJSON文字列を返す。追加なしは空文字。
func (c Customizations) Encode() (string, error) {
	if len(c.AdicionaisIDs) == 0 {
		return "", nil
	}
	b, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
