package remote

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// decodePrizes 解析獎品目錄。遠端服務可能回傳陣列、依鍵排列的物件，
// 或是以 data/prizes 包住其中之一；物件形式依鍵在文件中的順序排列。
func decodePrizes(body []byte) ([]wirePrize, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, errors.New("empty prize response")
	}

	switch body[0] {
	case '[':
		var prizes []wirePrize
		if err := json.Unmarshal(body, &prizes); err != nil {
			return nil, fmt.Errorf("decode prize list: %w", err)
		}
		return prizes, nil
	case '{':
		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(body, &envelope); err != nil {
			return nil, fmt.Errorf("decode prize object: %w", err)
		}
		for _, key := range []string{"data", "prizes"} {
			if inner, ok := envelope[key]; ok && len(envelope) <= 3 && isContainer(inner) {
				return decodePrizes(inner)
			}
		}
		return decodeKeyed(body)
	default:
		return nil, fmt.Errorf("unexpected prize response starting with %q", body[0])
	}
}

// decodeKeyed 逐一讀取物件的鍵值，保留鍵在文件中的順序。
func decodeKeyed(body []byte) ([]wirePrize, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("decode keyed prizes: %w", err)
	}

	var prizes []wirePrize
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("decode prize key: %w", err)
		}
		key, _ := tok.(string)

		var p wirePrize
		if err := dec.Decode(&p); err != nil {
			return nil, fmt.Errorf("decode prize %q: %w", key, err)
		}
		if p.ID == "" && p.MongoID == "" {
			p.ID = key
		}
		prizes = append(prizes, p)
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("decode keyed prizes: %w", err)
	}
	return prizes, nil
}

func isContainer(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && (raw[0] == '[' || raw[0] == '{')
}
