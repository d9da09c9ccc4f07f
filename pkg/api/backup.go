package api

import "encoding/json"

// ExportRequest представляет запрос на экспорт резервной копии.
// С непустым password копия восстановима на любом хранилище;
// без него - только той же мастер-фразой.
type ExportRequest struct {
	Password string `json:"password,omitempty"` // 12-128 символов, если задан
}

// ImportRequest представляет запрос preview или apply импорта
type ImportRequest struct {
	Bundle   json.RawMessage `json:"bundle"`             // конверт формата localvault/backup/v1
	Password string          `json:"password,omitempty"` // пароль экспорта, если копия защищена
}

// MergeReport представляет результат слияния (или его сухого прогона)
type MergeReport struct {
	Add    []string `json:"add"`    // id записей, которых не было локально
	Update []string `json:"update"` // id записей, перезаписанных по last-write-wins
	Skip   []string `json:"skip"`   // id записей, где локальная версия не старее
	Failed []string `json:"failed"` // id записей, не прошедших расшифровку
}
