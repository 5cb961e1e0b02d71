package models

// Brand представляет производителя, объединяющего товары
type Brand struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
