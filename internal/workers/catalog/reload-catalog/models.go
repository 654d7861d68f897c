// internal/workers/catalog/reload-catalog/models.go
package reloadcatalog

type Input struct {
	ReloadDictionary bool `json:"reloadDictionary"`
}

type Output struct {
	CatalogVersion     uint64 `json:"catalogVersion"`
	CatalogEntries     int    `json:"catalogEntries"`
	CatalogSource      string `json:"catalogSource"`
	LoadedAt           string `json:"loadedAt"`
	DictionaryReloaded bool   `json:"dictionaryReloaded"`
}
