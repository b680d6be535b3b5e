package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
)

var (
	digestOnce sync.Once
	digest     string
)

type resourceRow struct {
	Resource   Resource     `json:"resource"`
	Class      StorageClass `json:"class"`
	UnitVolume int          `json:"unit_volume"`
}

// Digest fingerprints every static table so clients and the index can detect
// catalog drift between server builds.
func Digest() string {
	digestOnce.Do(func() {
		res := make([]resourceRow, 0)
		for _, r := range AllResources() {
			res = append(res, resourceRow{Resource: r, Class: Classify(r), UnitVolume: UnitVolume(r)})
		}
		stats := make([]StationaryDef, 0, len(stationaryDefs))
		for _, id := range AllStationaries() {
			stats = append(stats, stationaryDefs[id])
		}
		recipes := make([]RecipeDef, 0, len(recipeDefs))
		for _, id := range RecipeIDs() {
			recipes = append(recipes, recipeDefs[id])
		}
		b, _ := json.Marshal(struct {
			Resources    []resourceRow   `json:"resources"`
			Stationaries []StationaryDef `json:"stationaries"`
			Recipes      []RecipeDef     `json:"recipes"`
		}{res, stats, recipes})
		digest = sha256Hex(b)
	})
	return digest
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
