package score

// ImageAssets names the image pair of one category
type ImageAssets struct {
	High string `yaml:"high" json:"high"`
	Low  string `yaml:"low" json:"low"`
}

// ImageTable maps categories to their published average total and images
type ImageTable struct {
	Averages map[string]float64
	Images   map[string]ImageAssets
}

// DefaultImageTable returns the published per-category averages
func DefaultImageTable() ImageTable {
	return ImageTable{
		Averages: map[string]float64{
			"家屋":     29.15,
			"情報":     13.25,
			"コミュニティ": 15.90,
			"お金":     7.95,
			"家族":     21.20,
			"その他":    5.30,
		},
		Images: map[string]ImageAssets{
			"家屋":     {High: "residence_high.webp", Low: "residence_low.webp"},
			"情報":     {High: "information_high.webp", Low: "information_low.webp"},
			"コミュニティ": {High: "community_high.webp", Low: "community_low.webp"},
			"お金":     {High: "money_high.webp", Low: "money_low.webp"},
			"家族":     {High: "family_high.webp", Low: "family_low.webp"},
			"その他":    {High: "etc_high.webp", Low: "etc_low.webp"},
		},
	}
}

// ImageName returns the high image when score is at or above the category
// average, the low image otherwise. Unknown categories yield "".
func (t ImageTable) ImageName(category string, score float64) string {
	assets, ok := t.Images[category]
	if !ok {
		return ""
	}
	threshold, ok := t.Averages[category]
	if !ok {
		return ""
	}
	if score >= threshold {
		return assets.High
	}
	return assets.Low
}
